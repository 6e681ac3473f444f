package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/assemble-interior/assemble-go/config"
	authrepo "github.com/assemble-interior/assemble-go/internal/auth/repository"
	authservice "github.com/assemble-interior/assemble-go/internal/auth/service"
	"github.com/assemble-interior/assemble-go/internal/bootstrap"
	cronjob "github.com/assemble-interior/assemble-go/internal/cron"
	"github.com/assemble-interior/assemble-go/internal/database"
	"github.com/assemble-interior/assemble-go/internal/pipeline"
	projectrepo "github.com/assemble-interior/assemble-go/internal/projects/repository"
	projectservice "github.com/assemble-interior/assemble-go/internal/projects/service"
	"github.com/assemble-interior/assemble-go/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.App.Environment)
	defer logger.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	sqlDB, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := database.RunMigrations(sqlDB, migrationsPath, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	pool, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("open pgx pool", zap.Error(err))
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	images, err := storage.NewImageStore(cfg.Media.Dir, cfg.Media.PublicPrefix)
	if err != nil {
		logger.Fatal("open image store", zap.Error(err))
	}

	userRepo := authrepo.NewUserRepository(sqlDB)
	pendingRepo := authrepo.NewPendingRepository(sqlDB)
	authSvc := authservice.NewAuthService(userRepo, pendingRepo, logger)

	pipelineClient := pipeline.NewClient(cfg.Pipeline.BaseURL, logger)
	projRepo := projectrepo.NewProjectRepository(pool)
	statsCache := projectservice.NewStatsCache(rdb)
	projSvc := projectservice.NewProjectService(projRepo, pipelineClient, images, statsCache, logger)

	scheduler := cronjob.NewScheduler(pendingRepo, projSvc)
	scheduler.Start()
	defer scheduler.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "assemble-backend",
		Version:     cfg.App.Version,
		DB:          pool,
		Pipeline:    pipelineClient,
		AuthSvc:     authSvc,
		ProjectSvc:  projSvc,
		MediaDir:    cfg.Media.Dir,
		MediaPrefix: cfg.Media.PublicPrefix,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
