package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	httpapi "github.com/assemble-interior/assemble-go/internal/api/http"
	authhttp "github.com/assemble-interior/assemble-go/internal/auth/http"
	projecthttp "github.com/assemble-interior/assemble-go/internal/projects/http"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Pipeline    httpapi.PipelineProbe
	AuthSvc     authhttp.Service
	ProjectSvc  projecthttp.Service
	MediaDir    string
	MediaPrefix string
	CORSOrigins []string
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(dep.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = dep.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "X-Admin-Id"}
	corsCfg.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Pipeline)
	healthHandler.RegisterRoutes(r)

	if dep.MediaDir != "" {
		r.Static(dep.MediaPrefix, dep.MediaDir)
	}

	api := r.Group("/api")

	authhttp.NewHandler(dep.AuthSvc).Register(api)
	projecthttp.NewHandler(dep.ProjectSvc).Register(api)

	return r
}
