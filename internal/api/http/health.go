package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db,omitempty"`
	Pipeline  string    `json:"pipeline,omitempty"`
}

// PipelineProbe reports whether the generation service is reachable.
// Satisfied by *pipeline.Client.
type PipelineProbe interface {
	Healthy(ctx context.Context) bool
}

type HealthHandler struct {
	serviceName string
	version     string
	db          *pgxpool.Pool
	pipeline    PipelineProbe
}

func NewHealthHandler(serviceName, version string, db *pgxpool.Pool, pipeline PipelineProbe) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		pipeline:    pipeline,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	dbStatus := "disabled"
	if h.db != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.db.Ping(pingCtx); err != nil {
			dbStatus = "down"
		} else {
			dbStatus = "up"
		}
	}

	pipelineStatus := "disabled"
	if h.pipeline != nil {
		if h.pipeline.Healthy(c.Request.Context()) {
			pipelineStatus = "up"
		} else {
			pipelineStatus = "down"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        dbStatus,
		Pipeline:  pipelineStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
