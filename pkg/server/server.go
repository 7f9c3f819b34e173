// Package server exposes the maintenance engine over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	livemem "github.com/soundprediction/go-livemem"
	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/soundprediction/go-livemem/pkg/config"
	"github.com/soundprediction/go-livemem/pkg/server/handlers"
	"github.com/soundprediction/go-livemem/pkg/telemetry"
)

// Server hosts the HTTP surface of the engine.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the router and server. History and cache are optional.
func New(cfg config.ServerConfig, engine livemem.Maintainer, history *telemetry.Store, c cache.Cache, healthTTL time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	health := handlers.NewHealthHandler()
	maintenance := handlers.NewMaintenanceHandler(engine, history, c, healthTTL, logger)

	router.GET("/healthz", health.HealthCheck)
	router.GET("/readyz", health.ReadinessCheck)
	router.GET("/health-report", maintenance.GetHealthReport)
	router.POST("/maintenance/runs", maintenance.TriggerRun)
	router.GET("/maintenance/runs", maintenance.ListRuns)
	router.POST("/maintenance/decay", maintenance.TriggerDecay)
	router.POST("/nodes/:id/access", maintenance.RecordAccess)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the underlying HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
