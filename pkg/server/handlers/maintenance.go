package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	livemem "github.com/soundprediction/go-livemem"
	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/soundprediction/go-livemem/pkg/server/dto"
	"github.com/soundprediction/go-livemem/pkg/telemetry"
	"github.com/soundprediction/go-livemem/pkg/types"
)

const healthReportKey = "health-report"

// MaintenanceHandler exposes the engine's produced interface over HTTP.
type MaintenanceHandler struct {
	engine    livemem.Maintainer
	history   *telemetry.Store
	cache     cache.Cache
	healthTTL time.Duration
	logger    *slog.Logger
}

// NewMaintenanceHandler creates a handler over the engine. History and
// cache are optional; a nil cache disables health-report caching.
func NewMaintenanceHandler(engine livemem.Maintainer, history *telemetry.Store, c cache.Cache, healthTTL time.Duration, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceHandler{
		engine:    engine,
		history:   history,
		cache:     c,
		healthTTL: healthTTL,
		logger:    logger,
	}
}

// TriggerRun handles POST /maintenance/runs
func (h *MaintenanceHandler) TriggerRun(c *gin.Context) {
	// An empty body means "run with defaults".
	var req dto.RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
	}

	report, err := h.engine.RunMaintenance(c.Request.Context(), livemem.RunOptions{
		StaleDays:             req.StaleDays,
		DeleteDays:            req.DeleteDays,
		LowRelevanceThreshold: req.LowRelevanceThreshold,
		DryRun:                req.DryRun,
	})
	if err != nil {
		if errors.Is(err, types.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, dto.ErrorResponse{
				Error:   "already_running",
				Message: "a maintenance run is already in progress",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "run_failed",
			Message: err.Error(),
		})
		return
	}

	// Mutations invalidate any cached health snapshot.
	if h.cache != nil && !report.DryRun {
		_ = h.cache.Delete(healthReportKey)
	}
	c.JSON(http.StatusOK, dto.RunResponse{Report: report})
}

// GetHealthReport handles GET /health-report
func (h *MaintenanceHandler) GetHealthReport(c *gin.Context) {
	if h.cache != nil {
		var cached types.HealthReport
		if err := cache.GetJSON(h.cache, healthReportKey, &cached); err == nil {
			c.JSON(http.StatusOK, &cached)
			return
		}
	}

	report, err := h.engine.GetHealth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "analysis_failed",
			Message: err.Error(),
		})
		return
	}

	if h.cache != nil {
		if err := cache.SetJSON(h.cache, healthReportKey, report, h.healthTTL); err != nil {
			h.logger.Warn("failed to cache health report", "error", err)
		}
	}
	c.JSON(http.StatusOK, report)
}

// RecordAccess handles POST /nodes/:id/access
func (h *MaintenanceHandler) RecordAccess(c *gin.Context) {
	nodeID := c.Param("id")
	if nodeID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "node id is required",
		})
		return
	}

	if err := h.engine.RecordAccess(c.Request.Context(), nodeID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: "node " + nodeID + " does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "access_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.AccessResponse{
		NodeID:     nodeID,
		RecordedAt: time.Now(),
	})
}

// TriggerDecay handles POST /maintenance/decay
func (h *MaintenanceHandler) TriggerDecay(c *gin.Context) {
	decayed, err := h.engine.DecayIdle(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "decay_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.DecayResponse{NodesDecayed: decayed})
}

// ListRuns handles GET /maintenance/runs
func (h *MaintenanceHandler) ListRuns(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "history_disabled",
			Message: "run history is not enabled",
		})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.history.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "history_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}
