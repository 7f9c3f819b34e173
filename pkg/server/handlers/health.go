package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles liveness and readiness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthCheck handles GET /healthz
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "go-livemem",
	})
}

// ReadinessCheck handles GET /readyz
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": "go-livemem",
	})
}
