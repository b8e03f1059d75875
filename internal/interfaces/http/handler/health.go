package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Ping() error
}

// HealthHandler serves GET /health
type HealthHandler struct {
	checks  map[string]HealthChecker
	started time.Time
}

// NewHealthHandler creates a HealthHandler over named checks
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checks: checks, started: time.Now()}
}

// Health answers 200 when every check passes and 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(); err != nil {
			components[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":     overall,
		"uptime":     time.Since(h.started).Round(time.Second).String(),
		"components": components,
	})
}
