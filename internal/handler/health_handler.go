package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck is a named dependency probe.
type ReadinessCheck struct {
	Name string
	// Required checks turn the whole service unavailable when they fail.
	Required bool
	Check    func(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checks []ReadinessCheck
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz. Optional dependencies that fail are
// reported as degraded without failing the probe.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ok"
	deps := gin.H{}
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			deps[chk.Name] = "unavailable"
			if chk.Required {
				status = http.StatusServiceUnavailable
				overall = "unavailable"
			} else if overall == "ok" {
				overall = "degraded"
			}
			continue
		}
		deps[chk.Name] = "ok"
	}
	c.JSON(status, gin.H{"status": overall, "dependencies": deps})
}
