package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness, readiness, and the engine health report.
type HealthHandler struct {
	resolver Resolver
}

func NewHealthHandler(resolver Resolver) *HealthHandler {
	return &HealthHandler{resolver: resolver}
}

// Livez answers as long as the process is up.
func (h *HealthHandler) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz answers 200 only when the authoritative store is reachable.
func (h *HealthHandler) Readyz(c *gin.Context) {
	report := h.resolver.Health(c.Request.Context())
	if !report.StoreReachable {
		c.JSON(http.StatusServiceUnavailable, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Report returns the full health report regardless of state.
func (h *HealthHandler) Report(c *gin.Context) {
	c.JSON(http.StatusOK, h.resolver.Health(c.Request.Context()))
}
