package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceVersion = "1.0.0"

// InfraHandler serves the service manifest and the liveness/readiness
// pair. Readiness has no database to check (spec §6.1: this service has no
// persisted state), so it reports whether the configured LLM API key is
// present instead — the one external dependency whose absence is a
// documented HTTP-500 condition elsewhere in the API (spec §6/§7).
type InfraHandler struct {
	LLMAPIKeyPresent bool
}

func (h *InfraHandler) Register(r *gin.Engine) {
	r.GET("/", h.manifest)
	r.GET("/health", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Service manifest
// @Tags infra
// @Success 200 {object} map[string]any
// @Router / [get]
func (h *InfraHandler) manifest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "polymarket-relations",
		"version": serviceVersion,
		"endpoints": []string{
			"POST /api/dependencies",
			"POST /api/relations/price",
			"POST /api/relations/graph",
			"GET /health",
			"GET /readyz",
		},
	})
}

// @Summary Liveness probe
// @Tags infra
// @Success 200 {object} map[string]any
// @Router /health [get]
func (h *InfraHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Readiness probe
// @Tags infra
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /readyz [get]
func (h *InfraHandler) ready(c *gin.Context) {
	if !h.LLMAPIKeyPresent {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "missing LLM API key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
