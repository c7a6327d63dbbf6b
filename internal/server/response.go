// Package server wires the five HTTP endpoints (spec §6) over gin: the
// SSE dependency-discovery stream, the two synchronous relation endpoints,
// the service manifest, and the liveness/readiness pair. The handler
// registration and response-writing split is grounded on the teacher's
// internal/handler/response.go (Ok/Error) and internal/handler/health.go
// (Register(r *gin.Engine)), adapted to the wire shapes spec §6 requires
// instead of the teacher's {code,message,data,meta} envelope.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeError writes the plain {"error": message} body spec §6/§7 requires
// for validation and upstream failures.
func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// validationDetail is one {path, message} entry in a graph-validation
// failure response.
type validationDetail struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func writeValidationError(c *gin.Context, message string, details []validationDetail) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "details": details})
}
