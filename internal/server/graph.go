package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
	"github.com/easyweb3tools/polymarket-relations/internal/evaluator"
)

// GraphHandler serves the synchronous /api/relations/graph endpoint.
type GraphHandler struct {
	Evaluator *evaluator.Evaluator
}

func (h *GraphHandler) Register(r *gin.Engine) {
	r.POST("/api/relations/graph", h.evaluate)
}

// @Summary Evaluate a rooted outcome graph
// @Tags relations
// @Accept json
// @Produce json
// @Success 200 {object} domain.GraphOutcomeResult
// @Failure 400 {object} map[string]any
// @Router /api/relations/graph [post]
func (h *GraphHandler) evaluate(c *gin.Context) {
	var root domain.GraphNode
	if err := c.ShouldBindJSON(&root); err != nil {
		writeError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	if errs := root.Validate(); len(errs) > 0 {
		details := make([]validationDetail, 0, len(errs))
		for _, e := range errs {
			details = append(details, validationDetail{Path: e.Path, Message: e.Message})
		}
		writeValidationError(c, "invalid graph", details)
		return
	}

	result := h.Evaluator.Evaluate(&root)
	c.JSON(http.StatusOK, result)
}
