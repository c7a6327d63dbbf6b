package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easyweb3tools/polymarket-relations/internal/config"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
	"github.com/easyweb3tools/polymarket-relations/internal/pricing"
)

// PricingHandler serves the synchronous /api/relations/price endpoint.
type PricingHandler struct {
	Engine *pricing.Engine
	Config config.PricingConfig
}

func (h *PricingHandler) Register(r *gin.Engine) {
	r.POST("/api/relations/price", h.price)
}

type priceRequestRoot struct {
	ID          string   `json:"id"`
	Probability float64  `json:"probability"`
	Weight      *float64 `json:"weight"`
	Decision    string   `json:"decision"`
}

type priceRequestDependant struct {
	ID          string  `json:"id"`
	Probability float64 `json:"probability"`
	Relation    string  `json:"relation"`
}

type priceRequestOptions struct {
	Epsilon    *float64 `json:"epsilon"`
	Volatility *float64 `json:"volatility"`
}

// priceRequest accepts both the compact form of spec §4.4 (root +
// dependants + options) and a bare dependants list, which is treated as a
// generalized relation list against an implicit root of
// {probability: 1, weight: 1, decision: yes}.
type priceRequest struct {
	Root       *priceRequestRoot       `json:"root"`
	Dependants []priceRequestDependant `json:"dependants"`
	Options    priceRequestOptions     `json:"options"`
}

type pricedDependantResponse struct {
	ID       string              `json:"id"`
	Weight   float64             `json:"weight"`
	Decision domain.Decision     `json:"decision"`
	Relation domain.RelationType `json:"relation"`
}

// @Summary Price dependant markets against a root belief
// @Tags relations
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/relations/price [post]
func (h *PricingHandler) price(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	root := pricing.Root{Probability: 1, Weight: 1, Decision: domain.Yes}
	if req.Root != nil {
		if req.Root.Probability < 0 || req.Root.Probability > 1 {
			writeError(c, http.StatusBadRequest, "root.probability must be in [0,1]")
			return
		}
		root.Probability = req.Root.Probability
		if req.Root.Weight != nil {
			if *req.Root.Weight <= 0 {
				writeError(c, http.StatusBadRequest, "root.weight must be > 0")
				return
			}
			root.Weight = *req.Root.Weight
		}
		if req.Root.Decision != "" {
			root.Decision = domain.Decision(req.Root.Decision)
		}
	}

	dependants := make([]domain.Dependant, 0, len(req.Dependants))
	for _, d := range req.Dependants {
		if d.ID == "" {
			writeError(c, http.StatusBadRequest, "dependant id is required")
			return
		}
		if d.Probability < 0 || d.Probability > 1 {
			writeError(c, http.StatusBadRequest, "dependant probability must be in [0,1]")
			return
		}
		dependants = append(dependants, domain.Dependant{
			ID:          d.ID,
			Probability: d.Probability,
			Relation:    domain.RelationType(d.Relation),
		})
	}

	opts := pricing.Options{Epsilon: h.Config.DefaultEpsilon, Volatility: h.Config.DefaultVolatility}
	if req.Options.Epsilon != nil {
		opts.Epsilon = *req.Options.Epsilon
	}
	if req.Options.Volatility != nil {
		opts.Volatility = *req.Options.Volatility
	}

	result := h.Engine.Price(root, dependants, opts)

	out := make([]pricedDependantResponse, 0, len(result.Dependants))
	for _, d := range result.Dependants {
		out = append(out, pricedDependantResponse{ID: d.ID, Weight: d.Weight, Decision: d.Decision, Relation: d.Relation})
	}
	c.JSON(http.StatusOK, gin.H{"dependants": out, "warnings": result.Warnings})
}
