package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/easyweb3tools/polymarket-relations/internal/client/catalog"
	"github.com/easyweb3tools/polymarket-relations/internal/config"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
	"github.com/easyweb3tools/polymarket-relations/internal/finder"
	"github.com/easyweb3tools/polymarket-relations/internal/pricing"
)

const maxDependantsReturned = 4

// CatalogResolver is the subset of internal/client/catalog.Client the
// dependencies endpoint uses to turn a Polymarket URL into a priced root.
type CatalogResolver interface {
	FindMarketIDFromURL(ctx context.Context, marketURL string) (string, error)
	FetchMarket(ctx context.Context, id string) (domain.Market, error)
}

// Finder is the subset of internal/finder.Finder the dependencies endpoint
// depends on.
type Finder interface {
	Stream(ctx context.Context, req finder.Request) <-chan finder.Item
}

// DependenciesHandler serves the streaming /api/dependencies endpoint.
type DependenciesHandler struct {
	Catalog        CatalogResolver
	Finder         Finder
	Pricing        *pricing.Engine
	FinderConfig   config.FinderConfig
	PricingConfig  config.PricingConfig
}

func (h *DependenciesHandler) Register(r *gin.Engine, rl *RateLimiter) {
	group := r.Group("/api/dependencies")
	if rl != nil {
		group.Use(rl.Middleware())
	}
	group.POST("", h.stream)
}

type dependenciesRequest struct {
	URL        string   `json:"url"`
	Visited    []string `json:"visited"`
	Weight     *float64 `json:"weight"`
	Decision   string   `json:"decision"`
	Volatility *float64 `json:"volatility"`
	Options    struct {
		Epsilon *float64 `json:"epsilon"`
	} `json:"options"`
}

type sourceMarketResponse struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Question      string          `json:"question"`
	YesPercentage float64         `json:"yesPercentage"`
	NoPercentage  float64         `json:"noPercentage"`
	Probability   float64         `json:"probability"`
	Weight        float64         `json:"weight"`
	Decision      domain.Decision `json:"decision"`
}

type dependantResponse struct {
	ID            string              `json:"id"`
	Weight        float64             `json:"weight"`
	Decision      domain.Decision     `json:"decision"`
	Relation      domain.RelationType `json:"relation"`
	Explanation   string              `json:"explanation"`
	Question      string              `json:"question,omitempty"`
	URL           string              `json:"url,omitempty"`
	Probability   float64             `json:"probability,omitempty"`
	YesPercentage float64             `json:"yesPercentage,omitempty"`
	NoPercentage  float64             `json:"noPercentage,omitempty"`
}

type logEvent struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type finalEvent struct {
	SourceMarket sourceMarketResponse `json:"sourceMarket"`
	Dependants   []dependantResponse  `json:"dependants"`
	Warnings     []string             `json:"warnings"`
}

// @Summary Stream related-market dependencies and their priced weights
// @Tags relations
// @Accept json
// @Produce text/event-stream
// @Success 200 {string} string "text/event-stream"
// @Failure 400 {object} map[string]any
// @Failure 500 {object} map[string]any
// @Failure 429 {string} string
// @Router /api/dependencies [post]
func (h *DependenciesHandler) stream(c *gin.Context) {
	var req dependenciesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.URL == "" {
		writeError(c, http.StatusBadRequest, "url is required")
		return
	}
	if req.Weight == nil || *req.Weight <= 0 {
		writeError(c, http.StatusBadRequest, "weight must be > 0")
		return
	}
	if req.Volatility != nil && *req.Volatility < 0 {
		writeError(c, http.StatusBadRequest, "volatility must be >= 0")
		return
	}

	decision := domain.NormalizeDecision(domain.Decision(req.Decision))
	volatility := h.PricingConfig.DefaultVolatility
	if req.Volatility != nil {
		volatility = *req.Volatility
	}
	epsilon := h.PricingConfig.DefaultEpsilon
	if req.Options.Epsilon != nil {
		epsilon = *req.Options.Epsilon
	}

	requestID := uuid.NewString()

	deadline := h.FinderConfig.RequestDeadline
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), deadline)
	defer cancel()

	marketID, err := h.Catalog.FindMarketIDFromURL(ctx, req.URL)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "upstream_market_fetch: "+err.Error())
		return
	}
	rootMarket, err := h.Catalog.FetchMarket(ctx, marketID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "upstream_market_fetch: "+err.Error())
		return
	}
	pct := catalog.GetMarketPercentages(rootMarket)

	lines := make(chan string, 16)
	go h.run(ctx, req, rootMarket, pct, decision, *req.Weight, volatility, epsilon, requestID, lines)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case line, ok := <-lines:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", line)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *DependenciesHandler) run(
	ctx context.Context,
	req dependenciesRequest,
	rootMarket domain.Market,
	pct catalog.Percentages,
	decision domain.Decision,
	weight, volatility, epsilon float64,
	requestID string,
	lines chan<- string,
) {
	defer close(lines)

	emitLog := func(level, message string) {
		payload, err := json.Marshal(logEvent{Level: level, Message: message, Meta: map[string]any{"requestId": requestID}})
		if err != nil {
			return
		}
		lines <- "log - " + string(payload)
	}
	emitLog("log", "Resolving market from URL")
	for _, w := range pct.Warnings {
		emitLog("warn", w)
	}

	// visited entries are event URLs; a value that is not a polymarket.com
	// URL is taken to be a bare slug already.
	visitedSlugs := make([]string, 0, len(req.Visited))
	for _, v := range req.Visited {
		if slug := catalog.ExtractSlug(v); slug != "" {
			v = slug
		}
		visitedSlugs = append(visitedSlugs, v)
	}

	var finderWarnings []string
	items := h.Finder.Stream(ctx, finder.Request{RootMarket: rootMarket, VisitedSlugs: visitedSlugs})
	var bets []domain.RelatedBet
	for item := range items {
		if item.Warning != "" {
			emitLog("warn", item.Warning)
			finderWarnings = append(finderWarnings, item.Warning)
		}
		if item.Bet != nil {
			bets = append(bets, *item.Bet)
		}
	}

	rootProbability := pct.Yes / 100
	dependants := make([]domain.Dependant, 0, len(bets))
	for _, bet := range bets {
		dependants = append(dependants, domain.Dependant{
			ID:          bet.MarketID,
			Probability: bet.YesPercentage / 100,
			Relation:    bet.Relationship,
		})
	}

	priced := h.Pricing.Price(pricing.Root{Probability: rootProbability, Weight: weight, Decision: decision}, dependants, pricing.Options{Epsilon: epsilon, Volatility: volatility})
	for _, w := range priced.Warnings {
		emitLog("warn", w)
	}

	betByID := make(map[string]domain.RelatedBet, len(bets))
	for _, bet := range bets {
		betByID[bet.MarketID] = bet
	}

	out := make([]dependantResponse, 0, maxDependantsReturned)
	for _, d := range priced.Dependants {
		if d.Weight <= 0 {
			continue
		}
		if len(out) >= maxDependantsReturned {
			break
		}
		resp := dependantResponse{ID: d.ID, Weight: d.Weight, Decision: d.Decision, Relation: d.Relation}
		if bet, ok := betByID[d.ID]; ok {
			resp.Explanation = bet.Reasoning
			resp.Question = bet.Market.Question
			resp.Probability = bet.YesPercentage / 100
			resp.YesPercentage = bet.YesPercentage
			resp.NoPercentage = bet.NoPercentage
			if bet.EventSlug != "" {
				resp.URL = "https://polymarket.com/event/" + bet.EventSlug
			}
		}
		out = append(out, resp)
	}

	final := finalEvent{
		SourceMarket: sourceMarketResponse{
			ID:            rootMarket.Identity(),
			Slug:          rootMarket.Slug,
			Question:      rootMarket.Question,
			YesPercentage: pct.Yes,
			NoPercentage:  pct.No,
			Probability:   rootProbability,
			Weight:        weight,
			Decision:      decision,
		},
		Dependants: out,
		Warnings:   append(append(append([]string{}, pct.Warnings...), finderWarnings...), priced.Warnings...),
	}
	payload, err := json.Marshal(final)
	if err != nil {
		lines <- `log - {"level":"error","message":"failed to encode final result"}`
		return
	}
	lines <- "final - " + string(payload)
}
