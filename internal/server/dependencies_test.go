package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/easyweb3tools/polymarket-relations/internal/config"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
	"github.com/easyweb3tools/polymarket-relations/internal/finder"
	"github.com/easyweb3tools/polymarket-relations/internal/pricing"
)

type fakeResolver struct {
	market domain.Market
	err    error
}

func (f *fakeResolver) FindMarketIDFromURL(ctx context.Context, marketURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.market.Identity(), nil
}

func (f *fakeResolver) FetchMarket(ctx context.Context, id string) (domain.Market, error) {
	if f.err != nil {
		return domain.Market{}, f.err
	}
	return f.market, nil
}

type fakeFinder struct {
	bets []domain.RelatedBet
}

func (f *fakeFinder) Stream(ctx context.Context, req finder.Request) <-chan finder.Item {
	out := make(chan finder.Item, len(f.bets)+1)
	for i := range f.bets {
		bet := f.bets[i]
		out <- finder.Item{Bet: &bet}
	}
	out <- finder.Item{Done: true}
	close(out)
	return out
}

func newTestEngine(h *DependenciesHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.Register(r, nil)
	return r
}

func TestDependenciesStream_MissingURLReturns400(t *testing.T) {
	h := &DependenciesHandler{Catalog: &fakeResolver{}, Finder: &fakeFinder{}, Pricing: pricing.New()}
	r := newTestEngine(h)

	req := httptest.NewRequest(http.MethodPost, "/api/dependencies", strings.NewReader(`{"weight":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDependenciesStream_MissingWeightReturns400(t *testing.T) {
	h := &DependenciesHandler{Catalog: &fakeResolver{}, Finder: &fakeFinder{}, Pricing: pricing.New()}
	r := newTestEngine(h)

	req := httptest.NewRequest(http.MethodPost, "/api/dependencies", strings.NewReader(`{"url":"https://polymarket.com/event/x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDependenciesStream_UpstreamFailureReturns500(t *testing.T) {
	h := &DependenciesHandler{
		Catalog: &fakeResolver{err: context.DeadlineExceeded},
		Finder:  &fakeFinder{},
		Pricing: pricing.New(),
	}
	r := newTestEngine(h)

	req := httptest.NewRequest(http.MethodPost, "/api/dependencies", strings.NewReader(`{"url":"https://polymarket.com/event/x","weight":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDependenciesStream_SuccessEmitsFinalEventWithDependant(t *testing.T) {
	root := domain.Market{ID: "root", ConditionID: "cond-root", Question: "Will X happen?", Tokens: []domain.Token{
		{Outcome: "Yes", Price: 0.7}, {Outcome: "No", Price: 0.3},
	}}
	bet := domain.RelatedBet{
		MarketID:      "cand-1",
		Market:        domain.Market{ID: "cand-1", Question: "Will Y happen?"},
		EventSlug:     "evt",
		Relationship:  domain.ConditionedOn,
		Reasoning:     "shares a keyword",
		YesPercentage: 60,
		NoPercentage:  40,
	}

	h := &DependenciesHandler{
		Catalog:       &fakeResolver{market: root},
		Finder:        &fakeFinder{bets: []domain.RelatedBet{bet}},
		Pricing:       pricing.New(),
		FinderConfig:  config.FinderConfig{},
		PricingConfig: config.PricingConfig{DefaultEpsilon: 0.01, DefaultVolatility: 1.0},
	}
	r := newTestEngine(h)

	req := httptest.NewRequest(http.MethodPost, "/api/dependencies", strings.NewReader(`{"url":"https://polymarket.com/event/x","weight":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	idx := strings.LastIndex(body, "final - ")
	if idx == -1 {
		t.Fatalf("expected a final event in the stream, got %q", body)
	}
	payload := strings.TrimSpace(body[idx+len("final - "):])

	var final finalEvent
	if err := json.Unmarshal([]byte(payload), &final); err != nil {
		t.Fatalf("failed to decode final event: %v, payload=%s", err, payload)
	}
	if final.SourceMarket.ID != "cond-root" {
		t.Fatalf("expected source market id cond-root, got %s", final.SourceMarket.ID)
	}
	if len(final.Dependants) != 1 || final.Dependants[0].ID != "cand-1" {
		t.Fatalf("expected one dependant cand-1, got %+v", final.Dependants)
	}
	if final.Dependants[0].Question != "Will Y happen?" {
		t.Fatalf("expected dependant enriched with its question, got %+v", final.Dependants[0])
	}
}
