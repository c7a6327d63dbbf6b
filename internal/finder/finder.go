// Package finder implements the Related-Bet Finder (spec §4.3): given a
// root market, it harvests candidate events and markets from the catalog,
// classifies each candidate's relationship to the root via a batched LLM
// pass, and streams results out as they're ready so the HTTP layer can
// forward them over SSE without waiting for the whole pipeline to finish.
package finder

import (
	"context"
	"time"

	"github.com/easyweb3tools/polymarket-relations/internal/client/catalog"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

const (
	defaultMaxResults          = 4
	defaultMinResults          = 3
	defaultEventSearchLimit    = 50
	defaultActiveEventsLimit   = 30
	defaultSelectedEventCap    = 8
	defaultMarketConcurrency   = 4
	defaultClassifyConcurrency = 2
	defaultClassifyBatchSize   = 10
	defaultCandidateCap        = 50
	defaultSupplementMarkets   = 200
	minCandidatePool           = 100
	supplementThreshold        = 5
)

// Request describes one discovery run.
type Request struct {
	RootMarket   domain.Market
	VisitedSlugs []string // event slugs to exclude from candidate selection
	MaxResults   int      // default 4
	MinResults   int      // advisory only: logged, never triggers extra search passes; default 3, clamped <= MaxResults
}

// Item is one unit of streamed output: either a classified bet, a
// non-fatal warning, or (as the final item) a summary signal that no more
// results are coming.
type Item struct {
	Bet     *domain.RelatedBet
	Warning string
	Done    bool
}

// CatalogClient is the subset of internal/client/catalog.Client the finder
// depends on.
type CatalogClient interface {
	SearchEventsByKeywords(ctx context.Context, keywords []string, limit int) catalog.EventSearchResult
	SearchEventsByCategory(ctx context.Context, category string, limit int) catalog.EventSearchResult
	FetchActiveEvents(ctx context.Context, limit int) catalog.EventSearchResult
	FetchMarket(ctx context.Context, id string) (domain.Market, error)
	FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error)
}

// Planner is the subset of internal/planner.Planner the finder depends on.
type Planner interface {
	GenerateSearchKeywords(ctx context.Context, market domain.Market, maxKeywords int) []string
	SelectRelevantEvents(ctx context.Context, market domain.Market, events []domain.Event, visitedSlugs []string, maxEvents int) []domain.Event
	GetMarketCategory(ctx context.Context, market domain.Market) string
}

// LLMClient is the subset of internal/llm.Client the finder depends on.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Finder orchestrates event/market harvesting and LLM classification.
type Finder struct {
	catalog CatalogClient
	planner Planner
	llm     LLMClient
}

func New(catalog CatalogClient, planner Planner, llm LLMClient) *Finder {
	return &Finder{catalog: catalog, planner: planner, llm: llm}
}

// Stream runs the discovery pipeline and returns a channel of Items. The
// channel is closed after the final Item (always Done: true) is sent. The
// caller's ctx bounds the whole run; if ctx carries a deadline, each stage
// checks it before doing further work and stops early with a warning
// rather than erroring.
func (f *Finder) Stream(ctx context.Context, req Request) <-chan Item {
	out := make(chan Item, 8)
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}
	if req.MinResults <= 0 {
		req.MinResults = defaultMinResults
	}
	if req.MinResults > req.MaxResults {
		req.MinResults = req.MaxResults
	}

	go func() {
		defer close(out)
		f.run(ctx, req, out)
		out <- Item{Done: true}
	}()

	return out
}

func (f *Finder) run(ctx context.Context, req Request, out chan<- Item) {
	if pastDeadline(ctx) {
		out <- Item{Warning: "deadline_exceeded_before_start"}
		return
	}

	keywords := f.planner.GenerateSearchKeywords(ctx, req.RootMarket, 4)
	category := f.planner.GetMarketCategory(ctx, req.RootMarket)

	events, warnings := f.harvestEvents(ctx, keywords, category)
	for _, w := range warnings {
		out <- Item{Warning: w}
	}
	if pastDeadline(ctx) {
		out <- Item{Warning: "deadline_exceeded_after_harvest"}
		return
	}

	selected := f.planner.SelectRelevantEvents(ctx, req.RootMarket, events, req.VisitedSlugs, defaultSelectedEventCap)

	candidates := f.assembleCandidates(ctx, selected, req.RootMarket)
	if len(candidates) > defaultCandidateCap {
		candidates = candidates[:defaultCandidateCap]
	}
	if pastDeadline(ctx) {
		out <- Item{Warning: "deadline_exceeded_after_assembly"}
		return
	}

	yielded := 0
	f.classifyAndYield(ctx, req.RootMarket, candidates, func(bet domain.RelatedBet) bool {
		out <- Item{Bet: &bet}
		yielded++
		return yielded < req.MaxResults
	})
	if yielded < req.MinResults {
		out <- Item{Warning: "found fewer than minResults related markets"}
	}
	if pastDeadline(ctx) {
		out <- Item{Warning: "no related markets within the time limit"}
	}
}

func pastDeadline(ctx context.Context) bool {
	deadline, ok := ctx.Deadline()
	if !ok {
		return false
	}
	return time.Now().After(deadline)
}
