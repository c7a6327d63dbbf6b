package finder

import (
	"context"

	"github.com/easyweb3tools/polymarket-relations/internal/client/catalog"
	"github.com/easyweb3tools/polymarket-relations/internal/concurrency"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

// harvestEvents runs the keyword and category searches, merges their
// results deduped by slug, and supplements with a catch-all active-events
// pass when the combined harvest is thin. Every search is best-effort: a
// failed pass contributes only a warning, never a hard error.
func (f *Finder) harvestEvents(ctx context.Context, keywords []string, category string) ([]domain.Event, []string) {
	var warnings []string
	bySlug := map[string]domain.Event{}

	add := func(res catalog.EventSearchResult) {
		warnings = append(warnings, res.Warnings...)
		for _, e := range res.Events {
			if e.Slug == "" {
				continue
			}
			if _, exists := bySlug[e.Slug]; !exists {
				bySlug[e.Slug] = e
			}
		}
	}

	add(f.catalog.SearchEventsByKeywords(ctx, keywords, defaultEventSearchLimit))
	add(f.catalog.SearchEventsByCategory(ctx, category, defaultEventSearchLimit))

	if len(bySlug) < supplementThreshold {
		add(f.catalog.FetchActiveEvents(ctx, defaultActiveEventsLimit))
	}

	events := make([]domain.Event, 0, len(bySlug))
	for _, e := range bySlug {
		events = append(events, e)
	}
	return events, warnings
}

// candidateMarket pairs a harvested market with the slug of the event it
// was found under, since that slug is not always recoverable from the
// market record alone.
type candidateMarket struct {
	market    domain.Market
	eventSlug string
}

// assembleCandidates flattens the selected events' markets into a deduped
// candidate list (priority), supplements with general non-closed markets
// when the event-derived pool is thin, excludes the root market itself, and
// re-fetches each surviving candidate from the catalog with bounded
// concurrency to pick up fresher pricing than whatever the listing carried.
func (f *Finder) assembleCandidates(ctx context.Context, events []domain.Event, root domain.Market) []candidateMarket {
	rootID := root.Identity()

	seen := map[string]bool{}
	candidates := make([]candidateMarket, 0)
	add := func(m domain.Market, eventSlug string) {
		id := m.Identity()
		if id == "" || id == rootID || seen[id] {
			return
		}
		seen[id] = true
		candidates = append(candidates, candidateMarket{market: m, eventSlug: eventSlug})
	}

	for _, e := range events {
		for _, m := range e.Markets {
			add(m, e.Slug)
		}
	}

	if len(candidates) < defaultCandidateCap {
		general, err := f.catalog.FetchMarkets(ctx, defaultSupplementMarkets)
		if err == nil {
			for _, m := range general {
				if len(candidates) >= minCandidatePool {
					break
				}
				add(m, "")
			}
		}
	}

	_ = concurrency.BoundedEach(ctx, candidates, defaultMarketConcurrency, func(ctx context.Context, c candidateMarket, i int) error {
		fresh, err := f.catalog.FetchMarket(ctx, c.market.Identity())
		if err != nil {
			return nil // keep the listing-derived copy; enrichment is best-effort
		}
		candidates[i].market = fresh
		return nil
	})

	return candidates
}
