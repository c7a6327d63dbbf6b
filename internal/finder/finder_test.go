package finder

import (
	"context"
	"testing"
	"time"

	"github.com/easyweb3tools/polymarket-relations/internal/client/catalog"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

type fakeCatalog struct {
	events  []domain.Event
	markets map[string]domain.Market
}

func (f *fakeCatalog) SearchEventsByKeywords(ctx context.Context, keywords []string, limit int) catalog.EventSearchResult {
	return catalog.EventSearchResult{Events: f.events}
}

func (f *fakeCatalog) SearchEventsByCategory(ctx context.Context, category string, limit int) catalog.EventSearchResult {
	return catalog.EventSearchResult{}
}

func (f *fakeCatalog) FetchActiveEvents(ctx context.Context, limit int) catalog.EventSearchResult {
	return catalog.EventSearchResult{}
}

func (f *fakeCatalog) FetchMarket(ctx context.Context, id string) (domain.Market, error) {
	if m, ok := f.markets[id]; ok {
		return m, nil
	}
	return domain.Market{}, context.DeadlineExceeded
}

func (f *fakeCatalog) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	return nil, nil
}

type fakePlanner struct{}

func (fakePlanner) GenerateSearchKeywords(ctx context.Context, market domain.Market, maxKeywords int) []string {
	return []string{"x"}
}

func (fakePlanner) SelectRelevantEvents(ctx context.Context, market domain.Market, events []domain.Event, visitedSlugs []string, maxEvents int) []domain.Event {
	return events
}

func (fakePlanner) GetMarketCategory(ctx context.Context, market domain.Market) string {
	return "Other"
}

func collect(t *testing.T, ch <-chan Item, timeout time.Duration) []Item {
	t.Helper()
	var items []Item
	deadline := time.After(timeout)
	for {
		select {
		case item, ok := <-ch:
			if !ok {
				return items
			}
			items = append(items, item)
			if item.Done {
				return items
			}
		case <-deadline:
			t.Fatal("timed out waiting for finder stream")
			return items
		}
	}
}

func TestStream_YieldsClassifiedBetsAndTerminatesWithDone(t *testing.T) {
	root := domain.Market{ID: "root", Question: "Will X happen?"}
	candidate := domain.Market{ID: "cand-1", Question: "Will Y happen?"}

	cat := &fakeCatalog{
		events: []domain.Event{{Slug: "evt", Title: "Y event", Markets: []domain.Market{candidate}}},
		markets: map[string]domain.Market{
			"cand-1": candidate,
		},
	}

	f := New(cat, fakePlanner{}, nil)
	items := collect(t, f.Stream(context.Background(), Request{RootMarket: root, MaxResults: 5}), 2*time.Second)

	if len(items) == 0 || !items[len(items)-1].Done {
		t.Fatalf("expected stream to terminate with a Done item, got %+v", items)
	}
	betCount := 0
	for _, it := range items {
		if it.Bet != nil {
			betCount++
			if it.Bet.MarketID != "cand-1" {
				t.Fatalf("expected candidate cand-1, got %s", it.Bet.MarketID)
			}
			if it.Bet.Relationship != domain.WeakSignal {
				t.Fatalf("expected WEAK_SIGNAL without an LLM client, got %s", it.Bet.Relationship)
			}
		}
	}
	if betCount != 1 {
		t.Fatalf("expected exactly 1 bet, got %d", betCount)
	}
}

func TestStream_ExcludesRootMarketFromCandidates(t *testing.T) {
	root := domain.Market{ID: "root", Question: "Will X happen?"}

	cat := &fakeCatalog{
		events: []domain.Event{{Slug: "evt", Markets: []domain.Market{root}}},
	}

	f := New(cat, fakePlanner{}, nil)
	items := collect(t, f.Stream(context.Background(), Request{RootMarket: root, MaxResults: 5}), 2*time.Second)

	for _, it := range items {
		if it.Bet != nil && it.Bet.MarketID == "root" {
			t.Fatal("root market must never appear as its own candidate")
		}
	}
}

func TestStream_StopsAtMaxResults(t *testing.T) {
	root := domain.Market{ID: "root"}
	var markets []domain.Market
	byID := map[string]domain.Market{}
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		m := domain.Market{ID: id, Question: "candidate " + id}
		markets = append(markets, m)
		byID[id] = m
	}

	cat := &fakeCatalog{
		events:  []domain.Event{{Slug: "evt", Markets: markets}},
		markets: byID,
	}

	f := New(cat, fakePlanner{}, nil)
	items := collect(t, f.Stream(context.Background(), Request{RootMarket: root, MaxResults: 2}), 2*time.Second)

	betCount := 0
	for _, it := range items {
		if it.Bet != nil {
			betCount++
		}
	}
	if betCount > 2 {
		t.Fatalf("expected at most 2 bets with MaxResults=2, got %d", betCount)
	}
}
