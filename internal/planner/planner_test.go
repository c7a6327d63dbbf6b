package planner

import (
	"context"
	"testing"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

type stubLLM struct {
	response string
	err      error
}

func (s stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	return s.response, s.err
}

func TestGenerateSearchKeywords_HeuristicOnlyWithoutLLM(t *testing.T) {
	p := New(nil)
	market := domain.Market{Question: "Will the Fed raise interest rates in March?"}
	got := p.GenerateSearchKeywords(context.Background(), market, 4)
	if len(got) == 0 {
		t.Fatal("expected at least one heuristic keyword")
	}
	found := false
	for _, k := range got {
		if k == "interest" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'interest' among heuristic keywords, got %v", got)
	}
}

func TestGenerateSearchKeywords_SkipsLLMWhenHeuristicHasTwoOrMoreTokens(t *testing.T) {
	p := New(stubLLM{response: `{"keywords": ["canary"]}`})
	market := domain.Market{Question: "Will the Fed raise interest rates in March?"}
	got := p.GenerateSearchKeywords(context.Background(), market, 4)
	for _, k := range got {
		if k == "canary" {
			t.Fatalf("expected the LLM to be skipped when the heuristic already has >=2 tokens, got %v", got)
		}
	}
	if len(got) < 2 {
		t.Fatalf("expected the heuristic's own tokens, got %v", got)
	}
}

func TestGenerateSearchKeywords_AsksLLMWhenHeuristicBelowTwoTokens(t *testing.T) {
	p := New(stubLLM{response: `{"keywords": ["precipitation", "forecast"]}`})
	market := domain.Market{Question: "Will it rain?"}
	got := p.GenerateSearchKeywords(context.Background(), market, 4)
	if len(got) != 2 || got[0] != "precipitation" || got[1] != "forecast" {
		t.Fatalf("expected the LLM's keywords, got %v", got)
	}
}

func TestGenerateSearchKeywords_FallsBackOnLLMError(t *testing.T) {
	p := New(stubLLM{err: context.DeadlineExceeded})
	market := domain.Market{Question: "Will it rain?"}
	got := p.GenerateSearchKeywords(context.Background(), market, 4)
	if len(got) != 1 || got[0] != "rain" {
		t.Fatalf("expected the heuristic fallback ['rain'], got %v", got)
	}
}

func TestGenerateSearchKeywords_FallsBackOnUnparseableResponse(t *testing.T) {
	p := New(stubLLM{response: "not json at all"})
	market := domain.Market{Question: "Will it rain?"}
	got := p.GenerateSearchKeywords(context.Background(), market, 4)
	if len(got) != 1 || got[0] != "rain" {
		t.Fatalf("expected the heuristic fallback ['rain'], got %v", got)
	}
}

func TestGenerateSearchKeywords_EmptyHeuristicFallsBackToMarketLiteral(t *testing.T) {
	p := New(nil)
	market := domain.Market{Question: "Will it?"}
	got := p.GenerateSearchKeywords(context.Background(), market, 4)
	if len(got) != 1 || got[0] != "market" {
		t.Fatalf("expected the literal ['market'] fallback, got %v", got)
	}
}

func TestTokenize_PreservesFourDigitYears(t *testing.T) {
	got := tokenize("Will the 2028 election winner be announced?")
	found := false
	for _, k := range got {
		if k == "2028" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a four-digit year to survive the length filter, got %v", got)
	}
	for _, k := range got {
		if k == "election" {
			t.Fatalf("expected 'election' to be dropped as a stopword, got %v", got)
		}
	}
}

func TestSelectRelevantEvents_WithoutLLMReturnsFirstUnvisited(t *testing.T) {
	p := New(nil)
	market := domain.Market{Question: "Will the Fed raise interest rates in March?"}
	events := []domain.Event{
		{Slug: "a", Title: "Who wins the championship game?"},
		{Slug: "b", Title: "Fed interest rate decision March meeting"},
	}
	got := p.SelectRelevantEvents(context.Background(), market, events, nil, 1)
	if len(got) != 1 || got[0].Slug != "a" {
		t.Fatalf("expected the first unvisited event without an LLM client, got %+v", got)
	}
}

func TestSelectRelevantEvents_ExcludesVisitedSlugs(t *testing.T) {
	p := New(nil)
	market := domain.Market{Question: "Will the Fed raise interest rates in March?"}
	events := []domain.Event{
		{Slug: "a", Title: "Already seen"},
		{Slug: "b", Title: "Fresh candidate"},
	}
	got := p.SelectRelevantEvents(context.Background(), market, events, []string{"a"}, 5)
	if len(got) != 1 || got[0].Slug != "b" {
		t.Fatalf("expected only the unvisited event, got %+v", got)
	}
}

func TestSelectRelevantEvents_LLMRankingPicksNamedSlugs(t *testing.T) {
	p := New(stubLLM{response: `{"slugs": ["b"]}`})
	market := domain.Market{Question: "Will the Fed raise interest rates in March?"}
	events := []domain.Event{
		{Slug: "a", Title: "Unrelated"},
		{Slug: "b", Title: "Fed interest rate decision March meeting"},
	}
	got := p.SelectRelevantEvents(context.Background(), market, events, nil, 1)
	if len(got) != 1 || got[0].Slug != "b" {
		t.Fatalf("expected the LLM-selected slug, got %+v", got)
	}
}

func TestSelectRelevantEvents_FallsBackOnUnparseableLLMResponse(t *testing.T) {
	p := New(stubLLM{response: "not json at all"})
	market := domain.Market{Question: "Will the Fed raise interest rates in March?"}
	events := []domain.Event{{Slug: "a"}, {Slug: "b"}}
	got := p.SelectRelevantEvents(context.Background(), market, events, nil, 1)
	if len(got) != 1 || got[0].Slug != "a" {
		t.Fatalf("expected fallback to first unvisited event, got %+v", got)
	}
}

func TestGetMarketCategory_HeuristicMatch(t *testing.T) {
	p := New(nil)
	market := domain.Market{Question: "Will the governor win re-election?"}
	if got := p.GetMarketCategory(context.Background(), market); got != "Politics" {
		t.Fatalf("expected Politics, got %s", got)
	}
}

func TestGetMarketCategory_DefaultsToOtherWithoutMatch(t *testing.T) {
	p := New(nil)
	market := domain.Market{Question: "Will it rain tomorrow in the city?"}
	if got := p.GetMarketCategory(context.Background(), market); got != "Other" {
		t.Fatalf("expected Other, got %s", got)
	}
}
