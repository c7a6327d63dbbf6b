package catalog

import (
	"testing"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

func TestGetMarketPercentages_FromTokens(t *testing.T) {
	m := domain.Market{Tokens: []domain.Token{{Outcome: "Yes", Price: 0.73}, {Outcome: "No", Price: 0.27}}}
	got := GetMarketPercentages(m)
	if got.Yes != 73 || got.No != 27 {
		t.Fatalf("expected 73/27, got %v/%v", got.Yes, got.No)
	}
}

func TestGetMarketPercentages_FromOutcomePricesFraction(t *testing.T) {
	m := domain.Market{OutcomePrices: []string{"0.6", "0.4"}}
	got := GetMarketPercentages(m)
	if got.Yes != 60 || got.No != 40 {
		t.Fatalf("expected 60/40, got %v/%v", got.Yes, got.No)
	}
}

func TestGetMarketPercentages_FromOutcomePricesPercentScale(t *testing.T) {
	m := domain.Market{OutcomePrices: []string{"60", "40"}}
	got := GetMarketPercentages(m)
	if got.Yes != 60 || got.No != 40 {
		t.Fatalf("expected 60/40, got %v/%v", got.Yes, got.No)
	}
}

func TestGetMarketPercentages_FromLastTradePrice(t *testing.T) {
	p := 0.35
	m := domain.Market{LastTradePrice: &p}
	got := GetMarketPercentages(m)
	if got.Yes != 35 || got.No != 65 {
		t.Fatalf("expected 35/65, got %v/%v", got.Yes, got.No)
	}
}

func TestGetMarketPercentages_DefaultsWhenUnresolved(t *testing.T) {
	got := GetMarketPercentages(domain.Market{})
	if got.Yes != 50 || got.No != 50 {
		t.Fatalf("expected default 50/50, got %v/%v", got.Yes, got.No)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", got.Warnings)
	}
}
