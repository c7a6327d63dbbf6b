package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

// Percentages is the resolved {yes, no} read on a binary market, rounded to
// two decimal places.
type Percentages struct {
	Yes      float64
	No       float64
	Warnings []string
}

// GetMarketPercentages resolves a market's yes/no percentages by trying, in
// order: the typed tokens[] field, the raw outcomePrices field (tolerating
// both a 0-1 fraction and a 0-100 percentage), lastTradePrice, then price.
// A market with no resolvable signal defaults to an even 50/50 split with a
// warning, per the spec's documented fallback.
func GetMarketPercentages(m domain.Market) Percentages {
	if yes, no, ok := fromTokens(m.Tokens); ok {
		return round(yes, no, nil)
	}
	if yes, no, ok := fromOutcomePrices(m.OutcomePrices); ok {
		return round(yes, no, nil)
	}
	if m.LastTradePrice != nil {
		yes := normalizeFraction(*m.LastTradePrice)
		return round(yes*100, (1-yes)*100, nil)
	}
	if m.Price != nil {
		yes := normalizeFraction(*m.Price)
		return round(yes*100, (1-yes)*100, nil)
	}
	return round(50, 50, []string{"market_percentages_unresolved_defaulted_50_50"})
}

func fromTokens(tokens []domain.Token) (yes, no float64, ok bool) {
	for _, t := range tokens {
		switch strings.ToLower(t.Outcome) {
		case "yes":
			yes = normalizeFraction(t.Price) * 100
			ok = true
		case "no":
			no = normalizeFraction(t.Price) * 100
		}
	}
	if ok && no == 0 {
		no = 100 - yes
	}
	return yes, no, ok
}

func fromOutcomePrices(prices []string) (yes, no float64, ok bool) {
	if len(prices) < 2 {
		return 0, 0, false
	}
	p0, err0 := strconv.ParseFloat(strings.TrimSpace(prices[0]), 64)
	p1, err1 := strconv.ParseFloat(strings.TrimSpace(prices[1]), 64)
	if err0 != nil || err1 != nil {
		return 0, 0, false
	}
	y := normalizeFraction(p0)
	n := normalizeFraction(p1)
	return y * 100, n * 100, true
}

// normalizeFraction maps a value already in [0,1] through unchanged, and a
// value in (1,100] down to a [0,1] fraction, since upstream payloads mix
// both conventions across endpoints.
func normalizeFraction(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}

func round(yes, no float64, warnings []string) Percentages {
	return Percentages{
		Yes:      math.Round(yes*100) / 100,
		No:       math.Round(no*100) / 100,
		Warnings: warnings,
	}
}
