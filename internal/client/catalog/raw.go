package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

// rawMarket mirrors the upstream Gamma-style market payload. Several fields
// are shipped inconsistently as JSON numbers or as numeric strings, hence
// domain.RawFloat; outcomePrices itself is sometimes a JSON array and
// sometimes a JSON-string-encoded array, hence the raw json.RawMessage here
// with parsing deferred to toDomain.
type rawMarket struct {
	ID             string          `json:"id"`
	ConditionID    string          `json:"conditionId"`
	Slug           string          `json:"slug"`
	Question       string          `json:"question"`
	Description    string          `json:"description"`
	Outcomes       json.RawMessage `json:"outcomes"`
	OutcomePrices  json.RawMessage `json:"outcomePrices"`
	LastTradePrice *domain.RawFloat `json:"lastTradePrice"`
	Price          *domain.RawFloat `json:"price"`
	Volume         domain.RawFloat `json:"volume"`
	Liquidity      domain.RawFloat `json:"liquidity"`
	Closed         bool            `json:"closed"`
	Active         bool            `json:"active"`
}

type rawEvent struct {
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Markets     []rawMarket `json:"markets"`
}

// stringOrStringArray decodes a field that may be shipped as a bare JSON
// array of strings, or as a JSON string containing an encoded array, or as
// a single JSON string (treated as one element).
func stringOrStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		var nested []string
		if err := json.Unmarshal([]byte(s), &nested); err == nil {
			return nested
		}
		return []string{s}
	}
	return nil
}

func (m rawMarket) toDomain() domain.Market {
	outcomes := stringOrStringArray(m.Outcomes)
	prices := stringOrStringArray(m.OutcomePrices)

	out := domain.Market{
		ID:             m.ID,
		ConditionID:    m.ConditionID,
		Slug:           m.Slug,
		Question:       m.Question,
		Description:    m.Description,
		Outcomes:       outcomes,
		OutcomePrices:  prices,
		Volume:         m.Volume.Float64(),
		Liquidity:      m.Liquidity.Float64(),
	}
	if m.LastTradePrice != nil {
		v := m.LastTradePrice.Float64()
		out.LastTradePrice = &v
	}
	if m.Price != nil {
		v := m.Price.Float64()
		out.Price = &v
	}

	if len(outcomes) > 0 && len(prices) == len(outcomes) {
		out.Tokens = make([]domain.Token, 0, len(outcomes))
		for i, o := range outcomes {
			p, err := strconv.ParseFloat(strings.TrimSpace(prices[i]), 64)
			if err != nil {
				continue
			}
			out.Tokens = append(out.Tokens, domain.Token{Outcome: o, Price: p})
		}
	}
	return out
}

func (e rawEvent) toDomain() domain.Event {
	markets := make([]domain.Market, 0, len(e.Markets))
	for _, m := range e.Markets {
		markets = append(markets, m.toDomain())
	}
	return domain.Event{
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		Markets:     markets,
	}
}
