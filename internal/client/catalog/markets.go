package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

// FetchMarket resolves a single market by id or condition id. The modern
// /markets/{id} endpoint is tried first; on failure the legacy
// /markets?condition_ids={id} form is tried before giving up.
func (c *Client) FetchMarket(ctx context.Context, id string) (domain.Market, error) {
	if id == "" {
		return domain.Market{}, errors.New("catalog: market id is required")
	}

	body, err := c.doRequest(ctx, "/markets/"+url.PathEscape(id), nil)
	if err == nil {
		var raw rawMarket
		if decErr := c.decode(body, &raw); decErr == nil && raw.ID != "" {
			return raw.toDomain(), nil
		}
	}
	modernErr := err

	query := url.Values{}
	query.Set("condition_ids", id)
	body, legacyErr := c.doRequest(ctx, "/markets", query)
	if legacyErr == nil {
		var raws []rawMarket
		if decErr := c.decode(body, &raws); decErr == nil && len(raws) > 0 {
			return raws[0].toDomain(), nil
		}
	}

	return domain.Market{}, fmt.Errorf("upstream_market_fetch: modern endpoint: %v, legacy endpoint: %v", modernErr, legacyErr)
}

// FetchMarkets lists markets, clamping limit to [1,1000] and excluding
// closed markets.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	limit = clampLimit(limit)

	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("closed", "false")

	body, err := c.doRequest(ctx, "/markets", query)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch markets: %w", err)
	}
	var raws []rawMarket
	if err := c.decode(body, &raws); err != nil {
		return nil, err
	}

	out := make([]domain.Market, 0, len(raws))
	for _, r := range raws {
		if r.Closed {
			continue
		}
		out = append(out, r.toDomain())
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
