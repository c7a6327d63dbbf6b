package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

// EventSearchResult wraps events found alongside any non-fatal warning
// produced while searching. Search failures never propagate as errors to
// the caller: a failed keyword or category search degrades to an empty
// result plus a warning, since the finder treats event discovery as
// best-effort supplementation rather than a hard dependency.
type EventSearchResult struct {
	Events   []domain.Event
	Warnings []string
}

// SearchEventsByKeywords searches active events whose title/tags match any
// of the given keywords.
func (c *Client) SearchEventsByKeywords(ctx context.Context, keywords []string, limit int) EventSearchResult {
	if len(keywords) == 0 {
		return EventSearchResult{}
	}
	query := url.Values{}
	for _, kw := range keywords {
		if kw != "" {
			query.Add("tag", kw)
		}
	}
	query.Set("active", "true")
	query.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))

	events, err := c.fetchEvents(ctx, query)
	if err != nil {
		return EventSearchResult{Warnings: []string{fmt.Sprintf("keyword_search_failed: %v", err)}}
	}
	return EventSearchResult{Events: events}
}

// SearchEventsByCategory searches active events tagged with a category.
func (c *Client) SearchEventsByCategory(ctx context.Context, category string, limit int) EventSearchResult {
	if category == "" {
		return EventSearchResult{}
	}
	query := url.Values{}
	query.Set("tag", category)
	query.Set("active", "true")
	query.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))

	events, err := c.fetchEvents(ctx, query)
	if err != nil {
		return EventSearchResult{Warnings: []string{fmt.Sprintf("category_search_failed: %v", err)}}
	}
	return EventSearchResult{Events: events}
}

// FetchActiveEvents lists currently active events without any filter, used
// as a last-resort supplementation pass.
func (c *Client) FetchActiveEvents(ctx context.Context, limit int) EventSearchResult {
	query := url.Values{}
	query.Set("active", "true")
	query.Set("closed", "false")
	query.Set("limit", fmt.Sprintf("%d", clampLimit(limit)))

	events, err := c.fetchEvents(ctx, query)
	if err != nil {
		return EventSearchResult{Warnings: []string{fmt.Sprintf("active_events_fetch_failed: %v", err)}}
	}
	return EventSearchResult{Events: events}
}

func (c *Client) fetchEvents(ctx context.Context, query url.Values) ([]domain.Event, error) {
	body, err := c.doRequest(ctx, "/events", query)
	if err != nil {
		return nil, err
	}
	var raws []rawEvent
	if err := c.decode(body, &raws); err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// FetchEventBySlug retrieves the single event identified by slug, if any.
func (c *Client) FetchEventBySlug(ctx context.Context, slug string) (domain.Event, bool, error) {
	if slug == "" {
		return domain.Event{}, false, nil
	}
	query := url.Values{}
	query.Set("slug", slug)
	events, err := c.fetchEvents(ctx, query)
	if err != nil {
		return domain.Event{}, false, err
	}
	if len(events) == 0 {
		return domain.Event{}, false, nil
	}
	return events[0], true, nil
}
