package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

// ExtractSlug pulls the event slug out of a polymarket.com URL path, e.g.
// "https://polymarket.com/event/will-x-happen/some-market" -> "will-x-happen".
// URLs whose host does not contain "polymarket.com" are rejected.
func ExtractSlug(marketURL string) string {
	u, err := url.Parse(strings.TrimSpace(marketURL))
	if err != nil {
		return ""
	}
	if !strings.Contains(strings.ToLower(u.Host), "polymarket.com") {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "event" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

// FindMarketIDFromURL resolves a polymarket.com market URL to a market id.
// It first tries the event-by-slug endpoint (cheap, exact), and only falls
// back to a full catalog scan with fuzzy slug-token matching when the slug
// lookup comes up empty.
func (c *Client) FindMarketIDFromURL(ctx context.Context, marketURL string) (string, error) {
	slug := ExtractSlug(marketURL)
	if slug == "" {
		return "", fmt.Errorf("catalog: could not extract a slug from %q", marketURL)
	}

	if event, ok, err := c.FetchEventBySlug(ctx, slug); err == nil && ok && len(event.Markets) > 0 {
		return event.Markets[0].Identity(), nil
	}

	markets, err := c.FetchMarkets(ctx, 1000)
	if err != nil {
		return "", fmt.Errorf("catalog: fallback catalog search: %w", err)
	}

	slugTokens := tokenize(strings.ReplaceAll(slug, "-", " "))
	threshold := 0.6 * float64(len(slugTokens))

	var best domain.Market
	bestScore := 0
	for _, m := range markets {
		if m.Slug == slug {
			return m.Identity(), nil
		}
		mTokens := tokenize(m.Question)
		shared := 0
		for t := range slugTokens {
			if mTokens[t] {
				shared++
			}
		}
		if shared > bestScore {
			bestScore = shared
			best = m
		}
	}
	if float64(bestScore) < threshold || bestScore == 0 {
		return "", fmt.Errorf("catalog: no market found matching slug %q", slug)
	}
	return best.Identity(), nil
}

// tokenize splits text into lowercased keyword tokens, stripping common
// punctuation and short stop words.
func tokenize(text string) map[string]bool {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true,
		"of": true, "in": true, "to": true, "for": true, "is": true,
		"on": true, "at": true, "by": true, "be": true, "it": true,
		"will": true, "vs": true, "with": true, "this": true, "that": true,
	}
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()-")
		if len(word) < 3 || stopWords[word] {
			continue
		}
		tokens[word] = true
	}
	return tokens
}
