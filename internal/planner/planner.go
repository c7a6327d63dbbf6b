// Package planner implements the Keyword & Selection Planner (spec §4.2):
// it turns a root market into search keywords, ranks candidate events for
// relevance, and classifies a market into a coarse category. Every
// operation has a deterministic heuristic core and an optional LLM
// refinement pass that falls back to the heuristic on any error or
// unparseable response, per internal/llm's parse-or-default contract.
package planner

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
	"github.com/easyweb3tools/polymarket-relations/internal/llm"
)

// Planner generates keywords, selects relevant events, and classifies
// markets. A nil LLM client disables the refinement passes entirely,
// leaving the heuristics as the sole behavior.
type Planner struct {
	llm LLMClient
}

// LLMClient is the narrow interface the planner depends on, satisfied by
// internal/llm.Client.
type LLMClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

func New(client LLMClient) *Planner {
	return &Planner{llm: client}
}

// stopWords is the fixed drop set: will, articles, and/or, prepositions,
// plus the prediction-market boilerplate words win/lose/yes/no/market/election.
var stopWords = map[string]bool{
	"will": true, "the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "in": true, "to": true, "for": true, "on": true, "at": true,
	"by": true, "with": true,
	"win": true, "lose": true, "yes": true, "no": true, "market": true, "election": true,
}

func containsDigit(word string) bool {
	for _, r := range word {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// tokenize strips non-alphanumerics, drops the stopword set, and drops
// tokens shorter than 3 characters unless they contain a digit (so
// four-digit years survive), deduping case-insensitively.
func tokenize(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, word)
		if word == "" || stopWords[word] || seen[word] {
			continue
		}
		if len(word) < 3 && !containsDigit(word) {
			continue
		}
		seen[word] = true
		out = append(out, word)
	}
	return out
}

// GenerateSearchKeywords extracts up to 4 search keywords from the root
// market's question text. If the deterministic heuristic alone yields at
// least 2 tokens, those are returned directly with no LLM call. Otherwise
// the LLM is asked for 2-4 short tokens; on any LLM error or unparseable
// response it falls back to the heuristic output (even if it has fewer
// than 2 tokens), or the literal ["market"] when the heuristic is empty.
func (p *Planner) GenerateSearchKeywords(ctx context.Context, market domain.Market, maxKeywords int) []string {
	if maxKeywords <= 0 {
		maxKeywords = 4
	}
	heuristic := tokenize(market.Question)
	if len(heuristic) > maxKeywords {
		heuristic = heuristic[:maxKeywords]
	}
	if len(heuristic) >= 2 {
		return heuristic
	}

	fallback := func() []string {
		if len(heuristic) == 0 {
			return []string{"market"}
		}
		return heuristic
	}

	if p.llm == nil {
		return fallback()
	}

	system := "You generate short prediction-market search keywords. Respond with JSON only: {\"keywords\": [\"...\"]}."
	user := "Market question: " + market.Question + "\nDescription: " + market.Description +
		"\nReturn 2 to 4 short keywords (1-2 words each, proper nouns and identifiers preferred) " +
		"as a JSON object with a \"keywords\" array."

	raw, err := p.llm.Complete(ctx, system, user)
	if err != nil {
		return fallback()
	}

	var parsed struct {
		Keywords []string `json:"keywords"`
	}
	if !llm.ParseJSONOrDefault(raw, &parsed) || len(parsed.Keywords) == 0 {
		return fallback()
	}

	out := make([]string, 0, maxKeywords)
	seen := map[string]bool{}
	for _, k := range parsed.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) >= maxKeywords {
			break
		}
	}
	if len(out) == 0 {
		return fallback()
	}
	return out
}

type selectResponse struct {
	Slugs []string `json:"slugs"`
}

// SelectRelevantEvents filters out any event whose slug was already
// visited, then asks the LLM to pick at most maxEvents slugs most relevant
// to the root market by same-topic/causal/temporal criteria. On a nil LLM
// client, an LLM error, or an unparseable response, it falls back to the
// first maxEvents unvisited events in harvest order.
func (p *Planner) SelectRelevantEvents(ctx context.Context, market domain.Market, events []domain.Event, visitedSlugs []string, maxEvents int) []domain.Event {
	if maxEvents <= 0 {
		maxEvents = 8
	}

	visited := map[string]bool{}
	for _, s := range visitedSlugs {
		visited[s] = true
	}
	unvisited := make([]domain.Event, 0, len(events))
	bySlug := map[string]domain.Event{}
	for _, e := range events {
		if e.Slug == "" || visited[e.Slug] {
			continue
		}
		unvisited = append(unvisited, e)
		bySlug[e.Slug] = e
	}
	if len(unvisited) == 0 {
		return nil
	}

	firstN := func() []domain.Event {
		n := maxEvents
		if n > len(unvisited) {
			n = len(unvisited)
		}
		return append([]domain.Event(nil), unvisited[:n]...)
	}

	if p.llm == nil {
		return firstN()
	}

	raw, err := p.llm.Complete(ctx, selectSystemPrompt(), selectUserPrompt(market, unvisited, maxEvents))
	if err != nil {
		return firstN()
	}
	var parsed selectResponse
	if !llm.ParseJSONOrDefault(raw, &parsed) || len(parsed.Slugs) == 0 {
		return firstN()
	}

	out := make([]domain.Event, 0, maxEvents)
	seen := map[string]bool{}
	for _, slug := range parsed.Slugs {
		e, ok := bySlug[slug]
		if !ok || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, e)
		if len(out) >= maxEvents {
			break
		}
	}
	if len(out) == 0 {
		return firstN()
	}
	return out
}

func selectSystemPrompt() string {
	return "You select which candidate prediction-market events are most relevant to a source market, " +
		"using same-topic, causal, and temporal relevance criteria. " +
		`Respond with JSON only: {"slugs": ["...", ...]}.`
}

func selectUserPrompt(market domain.Market, events []domain.Event, maxEvents int) string {
	var b strings.Builder
	b.WriteString("Source market: ")
	b.WriteString(market.Question)
	b.WriteString("\n\nCandidate events:\n")
	for _, e := range events {
		b.WriteString("- slug=")
		b.WriteString(e.Slug)
		b.WriteString(" title=\"")
		b.WriteString(e.Title)
		b.WriteString("\"\n")
	}
	if maxEvents <= 0 {
		maxEvents = 8
	}
	fmt.Fprintf(&b, "\nPick at most %d of the slugs above, ranked by relevance.", maxEvents)
	return b.String()
}

// categoryKeywords maps the closed category set of spec §4.2 to its
// heuristic keyword triggers. Iteration order over this map is
// unspecified, so a question matching more than one category's keywords
// resolves to whichever is checked first; the LLM is not consulted for
// such ties.
var categoryKeywords = map[string][]string{
	"Politics":      {"election", "president", "senate", "congress", "vote", "governor", "referendum"},
	"Sports":        {"nba", "nfl", "championship", "match", "game", "tournament", "cup", "olympics"},
	"Crypto":        {"bitcoin", "ethereum", "crypto", "token", "blockchain", "defi"},
	"Science":       {"nasa", "spacex", "climate", "vaccine", "research", "discovery"},
	"Entertainment": {"oscar", "movie", "award", "celebrity", "album", "grammy"},
}

// GetMarketCategory classifies a market into one of
// {Politics, Crypto, Sports, Science, Entertainment, Other}. The heuristic
// keyword match always runs first; the LLM pass only overrides it when the
// heuristic found nothing and the LLM returns one of the known categories.
func (p *Planner) GetMarketCategory(ctx context.Context, market domain.Market) string {
	tokens := tokenize(market.Question + " " + market.Description)
	tokenSet := map[string]bool{}
	for _, t := range tokens {
		tokenSet[t] = true
	}
	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			if tokenSet[kw] {
				return category
			}
		}
	}

	if p.llm == nil {
		return "Other"
	}

	system := "Classify a prediction market into exactly one category. Respond with JSON only: {\"category\": \"...\"}."
	user := "Question: " + market.Question + "\nDescription: " + market.Description +
		"\nValid categories: Politics, Sports, Crypto, Science, Entertainment, Other."

	raw, err := p.llm.Complete(ctx, system, user)
	if err != nil {
		return "Other"
	}
	var parsed struct {
		Category string `json:"category"`
	}
	if !llm.ParseJSONOrDefault(raw, &parsed) {
		return "Other"
	}
	cat := strings.TrimSpace(parsed.Category)
	for known := range categoryKeywords {
		if strings.EqualFold(cat, known) {
			return known
		}
	}
	return "Other"
}
