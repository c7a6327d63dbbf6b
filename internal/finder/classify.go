package finder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/easyweb3tools/polymarket-relations/internal/client/catalog"
	"github.com/easyweb3tools/polymarket-relations/internal/concurrency"
	"github.com/easyweb3tools/polymarket-relations/internal/domain"
	"github.com/easyweb3tools/polymarket-relations/internal/llm"
)

// classification is one entry of the LLM's batch classification response.
type classification struct {
	MarketID     string `json:"market_id"`
	Relationship string `json:"relationship"`
	Reasoning    string `json:"reasoning"`
}

type classifyResponse struct {
	Classifications []classification `json:"classifications"`
}

// classifyAndYield classifies candidates in batches of defaultClassifyBatchSize
// with up to defaultClassifyConcurrency batches in flight, calling yield for
// each resulting bet in the order its batch completes. yield returns false
// to request an early stop (e.g. once maxResults is reached), at which
// point remaining batches are abandoned via context cancellation.
func (f *Finder) classifyAndYield(ctx context.Context, root domain.Market, candidates []candidateMarket, yield func(domain.RelatedBet) bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	batches := chunk(candidates, defaultClassifyBatchSize)

	var mu sync.Mutex
	stopped := false

	_ = concurrency.BoundedEach(ctx, batches, defaultClassifyConcurrency, func(ctx context.Context, batch []candidateMarket, batchIndex int) error {
		mu.Lock()
		alreadyStopped := stopped
		mu.Unlock()
		if alreadyStopped || pastDeadline(ctx) {
			return nil
		}

		bets := f.classifyBatch(ctx, root, batch)

		mu.Lock()
		defer mu.Unlock()
		for _, bet := range bets {
			if stopped {
				return nil
			}
			if !yield(bet) {
				stopped = true
				cancel()
				return nil
			}
		}
		return nil
	})
}

func chunk(candidates []candidateMarket, size int) [][]candidateMarket {
	if size <= 0 {
		size = 1
	}
	var out [][]candidateMarket
	for i := 0; i < len(candidates); i += size {
		end := i + size
		if end > len(candidates) {
			end = len(candidates)
		}
		out = append(out, candidates[i:end])
	}
	return out
}

// classifyBatch asks the LLM to classify one batch of candidates against
// the root market in a single call, and falls back to a WEAK_SIGNAL
// classification with a generic reasoning string for any candidate the
// response doesn't cover or that the response fails to parse at all.
func (f *Finder) classifyBatch(ctx context.Context, root domain.Market, batch []candidateMarket) []domain.RelatedBet {
	byID := map[string]classification{}
	if f.llm != nil {
		if raw, err := f.llm.Complete(ctx, classifySystemPrompt(), classifyUserPrompt(root, batch)); err == nil {
			var parsed classifyResponse
			if llm.ParseJSONOrDefault(raw, &parsed) {
				for _, c := range parsed.Classifications {
					byID[c.MarketID] = c
				}
			}
		}
	}

	bets := make([]domain.RelatedBet, 0, len(batch))
	for _, c := range batch {
		pct := catalog.GetMarketPercentages(c.market)
		rel := domain.WeakSignal
		reasoning := "no strong signal detected; classified by default"
		if cls, ok := byID[c.market.Identity()]; ok {
			rel = domain.NormalizeRelation(domain.RelationType(strings.ToUpper(cls.Relationship)))
			if cls.Reasoning != "" {
				reasoning = cls.Reasoning
			}
		}
		bets = append(bets, domain.RelatedBet{
			MarketID:      c.market.Identity(),
			Market:        c.market,
			EventSlug:     c.eventSlug,
			Relationship:  rel,
			Reasoning:     reasoning,
			YesPercentage: pct.Yes,
			NoPercentage:  pct.No,
		})
	}
	return bets
}

func classifySystemPrompt() string {
	return "You classify the relationship of candidate prediction markets to a root market. " +
		"Valid relationships: IMPLIES, SUBEVENT, CONDITIONED_ON, CONTRADICTS, PARTITION_OF, WEAK_SIGNAL. " +
		`Respond with JSON only: {"classifications": [{"market_id": "...", "relationship": "...", "reasoning": "..."}]}.`
}

func classifyUserPrompt(root domain.Market, batch []candidateMarket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Root market: %s\n\nCandidates:\n", root.Question)
	for _, c := range batch {
		fmt.Fprintf(&b, "- id=%s question=%q\n", c.market.Identity(), c.market.Question)
	}
	b.WriteString("\nClassify every candidate above relative to the root market.")
	return b.String()
}
