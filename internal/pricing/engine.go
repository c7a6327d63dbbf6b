// Package pricing implements the Compact Pricing Engine (spec §4.4): it
// turns a root belief plus a list of typed dependants into sized directional
// trades, respecting relation semantics and a volatility-driven risk
// posture. The dispatch-by-relation-type shape is grounded on
// alanyoungcy-polymarketbot's RelationService.ComputeImpliedPrices.
package pricing

import (
	"math"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

const equalityEpsilon = 1e-6

// Root is the pricing input describing the user's belief and position on
// the market they are viewing.
type Root struct {
	Probability float64
	Weight      float64
	Decision    domain.Decision
}

// Options tunes the sizing function. Both fields are expected to already
// carry their request-level defaults (epsilon 0.01, volatility 1) applied
// by the HTTP decoding layer, where JSON field absence is still
// distinguishable from an explicit zero; the engine itself treats any
// Volatility <= 0 it receives, including an explicit zero, as disabling
// all trades per spec testable property 3.
type Options struct {
	Epsilon    float64
	Volatility float64
}

// Result is the engine's output: one priced dependant per input, plus any
// warnings accumulated along the way.
type Result struct {
	Dependants []domain.PricedDependant
	Warnings   []string
}

// Engine is stateless; Price is a pure function of its arguments.
type Engine struct{}

func New() *Engine { return &Engine{} }

// Price computes {decision, weight} for each dependant given root and
// options. It never errors: out-of-range probabilities are clamped to [0,1]
// and a non-positive weight or epsilon falls back to its default, all
// without a warning. Warnings are reported only for a non-positive
// volatility and for a PARTITION_OF group whose probabilities sum to zero.
func (e *Engine) Price(root Root, dependants []domain.Dependant, opts Options) Result {
	var warnings []string

	if opts.Epsilon <= 0 {
		opts.Epsilon = 0.01
	}
	volatility := opts.Volatility

	root.Weight = defaultPositive(root.Weight, 1)
	root.Decision = domain.NormalizeDecision(root.Decision)
	root.Probability = clamp01(root.Probability)

	var effectiveEpsilon, riskExponent float64
	disabled := false
	if volatility <= 0 {
		disabled = true
		warnings = append(warnings, "volatility_non_positive")
		effectiveEpsilon = 1
		riskExponent = 1
	} else {
		effectiveEpsilon = clamp(opts.Epsilon/volatility, 0, 0.99)
		riskExponent = 1 / volatility
	}

	partitionSum := 0.0
	for _, d := range dependants {
		if domain.NormalizeRelation(d.Relation) == domain.PartitionOf {
			partitionSum += clamp01(d.Probability)
		}
	}
	partitionSumZero := false
	for _, d := range dependants {
		if domain.NormalizeRelation(d.Relation) == domain.PartitionOf && partitionSum == 0 {
			partitionSumZero = true
			break
		}
	}
	if partitionSumZero {
		warnings = append(warnings, "partition_sum_zero")
	}

	out := make([]domain.PricedDependant, 0, len(dependants))
	for _, d := range dependants {
		pDep := clamp01(d.Probability)
		rel := domain.NormalizeRelation(d.Relation)

		target := targetProbability(rel, pDep, root.Probability, partitionSum, partitionSumZero)

		edge := target - pDep
		m := math.Abs(edge)

		var decision domain.Decision
		var weight float64
		// Edges within equalityEpsilon of zero (float residue from the
		// partition rescale) count as no edge at all.
		if m > equalityEpsilon && !disabled {
			adj := (m * m) / (m + effectiveEpsilon)
			if edge > 0 {
				decision = domain.Yes
			} else {
				decision = domain.No
			}
			weight = root.Weight * math.Pow(adj, riskExponent)
		} else {
			decision = root.Decision
			weight = 0
		}
		if disabled {
			weight = 0
		}

		out = append(out, domain.PricedDependant{
			ID:       d.ID,
			Weight:   weight,
			Decision: decision,
			Relation: d.Relation,
		})
	}

	return Result{Dependants: out, Warnings: warnings}
}

// targetProbability implements the per-relation table in spec §3, with the
// PARTITION_OF rescaling rule from §4.4 taking precedence over the table
// when the dependant is a partition member.
func targetProbability(rel domain.RelationType, pDep, pRoot, partitionSum float64, partitionSumZero bool) float64 {
	if rel == domain.PartitionOf {
		if partitionSumZero {
			return pDep // treated as WEAK_SIGNAL: no constraint
		}
		return clamp01(pDep * pRoot / partitionSum)
	}
	switch rel {
	case domain.Implies:
		return math.Min(pDep, pRoot)
	case domain.Subevent, domain.ConditionedOn:
		return math.Max(pDep, pRoot)
	case domain.Contradicts:
		return math.Min(pDep, 1-pRoot)
	default: // WEAK_SIGNAL and unknown tags
		return pDep
	}
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func defaultPositive(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
