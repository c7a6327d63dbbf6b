// Package evaluator implements the Graph Outcome Evaluator (spec §4.5): a
// recursive walk over a rooted graph of priced positions that computes
// min/expected/max return with conditional-probability propagation along
// typed parent-child edges, and a partition-aware aggregation for
// PARTITION_OF siblings.
package evaluator

import (
	"math"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

const partitionSumWarnThreshold = 0.05

// outcomeMetrics holds min/expected/max for one parent outcome branch.
type outcomeMetrics struct {
	min, expected, max float64
}

// nodeMetrics holds both parent-outcome branches for a node, i.e. what the
// node plus its subtree contributes if the parent resolves yes, and if it
// resolves no.
type nodeMetrics struct {
	yes, no outcomeMetrics
}

// Evaluator is stateless; Evaluate is a pure function of the graph.
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

// Evaluate computes the graph aggregate described in spec §4.5. The caller
// is responsible for calling domain.GraphNode.Validate first.
func (e *Evaluator) Evaluate(root *domain.GraphNode) domain.GraphOutcomeResult {
	var warnings []string
	totalStake := 0.0
	sumWeights(root, &totalStake)

	rootMetrics, edgeConfidence := metricsFor(root, &warnings)

	worstCase := math.Min(rootMetrics.yes.min, rootMetrics.no.min)
	bestCase := math.Max(rootMetrics.yes.max, rootMetrics.no.max)
	rawEV := root.Probability*rootMetrics.yes.expected + (1-root.Probability)*rootMetrics.no.expected

	confidence := edgeConfidence / (edgeConfidence + 1)

	var expectedValue float64
	if rawEV >= 0 {
		riskFactor := 0.0
		if totalStake > 0 {
			riskFactor = totalStake / (totalStake + math.Max(0, -worstCase))
		}
		expectedValue = rawEV * confidence * riskFactor
	} else {
		expectedValue = rawEV
	}

	roi := 0.0
	if totalStake > 0 {
		roi = expectedValue / totalStake
	}

	return domain.GraphOutcomeResult{
		TotalStake:    totalStake,
		WorstCase:     worstCase,
		BestCase:      bestCase,
		ExpectedValue: expectedValue,
		ROI:           roi,
		Warnings:      warnings,
	}
}

func sumWeights(n *domain.GraphNode, total *float64) {
	if n == nil {
		return
	}
	*total += n.Weight
	for _, c := range n.Children {
		sumWeights(c, total)
	}
}

// metricsFor computes this node's contribution under both possible parent
// outcomes, recursing into children first, and also accumulates the total
// graph confidence across every edge beneath this node (inclusive of this
// node's own edge to its parent, added by the caller).
func metricsFor(n *domain.GraphNode, warnings *[]string) (nodeMetrics, float64) {
	own := nodeContribution(n)

	partitionChildren, freeChildren := splitChildren(n.Children)

	aggYes, aggNo, confFromChildren := aggregateChildren(n, partitionChildren, freeChildren, warnings)

	result := nodeMetrics{
		yes: outcomeMetrics{
			min:      own.yes + aggYes.min,
			max:      own.yes + aggYes.max,
			expected: own.yes + aggYes.expected,
		},
		no: outcomeMetrics{
			min:      own.no + aggNo.min,
			max:      own.no + aggNo.max,
			expected: own.no + aggNo.expected,
		},
	}
	return result, confFromChildren
}

// nodeContribution returns {+weight, -weight} assigned to (yes-branch,
// no-branch) based on this node's own decision.
func nodeContribution(n *domain.GraphNode) struct{ yes, no float64 } {
	decision := domain.NormalizeDecision(n.Decision)
	if decision == domain.Yes {
		return struct{ yes, no float64 }{n.Weight, -n.Weight}
	}
	return struct{ yes, no float64 }{-n.Weight, n.Weight}
}

func splitChildren(children []*domain.GraphNode) (partition, free []*domain.GraphNode) {
	for _, c := range children {
		if domain.NormalizeRelation(c.Relation) == domain.PartitionOf {
			partition = append(partition, c)
		} else {
			free = append(free, c)
		}
	}
	return
}

// aggregateChildren sums every child's contribution (independent children
// individually, PARTITION_OF children as one group) under each parent
// outcome, and returns the total edge confidence contributed by this node's
// direct children (their own descendants' confidence is folded in
// recursively by the caller of metricsFor on each child).
func aggregateChildren(parent *domain.GraphNode, partitionChildren, freeChildren []*domain.GraphNode, warnings *[]string) (outcomeMetrics, outcomeMetrics, float64) {
	var aggYes, aggNo outcomeMetrics
	totalConfidence := 0.0

	type childEval struct {
		node          *domain.GraphNode
		metrics       nodeMetrics
		childConf     float64
		yesGivenYes   float64
		yesGivenNo    float64
	}

	evalChild := func(c *domain.GraphNode) childEval {
		m, subConf := metricsFor(c, warnings)
		yy, yn := conditionalYesProbabilities(domain.NormalizeRelation(c.Relation), parent.Probability, c.Probability, warnings)
		return childEval{node: c, metrics: m, childConf: subConf, yesGivenYes: yy, yesGivenNo: yn}
	}

	for _, c := range freeChildren {
		ce := evalChild(c)
		totalConfidence += ce.childConf + edgeConfidence(parent.Probability, ce.yesGivenYes, ce.yesGivenNo)

		rel := domain.NormalizeRelation(c.Relation)
		allowYes, allowNo := allowedOutcomes(rel)

		// Parent = yes branch.
		if allowYes && allowNo {
			aggYes.min += math.Min(ce.metrics.yes.min, ce.metrics.no.min)
			aggYes.max += math.Max(ce.metrics.yes.max, ce.metrics.no.max)
			aggYes.expected += ce.yesGivenYes*ce.metrics.yes.expected + (1-ce.yesGivenYes)*ce.metrics.no.expected
		} else if allowYes {
			aggYes.min += ce.metrics.yes.min
			aggYes.max += ce.metrics.yes.max
			aggYes.expected += ce.metrics.yes.expected
		} else {
			aggYes.min += ce.metrics.no.min
			aggYes.max += ce.metrics.no.max
			aggYes.expected += ce.metrics.no.expected
		}

		// Parent = no branch.
		allowYesNo, allowNoNo := allowedOutcomesGivenParentNo(rel)
		if allowYesNo && allowNoNo {
			aggNo.min += math.Min(ce.metrics.yes.min, ce.metrics.no.min)
			aggNo.max += math.Max(ce.metrics.yes.max, ce.metrics.no.max)
			aggNo.expected += ce.yesGivenNo*ce.metrics.yes.expected + (1-ce.yesGivenNo)*ce.metrics.no.expected
		} else if allowYesNo {
			aggNo.min += ce.metrics.yes.min
			aggNo.max += ce.metrics.yes.max
			aggNo.expected += ce.metrics.yes.expected
		} else {
			aggNo.min += ce.metrics.no.min
			aggNo.max += ce.metrics.no.max
			aggNo.expected += ce.metrics.no.expected
		}
	}

	if len(partitionChildren) > 0 {
		evals := make([]childEval, 0, len(partitionChildren))
		for _, c := range partitionChildren {
			ce := evalChild(c)
			totalConfidence += ce.childConf + edgeConfidence(parent.Probability, ce.yesGivenYes, ce.yesGivenNo)
			evals = append(evals, ce)
		}

		// Parent = no: every partition child is forced no; sum their no metrics.
		for _, ce := range evals {
			aggNo.min += ce.metrics.no.min
			aggNo.max += ce.metrics.no.max
			aggNo.expected += ce.metrics.no.expected
		}

		// Parent = yes: exactly one partition child is yes at a time.
		bMin, bMax, bE := 0.0, 0.0, 0.0
		for _, ce := range evals {
			bMin += ce.metrics.no.min
			bMax += ce.metrics.no.max
			bE += ce.metrics.no.expected
		}

		sumP := 0.0
		for _, c := range partitionChildren {
			sumP += c.Probability
		}
		if math.Abs(sumP-parent.Probability) > partitionSumWarnThreshold {
			*warnings = append(*warnings, "partition_children_probability_sum_diverges")
		}

		minOverStates := math.Inf(1)
		maxOverStates := math.Inf(-1)
		for _, ce := range evals {
			stateMin := bMin - ce.metrics.no.min + ce.metrics.yes.min
			stateMax := bMax - ce.metrics.no.max + ce.metrics.yes.max
			if stateMin < minOverStates {
				minOverStates = stateMin
			}
			if stateMax > maxOverStates {
				maxOverStates = stateMax
			}
		}

		expected := 0.0
		if sumP > 0 {
			for _, ce := range evals {
				weight := ce.node.Probability / sumP
				expected += weight * (bE - ce.metrics.no.expected + ce.metrics.yes.expected)
			}
		} else {
			*warnings = append(*warnings, "partition_children_probability_sum_zero")
			n := float64(len(evals))
			for _, ce := range evals {
				expected += (1 / n) * (bE - ce.metrics.no.expected + ce.metrics.yes.expected)
			}
		}

		aggYes.min += minOverStates
		aggYes.max += maxOverStates
		aggYes.expected += expected
	}

	return aggYes, aggNo, totalConfidence
}

// conditionalYesProbabilities returns the probability the child resolves
// yes given the parent resolves yes, and given the parent resolves no,
// per the table in spec §4.5.
func conditionalYesProbabilities(rel domain.RelationType, pParent, pChild float64, warnings *[]string) (givenYes, givenNo float64) {
	switch rel {
	case domain.Implies:
		givenNo = 0
		if pParent > 0 {
			givenYes = clamp01(pChild / pParent)
		} else {
			givenYes = 0
		}
		if pChild > pParent {
			*warnings = append(*warnings, "implies_child_probability_exceeds_parent")
		}
	case domain.Subevent, domain.ConditionedOn:
		givenYes = 1
		if pParent < 1 {
			givenNo = clamp01((pChild - pParent) / (1 - pParent))
		} else {
			givenNo = 0
		}
		if pChild < pParent {
			*warnings = append(*warnings, "subevent_child_probability_below_parent")
		}
	case domain.Contradicts:
		givenYes = 0
		if pParent < 1 {
			givenNo = clamp01(pChild / (1 - pParent))
		} else {
			givenNo = 0
		}
		if pParent+pChild > 1 {
			*warnings = append(*warnings, "contradicts_probabilities_overlap")
		}
	case domain.PartitionOf:
		givenNo = 0
		if pParent > 0 {
			givenYes = clamp01(pChild / pParent)
		} else {
			givenYes = 0
		}
		if pChild > pParent {
			*warnings = append(*warnings, "partition_child_probability_exceeds_parent")
		}
	default: // WEAK_SIGNAL
		givenYes = clamp01(pChild)
		givenNo = clamp01(pChild)
	}
	return
}

// allowedOutcomes reports which child outcomes are permitted when the
// parent resolves yes.
func allowedOutcomes(rel domain.RelationType) (allowYes, allowNo bool) {
	switch rel {
	case domain.Implies, domain.PartitionOf:
		return true, true // parent=yes permits both
	case domain.Subevent, domain.ConditionedOn:
		return true, false // parent=yes forces child=yes
	case domain.Contradicts:
		return false, true // parent=yes forces child=no
	default:
		return true, true
	}
}

// allowedOutcomesGivenParentNo reports which child outcomes are permitted
// when the parent resolves no.
func allowedOutcomesGivenParentNo(rel domain.RelationType) (allowYes, allowNo bool) {
	switch rel {
	case domain.Implies, domain.PartitionOf:
		return false, true // parent=no forces child=no
	case domain.Subevent, domain.ConditionedOn:
		return true, true // parent=no permits both
	case domain.Contradicts:
		return true, true // parent=no permits both
	default:
		return true, true
	}
}

// certainty measures how far a probability is from 0.5; it is 1 at the
// extremes and 0 at p=0.5.
func certainty(p float64) float64 {
	return 1 - 4*p*(1-p)
}

// edgeConfidence is the per-edge contribution to graph confidence: a
// certainty-weighted blend of the two conditional-yes branches, scaled by
// how far apart they are.
func edgeConfidence(pParent, yesGivenYes, yesGivenNo float64) float64 {
	weighted := pParent*certainty(yesGivenYes) + (1-pParent)*certainty(yesGivenNo)
	return weighted * math.Abs(yesGivenYes-yesGivenNo)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
