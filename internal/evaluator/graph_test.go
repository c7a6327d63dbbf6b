package evaluator

import (
	"math"
	"testing"

	"github.com/easyweb3tools/polymarket-relations/internal/domain"
)

func leaf(id string, weight float64, decision domain.Decision, rel domain.RelationType, prob float64) *domain.GraphNode {
	return &domain.GraphNode{
		ID:          id,
		Probability: prob,
		Weight:      weight,
		Decision:    decision,
		Relation:    rel,
		HasRelation: true,
	}
}

func TestEvaluate_SingleNodeTotalStakeAndBounds(t *testing.T) {
	root := &domain.GraphNode{ID: "root", Probability: 0.6, Weight: 10, Decision: domain.Yes}
	res := New().Evaluate(root)

	if res.TotalStake != 10 {
		t.Fatalf("expected total stake 10, got %v", res.TotalStake)
	}
	if res.WorstCase != -10 {
		t.Fatalf("expected worst case -10 (root loses), got %v", res.WorstCase)
	}
	if res.BestCase != 10 {
		t.Fatalf("expected best case 10 (root wins), got %v", res.BestCase)
	}
}

func TestEvaluate_ImpliesChildYieldsNegativeWorstCase(t *testing.T) {
	root := &domain.GraphNode{
		ID: "root", Probability: 0.7, Weight: 10, Decision: domain.Yes,
		Children: []*domain.GraphNode{
			leaf("child", 5, domain.Yes, domain.Implies, 0.6),
		},
	}
	res := New().Evaluate(root)

	if res.TotalStake != 15 {
		t.Fatalf("expected total stake 15, got %v", res.TotalStake)
	}
	if res.WorstCase > 0 {
		t.Fatalf("expected a negative worst case with a losing branch present, got %v", res.WorstCase)
	}
	if res.BestCase < res.WorstCase {
		t.Fatalf("best case %v must not be below worst case %v", res.BestCase, res.WorstCase)
	}
}

func TestEvaluate_ContradictsChildOpposesRoot(t *testing.T) {
	root := &domain.GraphNode{
		ID: "root", Probability: 0.5, Weight: 10, Decision: domain.Yes,
		Children: []*domain.GraphNode{
			leaf("opp", 5, domain.No, domain.Contradicts, 0.4),
		},
	}
	res := New().Evaluate(root)

	// A contradicting child hedged in the opposite direction should not
	// widen the best case beyond the sum of the absolute stakes.
	if res.BestCase > 15 {
		t.Fatalf("expected best case capped at combined stake 15, got %v", res.BestCase)
	}
}

func TestEvaluate_PartitionChildrenForceExclusivity(t *testing.T) {
	root := &domain.GraphNode{
		ID: "root", Probability: 0.6, Weight: 10, Decision: domain.Yes,
		Children: []*domain.GraphNode{
			leaf("p1", 3, domain.Yes, domain.PartitionOf, 0.3),
			leaf("p2", 3, domain.Yes, domain.PartitionOf, 0.3),
		},
	}
	res := New().Evaluate(root)

	if res.TotalStake != 16 {
		t.Fatalf("expected total stake 16, got %v", res.TotalStake)
	}
	// Only one partition child can resolve yes, so the best case is the
	// root's +10 plus one child's +3 and the other's -3, not 10+3+3.
	if res.BestCase != 10 {
		t.Fatalf("expected best case 10 with mutually exclusive partition children, got %v", res.BestCase)
	}
	for _, w := range res.Warnings {
		if w == "partition_children_probability_sum_zero" {
			t.Fatalf("did not expect a zero-sum warning when both children carry positive probability")
		}
	}
}

func TestEvaluate_PartitionChildrenZeroSumWarns(t *testing.T) {
	root := &domain.GraphNode{
		ID: "root", Probability: 0.6, Weight: 10, Decision: domain.Yes,
		Children: []*domain.GraphNode{
			leaf("p1", 3, domain.Yes, domain.PartitionOf, 0),
			leaf("p2", 3, domain.Yes, domain.PartitionOf, 0),
		},
	}
	res := New().Evaluate(root)

	found := false
	for _, w := range res.Warnings {
		if w == "partition_children_probability_sum_zero" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected partition_children_probability_sum_zero warning, got %v", res.Warnings)
	}
}

func TestEvaluate_ROIConsistentWithExpectedValueAndStake(t *testing.T) {
	root := &domain.GraphNode{
		ID: "root", Probability: 0.65, Weight: 8, Decision: domain.Yes,
		Children: []*domain.GraphNode{
			leaf("a", 4, domain.Yes, domain.Subevent, 0.8),
			leaf("b", 2, domain.No, domain.Contradicts, 0.2),
		},
	}
	res := New().Evaluate(root)

	if res.TotalStake <= 0 {
		t.Fatalf("expected positive total stake, got %v", res.TotalStake)
	}
	want := res.ExpectedValue / res.TotalStake
	if math.Abs(res.ROI-want) > 1e-9 {
		t.Fatalf("expected ROI %v to equal expectedValue/totalStake %v", res.ROI, want)
	}
}

func TestEvaluate_DeepChainRemainsBounded(t *testing.T) {
	grandchild := leaf("gc", 2, domain.Yes, domain.Subevent, 0.9)
	child := leaf("c", 3, domain.Yes, domain.Implies, 0.7)
	child.Children = []*domain.GraphNode{grandchild}
	root := &domain.GraphNode{ID: "root", Probability: 0.6, Weight: 5, Decision: domain.Yes, Children: []*domain.GraphNode{child}}

	res := New().Evaluate(root)

	if res.TotalStake != 10 {
		t.Fatalf("expected total stake 10 across three nodes, got %v", res.TotalStake)
	}
	if res.WorstCase < -10 || res.BestCase > 10 {
		t.Fatalf("expected worst/best case within +-totalStake, got worst=%v best=%v", res.WorstCase, res.BestCase)
	}
}
