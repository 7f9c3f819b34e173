package analysis_test

import (
	"context"
	"testing"
	"time"

	"github.com/soundprediction/go-livemem/pkg/analysis"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, mutate ...func(*types.MemoryNode)) *types.MemoryNode {
	n := &types.MemoryNode{
		ID:             id,
		Name:           "name-" + id,
		Content:        "content-" + id,
		CreatedAt:      time.Now().Add(-24 * time.Hour),
		RelevanceScore: 0.5,
	}
	for _, fn := range mutate {
		fn(n)
	}
	return n
}

func TestDuplicatePairsPriority(t *testing.T) {
	// a and b match on content AND name; only exact_duplicate is
	// reported. b and c share a name only.
	nodes := []*types.MemoryNode{
		node("a", func(n *types.MemoryNode) { n.Content = "same"; n.Name = "shared" }),
		node("b", func(n *types.MemoryNode) { n.Content = "same"; n.Name = "shared" }),
		node("c", func(n *types.MemoryNode) { n.Name = "shared" }),
	}

	pairs := analysis.DuplicatePairs(nodes)
	require.Len(t, pairs, 3)
	assert.Equal(t, types.DuplicatePair{ID1: "a", ID2: "b", Rule: types.MatchExactDuplicate}, pairs[0])
	assert.Equal(t, types.DuplicatePair{ID1: "a", ID2: "c", Rule: types.MatchSameName}, pairs[1])
	assert.Equal(t, types.DuplicatePair{ID1: "b", ID2: "c", Rule: types.MatchSameName}, pairs[2])
}

func TestDuplicatePairsProjectCategory(t *testing.T) {
	nodes := []*types.MemoryNode{
		node("a", func(n *types.MemoryNode) { n.Project = "p1"; n.Category = "work" }),
		node("b", func(n *types.MemoryNode) { n.Project = "p1"; n.Category = "work" }),
		node("c", func(n *types.MemoryNode) { n.Project = "p1" }),
		node("d", func(n *types.MemoryNode) { n.Category = "work" }),
	}

	pairs := analysis.DuplicatePairs(nodes)
	require.Len(t, pairs, 1)
	assert.Equal(t, types.MatchSameProjectCategory, pairs[0].Rule)

	// Nodes with an empty project or category never group.
	assert.Equal(t, "a", pairs[0].ID1)
	assert.Equal(t, "b", pairs[0].ID2)
}

func TestGroupDuplicatesClaimsNodesOnce(t *testing.T) {
	// a, b, c share an evaluation; a and b also share content. The
	// stronger content rule claims a and b, leaving c ungrouped because
	// a one-node remainder is not a group.
	nodes := []*types.MemoryNode{
		node("a", func(n *types.MemoryNode) { n.Content = "same"; n.EvaluationID = "E1" }),
		node("b", func(n *types.MemoryNode) { n.Content = "same"; n.EvaluationID = "E1" }),
		node("c", func(n *types.MemoryNode) { n.EvaluationID = "E1" }),
	}

	groups := analysis.GroupDuplicates(nodes)
	require.Len(t, groups, 1)
	assert.Equal(t, types.MatchExactDuplicate, groups[0].Rule)
	require.Len(t, groups[0].Nodes, 2)
	assert.Equal(t, "a", groups[0].Nodes[0].ID)
	assert.Equal(t, "b", groups[0].Nodes[1].ID)
}

func TestGroupDuplicatesByEvaluation(t *testing.T) {
	nodes := []*types.MemoryNode{
		node("a", func(n *types.MemoryNode) { n.EvaluationID = "E1" }),
		node("b", func(n *types.MemoryNode) { n.EvaluationID = "E1" }),
		node("c", func(n *types.MemoryNode) { n.EvaluationID = "E2" }),
	}

	groups := analysis.GroupDuplicates(nodes)
	require.Len(t, groups, 1)
	assert.Equal(t, types.MatchSameEvaluation, groups[0].Rule)
	assert.Equal(t, "E1", groups[0].Key)
}

func TestAnalyzerScan(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := driver.NewMemoryDriver()

	store.AddNode(node("fresh", func(n *types.MemoryNode) { n.CreatedAt = now }))
	store.AddNode(node("old", func(n *types.MemoryNode) {
		n.CreatedAt = now.AddDate(0, 0, -120)
		n.RelevanceScore = 0.2
	}))
	store.AddNode(node("linked", func(n *types.MemoryNode) { n.CreatedAt = now }))
	store.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "linked", TargetID: "fresh", CreatedAt: now})

	analyzer := analysis.NewAnalyzer(store, nil)
	result := analyzer.Scan(ctx, 90, 0.3)

	require.Empty(t, result.Errors)
	require.NotNil(t, result.Health)
	assert.Equal(t, 3, result.Health.TotalNodes)
	assert.Equal(t, 1, result.Health.TotalEdges)
	assert.Equal(t, 1, result.Health.IsolatedCount)
	assert.Equal(t, 1, result.Health.StaleCount)
	require.NotNil(t, result.Health.HealthScore)
	assert.InDelta(t, (1-2.0/3.0)*100, *result.Health.HealthScore, 1e-9)

	require.Len(t, result.Isolated, 1)
	assert.Equal(t, "old", result.Isolated[0].ID)
	require.Len(t, result.LowRelevance, 1)
	assert.Equal(t, "old", result.LowRelevance[0].ID)
}

func TestAnalyzeEmptyGraph(t *testing.T) {
	analyzer := analysis.NewAnalyzer(driver.NewMemoryDriver(), nil)

	report, err := analyzer.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalNodes)
	assert.Nil(t, report.HealthScore)
}
