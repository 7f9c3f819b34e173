package driver_test

import (
	"context"
	"testing"
	"time"

	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNode(d *driver.MemoryDriver, id string, created time.Time, mutate ...func(*types.MemoryNode)) {
	node := &types.MemoryNode{
		ID:             id,
		Name:           "learning " + id,
		Content:        "content " + id,
		Category:       "professional",
		Importance:     types.ImportanceNormal,
		CreatedAt:      created,
		RelevanceScore: 0.5,
	}
	for _, fn := range mutate {
		fn(node)
	}
	d.AddNode(node)
}

func TestMemoryDriverScans(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	d := driver.NewMemoryDriver()

	seedNode(d, "a", now.Add(-200*24*time.Hour))
	seedNode(d, "b", now.Add(-10*24*time.Hour))
	seedNode(d, "c", now.Add(-100*24*time.Hour), func(n *types.MemoryNode) {
		n.Archived = true
	})
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "a", TargetID: "b", CreatedAt: now})

	active, err := d.ActiveNodes(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].Connections)

	isolated, err := d.IsolatedNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, isolated)

	stale, err := d.StaleNodes(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "a", stale[0].ID)

	low, err := d.LowRelevanceNodes(ctx, 0.6)
	require.NoError(t, err)
	assert.Len(t, low, 2)

	stats, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, 1, stats.TotalEdges)
	assert.Equal(t, 1, stats.ArchivedCount)
	assert.InDelta(t, 0.5, stats.AverageRelevance, 1e-9)
}

func TestMemoryDriverEdgeChecks(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	d := driver.NewMemoryDriver()

	seedNode(d, "a", now)
	seedNode(d, "b", now)
	seedNode(d, "c", now)
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "a", TargetID: "b", CreatedAt: now})
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeSupersedes, SourceID: "b", TargetID: "c", CreatedAt: now})

	// RELATED_TO is symmetric, so the reversed lookup also matches.
	exists, err := d.EdgeExists(ctx, "b", "a", types.EdgeRelatedTo)
	require.NoError(t, err)
	assert.True(t, exists)

	// SUPERSEDES is directed.
	exists, err = d.EdgeExists(ctx, "c", "b", types.EdgeSupersedes)
	require.NoError(t, err)
	assert.False(t, exists)

	connected, err := d.Connected(ctx, "c", "b")
	require.NoError(t, err)
	assert.True(t, connected)

	connected, err = d.Connected(ctx, "a", "c")
	require.NoError(t, err)
	assert.False(t, connected)
}

func TestMemoryDriverMergeGroup(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	d := driver.NewMemoryDriver()

	seedNode(d, "keeper", now)
	seedNode(d, "dup1", now)
	seedNode(d, "dup2", now)
	seedNode(d, "other", now)
	seedNode(d, "shared", now)

	// dup1 reaches "other", which the keeper does not know yet. Both the
	// keeper and dup2 reach "shared", so that edge must not be duplicated.
	// The dup1-dup2 edge is internal to the group and vanishes with it.
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "dup1", TargetID: "other", CreatedAt: now})
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "keeper", TargetID: "shared", CreatedAt: now})
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "dup2", TargetID: "shared", CreatedAt: now})
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "dup1", TargetID: "dup2", CreatedAt: now})

	result, err := d.MergeGroup(ctx, "keeper", []string{"dup1", "dup2"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NodesMerged)
	assert.Equal(t, 1, result.EdgesCreated)

	_, err = d.GetNode(ctx, "dup1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	keeper, err := d.GetNode(ctx, "keeper")
	require.NoError(t, err)
	assert.Equal(t, 2, keeper.MergeCount)
	assert.Equal(t, []string{"content dup1", "content dup2"}, keeper.MergedContent)
	require.NotNil(t, keeper.UpdatedAt)

	// The transferred edge carries the merge kind.
	exists, err := d.EdgeExists(ctx, "keeper", "other", types.EdgeMergedConnection)
	require.NoError(t, err)
	assert.True(t, exists)

	edges, err := d.NodeEdges(ctx, "keeper")
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestMemoryDriverMergeGroupMissingNode(t *testing.T) {
	ctx := context.Background()
	d := driver.NewMemoryDriver()
	seedNode(d, "keeper", time.Now())

	_, err := d.MergeGroup(ctx, "keeper", []string{"ghost"})
	require.Error(t, err)
	assert.True(t, types.IsStoreError(err))
	assert.Equal(t, 1, d.NodeCount())
}

func TestMemoryDriverBoostAndDecay(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	d := driver.NewMemoryDriver()

	seedNode(d, "idle", now.Add(-60*24*time.Hour))
	seedNode(d, "fresh", now, func(n *types.MemoryNode) {
		accessed := now
		n.LastAccessed = &accessed
	})

	require.NoError(t, d.BoostAccess(ctx, "idle", 1.1))
	boosted, err := d.GetNode(ctx, "idle")
	require.NoError(t, err)
	assert.InDelta(t, 0.55, boosted.RelevanceScore, 1e-9)
	assert.Equal(t, 1, boosted.AccessCount)
	require.NotNil(t, boosted.LastAccessed)

	assert.ErrorIs(t, d.BoostAccess(ctx, "ghost", 1.1), types.ErrNotFound)

	// The boost above stamped last_accessed on "idle", so only a node
	// that stayed idle decays.
	seedNode(d, "dormant", now.Add(-45*24*time.Hour))
	decayed, err := d.DecayIdle(ctx, now.Add(-30*24*time.Hour), 0.9)
	require.NoError(t, err)
	assert.Equal(t, 1, decayed)

	dormant, err := d.GetNode(ctx, "dormant")
	require.NoError(t, err)
	assert.InDelta(t, 0.45, dormant.RelevanceScore, 1e-9)
}

func TestMemoryDriverArchiveAndDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cutoff := now.Add(-90 * 24 * time.Hour)
	d := driver.NewMemoryDriver()

	seedNode(d, "old-connected", now.Add(-120*24*time.Hour))
	seedNode(d, "old-isolated", now.Add(-200*24*time.Hour))
	seedNode(d, "recent", now)
	d.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "old-connected", TargetID: "recent", CreatedAt: now})

	candidates, err := d.ArchiveCandidates(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "old-connected", candidates[0].ID)

	doomed, err := d.DeleteCandidates(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, doomed, 1)
	assert.Equal(t, "old-isolated", doomed[0].ID)

	archived, err := d.ArchiveNodes(ctx, []string{"old-connected"}, "age_but_connected")
	require.NoError(t, err)
	assert.Equal(t, 1, archived)

	node, err := d.GetNode(ctx, "old-connected")
	require.NoError(t, err)
	assert.True(t, node.Archived)
	assert.Equal(t, "age_but_connected", node.ArchiveReason)
	require.NotNil(t, node.ArchivedAt)

	// Archiving is idempotent.
	archived, err = d.ArchiveNodes(ctx, []string{"old-connected"}, "age_but_connected")
	require.NoError(t, err)
	assert.Equal(t, 0, archived)

	deleted, err := d.DeleteNodes(ctx, []string{"old-isolated", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 2, d.NodeCount())
}

func TestMemoryDriverSetRelevance(t *testing.T) {
	ctx := context.Background()
	d := driver.NewMemoryDriver()
	seedNode(d, "a", time.Now())

	err := d.SetRelevance(ctx, map[string]float64{"a": 0.8, "ghost": 0.2})
	require.NoError(t, err)

	node, err := d.GetNode(ctx, "a")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, node.RelevanceScore, 1e-9)
}

func TestBreakerDriverPassesThrough(t *testing.T) {
	ctx := context.Background()
	d := driver.NewMemoryDriver()
	seedNode(d, "a", time.Now())

	wrapped := driver.NewBreakerDriver(d, driver.DefaultBreakerSettings(), nil)

	node, err := wrapped.GetNode(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", node.ID)

	// Sentinel errors pass through without tripping the breaker.
	for i := 0; i < 20; i++ {
		_, err = wrapped.GetNode(ctx, "ghost")
		assert.ErrorIs(t, err, types.ErrNotFound)
	}
	_, err = wrapped.GetNode(ctx, "a")
	assert.NoError(t, err)
}
