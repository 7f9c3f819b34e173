package archival_test

import (
	"context"
	"testing"
	"time"

	"github.com/soundprediction/go-livemem/pkg/archival"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func learning(id string, ageDays int, mutate ...func(*types.MemoryNode)) *types.MemoryNode {
	n := &types.MemoryNode{
		ID:        id,
		Name:      "name-" + id,
		Content:   "content-" + id,
		CreatedAt: time.Now().AddDate(0, 0, -ageDays),
	}
	for _, fn := range mutate {
		fn(n)
	}
	return n
}

func TestApplyTwoTiers(t *testing.T) {
	ctx := context.Background()
	store := driver.NewMemoryDriver()

	// Old and connected: archived. Old and isolated past the retention
	// window: deleted. Old and isolated within the window: retained.
	store.AddNode(learning("old-connected", 120))
	store.AddNode(learning("anchor", 1))
	store.AddNode(learning("abandoned", 200))
	store.AddNode(learning("limbo", 120))
	store.AddEdge(&types.MemoryEdge{
		Kind: types.EdgeRelatedTo, SourceID: "old-connected", TargetID: "anchor", CreatedAt: time.Now(),
	})

	policy := archival.NewPolicy(store, nil)
	result, err := policy.Apply(ctx, 90, 180)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NodesArchived)
	assert.Equal(t, 1, result.NodesDeleted)

	archivedNode, err := store.GetNode(ctx, "old-connected")
	require.NoError(t, err)
	assert.True(t, archivedNode.Archived)
	assert.Equal(t, archival.ReasonAgeButConnected, archivedNode.ArchiveReason)

	_, err = store.GetNode(ctx, "abandoned")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.GetNode(ctx, "limbo")
	require.NoError(t, err)
}

func TestArchivedNodesAreNeverDeleted(t *testing.T) {
	ctx := context.Background()
	store := driver.NewMemoryDriver()

	// Isolated, 200 days old, but previously archived: retained forever.
	archivedAt := time.Now().AddDate(0, 0, -10)
	store.AddNode(learning("kept", 200, func(n *types.MemoryNode) {
		n.Archived = true
		n.ArchivedAt = &archivedAt
		n.ArchiveReason = archival.ReasonAgeButConnected
	}))
	store.AddNode(learning("doomed", 200))

	policy := archival.NewPolicy(store, nil)
	result, err := policy.Apply(ctx, 90, 180)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NodesArchived)
	assert.Equal(t, 1, result.NodesDeleted)

	_, err = store.GetNode(ctx, "kept")
	require.NoError(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := driver.NewMemoryDriver()

	store.AddNode(learning("old-connected", 120))
	store.AddNode(learning("anchor", 1))
	store.AddEdge(&types.MemoryEdge{
		Kind: types.EdgeRelatedTo, SourceID: "old-connected", TargetID: "anchor", CreatedAt: time.Now(),
	})

	policy := archival.NewPolicy(store, nil)
	first, err := policy.Apply(ctx, 90, 180)
	require.NoError(t, err)
	assert.Equal(t, 1, first.NodesArchived)

	second, err := policy.Apply(ctx, 90, 180)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NodesArchived)
	assert.Equal(t, 0, second.NodesDeleted)
}
