package relations_test

import (
	"context"
	"testing"
	"time"

	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/relations"
	"github.com/soundprediction/go-livemem/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func learning(id string, created time.Time, mutate ...func(*types.MemoryNode)) *types.MemoryNode {
	n := &types.MemoryNode{
		ID:        id,
		Name:      "name-" + id,
		Content:   "content-" + id,
		CreatedAt: created,
	}
	for _, fn := range mutate {
		fn(n)
	}
	return n
}

func TestLinkRelated(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := driver.NewMemoryDriver()

	// a and b share category+project; a and c share category+subcategory;
	// b and c share only the category; d is another category entirely.
	store.AddNode(learning("a", now, func(n *types.MemoryNode) {
		n.Category = "work"
		n.Project = "p1"
		n.Subcategory = "go"
	}))
	store.AddNode(learning("b", now, func(n *types.MemoryNode) {
		n.Category = "work"
		n.Project = "p1"
	}))
	store.AddNode(learning("c", now, func(n *types.MemoryNode) {
		n.Category = "work"
		n.Subcategory = "go"
	}))
	store.AddNode(learning("d", now, func(n *types.MemoryNode) {
		n.Category = "personal"
		n.Project = "p1"
	}))

	builder := relations.NewBuilder(store, nil)
	created, err := builder.LinkRelated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}} {
		exists, err := store.EdgeExists(ctx, pair[0], pair[1], types.EdgeRelatedTo)
		require.NoError(t, err)
		assert.True(t, exists, "expected RELATED_TO %s-%s", pair[0], pair[1])
	}
	exists, err := store.EdgeExists(ctx, "b", "c", types.EdgeRelatedTo)
	require.NoError(t, err)
	assert.False(t, exists)

	// Idempotence: the second run creates nothing.
	created, err = builder.LinkRelated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 2, store.EdgeCount())
}

func TestLinkRelatedHonorsExistingReversedEdge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := driver.NewMemoryDriver()

	store.AddNode(learning("a", now, func(n *types.MemoryNode) { n.Category = "work"; n.Project = "p1" }))
	store.AddNode(learning("b", now, func(n *types.MemoryNode) { n.Category = "work"; n.Project = "p1" }))
	store.AddEdge(&types.MemoryEdge{Kind: types.EdgeRelatedTo, SourceID: "b", TargetID: "a", CreatedAt: now})

	builder := relations.NewBuilder(store, nil)
	created, err := builder.LinkRelated(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestLinkSupersessions(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := driver.NewMemoryDriver()

	store.AddNode(learning("v1", base, func(n *types.MemoryNode) { n.Name = "deploy runbook" }))
	store.AddNode(learning("v2", base.AddDate(0, 0, 10), func(n *types.MemoryNode) { n.Name = "deploy runbook" }))
	store.AddNode(learning("other", base, func(n *types.MemoryNode) { n.Name = "unrelated" }))

	builder := relations.NewBuilder(store, nil)
	created, err := builder.LinkSupersessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	edges, err := store.NodeEdges(ctx, "v2")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, types.EdgeSupersedes, edges[0].Kind)
	assert.Equal(t, "v2", edges[0].SourceID)
	assert.Equal(t, "v1", edges[0].TargetID)
	assert.Equal(t, 10, edges[0].DayDelta)

	// The superseded node is annotated, never removed.
	_, err = store.GetNode(ctx, "v1")
	require.NoError(t, err)

	created, err = builder.LinkSupersessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestLinkSupersessionsEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := driver.NewMemoryDriver()

	store.AddNode(learning("a", base, func(n *types.MemoryNode) { n.Name = "same" }))
	store.AddNode(learning("b", base, func(n *types.MemoryNode) { n.Name = "same" }))

	builder := relations.NewBuilder(store, nil)
	created, err := builder.LinkSupersessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
