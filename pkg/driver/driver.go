// Package driver defines the graph store contract the maintenance engine
// requires, with a Neo4j implementation for production and an in-memory
// implementation for tests and single-process use.
package driver

import (
	"context"
	"time"

	"github.com/soundprediction/go-livemem/pkg/types"
)

// GraphDriver is the minimal store contract the engine consumes. All
// mutating batch operations execute as a single transaction where the
// backing store supports one, so a crash leaves either the pre-state or the
// complete post-state.
type GraphDriver interface {
	// Read operations. Nodes returned by the scan methods are active
	// (non-archived) and carry their incident edge count in Connections.
	Stats(ctx context.Context) (*StoreStats, error)
	ActiveNodes(ctx context.Context) ([]*types.MemoryNode, error)
	IsolatedNodes(ctx context.Context) ([]*types.MemoryNode, error)
	StaleNodes(ctx context.Context, touchedBefore time.Time) ([]*types.MemoryNode, error)
	LowRelevanceNodes(ctx context.Context, threshold float64) ([]*types.MemoryNode, error)
	GetNode(ctx context.Context, nodeID string) (*types.MemoryNode, error)
	NodeEdges(ctx context.Context, nodeID string) ([]*types.MemoryEdge, error)

	// EdgeExists checks for an edge of the given kind between two nodes.
	// Symmetric kinds ignore direction.
	EdgeExists(ctx context.Context, sourceID, targetID string, kind types.EdgeKind) (bool, error)
	// Connected checks for any edge of any kind between two nodes,
	// in either direction.
	Connected(ctx context.Context, a, b string) (bool, error)

	// Archival candidate scans. Both filter by creation time and exclude
	// archived nodes; archive candidates must have at least one incident
	// edge, delete candidates must have none.
	ArchiveCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error)
	DeleteCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error)

	// Write operations.
	CreateEdges(ctx context.Context, edges []*types.MemoryEdge) error
	// MergeGroup merges every duplicate into the keeper in one
	// transaction: reattaches external relationships that the keeper does
	// not already have as MERGED_CONNECTION edges, appends each
	// duplicate's content to the keeper's merge lineage, then deletes the
	// duplicates with their incident edges.
	MergeGroup(ctx context.Context, keeperID string, duplicateIDs []string) (*MergeResult, error)
	SetRelevance(ctx context.Context, scores map[string]float64) error
	// BoostAccess multiplies the stored relevance score by factor and
	// records the access, as one serialized in-store update. Returns
	// types.ErrNotFound for unknown node IDs.
	BoostAccess(ctx context.Context, nodeID string, factor float64) error
	// DecayIdle multiplies the stored score by factor for every active
	// node not accessed since idleBefore, returning the touched count.
	DecayIdle(ctx context.Context, idleBefore time.Time, factor float64) (int, error)
	ArchiveNodes(ctx context.Context, nodeIDs []string, reason string) (int, error)
	DeleteNodes(ctx context.Context, nodeIDs []string) (int, error)

	Close(ctx context.Context) error
}

// StoreStats holds the aggregate counters the health report is built from.
type StoreStats struct {
	TotalNodes       int     `json:"total_nodes"`
	TotalEdges       int     `json:"total_edges"`
	ArchivedCount    int     `json:"archived_count"`
	AverageRelevance float64 `json:"average_relevance"`
}

// MergeResult reports what a group merge committed.
type MergeResult struct {
	NodesMerged  int `json:"nodes_merged"`
	EdgesCreated int `json:"edges_created"`
}
