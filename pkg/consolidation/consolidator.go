// Package consolidation merges groups of duplicate nodes into one canonical
// keeper, preserving content lineage and external relationships.
package consolidation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/soundprediction/go-livemem/pkg/analysis"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// Consolidator merges duplicate groups through the graph store.
type Consolidator struct {
	store  driver.GraphDriver
	logger *slog.Logger
}

// NewConsolidator creates a consolidator over the given store.
func NewConsolidator(store driver.GraphDriver, logger *slog.Logger) *Consolidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consolidator{store: store, logger: logger}
}

// Result reports one group merge.
type Result struct {
	KeptNodeID   string `json:"kept_node_id"`
	MergedCount  int    `json:"merged_count"`
	EdgesCreated int    `json:"edges_created"`
}

// Summary aggregates a full consolidation pass.
type Summary struct {
	GroupsConsolidated int `json:"groups_consolidated"`
	NodesMerged        int `json:"nodes_merged"`
	EdgesCreated       int `json:"edges_created"`
}

// SelectKeeper picks the canonical survivor of a group: the node with the
// most recent timestamp, tie broken by lowest ID so the choice is
// deterministic. Returns ErrInconsistentMerge when no deterministic choice
// exists.
func SelectKeeper(nodes []*types.MemoryNode) (*types.MemoryNode, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("empty group: %w", types.ErrInconsistentMerge)
	}

	keeper := nodes[0]
	for _, node := range nodes[1:] {
		switch {
		case node.LastTouched().After(keeper.LastTouched()):
			keeper = node
		case node.LastTouched().Equal(keeper.LastTouched()):
			if node.ID == keeper.ID {
				return nil, fmt.Errorf("group contains node %s twice: %w", node.ID, types.ErrInconsistentMerge)
			}
			if node.ID < keeper.ID {
				keeper = node
			}
		}
	}
	return keeper, nil
}

// Consolidate merges one group into its keeper. The whole group commits in
// one store transaction: either every duplicate is absorbed or the group is
// left untouched.
func (c *Consolidator) Consolidate(ctx context.Context, group *types.DuplicateGroup) (*Result, error) {
	keeper, err := SelectKeeper(group.Nodes)
	if err != nil {
		return nil, err
	}

	duplicateIDs := make([]string, 0, len(group.Nodes)-1)
	for _, node := range group.Nodes {
		if node.ID != keeper.ID {
			duplicateIDs = append(duplicateIDs, node.ID)
		}
	}
	if len(duplicateIDs) == 0 {
		return &Result{KeptNodeID: keeper.ID}, nil
	}

	merged, err := c.store.MergeGroup(ctx, keeper.ID, duplicateIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to merge group %q: %w", group.Key, err)
	}

	c.logger.Info("consolidated duplicate group",
		"rule", group.Rule,
		"keeper", keeper.ID,
		"merged", merged.NodesMerged,
		"edges_created", merged.EdgesCreated)

	return &Result{
		KeptNodeID:   keeper.ID,
		MergedCount:  merged.NodesMerged,
		EdgesCreated: merged.EdgesCreated,
	}, nil
}

// ConsolidateAll detects duplicate groups across the active graph and
// merges each one. A failed merge aborts the pass; the summary reports what
// had already committed.
func (c *Consolidator) ConsolidateAll(ctx context.Context) (*Summary, error) {
	nodes, err := c.store.ActiveNodes(ctx)
	if err != nil {
		return &Summary{}, fmt.Errorf("failed to load active nodes: %w", err)
	}

	summary := &Summary{}
	for _, group := range analysis.GroupDuplicates(nodes) {
		result, err := c.Consolidate(ctx, group)
		if err != nil {
			return summary, err
		}
		if result.MergedCount > 0 {
			summary.GroupsConsolidated++
			summary.NodesMerged += result.MergedCount
			summary.EdgesCreated += result.EdgesCreated
		}
	}
	return summary, nil
}
