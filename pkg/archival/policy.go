// Package archival applies the two-tier cleanup policy: old but connected
// nodes are archived, old and isolated nodes are deleted. Connectivity is
// treated as evidence of continued relevance even when stale; long
// isolation is treated as abandonment.
package archival

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soundprediction/go-livemem/pkg/driver"
)

// ReasonAgeButConnected tags nodes archived for age while still connected.
const ReasonAgeButConnected = "age_but_connected"

// Default retention windows, in days by creation time.
const (
	DefaultStaleDays  = 90
	DefaultDeleteDays = 180
)

// Policy decides which nodes to archive or permanently remove.
type Policy struct {
	store  driver.GraphDriver
	logger *slog.Logger
}

// NewPolicy creates an archival policy over the given store.
func NewPolicy(store driver.GraphDriver, logger *slog.Logger) *Policy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Policy{store: store, logger: logger}
}

// Result reports one archival pass.
type Result struct {
	NodesArchived int `json:"nodes_archived"`
	NodesDeleted  int `json:"nodes_deleted"`
}

// Apply runs the two tiers in order. Archive first: nodes older than
// staleDays that still have at least one incident edge and were never
// archived. Then delete: isolated nodes older than deleteDays that were
// never archived. An archived node is never deleted.
func (p *Policy) Apply(ctx context.Context, staleDays, deleteDays int) (*Result, error) {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	if deleteDays <= 0 {
		deleteDays = DefaultDeleteDays
	}

	result := &Result{}
	now := time.Now()

	archived, err := p.archiveTier(ctx, now.AddDate(0, 0, -staleDays))
	if err != nil {
		return result, err
	}
	result.NodesArchived = archived

	deleted, err := p.deleteTier(ctx, now.AddDate(0, 0, -deleteDays))
	if err != nil {
		return result, err
	}
	result.NodesDeleted = deleted

	if result.NodesArchived > 0 || result.NodesDeleted > 0 {
		p.logger.Info("applied archival policy",
			"archived", result.NodesArchived,
			"deleted", result.NodesDeleted)
	}
	return result, nil
}

func (p *Policy) archiveTier(ctx context.Context, createdBefore time.Time) (int, error) {
	candidates, err := p.store.ArchiveCandidates(ctx, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to find archive candidates: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, node := range candidates {
		ids = append(ids, node.ID)
	}
	archived, err := p.store.ArchiveNodes(ctx, ids, ReasonAgeButConnected)
	if err != nil {
		return 0, fmt.Errorf("failed to archive nodes: %w", err)
	}
	return archived, nil
}

func (p *Policy) deleteTier(ctx context.Context, createdBefore time.Time) (int, error) {
	candidates, err := p.store.DeleteCandidates(ctx, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to find delete candidates: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, node := range candidates {
		ids = append(ids, node.ID)
	}
	deleted, err := p.store.DeleteNodes(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete nodes: %w", err)
	}
	return deleted, nil
}
