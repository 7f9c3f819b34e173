// Package relations derives structural edges from node attribute
// similarity: RELATED_TO for same-domain pairs, SUPERSEDES for newer
// versions of same-named nodes.
package relations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// Builder creates derived edges through the graph store. Both operations
// are idempotent: existence is checked before every creation, so a re-run
// over unchanged graph state creates zero edges.
type Builder struct {
	store  driver.GraphDriver
	logger *slog.Logger
}

// NewBuilder creates a relation builder over the given store.
func NewBuilder(store driver.GraphDriver, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{store: store, logger: logger}
}

// LinkRelated creates a RELATED_TO edge for every unordered pair of
// distinct nodes sharing the same category and either the same project or
// the same subcategory. Returns the number of edges created.
func (b *Builder) LinkRelated(ctx context.Context) (int, error) {
	nodes, err := b.store.ActiveNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active nodes: %w", err)
	}

	byCategory := make(map[string][]*types.MemoryNode)
	for _, node := range nodes {
		if node.Category == "" {
			continue
		}
		byCategory[node.Category] = append(byCategory[node.Category], node)
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	now := time.Now()
	var pending []*types.MemoryEdge
	for _, category := range categories {
		group := byCategory[category]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, c := group[i], group[j]
				if !sameDomain(a, c) {
					continue
				}
				exists, err := b.store.EdgeExists(ctx, a.ID, c.ID, types.EdgeRelatedTo)
				if err != nil {
					return 0, fmt.Errorf("failed to check RELATED_TO %s-%s: %w", a.ID, c.ID, err)
				}
				if exists {
					continue
				}
				pending = append(pending, &types.MemoryEdge{
					ID:        uuid.New().String(),
					Kind:      types.EdgeRelatedTo,
					SourceID:  a.ID,
					TargetID:  c.ID,
					CreatedAt: now,
					Reason:    types.ReasonSameDomain,
				})
			}
		}
	}

	if err := b.store.CreateEdges(ctx, pending); err != nil {
		return 0, fmt.Errorf("failed to create RELATED_TO edges: %w", err)
	}
	if len(pending) > 0 {
		b.logger.Info("linked same-domain nodes", "edges_created", len(pending))
	}
	return len(pending), nil
}

func sameDomain(a, b *types.MemoryNode) bool {
	if a.Project != "" && a.Project == b.Project {
		return true
	}
	return a.Subcategory != "" && a.Subcategory == b.Subcategory
}

// LinkSupersessions creates a directed SUPERSEDES edge from each node to
// every older node with the same name, carrying the day-delta between the
// two creation timestamps. Supersession annotates succession; the older
// node is never deleted or archived here.
func (b *Builder) LinkSupersessions(ctx context.Context) (int, error) {
	nodes, err := b.store.ActiveNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active nodes: %w", err)
	}

	byName := make(map[string][]*types.MemoryNode)
	for _, node := range nodes {
		if node.Name == "" {
			continue
		}
		byName[node.Name] = append(byName[node.Name], node)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	var pending []*types.MemoryEdge
	for _, name := range names {
		group := byName[name]
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID < group[j].ID
		})
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				old, newer := group[i], group[j]
				if !old.CreatedAt.Before(newer.CreatedAt) {
					continue
				}
				exists, err := b.store.EdgeExists(ctx, newer.ID, old.ID, types.EdgeSupersedes)
				if err != nil {
					return 0, fmt.Errorf("failed to check SUPERSEDES %s-%s: %w", newer.ID, old.ID, err)
				}
				if exists {
					continue
				}
				pending = append(pending, &types.MemoryEdge{
					ID:        uuid.New().String(),
					Kind:      types.EdgeSupersedes,
					SourceID:  newer.ID,
					TargetID:  old.ID,
					CreatedAt: now,
					DayDelta:  int(newer.CreatedAt.Sub(old.CreatedAt).Hours() / 24),
				})
			}
		}
	}

	if err := b.store.CreateEdges(ctx, pending); err != nil {
		return 0, fmt.Errorf("failed to create SUPERSEDES edges: %w", err)
	}
	if len(pending) > 0 {
		b.logger.Info("linked supersessions", "edges_created", len(pending))
	}
	return len(pending), nil
}
