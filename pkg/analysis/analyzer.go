// Package analysis scans the graph for structural health issues: isolated
// nodes, stale nodes, duplicates, and low-relevance nodes. It only reads.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// Default detection windows.
const (
	DefaultStaleDays             = 90
	DefaultLowRelevanceThreshold = 0.3
)

// Analyzer runs the read-only detections.
type Analyzer struct {
	store  driver.GraphDriver
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer over the given store.
func NewAnalyzer(store driver.GraphDriver, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{store: store, logger: logger}
}

// Result aggregates one analysis pass. A failed detection leaves its slice
// nil and appends to Errors; the other detections' results are kept.
type Result struct {
	Health       *types.HealthReport
	Isolated     []*types.MemoryNode
	Stale        []*types.MemoryNode
	LowRelevance []*types.MemoryNode
	Duplicates   []types.DuplicatePair
	Groups       []*types.DuplicateGroup

	Errors []error
}

// Scan runs every detection concurrently against the store. The detections
// have no data dependency on each other and none mutates, so they fan out;
// each failure is recorded and the rest of the pass continues.
func (a *Analyzer) Scan(ctx context.Context, staleDays int, lowThreshold float64) *Result {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	staleBefore := time.Now().AddDate(0, 0, -staleDays)

	result := &Result{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	fail := func(detection string, err error) {
		a.logger.Warn("detection failed", "detection", detection, "error", err)
		mu.Lock()
		result.Errors = append(result.Errors, fmt.Errorf("%s: %w", detection, err))
		mu.Unlock()
	}

	var stats *driver.StoreStats

	wg.Add(5)
	go func() {
		defer wg.Done()
		s, err := a.store.Stats(ctx)
		if err != nil {
			fail("stats", err)
			return
		}
		mu.Lock()
		stats = s
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		nodes, err := a.store.IsolatedNodes(ctx)
		if err != nil {
			fail("isolated", err)
			return
		}
		mu.Lock()
		result.Isolated = nodes
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		nodes, err := a.store.StaleNodes(ctx, staleBefore)
		if err != nil {
			fail("stale", err)
			return
		}
		mu.Lock()
		result.Stale = nodes
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		nodes, err := a.store.LowRelevanceNodes(ctx, lowThreshold)
		if err != nil {
			fail("low_relevance", err)
			return
		}
		mu.Lock()
		result.LowRelevance = nodes
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		nodes, err := a.store.ActiveNodes(ctx)
		if err != nil {
			fail("duplicates", err)
			return
		}
		pairs := DuplicatePairs(nodes)
		groups := GroupDuplicates(nodes)
		mu.Lock()
		result.Duplicates = pairs
		result.Groups = groups
		mu.Unlock()
	}()
	wg.Wait()

	if stats != nil {
		report := &types.HealthReport{
			TotalNodes:       stats.TotalNodes,
			TotalEdges:       stats.TotalEdges,
			AverageRelevance: stats.AverageRelevance,
			ArchivedCount:    stats.ArchivedCount,
			IsolatedCount:    len(result.Isolated),
			StaleCount:       len(result.Stale),
			GeneratedAt:      time.Now(),
		}
		report.ComputeHealthScore()
		result.Health = report
	}
	return result
}

// Analyze produces a health report using the default windows.
func (a *Analyzer) Analyze(ctx context.Context) (*types.HealthReport, error) {
	result := a.Scan(ctx, DefaultStaleDays, DefaultLowRelevanceThreshold)
	if result.Health == nil {
		if len(result.Errors) > 0 {
			return nil, result.Errors[0]
		}
		return nil, fmt.Errorf("health report unavailable")
	}
	return result.Health, nil
}

// FindIsolated returns active nodes with zero incident edges.
func (a *Analyzer) FindIsolated(ctx context.Context) ([]*types.MemoryNode, error) {
	return a.store.IsolatedNodes(ctx)
}

// FindStale returns active nodes untouched for more than staleDays.
func (a *Analyzer) FindStale(ctx context.Context, staleDays int) ([]*types.MemoryNode, error) {
	if staleDays <= 0 {
		staleDays = DefaultStaleDays
	}
	return a.store.StaleNodes(ctx, time.Now().AddDate(0, 0, -staleDays))
}

// FindLowRelevance returns active nodes scored below threshold.
func (a *Analyzer) FindLowRelevance(ctx context.Context, threshold float64) ([]*types.MemoryNode, error) {
	return a.store.LowRelevanceNodes(ctx, threshold)
}

// FindDuplicates returns every flagged duplicate pair, each reported once at
// its highest-priority matching rule.
func (a *Analyzer) FindDuplicates(ctx context.Context) ([]types.DuplicatePair, error) {
	nodes, err := a.store.ActiveNodes(ctx)
	if err != nil {
		return nil, err
	}
	return DuplicatePairs(nodes), nil
}
