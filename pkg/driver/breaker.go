package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// BreakerDriver wraps a GraphDriver with a circuit breaker so a flapping
// store fails fast instead of stalling every maintenance stage behind
// driver timeouts.
type BreakerDriver struct {
	inner GraphDriver
	cb    *gobreaker.CircuitBreaker
}

// BreakerSettings tunes the circuit breaker.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns the standard breaker policy.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "graph-store",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// NewBreakerDriver wraps inner with a circuit breaker using the given
// settings. Sentinel errors (not found, inconsistent merge) do not count as
// failures; only store-level faults trip the breaker.
func NewBreakerDriver(inner GraphDriver, settings BreakerSettings, logger *slog.Logger) *BreakerDriver {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !types.IsStoreError(err)
		},
	})
	return &BreakerDriver{inner: inner, cb: cb}
}

func execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (b *BreakerDriver) Stats(ctx context.Context) (*StoreStats, error) {
	return execute(b.cb, func() (*StoreStats, error) { return b.inner.Stats(ctx) })
}

func (b *BreakerDriver) ActiveNodes(ctx context.Context) ([]*types.MemoryNode, error) {
	return execute(b.cb, func() ([]*types.MemoryNode, error) { return b.inner.ActiveNodes(ctx) })
}

func (b *BreakerDriver) IsolatedNodes(ctx context.Context) ([]*types.MemoryNode, error) {
	return execute(b.cb, func() ([]*types.MemoryNode, error) { return b.inner.IsolatedNodes(ctx) })
}

func (b *BreakerDriver) StaleNodes(ctx context.Context, touchedBefore time.Time) ([]*types.MemoryNode, error) {
	return execute(b.cb, func() ([]*types.MemoryNode, error) { return b.inner.StaleNodes(ctx, touchedBefore) })
}

func (b *BreakerDriver) LowRelevanceNodes(ctx context.Context, threshold float64) ([]*types.MemoryNode, error) {
	return execute(b.cb, func() ([]*types.MemoryNode, error) { return b.inner.LowRelevanceNodes(ctx, threshold) })
}

func (b *BreakerDriver) GetNode(ctx context.Context, nodeID string) (*types.MemoryNode, error) {
	return execute(b.cb, func() (*types.MemoryNode, error) { return b.inner.GetNode(ctx, nodeID) })
}

func (b *BreakerDriver) NodeEdges(ctx context.Context, nodeID string) ([]*types.MemoryEdge, error) {
	return execute(b.cb, func() ([]*types.MemoryEdge, error) { return b.inner.NodeEdges(ctx, nodeID) })
}

func (b *BreakerDriver) EdgeExists(ctx context.Context, sourceID, targetID string, kind types.EdgeKind) (bool, error) {
	return execute(b.cb, func() (bool, error) { return b.inner.EdgeExists(ctx, sourceID, targetID, kind) })
}

func (b *BreakerDriver) Connected(ctx context.Context, a, c string) (bool, error) {
	return execute(b.cb, func() (bool, error) { return b.inner.Connected(ctx, a, c) })
}

func (b *BreakerDriver) ArchiveCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error) {
	return execute(b.cb, func() ([]*types.MemoryNode, error) { return b.inner.ArchiveCandidates(ctx, createdBefore) })
}

func (b *BreakerDriver) DeleteCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error) {
	return execute(b.cb, func() ([]*types.MemoryNode, error) { return b.inner.DeleteCandidates(ctx, createdBefore) })
}

func (b *BreakerDriver) CreateEdges(ctx context.Context, edges []*types.MemoryEdge) error {
	_, err := execute(b.cb, func() (struct{}, error) { return struct{}{}, b.inner.CreateEdges(ctx, edges) })
	return err
}

func (b *BreakerDriver) MergeGroup(ctx context.Context, keeperID string, duplicateIDs []string) (*MergeResult, error) {
	return execute(b.cb, func() (*MergeResult, error) { return b.inner.MergeGroup(ctx, keeperID, duplicateIDs) })
}

func (b *BreakerDriver) SetRelevance(ctx context.Context, scores map[string]float64) error {
	_, err := execute(b.cb, func() (struct{}, error) { return struct{}{}, b.inner.SetRelevance(ctx, scores) })
	return err
}

func (b *BreakerDriver) BoostAccess(ctx context.Context, nodeID string, factor float64) error {
	_, err := execute(b.cb, func() (struct{}, error) { return struct{}{}, b.inner.BoostAccess(ctx, nodeID, factor) })
	return err
}

func (b *BreakerDriver) DecayIdle(ctx context.Context, idleBefore time.Time, factor float64) (int, error) {
	return execute(b.cb, func() (int, error) { return b.inner.DecayIdle(ctx, idleBefore, factor) })
}

func (b *BreakerDriver) ArchiveNodes(ctx context.Context, nodeIDs []string, reason string) (int, error) {
	return execute(b.cb, func() (int, error) { return b.inner.ArchiveNodes(ctx, nodeIDs, reason) })
}

func (b *BreakerDriver) DeleteNodes(ctx context.Context, nodeIDs []string) (int, error) {
	return execute(b.cb, func() (int, error) { return b.inner.DeleteNodes(ctx, nodeIDs) })
}

func (b *BreakerDriver) Close(ctx context.Context) error {
	return b.inner.Close(ctx)
}
