// Package livemem maintains the health of a persistent knowledge graph used
// as long-lived memory for an AI agent. Learnings accumulate over time;
// without active maintenance the graph degrades as duplicates proliferate,
// stale facts crowd out fresh ones, and relevance signals drift. The Engine
// periodically analyzes, consolidates, links, rescores, and archives nodes,
// and reports a health summary for every run.
package livemem

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/go-livemem/pkg/analysis"
	"github.com/soundprediction/go-livemem/pkg/archival"
	"github.com/soundprediction/go-livemem/pkg/consolidation"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/relations"
	"github.com/soundprediction/go-livemem/pkg/relevance"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// Maintainer is the interface the engine exposes to external collaborators
// (servers, schedulers, CLIs).
type Maintainer interface {
	// RunMaintenance triggers one full maintenance run. At most one run
	// is in flight process-wide; a second caller gets ErrAlreadyRunning
	// immediately. The report is always produced, even on partial
	// failure, with per-stage errors populated.
	RunMaintenance(ctx context.Context, opts RunOptions) (*types.MaintenanceReport, error)

	// GetHealth runs the read-only analyzer and returns a health
	// snapshot. No mutation.
	GetHealth(ctx context.Context) (*types.HealthReport, error)

	// RecordAccess applies the access boost to a node's stored score,
	// outside the maintenance cycle. Returns types.ErrNotFound for
	// unknown IDs.
	RecordAccess(ctx context.Context, nodeID string) error

	// DecayIdle applies the decay factor to every node idle past the
	// configured threshold, returning the touched count.
	DecayIdle(ctx context.Context) (int, error)
}

// RunRecorder persists finished run reports. Implemented by pkg/telemetry.
type RunRecorder interface {
	RecordRun(ctx context.Context, report *types.MaintenanceReport) error
}

// RunOptions configures one maintenance run.
type RunOptions struct {
	// StaleDays is the staleness window in days. Nodes untouched longer
	// count as stale; nodes created earlier and still connected get
	// archived.
	StaleDays int `json:"stale_days"`
	// DeleteDays is the long-retention window in days. Isolated,
	// never-archived nodes created earlier get deleted.
	DeleteDays int `json:"delete_days"`
	// LowRelevanceThreshold flags nodes scored below it during analysis.
	LowRelevanceThreshold float64 `json:"low_relevance_threshold"`
	// DryRun restricts the run to analysis; no mutation occurs.
	DryRun bool `json:"dry_run"`
}

// DefaultRunOptions returns the standard maintenance windows.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		StaleDays:             archival.DefaultStaleDays,
		DeleteDays:            archival.DefaultDeleteDays,
		LowRelevanceThreshold: analysis.DefaultLowRelevanceThreshold,
	}
}

func (o *RunOptions) applyDefaults() {
	defaults := DefaultRunOptions()
	if o.StaleDays <= 0 {
		o.StaleDays = defaults.StaleDays
	}
	if o.DeleteDays <= 0 {
		o.DeleteDays = defaults.DeleteDays
	}
	if o.LowRelevanceThreshold <= 0 {
		o.LowRelevanceThreshold = defaults.LowRelevanceThreshold
	}
}

// Config holds engine construction options.
type Config struct {
	// Weights is the relevance scoring policy. Zero value means
	// relevance.DefaultWeights.
	Weights relevance.Weights
	// Logger for engine and component logging. Nil means slog.Default.
	Logger *slog.Logger
	// Recorder persists run reports. Optional.
	Recorder RunRecorder
}

// Engine is the maintenance orchestrator. It drives the pipeline
// Analyzing -> Consolidating -> Linking -> Rescoring -> Archiving ->
// Reporting over the graph store and guarantees at most one run in flight.
type Engine struct {
	store        driver.GraphDriver
	calc         *relevance.Calculator
	analyzer     *analysis.Analyzer
	consolidator *consolidation.Consolidator
	builder      *relations.Builder
	policy       *archival.Policy
	recorder     RunRecorder
	logger       *slog.Logger

	mu      sync.Mutex
	stage   types.Stage
	running bool
}

// NewEngine creates an engine over the given store.
func NewEngine(store driver.GraphDriver, config *Config) *Engine {
	if config == nil {
		config = &Config{}
	}
	weights := config.Weights
	if weights == (relevance.Weights{}) {
		weights = relevance.DefaultWeights()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		store:        store,
		calc:         relevance.NewCalculator(weights),
		analyzer:     analysis.NewAnalyzer(store, logger),
		consolidator: consolidation.NewConsolidator(store, logger),
		builder:      relations.NewBuilder(store, logger),
		policy:       archival.NewPolicy(store, logger),
		recorder:     config.Recorder,
		logger:       logger,
		stage:        types.StageIdle,
	}
}

// Stage returns the pipeline stage the engine is currently in.
func (e *Engine) Stage() types.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

func (e *Engine) setStage(stage types.Stage) {
	e.mu.Lock()
	e.stage = stage
	e.mu.Unlock()
	e.logger.Debug("maintenance stage", "stage", stage)
}

// RunMaintenance implements Maintainer.
func (e *Engine) RunMaintenance(ctx context.Context, opts RunOptions) (*types.MaintenanceReport, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, types.ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.stage = types.StageIdle
		e.mu.Unlock()
	}()

	opts.applyDefaults()
	report := &types.MaintenanceReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
	}
	e.logger.Info("maintenance run started", "run_id", report.RunID, "dry_run", opts.DryRun)

	e.runPipeline(ctx, opts, report)

	e.setStage(types.StageReporting)
	if health, err := e.analyzer.Analyze(ctx); err != nil {
		report.Errors = append(report.Errors, types.StageError{
			Stage: types.StageReporting, Message: err.Error(),
		})
	} else {
		report.Health = health
	}
	report.FinishedAt = time.Now()

	if e.recorder != nil {
		if err := e.recorder.RecordRun(ctx, report); err != nil {
			e.logger.Warn("failed to record run report", "run_id", report.RunID, "error", err)
		}
	}

	e.logger.Info("maintenance run finished",
		"run_id", report.RunID,
		"duration", report.FinishedAt.Sub(report.StartedAt),
		"groups_consolidated", report.GroupsConsolidated,
		"nodes_merged", report.NodesMerged,
		"edges_created", report.EdgesCreated,
		"nodes_rescored", report.NodesRescored,
		"nodes_archived", report.NodesArchived,
		"nodes_deleted", report.NodesDeleted,
		"errors", len(report.Errors))
	return report, nil
}

// runPipeline executes the analysis stage and, unless the run is dry, the
// mutating stages in order. A failed mutating stage aborts the pipeline at
// that stage; effects committed by prior stages stand. Cancellation is
// checked between stages.
func (e *Engine) runPipeline(ctx context.Context, opts RunOptions, report *types.MaintenanceReport) {
	e.setStage(types.StageAnalyzing)
	scan := e.analyzer.Scan(ctx, opts.StaleDays, opts.LowRelevanceThreshold)
	for _, err := range scan.Errors {
		report.Errors = append(report.Errors, types.StageError{
			Stage: types.StageAnalyzing, Message: err.Error(),
		})
	}

	if opts.DryRun {
		return
	}

	stages := []struct {
		stage types.Stage
		run   func(context.Context) error
	}{
		{types.StageConsolidating, func(ctx context.Context) error {
			summary, err := e.consolidator.ConsolidateAll(ctx)
			report.GroupsConsolidated += summary.GroupsConsolidated
			report.NodesMerged += summary.NodesMerged
			report.EdgesCreated += summary.EdgesCreated
			return err
		}},
		{types.StageLinking, func(ctx context.Context) error {
			related, err := e.builder.LinkRelated(ctx)
			report.EdgesCreated += related
			if err != nil {
				return err
			}
			superseded, err := e.builder.LinkSupersessions(ctx)
			report.EdgesCreated += superseded
			return err
		}},
		{types.StageRescoring, func(ctx context.Context) error {
			rescored, err := e.rescore(ctx)
			report.NodesRescored += rescored
			return err
		}},
		{types.StageArchiving, func(ctx context.Context) error {
			result, err := e.policy.Apply(ctx, opts.StaleDays, opts.DeleteDays)
			report.NodesArchived += result.NodesArchived
			report.NodesDeleted += result.NodesDeleted
			return err
		}},
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			report.Errors = append(report.Errors, types.StageError{
				Stage: s.stage, Message: fmt.Sprintf("run cancelled: %v", err),
			})
			return
		}
		e.setStage(s.stage)
		if err := s.run(ctx); err != nil {
			e.logger.Error("maintenance stage failed", "stage", s.stage, "error", err)
			report.Errors = append(report.Errors, types.StageError{
				Stage: s.stage, Message: err.Error(),
			})
			return
		}
	}
}

// rescore recomputes the base relevance formula for every active node from
// its current connection count and age, and writes the scores in one batch.
// Boosts and decays applied since the last pass are intentionally
// overwritten; they compose forward from this new baseline.
func (e *Engine) rescore(ctx context.Context) (int, error) {
	nodes, err := e.store.ActiveNodes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active nodes: %w", err)
	}
	if len(nodes) == 0 {
		return 0, nil
	}

	now := time.Now()
	scores := make(map[string]float64, len(nodes))
	for _, node := range nodes {
		scores[node.ID] = e.calc.ScoreNode(node, now)
	}
	if err := e.store.SetRelevance(ctx, scores); err != nil {
		return 0, fmt.Errorf("failed to write scores: %w", err)
	}
	return len(scores), nil
}

// GetHealth implements Maintainer.
func (e *Engine) GetHealth(ctx context.Context) (*types.HealthReport, error) {
	return e.analyzer.Analyze(ctx)
}

// RecordAccess implements Maintainer.
func (e *Engine) RecordAccess(ctx context.Context, nodeID string) error {
	return e.store.BoostAccess(ctx, nodeID, e.calc.Weights().AccessBoost)
}

// DecayIdle implements Maintainer.
func (e *Engine) DecayIdle(ctx context.Context) (int, error) {
	w := e.calc.Weights()
	idleBefore := time.Now().AddDate(0, 0, -w.DecayAfterDays)
	decayed, err := e.store.DecayIdle(ctx, idleBefore, w.DecayFactor)
	if err != nil {
		return 0, err
	}
	if decayed > 0 {
		e.logger.Info("decayed idle nodes", "count", decayed)
	}
	return decayed, nil
}
