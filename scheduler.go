package livemem

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soundprediction/go-livemem/pkg/types"
)

// SchedulerConfig tunes the background maintenance loop.
type SchedulerConfig struct {
	// MaintenanceInterval is the time between full runs. Zero means
	// daily.
	MaintenanceInterval time.Duration
	// DecayInterval is the time between idle-decay sweeps. Zero means
	// daily.
	DecayInterval time.Duration
	// RunOptions configure every scheduled run.
	RunOptions RunOptions
	// RunOnStart triggers a maintenance run immediately when the
	// scheduler starts instead of waiting for the first tick.
	RunOnStart bool
}

// Scheduler drives periodic maintenance runs and idle-decay sweeps until
// its context is cancelled.
type Scheduler struct {
	engine *Engine
	config SchedulerConfig
	logger *slog.Logger
}

// NewScheduler creates a scheduler for the given engine.
func NewScheduler(engine *Engine, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.MaintenanceInterval <= 0 {
		config.MaintenanceInterval = 24 * time.Hour
	}
	if config.DecayInterval <= 0 {
		config.DecayInterval = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{engine: engine, config: config, logger: logger}
}

// Run blocks, triggering maintenance and decay on their intervals, and
// returns when ctx is cancelled. A run that overlaps an in-flight one is
// skipped, not queued.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("maintenance scheduler started",
		"maintenance_interval", s.config.MaintenanceInterval,
		"decay_interval", s.config.DecayInterval)

	if s.config.RunOnStart {
		s.maintain(ctx)
	}

	maintainTicker := time.NewTicker(s.config.MaintenanceInterval)
	defer maintainTicker.Stop()
	decayTicker := time.NewTicker(s.config.DecayInterval)
	defer decayTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return ctx.Err()
		case <-maintainTicker.C:
			s.maintain(ctx)
		case <-decayTicker.C:
			if _, err := s.engine.DecayIdle(ctx); err != nil {
				s.logger.Error("decay sweep failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) maintain(ctx context.Context) {
	report, err := s.engine.RunMaintenance(ctx, s.config.RunOptions)
	switch {
	case errors.Is(err, types.ErrAlreadyRunning):
		s.logger.Warn("skipping scheduled run, one already in flight")
	case err != nil:
		s.logger.Error("scheduled maintenance failed", "error", err)
	case len(report.Errors) > 0:
		s.logger.Warn("scheduled maintenance finished with errors",
			"run_id", report.RunID, "errors", len(report.Errors))
	}
}
