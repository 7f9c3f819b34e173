package livemem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	livemem "github.com/soundprediction/go-livemem"
	"github.com/soundprediction/go-livemem/pkg/config"
	"github.com/spf13/cobra"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run one maintenance pass and print the report",
	RunE:  runMaintain,
}

var (
	maintainDryRun     bool
	maintainStaleDays  int
	maintainDeleteDays int
	maintainThreshold  float64
	maintainTimeout    time.Duration
)

func init() {
	rootCmd.AddCommand(maintainCmd)

	maintainCmd.Flags().BoolVar(&maintainDryRun, "dry-run", false, "Analyze only, mutate nothing")
	maintainCmd.Flags().IntVar(&maintainStaleDays, "stale-days", 0, "Staleness window in days (0 uses config)")
	maintainCmd.Flags().IntVar(&maintainDeleteDays, "delete-days", 0, "Deletion window in days (0 uses config)")
	maintainCmd.Flags().Float64Var(&maintainThreshold, "low-relevance-threshold", 0, "Low relevance threshold (0 uses config)")
	maintainCmd.Flags().DurationVar(&maintainTimeout, "timeout", 10*time.Minute, "Run timeout")
}

func runMaintain(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg)

	engine, _, cleanup, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := livemem.RunOptions{
		StaleDays:             cfg.Maintenance.StaleDays,
		DeleteDays:            cfg.Maintenance.DeleteDays,
		LowRelevanceThreshold: cfg.Maintenance.LowRelevanceThreshold,
		DryRun:                maintainDryRun,
	}
	if maintainStaleDays > 0 {
		opts.StaleDays = maintainStaleDays
	}
	if maintainDeleteDays > 0 {
		opts.DeleteDays = maintainDeleteDays
	}
	if maintainThreshold > 0 {
		opts.LowRelevanceThreshold = maintainThreshold
	}

	ctx, cancel := context.WithTimeout(context.Background(), maintainTimeout)
	defer cancel()

	report, err := engine.RunMaintenance(ctx, opts)
	if err != nil {
		return fmt.Errorf("maintenance failed: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("run finished with %d stage errors", len(report.Errors))
	}
	return nil
}
