package livemem

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	livemem "github.com/soundprediction/go-livemem"
	"github.com/soundprediction/go-livemem/pkg/cache"
	"github.com/soundprediction/go-livemem/pkg/config"
	"github.com/soundprediction/go-livemem/pkg/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and background maintenance scheduler",
	Long: `Start the HTTP server exposing maintenance runs, health reports, and
access recording, and run the maintenance scheduler in the background.`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
	serveMode string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Server host")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serveMode, "mode", "release", "Server mode (debug, release, test)")
	serveCmd.Flags().Bool("run-on-start", false, "Trigger a maintenance run immediately on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serveMode
	}
	if cmd.Flags().Changed("run-on-start") {
		cfg.Maintenance.RunOnStart, _ = cmd.Flags().GetBool("run-on-start")
	}

	log := newLogger(cfg)

	engine, history, cleanup, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	reportCache, err := cache.NewBadgerCache(cfg.Cache.Path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer reportCache.Close()

	srv := server.New(cfg.Server, engine, history, reportCache, cfg.Cache.HealthTTL, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := livemem.NewScheduler(engine, livemem.SchedulerConfig{
		MaintenanceInterval: cfg.Maintenance.Interval,
		DecayInterval:       cfg.Maintenance.DecayInterval,
		RunOnStart:          cfg.Maintenance.RunOnStart,
		RunOptions: livemem.RunOptions{
			StaleDays:             cfg.Maintenance.StaleDays,
			DeleteDays:            cfg.Maintenance.DeleteDays,
			LowRelevanceThreshold: cfg.Maintenance.LowRelevanceThreshold,
		},
	}, log)
	go func() {
		_ = scheduler.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	}
}
