// Package livemem implements the CLI commands.
package livemem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	livemem "github.com/soundprediction/go-livemem"
	"github.com/soundprediction/go-livemem/pkg/config"
	"github.com/soundprediction/go-livemem/pkg/driver"
	"github.com/soundprediction/go-livemem/pkg/logger"
	"github.com/soundprediction/go-livemem/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "livemem",
	Short: "Living memory maintenance engine",
	Long: `livemem keeps a knowledge-graph memory healthy: it consolidates
duplicate learnings, links related ones, rescores relevance, and archives
or deletes what the agent no longer needs.`,
	SilenceUsage: true,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default searches ./livemem.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("livemem")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/livemem")
	}
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))
}

// buildEngine assembles the store, telemetry, and engine from config.
// The returned cleanup closes everything the engine depends on. The
// telemetry store is nil unless enabled.
func buildEngine(cfg *config.Config, log *slog.Logger) (*livemem.Engine, *telemetry.Store, func(), error) {
	store, err := openStore(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	var recorder livemem.RunRecorder
	var history *telemetry.Store
	engineLog := log
	if cfg.Telemetry.Enabled {
		history, err = telemetry.NewStore(cfg.Telemetry.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open telemetry store: %w", err)
		}
		recorder = history

		// Mirror engine errors into the same database as the run history.
		handler, herr := telemetry.NewDuckDBHandler(log.Handler(), history.DB())
		if herr != nil {
			log.Warn("failed to attach telemetry log handler", "error", herr)
		} else {
			engineLog = slog.New(handler)
		}
	}

	engine := livemem.NewEngine(store, &livemem.Config{
		Weights:  cfg.Weights,
		Logger:   engineLog,
		Recorder: recorder,
	})

	cleanup := func() {
		if history != nil {
			history.Close()
		}
	}
	return engine, history, cleanup, nil
}

func openStore(cfg *config.Config, log *slog.Logger) (driver.GraphDriver, error) {
	var store driver.GraphDriver
	switch cfg.Database.Driver {
	case "memory":
		store = driver.NewMemoryDriver()
	case "neo4j", "":
		neo, err := driver.NewNeo4jDriver(cfg.Database.URI, cfg.Database.Username,
			cfg.Database.Password, cfg.Database.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to graph store: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := neo.CreateIndices(ctx); err != nil {
			log.Warn("failed to ensure graph indices", "error", err)
		}
		store = neo
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	return driver.NewBreakerDriver(store, driver.DefaultBreakerSettings(), log), nil
}
