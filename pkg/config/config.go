// Package config loads engine configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/soundprediction/go-livemem/pkg/relevance"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Maintenance windows and schedule
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`

	// Relevance scoring weights
	Weights relevance.Weights `mapstructure:"weights"`

	// Cache configuration
	Cache CacheConfig `mapstructure:"cache"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// DatabaseConfig holds graph store configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// MaintenanceConfig holds the run windows and schedule
type MaintenanceConfig struct {
	StaleDays             int           `mapstructure:"stale_days"`
	DeleteDays            int           `mapstructure:"delete_days"`
	LowRelevanceThreshold float64       `mapstructure:"low_relevance_threshold"`
	Interval              time.Duration `mapstructure:"interval"`
	DecayInterval         time.Duration `mapstructure:"decay_interval"`
	RunOnStart            bool          `mapstructure:"run_on_start"`
}

// CacheConfig holds badger cache configuration
type CacheConfig struct {
	// Path to the on-disk cache. Empty means in-memory.
	Path string `mapstructure:"path"`
	// HealthTTL bounds how long a cached health report is served.
	HealthTTL time.Duration `mapstructure:"health_ttl"`
}

// TelemetryConfig holds run-report persistence configuration
type TelemetryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // DuckDB file, empty for in-memory
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	// Database defaults
	viper.SetDefault("database.driver", "neo4j")
	viper.SetDefault("database.uri", "bolt://localhost:7687")
	viper.SetDefault("database.username", "neo4j")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "neo4j")

	// Maintenance defaults
	viper.SetDefault("maintenance.stale_days", 90)
	viper.SetDefault("maintenance.delete_days", 180)
	viper.SetDefault("maintenance.low_relevance_threshold", 0.3)
	viper.SetDefault("maintenance.interval", "24h")
	viper.SetDefault("maintenance.decay_interval", "24h")
	viper.SetDefault("maintenance.run_on_start", false)

	// Weight defaults mirror relevance.DefaultWeights
	defaults := relevance.DefaultWeights()
	viper.SetDefault("weights.high_importance", defaults.HighImportance)
	viper.SetDefault("weights.professional_category", defaults.ProfessionalCategory)
	viper.SetDefault("weights.base", defaults.Base)
	viper.SetDefault("weights.connection_weight", defaults.ConnectionWeight)
	viper.SetDefault("weights.connection_saturation", defaults.ConnectionSaturation)
	viper.SetDefault("weights.recent_bonus", defaults.RecentBonus)
	viper.SetDefault("weights.recent_days", defaults.RecentDays)
	viper.SetDefault("weights.mid_bonus", defaults.MidBonus)
	viper.SetDefault("weights.mid_days", defaults.MidDays)
	viper.SetDefault("weights.access_boost", defaults.AccessBoost)
	viper.SetDefault("weights.decay_factor", defaults.DecayFactor)
	viper.SetDefault("weights.decay_after_days", defaults.DecayAfterDays)

	// Cache defaults
	viper.SetDefault("cache.path", "")
	viper.SetDefault("cache.health_ttl", "1m")

	// Telemetry defaults
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.path", "")
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Database.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Database.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Database.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Database.Database = db
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Telemetry
	if path := os.Getenv("LIVEMEM_TELEMETRY_PATH"); path != "" {
		config.Telemetry.Enabled = true
		config.Telemetry.Path = path
	}
}
