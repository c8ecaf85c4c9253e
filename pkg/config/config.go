// Package config provides configuration loading and validation for the
// stormtrack scheduler and its admin CLI, via viper-backed YAML plus
// STORMTRACK_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidPort        = errors.New("invalid server port")
	ErrInvalidWorkerCount = errors.New("worker count must be positive")
	ErrInvalidDatabaseURL = errors.New("database url is required")
	ErrInvalidRateLimit   = errors.New("rate limit per origin must be positive")
	ErrInvalidRetention   = errors.New("retention hours must be non-negative")
)

// Default configuration values.
const (
	defaultPort             = 8080
	defaultHost             = "0.0.0.0"
	defaultWorkerCount      = 8
	defaultRateLimit        = 1
	defaultDormantHours     = 24
	defaultArchiveHours     = 168
	defaultBackoffBaseSec   = 1
	defaultBackoffMaxRetry  = 3
	defaultDiscoveryMinutes = 15
	maxPort                 = 65535
)

// Config holds all configuration for the stormtrack process.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Features FeatureConfig  `mapstructure:"features"`
}

// ServerConfig controls the diagnostics/health surface (no public API per scope).
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Enabled bool   `mapstructure:"enabled"`
}

// DatabaseConfig configures the Postgres-backed persistence layer.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// UpstreamConfig holds the origin base URLs the fetcher polls.
type UpstreamConfig struct {
	BaseDiscovery string `mapstructure:"base_discovery"`
	BaseADeck     string `mapstructure:"base_adeck"`
	BaseHistory   string `mapstructure:"base_history"`
	BaseCIMSS     string `mapstructure:"base_cimss"`
}

// ScheduleConfig controls the worker runtime.
type ScheduleConfig struct {
	WorkerCount      int           `mapstructure:"worker_count"`
	DiscoveryPeriod  time.Duration `mapstructure:"discovery_period"`
	QueueDepth       int           `mapstructure:"queue_depth"`
}

// FetchConfig controls per-origin politeness and retry behavior.
type FetchConfig struct {
	RateLimitPerOrigin int           `mapstructure:"rate_limit_per_origin"`
	BackoffBase        time.Duration `mapstructure:"backoff_base"`
	BackoffMaxRetries  int           `mapstructure:"backoff_max_retries"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
}

// LifecycleConfig controls storm dormancy/archival thresholds.
type LifecycleConfig struct {
	DormantHours int `mapstructure:"dormant_hours"`
	ArchiveHours int `mapstructure:"archive_hours"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FeatureConfig holds the feature-flag section of the configuration. Only
// RadiiCoefficientsPath is read, at startup; RadiiInference, H3CoastCulling
// and ForwardSpeedTOFI are loaded with defaults but no component reads them,
// so they do not switch any sub-algorithm off.
type FeatureConfig struct {
	RadiiInference   bool `mapstructure:"radii_inference"`
	H3CoastCulling   bool `mapstructure:"h3_coast_culling"`
	ForwardSpeedTOFI bool `mapstructure:"forward_speed_tofi"`

	// RadiiCoefficientsPath optionally names a YAML file of basin-specific
	// radii-inference coefficient overrides, loaded via
	// internal/radii.LoadBasinCoefficients at startup.
	RadiiCoefficientsPath string `mapstructure:"radii_coefficients_path"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/stormtrack")
	}

	viperCfg.SetEnvPrefix("STORMTRACK")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validate(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("server.enabled", false)
	viperCfg.SetDefault("server.port", defaultPort)
	viperCfg.SetDefault("server.host", defaultHost)

	viperCfg.SetDefault("database.max_open_conns", 10)
	viperCfg.SetDefault("database.max_idle_conns", 5)
	viperCfg.SetDefault("database.conn_max_lifetime", "30m")

	viperCfg.SetDefault("upstream.base_discovery", "https://www.nhc.noaa.gov")
	viperCfg.SetDefault("upstream.base_adeck", "https://ftp.nhc.noaa.gov/atcf")
	viperCfg.SetDefault("upstream.base_history", "https://ftp.nhc.noaa.gov/atcf")
	viperCfg.SetDefault("upstream.base_cimss", "https://tropic.ssec.wisc.edu")

	viperCfg.SetDefault("schedule.worker_count", defaultWorkerCount)
	viperCfg.SetDefault("schedule.discovery_period", fmt.Sprintf("%dm", defaultDiscoveryMinutes))
	viperCfg.SetDefault("schedule.queue_depth", 256)

	viperCfg.SetDefault("fetch.rate_limit_per_origin", defaultRateLimit)
	viperCfg.SetDefault("fetch.backoff_base", fmt.Sprintf("%ds", defaultBackoffBaseSec))
	viperCfg.SetDefault("fetch.backoff_max_retries", defaultBackoffMaxRetry)
	viperCfg.SetDefault("fetch.request_timeout", "30s")

	viperCfg.SetDefault("lifecycle.dormant_hours", defaultDormantHours)
	viperCfg.SetDefault("lifecycle.archive_hours", defaultArchiveHours)

	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "json")

	viperCfg.SetDefault("features.radii_inference", true)
	viperCfg.SetDefault("features.h3_coast_culling", true)
	viperCfg.SetDefault("features.forward_speed_tofi", true)
}

func validate(config *Config) error {
	if config.Server.Enabled && (config.Server.Port <= 0 || config.Server.Port > maxPort) {
		return fmt.Errorf("%w: %d", ErrInvalidPort, config.Server.Port)
	}

	if config.Schedule.WorkerCount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkerCount, config.Schedule.WorkerCount)
	}

	if config.Database.URL == "" {
		return ErrInvalidDatabaseURL
	}

	if config.Fetch.RateLimitPerOrigin <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRateLimit, config.Fetch.RateLimitPerOrigin)
	}

	if config.Lifecycle.DormantHours < 0 || config.Lifecycle.ArchiveHours < 0 {
		return fmt.Errorf("%w: dormant=%d archive=%d",
			ErrInvalidRetention, config.Lifecycle.DormantHours, config.Lifecycle.ArchiveHours)
	}

	return nil
}
