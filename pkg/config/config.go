// Package config provides configuration loading and validation for linetrend.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidOrdering    = errors.New("invalid traversal ordering")
	ErrInvalidLimit       = errors.New("traversal limit must not be negative")
	ErrInvalidWorkers     = errors.New("traversal workers must be positive")
	ErrInvalidFormat      = errors.New("invalid output format")
	ErrInvalidDimension   = errors.New("output dimensions must not be negative")
	ErrInvalidCacheSize   = errors.New("invalid object cache size")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be within [0, 1]")
)

const (
	configName = "linetrend"
	envPrefix  = "LINETREND"
)

var (
	validOrderings  = []string{"topo", "topological", "time", "date", "time-descending"}
	validFormats    = []string{"plot", "table", "json", "yaml", "html"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Config holds all configuration for a linetrend run.
type Config struct {
	Traversal TraversalConfig `mapstructure:"traversal"`
	Output    OutputConfig    `mapstructure:"output"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// TraversalConfig controls which commits are visited and how.
type TraversalConfig struct {
	Ordering    string `mapstructure:"ordering"`
	FirstParent bool   `mapstructure:"first_parent"`
	Limit       int    `mapstructure:"limit"`
	Workers     int    `mapstructure:"workers"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	NoColor bool   `mapstructure:"no_color"`
}

// CacheConfig holds the object store cache hint.
type CacheConfig struct {
	// ObjectCacheSize bounds libgit2's decompressed object cache, e.g. "256MB".
	ObjectCacheSize string `mapstructure:"object_cache_size"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	// OTLPHeaders are extra exporter headers as "key=value,key=value".
	OTLPHeaders string `mapstructure:"otlp_headers"`
	// MetricsFile receives run metrics in Prometheus text format when set.
	MetricsFile string `mapstructure:"metrics_file"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath, linetrend.yaml is looked up in the working
// directory and in $HOME/.config/linetrend; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	viperCfg.SetEnvPrefix(envPrefix)
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

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("traversal.ordering", DefaultOrdering)
	viperCfg.SetDefault("traversal.first_parent", false)
	viperCfg.SetDefault("traversal.limit", 0)
	viperCfg.SetDefault("traversal.workers", DefaultWorkers)

	viperCfg.SetDefault("output.format", DefaultFormat)
	viperCfg.SetDefault("output.width", 0)
	viperCfg.SetDefault("output.height", 0)
	viperCfg.SetDefault("output.no_color", false)

	viperCfg.SetDefault("cache.object_cache_size", DefaultObjectCacheSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
	viperCfg.SetDefault("telemetry.metrics_file", "")
}

// Validate checks every field. It is called by LoadConfig and again by the
// CLI after flag overrides are applied.
func (c *Config) Validate() error {
	if !slices.Contains(validOrderings, strings.ToLower(c.Traversal.Ordering)) {
		return fmt.Errorf("%w: %q", ErrInvalidOrdering, c.Traversal.Ordering)
	}

	if c.Traversal.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, c.Traversal.Limit)
	}

	if c.Traversal.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Traversal.Workers)
	}

	if !slices.Contains(validFormats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if c.Output.Width < 0 || c.Output.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, c.Output.Width, c.Output.Height)
	}

	_, err := c.Cache.ObjectCacheBytes()
	if err != nil {
		return err
	}

	if !slices.Contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(validLogFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// ObjectCacheBytes parses ObjectCacheSize. An empty value means no hint.
func (c CacheConfig) ObjectCacheBytes() (int64, error) {
	trimmed := strings.TrimSpace(c.ObjectCacheSize)
	if trimmed == "" {
		return 0, nil
	}

	parsed, err := humanize.ParseBytes(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidCacheSize, c.ObjectCacheSize, err)
	}

	return int64(parsed), nil //nolint:gosec // sizes beyond int64 are not meaningful here.
}

// SlogLevel maps Level onto a slog level, defaulting to warn.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// JSON reports whether logs should be JSON encoded.
func (c LoggingConfig) JSON() bool {
	return strings.EqualFold(c.Format, "json")
}
