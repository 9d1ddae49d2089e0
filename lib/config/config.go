// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "ARCHIVESTORE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the archive store.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Store configures the database and default compression.
	Store StoreConfig `yaml:"store"`

	// Selector holds the size thresholds for use-case selection.
	Selector SelectorConfig `yaml:"selector"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// References lists tables outside the store whose rows pin
	// buckets against deletion.
	References []ReferenceConfig `yaml:"references"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
// A non-nil References list replaces the base list entirely.
type ConfigOverrides struct {
	Store      *StoreConfig      `yaml:"store,omitempty"`
	Selector   *SelectorConfig   `yaml:"selector,omitempty"`
	Logging    *LoggingConfig    `yaml:"logging,omitempty"`
	References []ReferenceConfig `yaml:"references,omitempty"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	// Path is the database file. ${HOME} and ${VAR:-default} are
	// expanded.
	Path string `yaml:"path"`

	// PoolSize is the number of pooled connections. Zero means the
	// pool default.
	PoolSize int `yaml:"pool_size"`

	// DefaultPreset is the compression type used when a caller names
	// neither a type nor a use case.
	// Default: gzip_6
	DefaultPreset string `yaml:"default_preset"`
}

// SelectorConfig mirrors the selector thresholds, in bytes. Zero
// values take the selector's defaults.
type SelectorConfig struct {
	MinCompressSize   int64   `yaml:"min_compress_size"`
	RealtimeLargeSize int64   `yaml:"realtime_large_size"`
	BalancedSteps     []int64 `yaml:"balanced_steps"`
	ArchivalThreshold int64   `yaml:"archival_threshold"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: text (development), json (production)
	Format string `yaml:"format"`
}

// ReferenceConfig names a table and the column in it that holds
// bucket ids.
type ReferenceConfig struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Environment: Development,
		Store: StoreConfig{
			Path:          filepath.Join(homeDir, ".cache", "archivestore", "archive.db"),
			DefaultPreset: "gzip_6",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the ARCHIVESTORE_CONFIG environment
// variable. There are no fallbacks - if it is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your archivestore.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values; the only expansion performed is
// ${VAR} and ${VAR:-default} in the store path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production logs are machine-read.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Store != nil {
		if overrides.Store.Path != "" {
			c.Store.Path = overrides.Store.Path
		}
		if overrides.Store.PoolSize != 0 {
			c.Store.PoolSize = overrides.Store.PoolSize
		}
		if overrides.Store.DefaultPreset != "" {
			c.Store.DefaultPreset = overrides.Store.DefaultPreset
		}
	}

	if overrides.Selector != nil {
		if overrides.Selector.MinCompressSize != 0 {
			c.Selector.MinCompressSize = overrides.Selector.MinCompressSize
		}
		if overrides.Selector.RealtimeLargeSize != 0 {
			c.Selector.RealtimeLargeSize = overrides.Selector.RealtimeLargeSize
		}
		if len(overrides.Selector.BalancedSteps) > 0 {
			c.Selector.BalancedSteps = overrides.Selector.BalancedSteps
		}
		if overrides.Selector.ArchivalThreshold != 0 {
			c.Selector.ArchivalThreshold = overrides.Selector.ArchivalThreshold
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}

	if overrides.References != nil {
		c.References = overrides.References
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Store.Path = expandVars(c.Store.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for errors. Preset names are
// checked when the store opens, against the registry it seeds.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}
	if c.Store.PoolSize < 0 {
		errs = append(errs, fmt.Errorf("store.pool_size must not be negative, got %d", c.Store.PoolSize))
	}
	if c.Store.DefaultPreset == "" {
		errs = append(errs, fmt.Errorf("store.default_preset is required"))
	}

	if steps := c.Selector.BalancedSteps; len(steps) > 0 {
		if len(steps) != 3 {
			errs = append(errs, fmt.Errorf("selector.balanced_steps must have 3 entries, got %d", len(steps)))
		} else if !slices.IsSorted(steps) {
			errs = append(errs, fmt.Errorf("selector.balanced_steps must be ascending: %v", steps))
		}
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", logLevels))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	for i, reference := range c.References {
		if reference.Table == "" || reference.Column == "" {
			errs = append(errs, fmt.Errorf("references[%d]: table and column are required", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel returns the configured level. Unknown values map to info;
// Validate reports them.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnsurePaths creates the directory holding the database file.
func (c *Config) EnsurePaths() error {
	if c.Store.Path == "" {
		return nil
	}
	directory := filepath.Dir(c.Store.Path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", directory, err)
	}
	return nil
}
