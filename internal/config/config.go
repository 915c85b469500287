// Package config handles remesher configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

var (
	ErrDetailSize = errors.New("detail_size must be positive")
	ErrLeafLimit  = errors.New("leaf_limit must be positive")
	ErrLogLevel   = errors.New("unknown log level")
)

// Config holds all remesher settings.
type Config struct {
	Remesh  RemeshConfig  `yaml:"remesh"`
	Tree    TreeConfig    `yaml:"tree"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// RemeshConfig holds topology update settings.
type RemeshConfig struct {
	DetailSize float64 `yaml:"detail_size"` // Maximum edge length; the minimum is 0.4 of it
	MaxSteps   int     `yaml:"max_steps"`   // 0 keeps the throttled step count
	Subdivide  bool    `yaml:"subdivide"`
	Collapse   bool    `yaml:"collapse"`
	Cleanup    bool    `yaml:"cleanup"`
	Workers    int     `yaml:"workers"` // 0 uses one per CPU
	Seed       uint64  `yaml:"seed"`
}

// TreeConfig holds face tree settings.
type TreeConfig struct {
	LeafLimit       int  `yaml:"leaf_limit"`
	MaxDepth        int  `yaml:"max_depth"`
	BalanceInterval int  `yaml:"balance_interval"` // Strokes between rebalances
	Verify          bool `yaml:"verify"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MetricsConfig holds metrics reporting settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"` // Prefix of the reported metric families
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Remesh: RemeshConfig{
			DetailSize: 0.1,
			MaxSteps:   0,
			Subdivide:  true,
			Collapse:   true,
			Cleanup:    true,
			Workers:    0,
			Seed:       1,
		},
		Tree: TreeConfig{
			LeafLimit:       400,
			MaxDepth:        48,
			BalanceInterval: 5,
			Verify:          false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "sculptmesh",
		},
	}
}

// Validate reports the first setting the engine cannot run with.
func (c *Config) Validate() error {
	if !(c.Remesh.DetailSize > 0) {
		return fmt.Errorf("remesh: %w", ErrDetailSize)
	}
	if c.Tree.LeafLimit <= 0 {
		return fmt.Errorf("tree: %w", ErrLeafLimit)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: %w: %q", ErrLogLevel, c.Logging.Level)
	}
	return nil
}
