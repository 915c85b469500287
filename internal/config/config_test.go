package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test remesh defaults
	if cfg.Remesh.DetailSize != 0.1 {
		t.Errorf("expected detail size 0.1, got %f", cfg.Remesh.DetailSize)
	}
	if cfg.Remesh.MaxSteps != 0 {
		t.Errorf("expected max steps 0, got %d", cfg.Remesh.MaxSteps)
	}
	if !cfg.Remesh.Subdivide || !cfg.Remesh.Collapse || !cfg.Remesh.Cleanup {
		t.Error("expected every pass enabled by default")
	}

	// Test tree defaults
	if cfg.Tree.LeafLimit != 400 {
		t.Errorf("expected leaf limit 400, got %d", cfg.Tree.LeafLimit)
	}
	if cfg.Tree.BalanceInterval != 5 {
		t.Errorf("expected balance interval 5, got %d", cfg.Tree.BalanceInterval)
	}
	if cfg.Tree.Verify {
		t.Error("expected verify to be false by default")
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	// Test metrics defaults
	if cfg.Metrics.Enabled {
		t.Error("expected metrics to be disabled by default")
	}
	if cfg.Metrics.Namespace != "sculptmesh" {
		t.Errorf("expected namespace 'sculptmesh', got %s", cfg.Metrics.Namespace)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "remesh.yaml")

	yamlContent := `
remesh:
  detail_size: 0.25
  max_steps: 64
  subdivide: true
  collapse: false
  cleanup: false
  workers: 3
  seed: 42

tree:
  leaf_limit: 128
  max_depth: 20
  balance_interval: 2
  verify: true

logging:
  level: "debug"
  log_file: "remesh.log"

metrics:
  enabled: true
  namespace: "studio"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Remesh.DetailSize != 0.25 {
		t.Errorf("expected detail size 0.25, got %f", cfg.Remesh.DetailSize)
	}
	if cfg.Remesh.MaxSteps != 64 {
		t.Errorf("expected max steps 64, got %d", cfg.Remesh.MaxSteps)
	}
	if cfg.Remesh.Collapse || cfg.Remesh.Cleanup {
		t.Error("expected collapse and cleanup to be disabled")
	}
	if cfg.Remesh.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Remesh.Workers)
	}
	if cfg.Remesh.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Remesh.Seed)
	}

	if cfg.Tree.LeafLimit != 128 {
		t.Errorf("expected leaf limit 128, got %d", cfg.Tree.LeafLimit)
	}
	if cfg.Tree.MaxDepth != 20 {
		t.Errorf("expected max depth 20, got %d", cfg.Tree.MaxDepth)
	}
	if !cfg.Tree.Verify {
		t.Error("expected verify to be true")
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "remesh.log" {
		t.Errorf("expected log file 'remesh.log', got %s", cfg.Logging.LogFile)
	}

	if !cfg.Metrics.Enabled {
		t.Error("expected metrics to be enabled")
	}
	if cfg.Metrics.Namespace != "studio" {
		t.Errorf("expected namespace 'studio', got %s", cfg.Metrics.Namespace)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
remesh:
  detail_size: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/remesh.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"zero detail", func(c *Config) { c.Remesh.DetailSize = 0 }, ErrDetailSize},
		{"negative detail", func(c *Config) { c.Remesh.DetailSize = -0.5 }, ErrDetailSize},
		{"zero leaf limit", func(c *Config) { c.Tree.LeafLimit = 0 }, ErrLeafLimit},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, ErrLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFromFileRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "remesh.yaml")
	if err := os.WriteFile(configPath, []byte("remesh:\n  detail_size: -1\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	err := loadFromFile(Default(), configPath)
	if !errors.Is(err, ErrDetailSize) {
		t.Errorf("expected ErrDetailSize, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(EnvConfig, "")

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create remesh.yaml in current directory
	configPath := filepath.Join(tmpDir, "remesh.yaml")
	if err := os.WriteFile(configPath, []byte("remesh:\n  detail_size: 0.2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find remesh.yaml in current directory")
	}
}

func TestFindConfigFileEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elsewhere.yaml")
	t.Setenv(EnvConfig, path)

	if got := findConfigFile(); got != path {
		t.Errorf("expected %s from %s, got %s", path, EnvConfig, got)
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "remesh.yaml")

	cfg := Default()
	cfg.Remesh.DetailSize = 0.05
	cfg.Tree.Verify = true
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Remesh.DetailSize != 0.05 {
		t.Errorf("expected detail size 0.05, got %f", loaded.Remesh.DetailSize)
	}
	if !loaded.Tree.Verify {
		t.Error("expected verify to survive a save")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "detail and steps flags",
			setup: func() {
				*flagDetail = 0.02
				*flagSteps = 16
			},
			verify: func(cfg *Config) {
				if cfg.Remesh.DetailSize != 0.02 {
					t.Errorf("expected detail size 0.02, got %f", cfg.Remesh.DetailSize)
				}
				if cfg.Remesh.MaxSteps != 16 {
					t.Errorf("expected max steps 16, got %d", cfg.Remesh.MaxSteps)
				}
			},
			teardown: func() {
				*flagDetail = 0
				*flagSteps = 0
			},
		},
		{
			name: "workers and leaf limit flags",
			setup: func() {
				*flagWorkers = 8
				*flagLeaf = 64
			},
			verify: func(cfg *Config) {
				if cfg.Remesh.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Remesh.Workers)
				}
				if cfg.Tree.LeafLimit != 64 {
					t.Errorf("expected leaf limit 64, got %d", cfg.Tree.LeafLimit)
				}
			},
			teardown: func() {
				*flagWorkers = 0
				*flagLeaf = 0
			},
		},
		{
			name: "pass toggles",
			setup: func() {
				*flagNoSplit = true
				*flagNoMerge = true
			},
			verify: func(cfg *Config) {
				if cfg.Remesh.Subdivide || cfg.Remesh.Collapse {
					t.Error("expected subdivide and collapse to be disabled")
				}
				if !cfg.Remesh.Cleanup {
					t.Error("expected cleanup to stay enabled")
				}
			},
			teardown: func() {
				*flagNoSplit = false
				*flagNoMerge = false
			},
		},
		{
			name: "verify and metrics flags",
			setup: func() {
				*flagVerify = true
				*flagMetrics = true
			},
			verify: func(cfg *Config) {
				if !cfg.Tree.Verify {
					t.Error("expected verify to be enabled")
				}
				if !cfg.Metrics.Enabled {
					t.Error("expected metrics to be enabled")
				}
			},
			teardown: func() {
				*flagVerify = false
				*flagMetrics = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "remesh.yaml")

	yamlContent := `
remesh:
  detail_size: 0.3
tree:
  leaf_limit: 50
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagDetail = 0.05
	defer func() {
		*flagConfig = ""
		*flagDetail = 0
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Detail should be from flag (0.05), not file (0.3)
	if cfg.Remesh.DetailSize != 0.05 {
		t.Errorf("expected detail size 0.05 from flag, got %f", cfg.Remesh.DetailSize)
	}

	// Leaf limit should be from file (50) since no flag override
	if cfg.Tree.LeafLimit != 50 {
		t.Errorf("expected leaf limit 50 from file, got %d", cfg.Tree.LeafLimit)
	}
}
