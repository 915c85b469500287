package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagDetail  = flag.Float64("detail", 0, "Maximum edge length")
	flagSteps   = flag.Int("steps", 0, "Steps per pass, overriding the throttle")
	flagWorkers = flag.Int("workers", 0, "Scan workers")
	flagLeaf    = flag.Int("leaf-limit", 0, "Faces per tree leaf")
	flagVerify  = flag.Bool("verify", false, "Check and repair the tree after every stroke")
	flagNoSplit = flag.Bool("no-subdivide", false, "Skip edge subdivision")
	flagNoMerge = flag.Bool("no-collapse", false, "Skip edge collapse")
	flagMetrics = flag.Bool("metrics", false, "Print metrics on exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDetail > 0 {
		cfg.Remesh.DetailSize = *flagDetail
	}
	if *flagSteps > 0 {
		cfg.Remesh.MaxSteps = *flagSteps
	}
	if *flagWorkers > 0 {
		cfg.Remesh.Workers = *flagWorkers
	}
	if *flagLeaf > 0 {
		cfg.Tree.LeafLimit = *flagLeaf
	}
	if *flagVerify {
		cfg.Tree.Verify = true
	}
	if *flagNoSplit {
		cfg.Remesh.Subdivide = false
	}
	if *flagNoMerge {
		cfg.Remesh.Collapse = false
	}
	if *flagMetrics {
		cfg.Metrics.Enabled = true
	}
}
