package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagFPS     = flag.Float64("fps", 0, "Bake sample rate (0 = mean channel rate)")
	flagNoPrune = flag.Bool("no-prune", false, "Keep constant animation channels")
	flagWorkers = flag.Int("workers", 0, "Parallel chunk builders (0 = GOMAXPROCS)")
	flagLog     = flag.String("log", "", "Log file path")
	flagFormat  = flag.String("format", "", "Output format: glb or gltf")
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
	if *flagFPS > 0 {
		cfg.Bake.FPS = float32(*flagFPS)
	}
	if *flagNoPrune {
		cfg.Bake.Prune = false
	}
	if *flagWorkers > 0 {
		cfg.Geometry.Workers = *flagWorkers
	}
	if *flagLog != "" {
		cfg.Logging.LogFile = *flagLog
	}
	if *flagFormat != "" {
		cfg.Output.Format = *flagFormat
	}
}
