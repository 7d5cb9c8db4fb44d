package infra

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the replay engine. Values start from
// Default(); LoadConfig applies a YAML file and then environment variables
// on top of it, and main applies CLI flags last. Environment overrides are
// read only by LoadConfig, so a run without a config file ignores them.
type Config struct {
	Replay struct {
		Workers       int      `yaml:"workers"`        // 0 = one per CPU
		QueueSize     int      `yaml:"queue_size"`     // per-shard and snapshot queue depth
		MessageLimit  uint64   `yaml:"message_limit"`  // 0 = unlimited
		Symbols       []string `yaml:"symbols"`        // empty = all symbols
		ProgressEvery uint64   `yaml:"progress_every"` // messages between progress lines
	} `yaml:"replay"`

	Strategy struct {
		InitialCapital float64 `yaml:"initial_capital"`
		EntryThreshold float64 `yaml:"entry_threshold"`
		ExitThreshold  float64 `yaml:"exit_threshold"`
		PositionSize   int64   `yaml:"position_size"`
		HoldTicks      int     `yaml:"hold_ticks"`
		WarmupTicks    int     `yaml:"warmup_ticks"`
		Aging          string  `yaml:"aging"` // "global" or "symbol"
	} `yaml:"strategy"`

	Output struct {
		Dir         string `yaml:"dir"`
		TradesFile  string `yaml:"trades_file"`
		SummaryFile string `yaml:"summary_file"`
		SnapshotsDB string `yaml:"snapshots_db"` // empty = snapshot sink disabled
	} `yaml:"output"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration; the binary runs without any
// config file at all.
func Default() *Config {
	var cfg Config
	cfg.Replay.QueueSize = 1024
	cfg.Replay.ProgressEvery = 1_000_000
	cfg.Strategy.InitialCapital = 1_000_000
	cfg.Strategy.EntryThreshold = 0.6
	cfg.Strategy.ExitThreshold = -0.6
	cfg.Strategy.PositionSize = 100
	cfg.Strategy.HoldTicks = 15
	cfg.Strategy.WarmupTicks = 5
	cfg.Strategy.Aging = "global"
	cfg.Output.Dir = "output"
	cfg.Output.TradesFile = "trades.csv"
	cfg.Output.SummaryFile = "performance_summary.json"
	cfg.Logging.Level = "info"
	return &cfg
}

// LoadConfig reads and validates the YAML file, applying env overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration coherence.
func (c *Config) Validate() error {
	if c.Replay.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if c.Replay.QueueSize <= 0 {
		return fmt.Errorf("queue size must be positive")
	}
	if c.Strategy.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.Strategy.ExitThreshold >= c.Strategy.EntryThreshold {
		return fmt.Errorf("exit threshold %.2f must be below entry threshold %.2f",
			c.Strategy.ExitThreshold, c.Strategy.EntryThreshold)
	}
	if c.Strategy.PositionSize <= 0 {
		return fmt.Errorf("position size must be positive")
	}
	if c.Strategy.HoldTicks <= 0 {
		return fmt.Errorf("hold ticks must be positive")
	}
	if c.Strategy.Aging != "global" && c.Strategy.Aging != "symbol" {
		return fmt.Errorf("aging must be global or symbol, got %q", c.Strategy.Aging)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output dir is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// overrideWithEnv lets deployment scripts tweak a run without editing the
// config file. Environment wins over file.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("ITCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Replay.Workers = n
		}
	}
	if v := os.Getenv("ITCH_MESSAGE_LIMIT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Replay.MessageLimit = n
		}
	}
	if v := os.Getenv("ITCH_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("ITCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
