package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
replay:
  workers: 4
  message_limit: 1000
strategy:
  entry_threshold: 0.8
  exit_threshold: -0.8
  hold_ticks: 20
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Replay.Workers != 4 {
		t.Errorf("Workers = %d; want 4", cfg.Replay.Workers)
	}
	if cfg.Replay.MessageLimit != 1000 {
		t.Errorf("MessageLimit = %d; want 1000", cfg.Replay.MessageLimit)
	}
	if cfg.Strategy.EntryThreshold != 0.8 {
		t.Errorf("EntryThreshold = %f; want 0.8", cfg.Strategy.EntryThreshold)
	}
	if cfg.Strategy.HoldTicks != 20 {
		t.Errorf("HoldTicks = %d; want 20", cfg.Strategy.HoldTicks)
	}
	// Untouched keys keep their defaults.
	if cfg.Output.TradesFile != "trades.csv" {
		t.Errorf("TradesFile = %q; want default trades.csv", cfg.Output.TradesFile)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q; want debug", cfg.Logging.Level)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	content := `
strategy:
  entry_threshold: 0.5
  exit_threshold: 0.9
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("inverted thresholds should fail validation")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("replay:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("ITCH_WORKERS", "8")
	t.Setenv("ITCH_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Replay.Workers != 8 {
		t.Errorf("Workers = %d; want env override 8", cfg.Replay.Workers)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %q; want env override warn", cfg.Logging.Level)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Replay.Workers = -1 }},
		{"zero queue", func(c *Config) { c.Replay.QueueSize = 0 }},
		{"zero capital", func(c *Config) { c.Strategy.InitialCapital = 0 }},
		{"bad aging", func(c *Config) { c.Strategy.Aging = "never" }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		cfg := Default()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation failure", tt.name)
		}
	}
}
