package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
environment: test
mode: replay
log:
  level: info
  format: json
candle:
  interval: 1m
universe:
  symbols: ["RELIANCE", "TCS"]
  threshold_pct: 0.25
  top_n: 5
  target_step_pct: 0.25
  target_max_pct: 20.0
replay:
  file: ticks.jsonl
  start: 2026-01-02T09:00:00Z
store:
  backend: memory
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != "replay" {
		t.Fatalf("mode wrong: %q", cfg.Mode)
	}
	if cfg.Candle.Interval != time.Minute {
		t.Fatalf("interval wrong: %v", cfg.Candle.Interval)
	}
	if len(cfg.Universe.Symbols) != 2 {
		t.Fatalf("symbols wrong: %v", cfg.Universe.Symbols)
	}
}

func TestLoadRejectsBadMode(t *testing.T) {
	bad := validYAML + "\n"
	cfg, err := Load(writeConfig(t, bad))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Mode = "paper"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown mode must fail validation")
	}
}

func TestValidateRequiresReplayFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Replay.File = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("replay mode without a file must fail validation")
	}
}

func TestValidateRequiresRedisAddr(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Store.Backend = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("redis backend without addr must fail validation")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "replay")
	t.Setenv("SYMBOLS", "AAA,BBB,CCC")
	t.Setenv("REPLAY_START", "2026-02-03T09:00:00Z")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Universe.Symbols) != 3 || cfg.Universe.Symbols[0] != "AAA" {
		t.Fatalf("SYMBOLS override not applied: %v", cfg.Universe.Symbols)
	}
	want := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)
	if !cfg.Replay.Start.Equal(want) {
		t.Fatalf("REPLAY_START override not applied: %v", cfg.Replay.Start)
	}
}

func TestReplayStartOverrideKeepsDefaultOnGarbage(t *testing.T) {
	t.Setenv("REPLAY_START", "not a time")

	cfg, err := LoadWithEnv(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if !cfg.Replay.Start.Equal(want) {
		t.Fatalf("unparseable override must keep the file value: %v", cfg.Replay.Start)
	}
}
