package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if cfg.AutosaveDebounceMs <= 0 {
		t.Error("AutosaveDebounceMs should have a positive default")
	}
	if cfg.OrderStrategy != "urgent_first" {
		t.Errorf("OrderStrategy default = %q", cfg.OrderStrategy)
	}
	if cfg.Remote.Enabled {
		t.Error("remote sync should be disabled by default")
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme.Primary != Default().Theme.Primary {
		t.Error("missing file should yield defaults")
	}
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	dir := filepath.Join(tempDir, "daybook")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "data_dir: /tmp/custom\n" +
		"order_strategy: easy_first\n" +
		"remote:\n" +
		"  enabled: true\n" +
		"  url: https://example.com/feed.ics\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/custom" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.OrderStrategy != "easy_first" {
		t.Errorf("OrderStrategy = %q", cfg.OrderStrategy)
	}
	if !cfg.Remote.Enabled || cfg.Remote.URL != "https://example.com/feed.ics" {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
	// Unset fields keep defaults.
	if cfg.Theme.Accent != Default().Theme.Accent {
		t.Error("unset theme fields should keep defaults")
	}
	if cfg.Remote.RefreshMinutes != 15 {
		t.Errorf("RefreshMinutes = %d", cfg.Remote.RefreshMinutes)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)

	dir := filepath.Join(tempDir, "daybook")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("invalid YAML should return an error")
	}
}

func TestIntervalHelpers(t *testing.T) {
	cfg := &Config{AutosaveDebounceMs: 250, Remote: RemoteConfig{RefreshMinutes: 0}}

	if got := cfg.AutosaveDebounce(); got != 250*time.Millisecond {
		t.Errorf("AutosaveDebounce() = %v", got)
	}
	if got := cfg.RefreshInterval(); got != time.Minute {
		t.Errorf("RefreshInterval() floor = %v", got)
	}
}
