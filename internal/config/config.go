// Package config handles configuration loading and defaults for the daybook
// CLI. Configuration is loaded from XDG-compliant paths (typically
// ~/.config/daybook/config.yaml).
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.daybook)
	DataDir string `yaml:"data_dir,omitempty"`

	// AutosaveDebounceMs delays writes after a mutation so bursts coalesce
	AutosaveDebounceMs int `yaml:"autosave_debounce_ms,omitempty"`

	// OrderStrategy is the default task ordering ("urgent_first" or "easy_first")
	OrderStrategy string `yaml:"order_strategy,omitempty"`

	// Theme customizes the CLI colors
	Theme ThemeConfig `yaml:"theme,omitempty"`

	// Remote configures the optional remote calendar source
	Remote RemoteConfig `yaml:"remote,omitempty"`
}

// ThemeConfig defines color settings for the CLI views.
type ThemeConfig struct {
	// Primary color for headings (hex, e.g., "#FF5733")
	Primary string `yaml:"primary,omitempty"`

	// Accent color for streak figures (hex)
	Accent string `yaml:"accent,omitempty"`

	// Muted color for secondary text (hex)
	Muted string `yaml:"muted,omitempty"`
}

// RemoteConfig defines the read-only remote calendar source.
type RemoteConfig struct {
	// Enabled enables/disables periodic remote sync
	Enabled bool `yaml:"enabled,omitempty"`

	// URL is the ICS feed address
	URL string `yaml:"url,omitempty"`

	// RefreshMinutes is the sync interval (minimum 1)
	RefreshMinutes int `yaml:"refresh_minutes,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:            defaultDataDir(),
		AutosaveDebounceMs: 400,
		OrderStrategy:      "urgent_first",
		Theme: ThemeConfig{
			Primary: "#7C3AED", // Violet
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
		},
		Remote: RemoteConfig{
			Enabled:        false,
			URL:            "",
			RefreshMinutes: 15,
		},
	}
}

// AutosaveDebounce returns the debounce as a duration.
func (c *Config) AutosaveDebounce() time.Duration {
	return time.Duration(c.AutosaveDebounceMs) * time.Millisecond
}

// RefreshInterval returns the remote sync interval, floored at one minute.
func (c *Config) RefreshInterval() time.Duration {
	m := c.Remote.RefreshMinutes
	if m < 1 {
		m = 1
	}
	return time.Duration(m) * time.Minute
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".daybook"
	}
	return filepath.Join(home, ".daybook")
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "daybook")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "daybook")
}

// configPath returns the path to the config file.
func configPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from disk, merging with defaults. If no config
// file exists, returns the default configuration.
func Load() (*Config, error) {
	cfg := Default()

	path := configPath()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var userCfg Config
	if err := yaml.Unmarshal(data, &userCfg); err != nil {
		return nil, err
	}
	cfg.merge(&userCfg)
	return cfg, nil
}

// merge applies set values from other onto c. Zero-valued fields keep the
// defaults; Remote.Enabled true always wins since false is the default.
func (c *Config) merge(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.AutosaveDebounceMs > 0 {
		c.AutosaveDebounceMs = other.AutosaveDebounceMs
	}
	if other.OrderStrategy != "" {
		c.OrderStrategy = other.OrderStrategy
	}
	if other.Theme.Primary != "" {
		c.Theme.Primary = other.Theme.Primary
	}
	if other.Theme.Accent != "" {
		c.Theme.Accent = other.Theme.Accent
	}
	if other.Theme.Muted != "" {
		c.Theme.Muted = other.Theme.Muted
	}
	if other.Remote.Enabled {
		c.Remote.Enabled = true
	}
	if other.Remote.URL != "" {
		c.Remote.URL = other.Remote.URL
	}
	if other.Remote.RefreshMinutes > 0 {
		c.Remote.RefreshMinutes = other.Remote.RefreshMinutes
	}
}
