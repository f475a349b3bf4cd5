// Package config handles loading and saving readmit configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/readmit/config.yaml
//   - State:   ~/.local/state/readmit/ (theme preference)
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "readmit"

// EnvAPIURL overrides APIConfig.BaseURL when set.
const EnvAPIURL = "READMIT_API_URL"

// APIConfig points the dashboard at the readmission statistics service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"` // Per request; the service itself sets none
}

// ExportConfig controls where and how large exported artifacts are.
type ExportConfig struct {
	Dir         string `yaml:"dir,omitempty"`
	ChartWidth  int    `yaml:"chart_width,omitempty"`
	ChartHeight int    `yaml:"chart_height,omitempty"`
	MapWidth    int    `yaml:"map_width,omitempty"`
	MapHeight   int    `yaml:"map_height,omitempty"`
}

// UIConfig holds TUI preference settings.
type UIConfig struct {
	Mouse       bool  `yaml:"mouse,omitempty"`        // Click tiles to filter
	WatchConfig *bool `yaml:"watch_config,omitempty"` // Reload API settings on change (default on)
}

// Config is the top-level configuration for readmit.
type Config struct {
	API    APIConfig    `yaml:"api,omitempty"`
	Export ExportConfig `yaml:"export,omitempty"`
	UI     UIConfig     `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 10 * time.Second,
		},
		Export: ExportConfig{
			Dir:         ".",
			ChartWidth:  800,
			ChartHeight: 500,
			MapWidth:    1200,
			MapHeight:   800,
		},
		UI: UIConfig{
			Mouse: true,
		},
	}
}

// WatchEnabled reports whether the config file should be watched.
func (c Config) WatchEnabled() bool {
	return c.UI.WatchConfig == nil || *c.UI.WatchConfig
}

// Validate checks the fields the dashboard cannot work without.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: unsupported scheme %q", u.Scheme)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

// ConfigDir returns the XDG config directory for readmit.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for readmit.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return applyEnv(DefaultConfig()), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, then applies environment
// overrides. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	return applyEnv(cfg), nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func applyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	return cfg
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
