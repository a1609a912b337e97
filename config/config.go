// ABOUTME: Configuration management for taskbridge
// ABOUTME: YAML config at XDG config home with environment variable overrides
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Provider name constants.
const (
	ProviderLinear      = "linear"
	ProviderTodoist     = "todoist"
	ProviderTaskwarrior = "taskwarrior"
)

// Default backend endpoints.
const (
	DefaultLinearURL  = "https://api.linear.app/graphql"
	DefaultTodoistURL = "https://api.todoist.com/api/v1"
	DefaultTogglURL   = "https://api.track.toggl.com/api/v9"
)

// Config holds provider credentials, endpoints, and the active naming
// convention. Tokens come from the file or environment; the file is the
// collaborator that feeds the adapters, not part of the sync logic.
type Config struct {
	Provider       string `yaml:"provider"`
	Convention     string `yaml:"convention"`
	LinearToken    string `yaml:"linear_token,omitempty"`
	LinearURL      string `yaml:"linear_url,omitempty"`
	TodoistToken   string `yaml:"todoist_token,omitempty"`
	TodoistURL     string `yaml:"todoist_url,omitempty"`
	TaskwarriorCmd string `yaml:"taskwarrior_cmd,omitempty"`
	TogglToken     string `yaml:"toggl_token,omitempty"`
	TogglURL       string `yaml:"toggl_url,omitempty"`
	CacheDir       string `yaml:"cache_dir,omitempty"`
}

// Dir returns the XDG-compliant configuration directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, "taskbridge")
}

// Path returns the configuration file location.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Defaults returns a config with every non-credential field populated.
func Defaults() *Config {
	return &Config{
		Provider:       ProviderLinear,
		Convention:     "label",
		LinearURL:      DefaultLinearURL,
		TodoistURL:     DefaultTodoistURL,
		TogglURL:       DefaultTogglURL,
		TaskwarriorCmd: "task",
		CacheDir:       filepath.Join(xdg.CacheHome, "taskbridge"),
	}
}

// Load reads the config file, returning defaults when it does not exist.
// Environment variables override file values:
// - TASKBRIDGE_PROVIDER, TASKBRIDGE_CONVENTION
// - TASKBRIDGE_LINEAR_TOKEN, TASKBRIDGE_TODOIST_TOKEN, TASKBRIDGE_TOGGL_TOKEN.
func Load() (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	fillDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Save writes the configuration file with restricted permissions, since it
// holds API tokens.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func fillDefaults(cfg *Config) {
	defaults := Defaults()
	if cfg.Provider == "" {
		cfg.Provider = defaults.Provider
	}
	if cfg.Convention == "" {
		cfg.Convention = defaults.Convention
	}
	if cfg.LinearURL == "" {
		cfg.LinearURL = defaults.LinearURL
	}
	if cfg.TodoistURL == "" {
		cfg.TodoistURL = defaults.TodoistURL
	}
	if cfg.TogglURL == "" {
		cfg.TogglURL = defaults.TogglURL
	}
	if cfg.TaskwarriorCmd == "" {
		cfg.TaskwarriorCmd = defaults.TaskwarriorCmd
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaults.CacheDir
	}
}

func applyEnvOverrides(cfg *Config) {
	if provider := os.Getenv("TASKBRIDGE_PROVIDER"); provider != "" {
		cfg.Provider = provider
	}
	if convention := os.Getenv("TASKBRIDGE_CONVENTION"); convention != "" {
		cfg.Convention = convention
	}
	if token := os.Getenv("TASKBRIDGE_LINEAR_TOKEN"); token != "" {
		cfg.LinearToken = token
	}
	if token := os.Getenv("TASKBRIDGE_TODOIST_TOKEN"); token != "" {
		cfg.TodoistToken = token
	}
	if token := os.Getenv("TASKBRIDGE_TOGGL_TOKEN"); token != "" {
		cfg.TogglToken = token
	}
}
