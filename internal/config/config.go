// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Config represents the application configuration
type Config struct {
	File                string `yaml:"file"`                  // todo.txt path
	ArchiveFile         string `yaml:"archive_file"`          // done.txt path, empty disables archiving
	AutosaveInterval    string `yaml:"autosave_interval"`     // e.g. "30s", "0" disables
	Colorscheme         string `yaml:"colorscheme"`           // scheme name, "default" for built-in
	SearchCaseSensitive bool   `yaml:"search_case_sensitive"` // "/" search case sensitivity
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		File:             filepath.Join(homeDir(), "todo.txt"),
		AutosaveInterval: "30s",
		Colorscheme:      "default",
	}
}

// Load loads configuration from the specified path, or the default XDG path
// if empty. If the config file doesn't exist, it creates one with defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	// Apply defaults for unset fields
	if cfg.Colorscheme == "" {
		cfg.Colorscheme = "default"
	}
	if cfg.AutosaveInterval == "" {
		cfg.AutosaveInterval = "30s"
	}

	cfg.File = ExpandPath(cfg.File)
	cfg.ArchiveFile = ExpandPath(cfg.ArchiveFile)

	return cfg, nil
}

// save writes the configuration to the specified path
func (c *Config) save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The embedded sample includes all documentation and comments
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.File == "" {
		return fmt.Errorf("no todo file configured: set 'file' in the config or pass --file")
	}
	if c.AutosaveInterval != "" && c.AutosaveInterval != "0" {
		if _, err := time.ParseDuration(c.AutosaveInterval); err != nil {
			return fmt.Errorf("invalid duration for autosave_interval: %q", c.AutosaveInterval)
		}
	}
	return nil
}

// Autosave returns the parsed autosave interval, 0 when disabled.
func (c *Config) Autosave() time.Duration {
	if c.AutosaveInterval == "" || c.AutosaveInterval == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.AutosaveInterval)
	if err != nil {
		return 0
	}
	return d
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "todotui")
	}
	return filepath.Join(homeDir(), ".config", "todotui")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}
