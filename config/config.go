// Package config provides configuration loading and management for
// knowhook.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete knowhook configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Repo    RepoConfig    `yaml:"repo"`
	NATS    NATSConfig    `yaml:"nats"`
	Reports ReportsConfig `yaml:"reports"`
}

// EngineConfig configures hook discovery and workflow execution.
type EngineConfig struct {
	// HooksDir is the directory holding hook definitions (*.ttl),
	// relative to the repo root unless absolute.
	HooksDir string `yaml:"hooks_dir"`

	// DataDir holds additional Turtle data loaded into the graph before
	// each evaluation pass.
	DataDir string `yaml:"data_dir"`

	// Timeout bounds one workflow run.
	Timeout time.Duration `yaml:"timeout"`
}

// RepoConfig configures the repository settings.
type RepoConfig struct {
	// Path is the repository root path (auto-detected from git if empty).
	Path string `yaml:"path"`
}

// NATSConfig configures optional receipt publishing.
type NATSConfig struct {
	// URL is the NATS server URL (empty = publishing disabled).
	URL string `yaml:"url"`

	// Subject overrides the default receipt subject.
	Subject string `yaml:"subject"`
}

// ReportsConfig configures on-disk receipts.
type ReportsConfig struct {
	// Dir is where evaluation receipts are written.
	Dir string `yaml:"dir"`

	// Disabled turns off receipt writing.
	Disabled bool `yaml:"disabled"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			HooksDir: ".knowhook/hooks",
			DataDir:  ".knowhook/data",
			Timeout:  5 * time.Minute,
		},
		Repo: RepoConfig{
			Path: "", // Auto-detect
		},
		NATS: NATSConfig{
			URL: "",
		},
		Reports: ReportsConfig{
			Dir: ".knowhook/reports",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Engine.HooksDir == "" {
		return fmt.Errorf("engine.hooks_dir is required")
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}
	if !c.Reports.Disabled && c.Reports.Dir == "" {
		return fmt.Errorf("reports.dir is required unless reports are disabled")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Engine.HooksDir != "" {
		c.Engine.HooksDir = other.Engine.HooksDir
	}
	if other.Engine.DataDir != "" {
		c.Engine.DataDir = other.Engine.DataDir
	}
	if other.Engine.Timeout != 0 {
		c.Engine.Timeout = other.Engine.Timeout
	}

	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	if other.Reports.Dir != "" {
		c.Reports.Dir = other.Reports.Dir
	}
	if other.Reports.Disabled {
		c.Reports.Disabled = true
	}
}

// ResolvePath resolves a configured path against the repo root.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Repo.Path, path)
}
