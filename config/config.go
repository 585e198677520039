package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete reconciliation job configuration.
type Config struct {
	Bridge    BridgeConfig    `json:"bridge" yaml:"bridge"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// BridgeConfig locates the MT5 bridge process.
type BridgeConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// Timeout returns the per-call bridge timeout.
func (b BridgeConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// StoreConfig locates the local trade database.
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// DetectionConfig tunes the reset classifier.
type DetectionConfig struct {
	MinAgeSeconds int `json:"min_age_seconds,omitempty" yaml:"min_age_seconds,omitempty"`
}

// MinAge returns the minimum leg age for reset classification.
func (d DetectionConfig) MinAge() time.Duration {
	return time.Duration(d.MinAgeSeconds) * time.Second
}

// LoggingConfig controls the structured log stream.
type LoggingConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty"`
	Output     string `json:"output,omitempty" yaml:"output,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Bridge.BaseURL == "" {
		return fmt.Errorf("bridge.base_url is required")
	}
	if !strings.HasPrefix(c.Bridge.BaseURL, "http://") && !strings.HasPrefix(c.Bridge.BaseURL, "https://") {
		return fmt.Errorf("bridge.base_url must be an http(s) URL")
	}
	if c.Bridge.TimeoutSeconds < 0 {
		return fmt.Errorf("bridge.timeout_seconds must not be negative")
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	if c.Detection.MinAgeSeconds < 0 {
		return fmt.Errorf("detection.min_age_seconds must not be negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults. The bridge URL has
// no safe default and must come from the file.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			TimeoutSeconds: 20,
		},
		Store: StoreConfig{
			DBPath: "./mt5recon.sqlite",
		},
		Detection: DetectionConfig{
			MinAgeSeconds: 180,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
