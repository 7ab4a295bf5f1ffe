// Package config loads herald configuration from an optional YAML file with
// environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration: defaults, then the YAML file at
// path (if path is empty no file is read), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		resolved, err := resolveFile(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", resolved, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Discover returns the path of the first config file found in the standard
// locations, or "" when none exists (defaults plus environment are enough to
// run).
func Discover() string {
	if p := os.Getenv("HERALD_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("herald.yaml"); err == nil {
		return "herald.yaml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "herald", "herald.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func resolveFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s", path)
	}
	if info.IsDir() {
		p := filepath.Join(path, "herald.yaml")
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("directory provided but herald.yaml not found: %s", path)
		}
		return p, nil
	}
	return path, nil
}

func validate(cfg *Config) error {
	if cfg.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative (got %d)", cfg.Engine.Workers)
	}
	if cfg.Engine.QueueSize < 0 {
		return fmt.Errorf("engine.queue_size must not be negative (got %d)", cfg.Engine.QueueSize)
	}
	if cfg.Engine.DeliverTimeout <= 0 {
		return fmt.Errorf("engine.deliver_timeout must be positive (got %s)", cfg.Engine.DeliverTimeout)
	}
	if cfg.Engine.ShutdownTimeout <= 0 {
		return fmt.Errorf("engine.shutdown_timeout must be positive (got %s)", cfg.Engine.ShutdownTimeout)
	}
	if cfg.Engine.UserRate < 0 {
		return fmt.Errorf("engine.user_rate must not be negative (got %g)", cfg.Engine.UserRate)
	}
	return nil
}
