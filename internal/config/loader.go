// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(path string) (*Config, error) {
	cfg, err := l.Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a configuration with all defaults applied and no file.
func (l *Loader) Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// FindConfig searches for a config file in the current directory.
// It looks for taskboard.hjson first, then taskboard.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"taskboard.hjson",
		"taskboard.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found (looked for taskboard.hjson, taskboard.json)")
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8330
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "taskboard.db"
	}

	// Chat defaults
	if cfg.Chat.ReadTimeout == "" {
		cfg.Chat.ReadTimeout = "120s"
	}
	if cfg.Chat.KeepAlive == "" {
		cfg.Chat.KeepAlive = "15s"
	}

	// Profile defaults
	if cfg.Profiles.Default == "" {
		cfg.Profiles.Default = "claude"
	}
	if cfg.Profiles.ReloadDebounce == "" {
		cfg.Profiles.ReloadDebounce = "500ms"
	}

	// Workspace defaults
	if cfg.Workspaces.Root == "" {
		cfg.Workspaces.Root = "workspaces"
	}

	// Events defaults
	if cfg.Events.HistoryMaxEvents == 0 {
		cfg.Events.HistoryMaxEvents = 10000
	}
	if cfg.Events.HistoryMaxAge == "" {
		cfg.Events.HistoryMaxAge = "1h"
	}
}
