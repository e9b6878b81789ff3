// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the taskboard configuration file.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig    `json:"server"`
	Database   DatabaseConfig  `json:"database"`
	Chat       ChatConfig      `json:"chat"`
	Profiles   ProfilesConfig  `json:"profiles"`
	Workspaces WorkspaceConfig `json:"workspaces"`
	Events     EventsConfig    `json:"events"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// ChatConfig tunes the agent bridge.
type ChatConfig struct {
	// WorkDir is the directory agent processes run in.
	WorkDir string `json:"work_dir"`
	// ReadTimeout bounds each stdout line read, e.g. "120s".
	ReadTimeout string `json:"read_timeout"`
	// KeepAlive is the SSE keep-alive cadence, e.g. "15s".
	KeepAlive string `json:"keep_alive"`
}

// ProfilesConfig locates the executor profile file.
type ProfilesConfig struct {
	Path string `json:"path"`
	// Default names the profile used when a request specifies none.
	Default string `json:"default"`
	// ReloadDebounce coalesces file-change events, e.g. "500ms".
	ReloadDebounce string `json:"reload_debounce"`
}

// WorkspaceConfig holds workspace provisioning settings.
type WorkspaceConfig struct {
	Root string `json:"root"`
}

// EventsConfig bounds the in-memory event history.
type EventsConfig struct {
	HistoryMaxEvents int    `json:"history_max_events"`
	HistoryMaxAge    string `json:"history_max_age"`
}

// ParseDuration parses a duration string with a fallback for empty input.
func ParseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}
