// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wingedpig/taskboard/internal/app"
	"github.com/wingedpig/taskboard/internal/config"
)

var (
	version = "0.9"
)

func main() {
	// Check for subcommands before flag parsing
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Parse flags
	var (
		configPath  string
		host        string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Parse()

	if showVersion {
		fmt.Printf("taskboard %s\n", version)
		os.Exit(0)
	}

	// Find config file if not specified; running without one uses defaults.
	if configPath == "" {
		loader := config.NewLoader()
		if found, err := loader.FindConfig(); err == nil {
			configPath = found
		}
	}
	if configPath != "" {
		log.Printf("Using config: %s", configPath)
	} else {
		log.Printf("No config file found, using defaults")
	}

	// Create and run app
	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	if err := application.Run(context.Background()); err != nil {
		log.Fatalf("App error: %v", err)
	}
}

const sampleConfig = `{
  // Taskboard configuration. All fields are optional.
  server: {
    host: 127.0.0.1
    port: 8330
  }
  database: {
    // SQLite database path.
    path: taskboard.db
  }
  chat: {
    // Directory agent processes run in (default: server working directory).
    // work_dir: /path/to/project
    // Per-line agent output timeout.
    read_timeout: 120s
    // SSE keep-alive cadence.
    keep_alive: 15s
  }
  profiles: {
    // Executor profile file (YAML), hot-reloaded on change.
    // path: profiles.yaml
    default: claude
  }
  workspaces: {
    root: workspaces
  }
  events: {
    history_max_events: 10000
    history_max_age: 1h
  }
}
`

// runInit handles the "taskboard init" command.
func runInit() error {
	configFile := "taskboard.hjson"

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", configFile)
	}

	if err := os.WriteFile(configFile, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("write %s: %w", configFile, err)
	}

	fmt.Printf("Created %s\n", configFile)
	fmt.Println("Review and edit it as needed, then run: taskboard")
	return nil
}
