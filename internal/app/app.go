// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires configuration, storage, the event bus, the chat
// service, and the API server into a running application.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/taskboard/internal/agentprofile"
	"github.com/wingedpig/taskboard/internal/api"
	"github.com/wingedpig/taskboard/internal/chat"
	"github.com/wingedpig/taskboard/internal/config"
	"github.com/wingedpig/taskboard/internal/events"
	"github.com/wingedpig/taskboard/internal/store"
	"github.com/wingedpig/taskboard/internal/workspace"
)

// App is the main application container.
type App struct {
	config         *config.Config
	store          *store.Store
	eventBus       *events.Bus
	profiles       *agentprofile.Registry
	profileWatcher *agentprofile.Watcher
	chatService    *chat.Service
	workspaces     *workspace.LocalManager
	apiServer      *api.Server

	done     chan struct{}
	stopOnce sync.Once
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath string // empty runs with built-in defaults
	Host       string
	Port       int
}

// New creates a new App instance.
func New(opts Options) (*App, error) {
	app := &App{done: make(chan struct{})}

	// Load configuration
	loader := config.NewLoader()
	var cfg *config.Config
	if opts.ConfigPath == "" {
		cfg = loader.Default()
	} else {
		var err error
		cfg, err = loader.LoadWithDefaults(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	app.config = cfg

	// Override host/port if specified
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}

	historyMaxAge, err := config.ParseDuration(cfg.Events.HistoryMaxAge, time.Hour)
	if err != nil {
		return nil, err
	}
	app.eventBus = events.NewBus(events.Config{
		HistoryMaxEvents: cfg.Events.HistoryMaxEvents,
		HistoryMaxAge:    historyMaxAge,
	})

	app.store, err = store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	app.profiles, err = agentprofile.NewRegistry(cfg.Profiles.Path)
	if err != nil {
		return nil, err
	}

	readTimeout, err := config.ParseDuration(cfg.Chat.ReadTimeout, chat.DefaultReadTimeout)
	if err != nil {
		return nil, err
	}
	runner := &chat.Runner{ReadTimeout: readTimeout}
	app.chatService = chat.NewService(app.store, app.profiles, runner, app.eventBus, cfg.Chat.WorkDir)

	app.workspaces = workspace.NewLocalManager(app.store, app.eventBus, cfg.Workspaces.Root)

	keepAlive, err := config.ParseDuration(cfg.Chat.KeepAlive, 15*time.Second)
	if err != nil {
		return nil, err
	}
	app.apiServer = api.NewServer(
		api.ServerConfig{Host: cfg.Server.Host, Port: cfg.Server.Port},
		api.Dependencies{
			Store:      app.store,
			Chat:       app.chatService,
			EventBus:   app.eventBus,
			Workspaces: app.workspaces,
			Profiles:   app.profiles,
			KeepAlive:  keepAlive,
		},
	)

	return app, nil
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if a.config.Profiles.Path != "" {
		debounce, err := config.ParseDuration(a.config.Profiles.ReloadDebounce, 500*time.Millisecond)
		if err != nil {
			return err
		}
		a.profileWatcher, err = agentprofile.NewWatcher(a.profiles, a.eventBus, debounce)
		if err != nil {
			return fmt.Errorf("watch profiles: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.Stop()
		return err
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
	case <-ctx.Done():
	case <-a.done:
	}

	a.Stop()
	return nil
}

// Stop shuts the application down. Safe to call more than once.
func (a *App) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("app: server shutdown: %v", err)
		}

		if a.profileWatcher != nil {
			a.profileWatcher.Close()
		}
		a.eventBus.Close()
		if err := a.store.Close(); err != nil {
			log.Printf("app: close store: %v", err)
		}
	})
}
