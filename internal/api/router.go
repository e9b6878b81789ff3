// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api wires the HTTP router and server for the Taskboard API.
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wingedpig/taskboard/internal/agentprofile"
	"github.com/wingedpig/taskboard/internal/api/handlers"
	"github.com/wingedpig/taskboard/internal/api/middleware"
	"github.com/wingedpig/taskboard/internal/api/version"
	"github.com/wingedpig/taskboard/internal/events"
	"github.com/wingedpig/taskboard/internal/store"
	"github.com/wingedpig/taskboard/internal/workspace"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string
	Port int
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Store      *store.Store
	Chat       handlers.ChatService
	EventBus   *events.Bus
	Workspaces workspace.Manager
	Profiles   *agentprofile.Registry
	KeepAlive  time.Duration // SSE keep-alive cadence
}

// NewRouter creates a new API router.
func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(version.Middleware)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Project handlers
	projectHandler := handlers.NewProjectHandler(deps.Store)
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PATCH")
	api.HandleFunc("/projects/{id}", projectHandler.Delete).Methods("DELETE")

	// Task handlers
	taskHandler := handlers.NewTaskHandler(deps.Store, deps.EventBus)
	api.HandleFunc("/projects/{id}/tasks", taskHandler.ListByProject).Methods("GET")
	api.HandleFunc("/projects/{id}/board/ws", taskHandler.BoardWS).Methods("GET")
	api.HandleFunc("/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PATCH")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")

	// Chat handlers
	chatHandler := handlers.NewChatHandler(deps.Chat, deps.Store, deps.KeepAlive)
	api.HandleFunc("/tasks/{id}/chat/stream", chatHandler.Stream).Methods("POST")
	api.HandleFunc("/tasks/{id}/chat", chatHandler.Chat).Methods("POST")
	api.HandleFunc("/tasks/{id}/session", chatHandler.Session).Methods("GET")
	api.HandleFunc("/tasks/{id}/messages", chatHandler.Messages).Methods("GET")
	api.HandleFunc("/tasks/{id}/messages", chatHandler.AppendMessage).Methods("POST")

	// Workspace handlers
	if deps.Workspaces != nil {
		workspaceHandler := handlers.NewWorkspaceHandler(deps.Workspaces, deps.Store)
		api.HandleFunc("/tasks/{id}/workspace", workspaceHandler.Get).Methods("GET")
		api.HandleFunc("/tasks/{id}/workspace/start", workspaceHandler.Start).Methods("POST")
		api.HandleFunc("/tasks/{id}/workspace/stop", workspaceHandler.Stop).Methods("POST")
	}

	// Event handlers
	eventHandler := handlers.NewEventHandler(deps.EventBus)
	api.HandleFunc("/events", eventHandler.History).Methods("GET")
	api.HandleFunc("/events/ws", eventHandler.WebSocket).Methods("GET")

	// Profile handlers
	if deps.Profiles != nil {
		profileHandler := handlers.NewProfileHandler(deps.Profiles)
		api.HandleFunc("/profiles", profileHandler.List).Methods("GET")
	}

	return r
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig
	server *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	return &Server{
		router: NewRouter(deps),
		cfg:    cfg,
	}
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("API server listening on http://%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Println("Shutting down API server...")

	// Create a timeout context if none provided
	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return s.server.Shutdown(shutdownCtx)
}
