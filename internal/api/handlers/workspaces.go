// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wingedpig/taskboard/internal/store"
	"github.com/wingedpig/taskboard/internal/workspace"
)

// WorkspaceHandler handles workspace start/stop for a task.
type WorkspaceHandler struct {
	manager workspace.Manager
	store   *store.Store
}

// NewWorkspaceHandler creates a new workspace handler.
func NewWorkspaceHandler(m workspace.Manager, st *store.Store) *WorkspaceHandler {
	return &WorkspaceHandler{manager: m, store: st}
}

// Get returns the task's workspace.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, err := h.store.FindWorkspaceByTask(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "workspace not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, ws)
}

// Start provisions and starts the task's workspace.
func (h *WorkspaceHandler) Start(w http.ResponseWriter, r *http.Request) {
	ws, err := h.manager.Start(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrWorkspaceError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, ws)
}

// Stop stops the task's workspace.
func (h *WorkspaceHandler) Stop(w http.ResponseWriter, r *http.Request) {
	ws, err := h.manager.Stop(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "workspace not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrWorkspaceError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, ws)
}
