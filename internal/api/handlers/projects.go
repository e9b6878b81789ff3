// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wingedpig/taskboard/internal/store"
)

// ProjectHandler handles project CRUD requests.
type ProjectHandler struct {
	store *store.Store
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(st *store.Store) *ProjectHandler {
	return &ProjectHandler{store: st}
}

// List returns all projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, projects)
}

// Create creates a project.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "name is required")
		return
	}

	project, err := h.store.CreateProject(r.Context(), body.Name)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, project)
}

// Get returns one project.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.store.FindProjectByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "project not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// Update renames a project.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "name is required")
		return
	}

	project, err := h.store.UpdateProject(r.Context(), mux.Vars(r)["id"], body.Name)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "project not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// Delete removes a project and its tasks.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteProject(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "project not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
