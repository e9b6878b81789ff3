// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/wingedpig/taskboard/internal/agentprofile"
)

// ProfileHandler serves the executor profile list.
type ProfileHandler struct {
	registry *agentprofile.Registry
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(registry *agentprofile.Registry) *ProfileHandler {
	return &ProfileHandler{registry: registry}
}

// List returns all known executor profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.registry.List())
}
