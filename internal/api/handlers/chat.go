// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wingedpig/taskboard/internal/chat"
	"github.com/wingedpig/taskboard/internal/store"
)

// DefaultKeepAlive is the SSE keep-alive cadence.
const DefaultKeepAlive = 15 * time.Second

// ChatService is the chat surface the handler needs.
type ChatService interface {
	Stream(ctx context.Context, taskID string, req chat.Request) <-chan chat.Event
	Chat(ctx context.Context, taskID string, req chat.Request) (string, error)
	SessionForTask(ctx context.Context, taskID string) (*store.Session, []store.Message, error)
}

// ChatHandler handles the conversational endpoints for a task.
type ChatHandler struct {
	svc       ChatService
	store     *store.Store
	keepAlive time.Duration
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc ChatService, st *store.Store, keepAlive time.Duration) *ChatHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &ChatHandler{svc: svc, store: st, keepAlive: keepAlive}
}

// Stream runs a chat turn and streams its events over SSE. The stream
// closes after a terminal AssistantComplete or Error; keep-alive comments
// go out between events so idle proxies don't cut the connection.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	eventCh := h.svc.Stream(r.Context(), taskID, req)

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			// Client went away; the service kills the agent process.
			return
		}
	}
}

// Chat runs a chat turn to completion and returns the final text.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "message is required")
		return
	}

	text, err := h.svc.Chat(r.Context(), taskID, req)
	if err != nil {
		WriteError(w, http.StatusBadGateway, ErrChatError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"response": text})
}

// sessionView combines a session with its message log.
type sessionView struct {
	Session  *store.Session  `json:"session"`
	Messages []store.Message `json:"messages"`
}

// Session returns the task's session and messages, creating the session
// if the task has none yet.
func (h *ChatHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, messages, err := h.svc.SessionForTask(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, sessionView{Session: sess, Messages: messages})
}

// Messages returns the task's conversation log.
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	_, messages, err := h.svc.SessionForTask(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, messages)
}

// AppendMessage appends one message to the task's log without running the
// agent. Used by external tooling recording a turn it produced elsewhere.
func (h *ChatHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if body.Content == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "content is required")
		return
	}

	sess, _, err := h.svc.SessionForTask(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	msg, err := h.store.AppendMessage(r.Context(), sess.ID, body.Role, body.Content)
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, msg)
}
