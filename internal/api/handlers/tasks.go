// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/wingedpig/taskboard/internal/events"
	"github.com/wingedpig/taskboard/internal/store"
)

// TaskHandler handles task CRUD requests and the board stream.
type TaskHandler struct {
	store *store.Store
	bus   *events.Bus
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(st *store.Store, bus *events.Bus) *TaskHandler {
	return &TaskHandler{store: st, bus: bus}
}

// ListByProject returns a project's tasks.
func (h *TaskHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	if _, err := h.store.FindProjectByID(r.Context(), projectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrNotFound, "project not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	tasks, err := h.store.ListTasksByProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, tasks)
}

// Create creates a task in the todo column.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body store.CreateTask
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "title is required")
		return
	}
	if _, err := h.store.FindProjectByID(r.Context(), body.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusNotFound, ErrNotFound, "project not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	task, err := h.store.InsertTask(r.Context(), body)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	h.bus.Publish(events.EventTaskCreated, task)
	WriteJSON(w, http.StatusCreated, task)
}

// Get returns one task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.store.FindTaskByID(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, task)
}

// Update applies a partial update. An omitted field keeps its value; an
// explicit empty description clears it.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body store.UpdateTask
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "title cannot be empty")
		return
	}

	task, err := h.store.ApplyTaskUpdate(r.Context(), mux.Vars(r)["id"], body)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}
	h.bus.Publish(events.EventTaskUpdated, task)
	WriteJSON(w, http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.store.DeleteTask(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, http.StatusNotFound, ErrNotFound, "task not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}
	h.bus.Publish(events.EventTaskDeleted, map[string]string{"task_id": id})
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// boardSnapshot is the first frame sent on the board WebSocket.
type boardSnapshot struct {
	Type  string       `json:"type"`
	Tasks []store.Task `json:"tasks"`
}

// BoardWS streams a project's board: a snapshot of its tasks followed by
// task and chat events as they happen.
func (h *TaskHandler) BoardWS(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]
	tasks, err := h.store.ListTasksByProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(boardSnapshot{Type: "snapshot", Tasks: tasks}); err != nil {
		return
	}

	subID, eventCh, err := h.bus.Subscribe("*", 100)
	if err != nil {
		conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer h.bus.Unsubscribe(subID)

	done := make(chan struct{})

	// Set up ping/pong
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()

	// Read goroutine (for close detection)
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if !boardEvent(event.Type) {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// boardEvent reports whether an event type belongs on the board stream.
func boardEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "task.") ||
		strings.HasPrefix(eventType, "chat.") ||
		strings.HasPrefix(eventType, "workspace.")
}
