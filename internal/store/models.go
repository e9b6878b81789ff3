// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package store provides sqlite-backed persistence for projects, tasks,
// conversation sessions, messages, and workspaces.
package store

import "time"

// Task status values. A task moves across the board columns in this order,
// though any transition is allowed.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusInReview   = "inreview"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Workspace status values.
const (
	WorkspaceStopped = "stopped"
	WorkspaceRunning = "running"
)

// Project groups tasks on one board.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is one card on the board. SessionID links the task to its
// conversation session once one has been created; WorkspaceID links it to a
// provisioned execution workspace. Both are optional.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	SessionID   string    `json:"session_id,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session is a conversation identity. It is created once, never mutated,
// and only removed through its parent task's lifecycle.
type Session struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id,omitempty"`
	WorkspaceID string    `json:"workspace_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is one turn in a session's conversation log. The log is
// append-only and ordered by CreatedAt ascending.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Workspace is an opaque provisioned execution area for a task.
type Workspace struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusCancelled:
		return true
	}
	return false
}
