// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the in-memory pub/sub bus that fans board and
// chat lifecycle notifications out to WebSocket clients.
package events

import "time"

// Event is an immutable notification record.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Filter selects events from history.
type Filter struct {
	Pattern string    // type pattern, supports trailing wildcards
	Since   time.Time // events after this time
	Limit   int       // maximum events to return, newest last
}

// Known event types.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"

	EventChatStarted   = "chat.started"
	EventChatCompleted = "chat.completed"
	EventChatFailed    = "chat.failed"

	EventWorkspaceStarted = "workspace.started"
	EventWorkspaceStopped = "workspace.stopped"

	EventProfilesReloaded = "profiles.reloaded"
)
