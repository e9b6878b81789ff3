// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package chat bridges a task's conversation to an external command-line
// agent. It resolves the task's session, builds the prompt, supervises the
// agent subprocess, decodes its stream-json output into normalized events,
// and persists the final assistant message.
package chat

import (
	"encoding/json"

	"github.com/wingedpig/taskboard/internal/store"
)

// Event kinds, matching the wire discriminator sent to clients.
const (
	EventUserMessageSaved  = "UserMessageSaved"
	EventAssistantChunk    = "AssistantChunk"
	EventToolUse           = "ToolUse"
	EventToolResult        = "ToolResult"
	EventAssistantComplete = "AssistantComplete"
	EventError             = "Error"
)

// Event is one normalized chat event. It serializes as
// {"type": "<kind>", "data": {...}}.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChunkData carries one increment of streamed assistant text.
type ChunkData struct {
	Content string `json:"content"`
}

// ToolUseData announces a tool invocation by the agent.
type ToolUseData struct {
	ToolName  string          `json:"tool_name"`
	ToolInput json.RawMessage `json:"tool_input"`
}

// ToolResultData carries the textual output of a completed tool call.
// ToolName holds the tool-use id the result answers.
type ToolResultData struct {
	ToolName string `json:"tool_name"`
	Output   string `json:"output"`
}

// MessageData wraps a persisted message for UserMessageSaved and
// AssistantComplete events.
type MessageData struct {
	Message store.Message `json:"message"`
}

// ErrorData carries a terminal error. No events follow an Error.
type ErrorData struct {
	Message string `json:"message"`
}

func newChunk(text string) Event {
	return Event{Type: EventAssistantChunk, Data: ChunkData{Content: text}}
}

func newToolUse(name string, input json.RawMessage) Event {
	return Event{Type: EventToolUse, Data: ToolUseData{ToolName: name, ToolInput: input}}
}

func newToolResult(name, output string) Event {
	return Event{Type: EventToolResult, Data: ToolResultData{ToolName: name, Output: output}}
}

func newUserMessageSaved(m store.Message) Event {
	return Event{Type: EventUserMessageSaved, Data: MessageData{Message: m}}
}

func newAssistantComplete(m store.Message) Event {
	return Event{Type: EventAssistantComplete, Data: MessageData{Message: m}}
}

func newError(msg string) Event {
	return Event{Type: EventError, Data: ErrorData{Message: msg}}
}
