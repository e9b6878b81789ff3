// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"encoding/json"
	"strings"
)

// envelope is one raw line of the agent's stream-json output.
type envelope struct {
	Type    string       `json:"type"`
	Message *wireMessage `json:"message,omitempty"`
	Event   *wireEvent   `json:"event,omitempty"`
	Result  string       `json:"result,omitempty"`
}

type wireMessage struct {
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Text      string          `json:"text,omitempty"`
}

type wireEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

// Decoder turns raw output lines into normalized events. It is a pure state
// machine over one request's stream: it accumulates streamed text, captures
// the terminal result, and deduplicates tool-use announcements that reappear
// in successive partial envelopes. It performs no I/O.
type Decoder struct {
	streamed       strings.Builder
	result         string
	emittedToolIDs map[string]bool
	done           bool
}

// NewDecoder returns a decoder for one request's stream.
func NewDecoder() *Decoder {
	return &Decoder{emittedToolIDs: make(map[string]bool)}
}

// Decode consumes one line and returns zero or more events. Malformed or
// unrecognized lines are skipped; the protocol tolerates noise.
func (d *Decoder) Decode(line string) []Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return nil
	}

	switch env.Type {
	case "assistant":
		if env.Message == nil {
			return nil
		}
		var events []Event
		for _, b := range env.Message.Content {
			if b.Type != "tool_use" {
				continue
			}
			// Partial envelopes announce the same tool call repeatedly,
			// first with a null input. Emit once, with the populated input.
			// Blocks without an id cannot be deduplicated and pass through.
			if len(b.Input) == 0 || string(b.Input) == "null" {
				continue
			}
			if b.ID != "" {
				if d.emittedToolIDs[b.ID] {
					continue
				}
				d.emittedToolIDs[b.ID] = true
			}
			events = append(events, newToolUse(b.Name, b.Input))
		}
		return events

	case "user":
		if env.Message == nil {
			return nil
		}
		var events []Event
		for _, b := range env.Message.Content {
			if b.Type != "tool_result" {
				continue
			}
			events = append(events, newToolResult(b.ToolUseID, toolResultText(b.Content)))
		}
		return events

	case "stream_event":
		// The sole source of incremental text. Text in assistant envelopes
		// is never extracted, to avoid duplicating what was streamed here.
		if env.Event == nil || env.Event.Type != "content_block_delta" {
			return nil
		}
		text := env.Event.Delta.Text
		if text == "" {
			return nil
		}
		d.streamed.WriteString(text)
		return []Event{newChunk(text)}

	case "result":
		d.result = env.Result
		d.done = true
	}
	return nil
}

// Done reports whether the terminal result envelope has been seen.
func (d *Decoder) Done() bool {
	return d.done
}

// FinalText resolves the complete assistant text: the result envelope is
// authoritative when non-empty, otherwise the accumulated streamed text
// stands in for agents that stream but omit or truncate the result.
func (d *Decoder) FinalText() string {
	if text := strings.TrimSpace(d.result); text != "" {
		return text
	}
	return strings.TrimSpace(d.streamed.String())
}

// toolResultText extracts the textual output of a tool_result block, whose
// content is either a plain string or an array of typed parts.
func toolResultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if p.Type != "text" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
