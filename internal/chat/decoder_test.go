// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, d *Decoder, lines []string) []Event {
	t.Helper()
	var events []Event
	for _, line := range lines {
		events = append(events, d.Decode(line)...)
	}
	return events
}

func TestDecoderToolUseDedup(t *testing.T) {
	d := NewDecoder()
	// The same tool call arrives first with a null input, then twice fully
	// populated. Exactly one ToolUse comes out.
	lines := []string{
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"tu_1","name":"Read","input":null}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"tu_1","name":"Read","input":{"path":"main.go"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"tu_1","name":"Read","input":{"path":"main.go"}}]}}`,
	}
	events := decodeAll(t, d, lines)
	require.Len(t, events, 1)
	assert.Equal(t, EventToolUse, events[0].Type)
	data := events[0].Data.(ToolUseData)
	assert.Equal(t, "Read", data.ToolName)
	assert.JSONEq(t, `{"path":"main.go"}`, string(data.ToolInput))
}

func TestDecoderChunkOrderingAndResult(t *testing.T) {
	d := NewDecoder()
	lines := []string{
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"A"}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"B"}}}`,
		`{"type":"result","result":"AB"}`,
	}
	events := decodeAll(t, d, lines)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Data.(ChunkData).Content)
	assert.Equal(t, "B", events[1].Data.(ChunkData).Content)
	assert.True(t, d.Done())
	assert.Equal(t, "AB", d.FinalText())
}

func TestDecoderFallbackToStreamedText(t *testing.T) {
	d := NewDecoder()
	d.Decode(`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"hello"}}}`)
	assert.False(t, d.Done())
	assert.Equal(t, "hello", d.FinalText())
}

func TestDecoderResultPreferredOverStreamed(t *testing.T) {
	d := NewDecoder()
	d.Decode(`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"partial"}}}`)
	d.Decode(`{"type":"result","result":"  the full answer  "}`)
	assert.Equal(t, "the full answer", d.FinalText())
}

func TestDecoderMalformedLineTolerance(t *testing.T) {
	d := NewDecoder()
	lines := []string{
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"A"}}}`,
		`this is not json`,
		``,
		`{"type":"some_future_envelope","payload":42}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"B"}}}`,
	}
	events := decodeAll(t, d, lines)
	require.Len(t, events, 2)
	assert.Equal(t, "A", events[0].Data.(ChunkData).Content)
	assert.Equal(t, "B", events[1].Data.(ChunkData).Content)
}

func TestDecoderToolResultStringContent(t *testing.T) {
	d := NewDecoder()
	events := d.Decode(`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"tu_1","content":"file contents"}]}}`)
	require.Len(t, events, 1)
	data := events[0].Data.(ToolResultData)
	assert.Equal(t, "tu_1", data.ToolName)
	assert.Equal(t, "file contents", data.Output)
}

func TestDecoderToolResultPartsContent(t *testing.T) {
	d := NewDecoder()
	// Text parts join with newlines; non-text parts are skipped.
	events := d.Decode(`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"tu_2","content":[{"type":"text","text":"one"},{"type":"image","text":"skip"},{"type":"text","text":"two"}]}]}}`)
	require.Len(t, events, 1)
	assert.Equal(t, "one\ntwo", events[0].Data.(ToolResultData).Output)
}

func TestDecoderToolUseWithoutID(t *testing.T) {
	d := NewDecoder()
	// Id-less announcements cannot be deduplicated: every one with a real
	// input comes through, and they never poison the dedup set.
	lines := []string{
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":null}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"ls"}}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"ls"}}]}}`,
	}
	events := decodeAll(t, d, lines)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, EventToolUse, ev.Type)
		assert.Equal(t, "Bash", ev.Data.(ToolUseData).ToolName)
	}
}

func TestDecoderNoTextFromAssistantEnvelopes(t *testing.T) {
	d := NewDecoder()
	events := d.Decode(`{"type":"assistant","message":{"content":[{"type":"text","text":"streamed elsewhere"}]}}`)
	assert.Empty(t, events)
	assert.Equal(t, "", d.FinalText())
}
