// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	ps "github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript writes an executable fake agent script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestRunnerStreamsAndResolvesResult(t *testing.T) {
	script := writeScript(t, `cat > /dev/null
echo '{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"Hel"}}}'
echo '{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"lo"}}}'
echo '{"type":"result","result":"Hello there"}'
`)

	var events []Event
	r := NewRunner()
	text, err := r.Run(context.Background(), Options{
		Command:   script,
		SessionID: "sess-1",
		Mode:      ModeNew,
		Prompt:    "hi",
	}, func(ev Event) { events = append(events, ev) })

	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)
	require.Len(t, events, 2)
	assert.Equal(t, "Hel", events[0].Data.(ChunkData).Content)
	assert.Equal(t, "lo", events[1].Data.(ChunkData).Content)
}

func TestRunnerPromptDeliveredOverStdin(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "prompt.txt")
	script := writeScript(t, fmt.Sprintf(`cat > %q
echo '{"type":"result","result":"ok"}'
`, outFile))

	prompt := "a fairly long prompt that must not appear in argv\nwith a second line"
	r := NewRunner()
	_, err := r.Run(context.Background(), Options{
		Command:   script,
		SessionID: "sess-1",
		Mode:      ModeNew,
		Prompt:    prompt,
	}, func(Event) {})
	require.NoError(t, err)

	got, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, prompt, string(got))
}

func TestRunnerSessionFlags(t *testing.T) {
	tests := []struct {
		name string
		mode SessionMode
		want string
	}{
		{"new", ModeNew, "--session-id sess-1"},
		{"resume", ModeResume, "--resume sess-1"},
		{"ephemeral", ModeEphemeral, "--no-session-persistence"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argsFile := filepath.Join(t.TempDir(), "args.txt")
			script := writeScript(t, fmt.Sprintf(`echo "$@" > %q
cat > /dev/null
echo '{"type":"result","result":"ok"}'
`, argsFile))

			r := NewRunner()
			_, err := r.Run(context.Background(), Options{
				Command:   script,
				SessionID: "sess-1",
				Mode:      tt.mode,
				Prompt:    "hi",
			}, func(Event) {})
			require.NoError(t, err)

			args, err := os.ReadFile(argsFile)
			require.NoError(t, err)
			assert.Contains(t, string(args), "--output-format=stream-json")
			assert.Contains(t, string(args), tt.want)
		})
	}
}

func TestRunnerPerLineTimeoutKillsAgent(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "agent.pid")
	script := writeScript(t, fmt.Sprintf(`echo $$ > %q
cat > /dev/null
exec sleep 60
`, pidFile))

	r := &Runner{ReadTimeout: 200 * time.Millisecond}
	var events []Event
	start := time.Now()
	_, err := r.Run(context.Background(), Options{
		Command:   script,
		SessionID: "sess-1",
		Mode:      ModeNew,
		Prompt:    "hi",
	}, func(ev Event) { events = append(events, ev) })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output")
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Empty(t, events)
	assertProcessGone(t, pidFile)
}

func TestRunnerCancelKillsAgent(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "agent.pid")
	script := writeScript(t, fmt.Sprintf(`echo $$ > %q
cat > /dev/null
exec sleep 60
`, pidFile))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	r := NewRunner()
	_, err := r.Run(ctx, Options{
		Command:   script,
		SessionID: "sess-1",
		Mode:      ModeNew,
		Prompt:    "hi",
	}, func(Event) {})

	require.ErrorIs(t, err, context.Canceled)
	assertProcessGone(t, pidFile)
}

// assertProcessGone reads the agent's pid file and verifies the process no
// longer exists, polling briefly to allow the kernel to reap it.
func assertProcessGone(t *testing.T, pidFile string) {
	t.Helper()
	data, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		proc, err := ps.FindProcess(pid)
		require.NoError(t, err)
		if proc == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("agent process %d still running", pid)
}
