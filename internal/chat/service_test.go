// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/taskboard/internal/store"
)

// fakeStore is an in-memory chat.Store.
type fakeStore struct {
	task       *store.Task
	sessions   map[string]*store.Session
	messages   map[string][]store.Message
	nextID     int
	failAppend string // role whose append should fail

	hasAssistantCalls int
}

func newFakeStore(task *store.Task) *fakeStore {
	return &fakeStore{
		task:     task,
		sessions: make(map[string]*store.Session),
		messages: make(map[string][]store.Message),
	}
}

func (f *fakeStore) FindTaskByID(_ context.Context, id string) (*store.Task, error) {
	if f.task == nil || f.task.ID != id {
		return nil, store.ErrNotFound
	}
	t := *f.task
	return &t, nil
}

func (f *fakeStore) LinkTaskSession(_ context.Context, taskID, sessionID string) error {
	if f.task == nil || f.task.ID != taskID {
		return store.ErrNotFound
	}
	f.task.SessionID = sessionID
	return nil
}

func (f *fakeStore) CreateSession(_ context.Context, taskID, workspaceID string) (*store.Session, error) {
	f.nextID++
	s := &store.Session{
		ID:          fmt.Sprintf("sess-%d", f.nextID),
		TaskID:      taskID,
		WorkspaceID: workspaceID,
		CreatedAt:   time.Now(),
	}
	f.sessions[s.ID] = s
	return s, nil
}

func (f *fakeStore) FindSessionByID(_ context.Context, id string) (*store.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, sessionID, role, content string) (*store.Message, error) {
	if f.failAppend == role {
		return nil, errors.New("disk full")
	}
	f.nextID++
	m := store.Message{
		ID:        fmt.Sprintf("msg-%d", f.nextID),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages[sessionID] = append(f.messages[sessionID], m)
	return &m, nil
}

func (f *fakeStore) FindMessagesBySession(_ context.Context, sessionID string) ([]store.Message, error) {
	return f.messages[sessionID], nil
}

func (f *fakeStore) HasAssistantMessage(_ context.Context, sessionID string) (bool, error) {
	f.hasAssistantCalls++
	for _, m := range f.messages[sessionID] {
		if m.Role == store.RoleAssistant {
			return true, nil
		}
	}
	return false, nil
}

// fakeProfiles resolves every name to the given command.
type fakeProfiles struct {
	command string
	args    []string
}

func (f *fakeProfiles) Resolve(string) (string, []string, error) {
	return f.command, f.args, nil
}

type fakeBus struct {
	published []string
}

func (f *fakeBus) Publish(name string, _ interface{}) {
	f.published = append(f.published, name)
}

// resultScript writes a fake agent that records its argv and replies with
// the given result text.
func resultScript(t *testing.T, result string) (script, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	script = filepath.Join(dir, "agent.sh")
	body := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %q\ncat > /dev/null\necho '{\"type\":\"result\",\"result\":%q}'\n", argsFile, result)
	require.NoError(t, os.WriteFile(script, []byte(body), 0755))
	return script, argsFile
}

func newTestTask() *store.Task {
	return &store.Task{ID: "task-1", ProjectID: "proj-1", Title: "Add login", Status: store.StatusTodo}
}

func collect(ch <-chan Event) []Event {
	var events []Event
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func eventTypes(events []Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestServiceFirstTurnThenResume(t *testing.T) {
	script, argsFile := resultScript(t, "use sessions")
	fs := newFakeStore(newTestTask())
	svc := NewService(fs, &fakeProfiles{command: script}, NewRunner(), &fakeBus{}, "")

	// Turn 1: no session exists, so the agent starts a new one.
	events := collect(svc.Stream(context.Background(), "task-1", Request{Message: "how?"}))
	assert.Equal(t, []string{EventUserMessageSaved, EventAssistantComplete}, eventTypes(events))

	sessID := fs.task.SessionID
	require.NotEmpty(t, sessID)
	msgs := fs.messages[sessID]
	require.Len(t, msgs, 2)
	assert.Equal(t, store.RoleUser, msgs[0].Role)
	assert.Equal(t, store.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "use sessions", msgs[1].Content)

	// Turn 2: an assistant message exists, so the agent resumes.
	events = collect(svc.Stream(context.Background(), "task-1", Request{Message: "and then?"}))
	assert.Equal(t, []string{EventUserMessageSaved, EventAssistantComplete}, eventTypes(events))

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := string(args)
	assert.Contains(t, lines, "--session-id "+sessID)
	assert.Contains(t, lines, "--resume "+sessID)
}

func TestServiceCanResumeDerivedFromLog(t *testing.T) {
	fs := newFakeStore(newTestTask())
	svc := NewService(fs, &fakeProfiles{}, NewRunner(), &fakeBus{}, "")
	ctx := context.Background()

	// 0 turns: fresh session, not resumable.
	sess, canResume, err := svc.resolveSession(ctx, fs.task, true)
	require.NoError(t, err)
	assert.False(t, canResume)

	// 1 user turn: still not resumable.
	_, err = fs.AppendMessage(ctx, sess.ID, store.RoleUser, "hi")
	require.NoError(t, err)
	_, canResume, err = svc.resolveSession(ctx, fs.task, true)
	require.NoError(t, err)
	assert.False(t, canResume)

	// N turns including an assistant message: resumable.
	_, err = fs.AppendMessage(ctx, sess.ID, store.RoleAssistant, "hello")
	require.NoError(t, err)
	_, err = fs.AppendMessage(ctx, sess.ID, store.RoleUser, "more")
	require.NoError(t, err)
	_, canResume, err = svc.resolveSession(ctx, fs.task, true)
	require.NoError(t, err)
	assert.True(t, canResume)
}

func TestServiceOrphanedSessionLinkRecreates(t *testing.T) {
	task := newTestTask()
	task.SessionID = "sess-gone"
	fs := newFakeStore(task)
	svc := NewService(fs, &fakeProfiles{}, NewRunner(), &fakeBus{}, "")

	sess, canResume, err := svc.resolveSession(context.Background(), fs.task, true)
	require.NoError(t, err)
	assert.False(t, canResume)
	assert.NotEqual(t, "sess-gone", sess.ID)
	assert.Equal(t, sess.ID, fs.task.SessionID)
}

func TestServiceSkipHistory(t *testing.T) {
	script, argsFile := resultScript(t, "ephemeral answer")
	fs := newFakeStore(newTestTask())
	svc := NewService(fs, &fakeProfiles{command: script}, NewRunner(), &fakeBus{}, "")

	// Pre-link a session so the resumability check would have something
	// to read.
	sess, err := fs.CreateSession(context.Background(), "task-1", "")
	require.NoError(t, err)
	require.NoError(t, fs.LinkTaskSession(context.Background(), "task-1", sess.ID))

	events := collect(svc.Stream(context.Background(), "task-1", Request{Message: "ctx inline", SkipHistory: true}))

	// Chunks only; nothing persisted, no saved-message events.
	for _, ev := range events {
		assert.NotEqual(t, EventUserMessageSaved, ev.Type)
		assert.NotEqual(t, EventAssistantComplete, ev.Type)
		assert.NotEqual(t, EventError, ev.Type)
	}
	for _, msgs := range fs.messages {
		assert.Empty(t, msgs)
	}
	// The message log is never read either.
	assert.Zero(t, fs.hasAssistantCalls)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(args), "--no-session-persistence")
}

func TestServiceEmptyResultIsError(t *testing.T) {
	script, _ := resultScript(t, "   ")
	fs := newFakeStore(newTestTask())
	bus := &fakeBus{}
	svc := NewService(fs, &fakeProfiles{command: script}, NewRunner(), bus, "")

	events := collect(svc.Stream(context.Background(), "task-1", Request{Message: "hi"}))
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, bus.published, "chat.failed")

	// The user message was saved before the failure; no assistant message is.
	msgs := fs.messages[fs.task.SessionID]
	require.Len(t, msgs, 1)
	assert.Equal(t, store.RoleUser, msgs[0].Role)
}

func TestServicePersistFailureIsError(t *testing.T) {
	script, _ := resultScript(t, "a good answer")
	fs := newFakeStore(newTestTask())
	fs.failAppend = store.RoleAssistant
	svc := NewService(fs, &fakeProfiles{command: script}, NewRunner(), &fakeBus{}, "")

	events := collect(svc.Stream(context.Background(), "task-1", Request{Message: "hi"}))
	types := eventTypes(events)
	assert.Equal(t, EventError, types[len(types)-1])
	assert.NotContains(t, types, EventAssistantComplete)
}

func TestServiceUnknownTaskIsError(t *testing.T) {
	fs := newFakeStore(newTestTask())
	svc := NewService(fs, &fakeProfiles{}, NewRunner(), &fakeBus{}, "")

	events := collect(svc.Stream(context.Background(), "task-missing", Request{Message: "hi"}))
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
}

func TestServiceBlockingChat(t *testing.T) {
	script, _ := resultScript(t, "blocking answer")
	fs := newFakeStore(newTestTask())
	svc := NewService(fs, &fakeProfiles{command: script}, NewRunner(), &fakeBus{}, "")

	text, err := svc.Chat(context.Background(), "task-1", Request{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "blocking answer", text)
}

func TestServiceBlockingChatSkipHistory(t *testing.T) {
	script, _ := resultScript(t, "ephemeral answer")
	fs := newFakeStore(newTestTask())
	svc := NewService(fs, &fakeProfiles{command: script}, NewRunner(), &fakeBus{}, "")

	// The answer comes back even though nothing was persisted.
	text, err := svc.Chat(context.Background(), "task-1", Request{Message: "hi", SkipHistory: true})
	require.NoError(t, err)
	assert.Equal(t, "ephemeral answer", text)
	for _, msgs := range fs.messages {
		assert.Empty(t, msgs)
	}
}
