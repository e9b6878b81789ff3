// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/wingedpig/taskboard/internal/store"
)

// Store is the persistence surface the chat service needs.
type Store interface {
	FindTaskByID(ctx context.Context, id string) (*store.Task, error)
	LinkTaskSession(ctx context.Context, taskID, sessionID string) error
	CreateSession(ctx context.Context, taskID, workspaceID string) (*store.Session, error)
	FindSessionByID(ctx context.Context, id string) (*store.Session, error)
	AppendMessage(ctx context.Context, sessionID, role, content string) (*store.Message, error)
	FindMessagesBySession(ctx context.Context, sessionID string) ([]store.Message, error)
	HasAssistantMessage(ctx context.Context, sessionID string) (bool, error)
}

// Profiles resolves a named executor profile to an agent command line.
type Profiles interface {
	Resolve(name string) (command string, args []string, err error)
}

// Bus receives lifecycle notifications for the board stream.
type Bus interface {
	Publish(name string, payload interface{})
}

// Request is one inbound chat turn.
type Request struct {
	Message string `json:"message"`
	// SkipHistory runs the turn without reading or writing the message log;
	// the caller supplies full context inline each time. Used by automated
	// invocations to avoid unbounded context growth.
	SkipHistory bool `json:"skip_history,omitempty"`
	// Profile names the executor profile; empty selects the default.
	Profile string `json:"profile,omitempty"`
}

// Service drives one chat request end to end: resolve session, build
// prompt, run the agent, publish events, persist the final message.
type Service struct {
	store    Store
	profiles Profiles
	runner   *Runner
	bus      Bus
	workDir  string
}

// NewService constructs a chat service. workDir is the directory agent
// processes run in; empty means the server's working directory.
func NewService(st Store, profiles Profiles, runner *Runner, bus Bus, workDir string) *Service {
	return &Service{store: st, profiles: profiles, runner: runner, bus: bus, workDir: workDir}
}

// Stream runs a chat request and returns its ordered event feed. The
// channel is closed when the request ends; an Error event is terminal.
// Cancelling ctx tears down the agent process.
func (s *Service) Stream(ctx context.Context, taskID string, req Request) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		s.run(ctx, taskID, req, func(ev Event) {
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		})
	}()
	return out
}

// Chat runs a request to completion and returns the final assistant text,
// whether or not the turn was persisted. Streaming chunks are discarded.
func (s *Service) Chat(ctx context.Context, taskID string, req Request) (string, error) {
	var failure error
	text := s.run(ctx, taskID, req, func(ev Event) {
		if data, ok := ev.Data.(ErrorData); ok {
			failure = errors.New(data.Message)
		}
	})
	if failure != nil {
		return "", failure
	}
	return text, nil
}

// run drives the turn and returns the final assistant text, or "" when the
// turn failed.
func (s *Service) run(ctx context.Context, taskID string, req Request, emit func(Event)) string {
	fail := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		log.Printf("chat: task %s: %s", taskID, msg)
		emit(newError(msg))
		s.bus.Publish("chat.failed", map[string]string{"task_id": taskID, "error": msg})
	}

	if strings.TrimSpace(req.Message) == "" {
		fail("message is empty")
		return ""
	}

	task, err := s.store.FindTaskByID(ctx, taskID)
	if err != nil {
		fail("find task: %v", err)
		return ""
	}

	// skip_history turns never touch the message log, so resumability is
	// not even computed for them.
	sess, canResume, err := s.resolveSession(ctx, task, !req.SkipHistory)
	if err != nil {
		fail("resolve session: %v", err)
		return ""
	}

	if !req.SkipHistory {
		saved, err := s.store.AppendMessage(ctx, sess.ID, store.RoleUser, req.Message)
		if err != nil {
			fail("save user message: %v", err)
			return ""
		}
		emit(newUserMessageSaved(*saved))
	}

	command, profileArgs, err := s.profiles.Resolve(req.Profile)
	if err != nil {
		fail("resolve profile: %v", err)
		return ""
	}

	mode := ModeNew
	switch {
	case req.SkipHistory:
		// Non-resumable, and the agent keeps no session state.
		mode = ModeEphemeral
	case canResume:
		mode = ModeResume
	}

	s.bus.Publish("chat.started", map[string]string{"task_id": task.ID, "session_id": sess.ID})

	finalText, err := s.runner.Run(ctx, Options{
		Command:   command,
		Args:      profileArgs,
		WorkDir:   s.workDir,
		SessionID: sess.ID,
		Mode:      mode,
		Prompt:    BuildPrompt(req.Message, canResume, task.Title, task.Description),
	}, emit)
	if err != nil {
		fail("agent: %v", err)
		return ""
	}
	if finalText == "" {
		fail("agent produced no output")
		return ""
	}

	if req.SkipHistory {
		// Nothing is persisted; the chunk stream already carried the content.
		s.bus.Publish("chat.completed", map[string]string{"task_id": task.ID, "session_id": sess.ID})
		return finalText
	}

	saved, err := s.store.AppendMessage(ctx, sess.ID, store.RoleAssistant, finalText)
	if err != nil {
		fail("save assistant message: %v", err)
		return ""
	}
	emit(newAssistantComplete(*saved))
	s.bus.Publish("chat.completed", map[string]string{"task_id": task.ID, "session_id": sess.ID})
	return saved.Content
}

// resolveSession returns the task's session and whether the agent can
// resume it. Resumability is derived from the message log, never stored;
// withResume=false skips the log read and reports false. An orphaned or
// missing link creates and links a fresh session. The check-then-create is
// deliberately not atomic: a concurrent race creates at most one harmless
// duplicate session, last writer wins.
func (s *Service) resolveSession(ctx context.Context, task *store.Task, withResume bool) (*store.Session, bool, error) {
	if task.SessionID != "" {
		sess, err := s.store.FindSessionByID(ctx, task.SessionID)
		if err == nil {
			if !withResume {
				return sess, false, nil
			}
			canResume, err := s.store.HasAssistantMessage(ctx, sess.ID)
			if err != nil {
				return nil, false, err
			}
			return sess, canResume, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, err
		}
	}

	sess, err := s.store.CreateSession(ctx, task.ID, task.WorkspaceID)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}
	if err := s.store.LinkTaskSession(ctx, task.ID, sess.ID); err != nil {
		return nil, false, fmt.Errorf("link session: %w", err)
	}
	return sess, false, nil
}

// SessionForTask returns the task's session and its messages, creating and
// linking a session if the task has none.
func (s *Service) SessionForTask(ctx context.Context, taskID string) (*store.Session, []store.Message, error) {
	task, err := s.store.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	sess, _, err := s.resolveSession(ctx, task, false)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.store.FindMessagesBySession(ctx, sess.ID)
	if err != nil {
		return nil, nil, err
	}
	return sess, messages, nil
}
