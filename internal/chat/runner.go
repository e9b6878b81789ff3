// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultReadTimeout bounds each individual stdout line read. There is no
// overall request timeout: a long but steadily-producing run may continue
// indefinitely.
const DefaultReadTimeout = 120 * time.Second

// SessionMode selects the agent's session flags.
type SessionMode int

const (
	// ModeNew starts a fresh agent session under our session id.
	ModeNew SessionMode = iota
	// ModeResume resumes the agent's existing session state.
	ModeResume
	// ModeEphemeral starts a session the agent will not persist.
	ModeEphemeral
)

// baseArgs are the fixed capability flags for every invocation:
// non-interactive, structured streaming output, partial text deltas.
var baseArgs = []string{
	"--print",
	"--output-format=stream-json",
	"--include-partial-messages",
	"--verbose",
	"--permission-mode=bypassPermissions",
}

// Options describes one agent invocation.
type Options struct {
	Command   string
	Args      []string // profile flags, e.g. the permitted tool set
	WorkDir   string
	SessionID string
	Mode      SessionMode
	Prompt    string
}

// Runner supervises one agent subprocess per request. It owns the child
// handle and its pipes for the request's lifetime; on every exit path the
// child is reaped, and on cancellation or timeout it is killed.
type Runner struct {
	ReadTimeout time.Duration
}

// NewRunner returns a runner with the default per-line read timeout.
func NewRunner() *Runner {
	return &Runner{ReadTimeout: DefaultReadTimeout}
}

// Run spawns the agent, writes the prompt to its stdin, decodes its stdout
// line by line through emit, and returns the resolved final text. The prompt
// goes over stdin rather than argv to stay clear of argument-length limits.
// A nil error with empty text means the agent produced nothing usable.
func (r *Runner) Run(ctx context.Context, opts Options, emit func(Event)) (string, error) {
	timeout := r.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := append([]string{}, baseArgs...)
	args = append(args, opts.Args...)
	switch opts.Mode {
	case ModeResume:
		args = append(args, "--resume", opts.SessionID)
	case ModeEphemeral:
		args = append(args, "--no-session-persistence")
	default:
		args = append(args, "--session-id", opts.SessionID)
	}

	cmd := exec.CommandContext(runCtx, opts.Command, args...)
	cmd.Dir = opts.WorkDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("agent stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("agent stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("agent stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start agent: %w", err)
	}

	// Stdin write and stderr drain run concurrently with the read loop. The
	// drain only logs; it must never back up and stall the child.
	var pipes errgroup.Group
	pipes.Go(func() error {
		defer stdin.Close()
		if _, err := io.WriteString(stdin, opts.Prompt); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}
		return nil
	})
	pipes.Go(func() error {
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			log.Printf("chat: agent stderr: %s", sc.Text())
		}
		return nil
	})

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdout)
		sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-runCtx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	reap := func() {
		cancel()
		pipes.Wait()
		cmd.Wait()
	}

	dec := NewDecoder()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

readLoop:
	for {
		select {
		case <-ctx.Done():
			reap()
			return "", ctx.Err()

		case <-timer.C:
			reap()
			return "", fmt.Errorf("agent produced no output within %s", timeout)

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						reap()
						return "", fmt.Errorf("read agent output: %w", err)
					}
				default:
				}
				break readLoop
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(timeout)
			for _, ev := range dec.Decode(line) {
				emit(ev)
			}
			if dec.Done() {
				break readLoop
			}
		}
	}

	// Drain any trailing output so the child is never blocked on a full
	// pipe, then await exit. The stream has ended, so the wait needs no
	// further timeout.
	go func() {
		for range lines {
		}
	}()
	if err := pipes.Wait(); err != nil {
		log.Printf("chat: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		log.Printf("chat: agent exited: %v", err)
	}

	return dec.FinalText(), nil
}
