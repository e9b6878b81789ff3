// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession inserts a new conversation session. taskID and workspaceID
// may be empty for a free-standing session.
func (s *Store) CreateSession(ctx context.Context, taskID, workspaceID string) (*Session, error) {
	sess := &Session{
		ID:          uuid.New().String(),
		TaskID:      taskID,
		WorkspaceID: workspaceID,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, task_id, workspace_id, created_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.TaskID, sess.WorkspaceID, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// FindSessionByID returns a session, or ErrNotFound.
func (s *Store) FindSessionByID(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, workspace_id, created_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.TaskID, &sess.WorkspaceID, &sess.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &sess, nil
}
