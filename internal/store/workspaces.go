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

// CreateWorkspace inserts a new workspace record in the stopped state.
func (s *Store) CreateWorkspace(ctx context.Context, taskID, name, path string) (*Workspace, error) {
	w := &Workspace{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		Name:      name,
		Path:      path,
		Status:    WorkspaceStopped,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (id, task_id, name, path, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		w.ID, w.TaskID, w.Name, w.Path, w.Status, w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert workspace: %w", err)
	}
	return w, nil
}

// FindWorkspaceByID returns a workspace, or ErrNotFound.
func (s *Store) FindWorkspaceByID(ctx context.Context, id string) (*Workspace, error) {
	var w Workspace
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, name, path, status, created_at FROM workspaces WHERE id = ?`, id).
		Scan(&w.ID, &w.TaskID, &w.Name, &w.Path, &w.Status, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select workspace: %w", err)
	}
	return &w, nil
}

// FindWorkspaceByTask returns a task's workspace, or ErrNotFound.
func (s *Store) FindWorkspaceByTask(ctx context.Context, taskID string) (*Workspace, error) {
	var w Workspace
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, name, path, status, created_at FROM workspaces
		 WHERE task_id = ? ORDER BY created_at DESC LIMIT 1`, taskID).
		Scan(&w.ID, &w.TaskID, &w.Name, &w.Path, &w.Status, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select workspace: %w", err)
	}
	return &w, nil
}

// UpdateWorkspaceStatus transitions a workspace between stopped and running.
func (s *Store) UpdateWorkspaceStatus(ctx context.Context, id, status string) error {
	if status != WorkspaceStopped && status != WorkspaceRunning {
		return fmt.Errorf("invalid workspace status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE workspaces SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update workspace status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
