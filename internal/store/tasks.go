// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateTask holds the fields for a new task.
type CreateTask struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateTask holds a partial task update. Nil fields are left unchanged.
// An empty-string Description clears the description.
type UpdateTask struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// InsertTask creates a new task in the todo column.
func (s *Store) InsertTask(ctx context.Context, in CreateTask) (*Task, error) {
	now := time.Now().UTC()
	t := &Task{
		ID:          uuid.New().String(),
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

const taskColumns = `id, project_id, title, description, status, session_id, workspace_id, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.SessionID, &t.WorkspaceID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTaskByID returns a task, or ErrNotFound.
func (s *Store) FindTaskByID(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}
	return t, nil
}

// ListTasksByProject returns a project's tasks ordered by creation time.
func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ApplyTaskUpdate applies a partial update and returns the updated task.
// Omitted fields keep their existing values; an explicit empty description
// clears the description.
func (s *Store) ApplyTaskUpdate(ctx context.Context, id string, upd UpdateTask) (*Task, error) {
	existing, err := s.FindTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := existing.Title
	if upd.Title != nil {
		title = *upd.Title
	}
	description := existing.Description
	if upd.Description != nil {
		description = strings.TrimSpace(*upd.Description)
	}
	status := existing.Status
	if upd.Status != nil {
		if !ValidStatus(*upd.Status) {
			return nil, fmt.Errorf("invalid status %q", *upd.Status)
		}
		status = *upd.Status
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, status = ?, updated_at = ? WHERE id = ?`,
		title, description, status, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.FindTaskByID(ctx, id)
}

// UpdateTaskStatus moves a task to a new board column.
func (s *Store) UpdateTaskStatus(ctx context.Context, id, status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkTaskSession records the task's conversation session.
func (s *Store) LinkTaskSession(ctx context.Context, taskID, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET session_id = ?, updated_at = ? WHERE id = ?`,
		sessionID, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("link task session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkTaskWorkspace records the task's provisioned workspace.
func (s *Store) LinkTaskWorkspace(ctx context.Context, taskID, workspaceID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET workspace_id = ?, updated_at = ? WHERE id = ?`,
		workspaceID, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("link task workspace: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
