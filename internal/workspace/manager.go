// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package workspace provides the opaque start/stop capability for a task's
// execution area. The local implementation provisions a directory per task;
// richer backends can replace it behind the Manager interface.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/wingedpig/taskboard/internal/events"
	"github.com/wingedpig/taskboard/internal/store"
)

// Manager starts and stops a task's workspace.
type Manager interface {
	Start(ctx context.Context, taskID string) (*store.Workspace, error)
	Stop(ctx context.Context, taskID string) (*store.Workspace, error)
}

// LocalManager provisions plain directories under a root path.
type LocalManager struct {
	store *store.Store
	bus   *events.Bus
	root  string
}

// NewLocalManager creates a manager provisioning under root.
func NewLocalManager(st *store.Store, bus *events.Bus, root string) *LocalManager {
	return &LocalManager{store: st, bus: bus, root: root}
}

// Start provisions the task's workspace if needed and marks it running.
func (m *LocalManager) Start(ctx context.Context, taskID string) (*store.Workspace, error) {
	task, err := m.store.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	ws, err := m.store.FindWorkspaceByTask(ctx, task.ID)
	if errors.Is(err, store.ErrNotFound) {
		ws, err = m.provision(ctx, task)
	}
	if err != nil {
		return nil, err
	}

	if ws.Status != store.WorkspaceRunning {
		if err := m.store.UpdateWorkspaceStatus(ctx, ws.ID, store.WorkspaceRunning); err != nil {
			return nil, err
		}
		ws.Status = store.WorkspaceRunning
	}

	m.bus.Publish(events.EventWorkspaceStarted, map[string]string{
		"task_id":      task.ID,
		"workspace_id": ws.ID,
	})
	return ws, nil
}

// Stop marks the task's workspace stopped. The directory is kept; a stopped
// workspace can be started again.
func (m *LocalManager) Stop(ctx context.Context, taskID string) (*store.Workspace, error) {
	ws, err := m.store.FindWorkspaceByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if ws.Status != store.WorkspaceStopped {
		if err := m.store.UpdateWorkspaceStatus(ctx, ws.ID, store.WorkspaceStopped); err != nil {
			return nil, err
		}
		ws.Status = store.WorkspaceStopped
	}

	m.bus.Publish(events.EventWorkspaceStopped, map[string]string{
		"task_id":      taskID,
		"workspace_id": ws.ID,
	})
	return ws, nil
}

func (m *LocalManager) provision(ctx context.Context, task *store.Task) (*store.Workspace, error) {
	name := "task-" + task.ID
	path := filepath.Join(m.root, name)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("provision workspace dir: %w", err)
	}

	ws, err := m.store.CreateWorkspace(ctx, task.ID, name, path)
	if err != nil {
		return nil, err
	}
	if err := m.store.LinkTaskWorkspace(ctx, task.ID, ws.ID); err != nil {
		return nil, err
	}
	log.Printf("workspace: provisioned %s at %s", ws.ID, path)
	return ws, nil
}
