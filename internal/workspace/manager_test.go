// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package workspace

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/taskboard/internal/events"
	"github.com/wingedpig/taskboard/internal/store"
)

func newManager(t *testing.T) (*LocalManager, *store.Store, *events.Bus) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	bus := events.NewBus(events.Config{})
	t.Cleanup(bus.Close)
	return NewLocalManager(st, bus, t.TempDir()), st, bus
}

func createTask(t *testing.T, st *store.Store) *store.Task {
	t.Helper()
	ctx := context.Background()
	p, err := st.CreateProject(ctx, "proj")
	require.NoError(t, err)
	task, err := st.InsertTask(ctx, store.CreateTask{ProjectID: p.ID, Title: "t"})
	require.NoError(t, err)
	return task
}

func TestStartProvisionsAndLinks(t *testing.T) {
	m, st, bus := newManager(t)
	ctx := context.Background()
	task := createTask(t, st)

	_, ch, err := bus.Subscribe("workspace.*", 10)
	require.NoError(t, err)

	ws, err := m.Start(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.WorkspaceRunning, ws.Status)
	assert.DirExists(t, ws.Path)

	linked, err := st.FindTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, ws.ID, linked.WorkspaceID)

	ev := <-ch
	assert.Equal(t, events.EventWorkspaceStarted, ev.Type)
}

func TestStartIsIdempotent(t *testing.T) {
	m, st, _ := newManager(t)
	ctx := context.Background()
	task := createTask(t, st)

	first, err := m.Start(ctx, task.ID)
	require.NoError(t, err)
	second, err := m.Start(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestStopKeepsDirectory(t *testing.T) {
	m, st, _ := newManager(t)
	ctx := context.Background()
	task := createTask(t, st)

	ws, err := m.Start(ctx, task.ID)
	require.NoError(t, err)

	stopped, err := m.Stop(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, store.WorkspaceStopped, stopped.Status)

	_, err = os.Stat(ws.Path)
	assert.NoError(t, err)
}

func TestStopWithoutWorkspace(t *testing.T) {
	m, st, _ := newManager(t)
	task := createTask(t, st)

	_, err := m.Stop(context.Background(), task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
