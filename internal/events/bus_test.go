// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern   string
		eventType string
		want      bool
	}{
		{"*", "task.created", true},
		{"", "task.created", true},
		{"task.*", "task.created", true},
		{"task.*", "task.updated", true},
		{"task.*", "chat.started", false},
		{"task.created", "task.created", true},
		{"task.created", "task.updated", false},
		{"task", "task.created", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.pattern, tt.eventType),
			"pattern %q vs %q", tt.pattern, tt.eventType)
	}
}

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(Config{})
	defer bus.Close()

	id, ch, err := bus.Subscribe("task.*", 10)
	require.NoError(t, err)
	defer bus.Unsubscribe(id)

	bus.Publish(EventTaskCreated, map[string]string{"task_id": "t1"})
	bus.Publish(EventChatStarted, nil)
	bus.Publish(EventTaskUpdated, map[string]string{"task_id": "t1"})

	ev := <-ch
	assert.Equal(t, EventTaskCreated, ev.Type)
	ev = <-ch
	assert.Equal(t, EventTaskUpdated, ev.Type)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(Config{})
	defer bus.Close()

	_, _, err := bus.Subscribe("*", 1)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			bus.Publish(EventTaskCreated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusHistoryBoundedAndFiltered(t *testing.T) {
	bus := NewBus(Config{HistoryMaxEvents: 3})
	defer bus.Close()

	bus.Publish(EventTaskCreated, nil)
	bus.Publish(EventTaskUpdated, nil)
	bus.Publish(EventChatStarted, nil)
	bus.Publish(EventTaskDeleted, nil)

	all := bus.History(Filter{})
	require.Len(t, all, 3)
	assert.Equal(t, EventTaskUpdated, all[0].Type)

	tasks := bus.History(Filter{Pattern: "task.*"})
	require.Len(t, tasks, 2)
	assert.Equal(t, EventTaskDeleted, tasks[1].Type)

	limited := bus.History(Filter{Limit: 1})
	require.Len(t, limited, 1)
	assert.Equal(t, EventTaskDeleted, limited[0].Type)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(Config{})
	defer bus.Close()

	id, ch, err := bus.Subscribe("*", 1)
	require.NoError(t, err)
	bus.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	bus.Publish(EventTaskCreated, nil)
}

func TestBusPublishRacesUnsubscribe(t *testing.T) {
	bus := NewBus(Config{})
	defer bus.Close()

	ids := make([]string, 50)
	for i := range ids {
		id, ch, err := bus.Subscribe("*", 1)
		require.NoError(t, err)
		ids[i] = id
		go func(ch <-chan Event) {
			for range ch {
			}
		}(ch)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			bus.Publish(EventChatStarted, nil)
		}
	}()

	// Tearing subscriptions down mid-publish must not panic the publisher.
	for _, id := range ids {
		bus.Unsubscribe(id)
	}
	<-done
}
