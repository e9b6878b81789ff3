// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusClosed is returned when operating on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// Config bounds the in-memory event history.
type Config struct {
	HistoryMaxEvents int
	HistoryMaxAge    time.Duration
}

// Bus is an in-memory pub/sub event bus with bounded history. Subscribers
// receive events over buffered channels; a subscriber that falls behind has
// events dropped rather than blocking publishers.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string]*subscriber
	history []Event
	cfg     Config
	closed  bool
	nextSub uint64
}

type subscriber struct {
	pattern string

	// mu serializes sends against the close in Unsubscribe/Close; a send
	// on a closed channel panics, and Publish delivers outside the bus lock.
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// deliver sends without blocking. Reports false when the event was dropped
// because the subscriber's buffer is full.
func (s *subscriber) deliver(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

// shut closes the delivery channel once.
func (s *subscriber) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// NewBus creates an event bus.
func NewBus(cfg Config) *Bus {
	if cfg.HistoryMaxEvents <= 0 {
		cfg.HistoryMaxEvents = 1000
	}
	if cfg.HistoryMaxAge <= 0 {
		cfg.HistoryMaxAge = time.Hour
	}
	return &Bus{
		subs: make(map[string]*subscriber),
		cfg:  cfg,
	}
}

// Publish emits an event to all matching subscribers and records it in
// history. Publish never blocks on a slow subscriber.
func (b *Bus) Publish(eventType string, payload interface{}) {
	ev := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.history = append(b.history, ev)
	b.prune()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		if !matchPattern(sub.pattern, ev.Type) {
			continue
		}
		if !sub.deliver(ev) {
			log.Printf("events: dropped %s, subscriber buffer full", ev.Type)
		}
	}
}

// Subscribe registers for events matching pattern and returns the
// subscription id and delivery channel. The channel is closed on
// Unsubscribe or bus Close.
func (b *Bus) Subscribe(pattern string, bufferSize int) (string, <-chan Event, error) {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", nil, ErrBusClosed
	}

	b.nextSub++
	id := strconv.FormatUint(b.nextSub, 10)
	sub := &subscriber{pattern: pattern, ch: make(chan Event, bufferSize)}
	b.subs[id] = sub
	return id, sub.ch, nil
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		sub.shut()
	}
}

// History returns past events matching the filter, oldest first.
func (b *Bus) History(filter Filter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, ev := range b.history {
		if !matchPattern(filter.Pattern, ev.Type) {
			continue
		}
		if !filter.Since.IsZero() && !ev.Timestamp.After(filter.Since) {
			continue
		}
		out = append(out, ev)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[len(out)-filter.Limit:]
	}
	return out
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		sub.shut()
	}
}

// prune drops history entries beyond the size bound or older than the age
// bound. Caller holds the write lock.
func (b *Bus) prune() {
	if n := len(b.history) - b.cfg.HistoryMaxEvents; n > 0 {
		b.history = append([]Event(nil), b.history[n:]...)
	}
	cutoff := time.Now().Add(-b.cfg.HistoryMaxAge)
	firstLive := 0
	for firstLive < len(b.history) && b.history[firstLive].Timestamp.Before(cutoff) {
		firstLive++
	}
	if firstLive > 0 {
		b.history = append([]Event(nil), b.history[firstLive:]...)
	}
}
