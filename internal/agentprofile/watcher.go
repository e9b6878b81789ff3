// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package agentprofile

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wingedpig/taskboard/internal/events"
)

// Watcher reloads the registry when its profile file changes. Editors
// replace files rather than writing in place, so the parent directory is
// watched and events are filtered by name; writes are debounced because a
// save produces several events in quick succession.
type Watcher struct {
	registry *Registry
	bus      *events.Bus
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching the registry's profile file. The caller must
// Close the watcher on shutdown.
func NewWatcher(registry *Registry, bus *events.Bus, debounce time.Duration) (*Watcher, error) {
	if registry.path == "" {
		return nil, fmt.Errorf("registry has no profile file to watch")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(registry.path)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch profile dir: %w", err)
	}

	w := &Watcher{
		registry: registry,
		bus:      bus,
		watcher:  fsWatcher,
		debounce: debounce,
		closeCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.closeCh)
	err := w.watcher.Close()
	w.wg.Wait()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("agentprofile: watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Writes and creates only; chmod fires on unrelated activity.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if filepath.Clean(event.Name) != filepath.Clean(w.registry.path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if err := w.registry.Reload(); err != nil {
		log.Printf("agentprofile: reload failed: %v", err)
		return
	}
	log.Printf("agentprofile: reloaded %s", w.registry.path)
	if w.bus != nil {
		w.bus.Publish(events.EventProfilesReloaded, map[string]string{"path": w.registry.path})
	}
}
