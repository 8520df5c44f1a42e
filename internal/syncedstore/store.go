// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package syncedstore holds the one SyncedState value the control plane
// maintains per process, fans state replacements out to listeners, and
// gates every incoming observed event through a cursor tracker before
// delegating reduction to package reduce.
package syncedstore

import (
	"sync"

	"github.com/jmoyers/harness/internal/cursor"
	"github.com/jmoyers/harness/internal/reduce"
)

// Listener is invoked once per accepted state replacement, in registration
// order.
type Listener func(reduce.State)

// Store holds one SyncedState and the machinery to observe and subscribe to
// it. The zero value is not usable; use New.
type Store struct {
	mu        sync.Mutex
	state     reduce.State
	listeners map[int]Listener
	nextID    int
	cursors   *cursor.Tracker
}

// New returns a Store seeded with an empty state.
func New() *Store {
	return &Store{
		state:     reduce.New(),
		listeners: map[int]Listener{},
		cursors:   cursor.NewTracker(),
	}
}

// GetState returns a cheap snapshot of the current state. The returned
// value shares its maps with the store's internal state; callers must
// treat it as read-only.
func (s *Store) GetState() reduce.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener invoked after every successful state
// replacement. The returned func unsubscribes it.
func (s *Store) Subscribe(listener Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// ApplyObserved gates ev through the cursor tracker for subscriptionID and,
// if accepted, reduces it into the store's state. It returns false without
// changing state when the cursor is out of order; it also returns false
// (but still advances nothing further) when the reducer judges the event a
// no-op. Listeners are only notified on an actual state change.
func (s *Store) ApplyObserved(subscriptionID string, cursorVal uint64, ev reduce.Event) bool {
	if !s.cursors.Observe(subscriptionID, cursorVal) {
		return false
	}

	s.mu.Lock()
	result := reduce.Reduce(s.state, ev)
	if !result.Changed {
		s.mu.Unlock()
		return false
	}
	s.state = result.State
	listeners := make([]Listener, 0, len(s.listeners))
	for _, id := range sortedKeys(s.listeners) {
		listeners = append(listeners, s.listeners[id])
	}
	state := s.state
	s.mu.Unlock()

	for _, l := range listeners {
		l(state)
	}
	return true
}

// Replay rebuilds state from a previously-persisted event log at startup,
// in cursor order. Unlike ApplyObserved it bypasses the cursor tracker
// (there is no subscriber to gate; the log itself is the source of
// truth) and does not notify listeners, since nothing has subscribed yet
// at the point recovery runs. It returns the final state.
func (s *Store) Replay(events []reduce.Event) reduce.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		result := reduce.Reduce(s.state, ev)
		if result.Changed {
			s.state = result.State
		}
	}
	return s.state
}

func sortedKeys(m map[int]Listener) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
