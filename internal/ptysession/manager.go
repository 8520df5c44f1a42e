// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import (
	"fmt"
	"sync"

	"github.com/jmoyers/harness/internal/record"
)

// Manager owns every live session in the process, keyed by session id.
// Commands in 4.F operate through Manager rather than touching *Session
// directly so the per-session lock ordering in the spec's concurrency
// model (global -> session -> store) has a single point of enforcement.
type Manager struct {
	mu         sync.Mutex
	sessions   map[record.SessionID]*Session
	cfg        Config
	classifier StatusClassifier
}

// NewManager returns an empty Manager using cfg for every session it
// starts.
func NewManager(cfg Config, classifier StatusClassifier) *Manager {
	return &Manager{
		sessions:   map[record.SessionID]*Session{},
		cfg:        cfg,
		classifier: classifier,
	}
}

// Start spawns a new session. It fails with ErrAlreadyLive if id already
// names a live session.
func (m *Manager) Start(id record.SessionID, scope record.Scope, params StartParams) (*Session, error) {
	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok && existing.live {
		m.mu.Unlock()
		return nil, ErrAlreadyLive
	}
	sess := New(id, scope, m.cfg, m.classifier)
	m.sessions[id] = sess
	m.mu.Unlock()

	params.SessionID = id
	params.Scope = scope
	if err := sess.Start(params); err != nil {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, err
	}
	return sess, nil
}

// Get returns the session for id, if any.
func (m *Manager) Get(id record.SessionID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove drops id from the registry after closing its process. It
// returns a not_found error if id is unknown.
func (m *Manager) Remove(id record.SessionID) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("not_found: session %q", id)
	}
	return sess.Close()
}

// List returns a snapshot of every session currently registered.
func (m *Manager) List() []*record.Session {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	out := make([]*record.Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sess.Snapshot())
	}
	return out
}
