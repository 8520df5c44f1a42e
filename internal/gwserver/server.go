// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gwserver implements the control-plane command server: the
// length-prefixed JSON duplex protocol over a loopback connection that
// authenticates clients, dispatches typed commands, mutates persisted
// state, and fans observed events out to subscribers.
package gwserver

import (
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoyers/harness/internal/metrics"
	"github.com/jmoyers/harness/internal/nim"
	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/storage"
	"github.com/jmoyers/harness/internal/syncedstore"
)

// internalSubscriptionID is the fixed subscription identity the gateway
// uses when applying its own freshly-cursor-stamped events into the
// store. The gateway is the sole producer of cursors and they are
// globally (not per-scope) strictly increasing, so one shared watermark
// across every scope is correct and simpler than one per scope.
const internalSubscriptionID = "gateway"

// Server is the process-wide control-plane gateway. One Server owns the
// persistent store, the in-memory synced state, and every live pty
// session; connections are stateless views over it.
type Server struct {
	AuthToken string
	StartedAt time.Time
	Store     *syncedstore.Store
	Sessions  *ptysession.Manager
	DB        *storage.DB

	cursor atomic.Uint64

	// writeMu serializes the emit pipeline (assign cursor, persist,
	// reduce into the store, broadcast) -- the "store" lock in the
	// documented global -> session -> store ordering.
	writeMu sync.Mutex

	connsMu sync.Mutex
	conns   map[*conn]struct{}

	bridgesMu sync.Mutex
	bridges   map[record.SessionID]func()

	renderTrace atomic.Bool

	// StateDir is where profile.start writes its pprof output file. Empty
	// means the current working directory.
	StateDir string

	profileMu   sync.Mutex
	profileFile *os.File

	// TitleDriver, when non-nil, is the NIM provider driver used by
	// conversation.title.refresh to summarize a conversation's transcript
	// into a short title. Left nil, title.refresh always reports
	// {status:"skipped"}. Not owned by the server; callers register it
	// after constructing their driver of choice.
	TitleDriver nim.ProviderDriver
}

// New constructs a Server. maxCursor seeds the cursor counter above any
// cursor already present in the persisted event log (crash recovery).
func New(authToken string, store *syncedstore.Store, sessions *ptysession.Manager, db *storage.DB, maxCursor uint64) *Server {
	s := &Server{
		AuthToken: authToken,
		StartedAt: time.Now(),
		Store:     store,
		Sessions:  sessions,
		DB:        db,
		conns:     map[*conn]struct{}{},
		bridges:   map[record.SessionID]func(){},
	}
	s.cursor.Store(maxCursor)
	return s
}

// Serve accepts connections on ln until it errors or is closed.
func (s *Server) Serve(ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			return err
		}
		s.ServeConn(nc)
	}
}

// ServeConn runs the command/event protocol over rwc until it closes,
// in its own goroutine. rwc need not be a raw TCP connection -- any
// length-prefix-frameable duplex stream works, including the
// message-to-stream adapter internal/wsbridge puts in front of a
// websocket connection.
func (s *Server) ServeConn(rwc io.ReadWriteCloser) {
	metrics.ConnectionsTotal.Inc()
	c := newConn(s, rwc)
	s.registerConn(c)
	go func() {
		defer s.unregisterConn(c)
		c.run()
	}()
}

func (s *Server) registerConn(c *conn) {
	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	metrics.ConnectionsActive.Set(float64(len(s.conns)))
	s.connsMu.Unlock()
}

func (s *Server) unregisterConn(c *conn) {
	s.connsMu.Lock()
	delete(s.conns, c)
	metrics.ConnectionsActive.Set(float64(len(s.conns)))
	s.connsMu.Unlock()
}

// emit assigns the next global cursor to ev, persists it, reduces it
// into the store, and returns the assigned cursor along with whether the
// reducer judged it a real change. When changed is true, emit also
// broadcasts the event to the scope's subscribers.
func (s *Server) emit(ev reduce.Event) (cursor uint64, changed bool, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cursor = s.cursor.Add(1)
	if s.DB != nil {
		if err := s.DB.AppendEvent(ev.Scope, cursor, ev); err != nil {
			return 0, false, err
		}
	}
	changed = s.Store.ApplyObserved(internalSubscriptionID, cursor, ev)
	metrics.StoreCursor.Set(float64(cursor))
	metrics.EventsAppliedTotal.WithLabelValues(string(ev.Kind)).Inc()
	if changed {
		s.broadcastObserved(ev.Scope, cursor, ev)
	}
	return cursor, changed, nil
}

// broadcastSessionSnapshot pushes a session's current snapshot to every
// connection subscribed to scope's workspace stream, out of band from the
// cursor-ordered observed-event channel (controller state lives only in
// ptysession, never in the reduced store).
func (s *Server) broadcastSessionSnapshot(scope record.Scope, sess *record.Session) {
	s.connsMu.Lock()
	targets := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.connsMu.Unlock()

	for _, c := range targets {
		c.deliverSessionSnapshot(scope, sess)
	}
}

// broadcastPTYExit pushes a pty.exit frame to every connection subscribed
// to scope's workspace stream.
func (s *Server) broadcastPTYExit(scope record.Scope, sessionID record.SessionID, lastExit *record.LastExit) {
	s.connsMu.Lock()
	targets := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.connsMu.Unlock()

	for _, c := range targets {
		c.mu.Lock()
		deliver := c.helloDone && c.subscribed && c.scope == scope
		c.mu.Unlock()
		if deliver {
			c.deliverPTYExit(sessionID, lastExit)
		}
	}
}

func scopeFromTriple(tenantID, userID, workspaceID string) record.Scope {
	return record.Scope{TenantID: tenantID, UserID: userID, WorkspaceID: workspaceID}
}

// broadcastObserved pushes a cursor-stamped observed event to every
// connection subscribed to ev.Scope's workspace-level event stream.
func (s *Server) broadcastObserved(scope record.Scope, cursor uint64, ev reduce.Event) {
	s.connsMu.Lock()
	targets := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		targets = append(targets, c)
	}
	s.connsMu.Unlock()

	for _, c := range targets {
		c.deliverObserved(scope, cursor, ev)
	}
}
