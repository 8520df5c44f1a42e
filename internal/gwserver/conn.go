// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmoyers/harness/internal/metrics"
	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/wire"
)

// outboundDepth bounds the per-connection outbound queue of events/replies
// awaiting a write. A connection that can't keep up is disconnected with
// backpressure rather than stalling the whole gateway.
const outboundDepth = 256

// conn is one client connection's state: its hello-negotiated scope, its
// workspace-level event subscription, and every pty stream it has
// attached to or subscribed to.
type conn struct {
	server *Server
	nc     io.ReadWriteCloser
	r      *wire.Reader
	w      *wire.Writer

	mu            sync.Mutex
	helloDone     bool
	scope         record.Scope
	subscribed    bool
	controllerID  record.ControllerID

	ptyAttach map[record.SessionID]func()
	ptyEvents map[record.SessionID]func()

	outbound chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(s *Server, nc io.ReadWriteCloser) *conn {
	return &conn{
		server:    s,
		nc:        nc,
		r:         wire.NewReader(nc),
		w:         wire.NewWriter(nc),
		ptyAttach: map[record.SessionID]func(){},
		ptyEvents: map[record.SessionID]func(){},
		outbound:  make(chan []byte, outboundDepth),
		done:      make(chan struct{}),
	}
}

// run groups this connection's read and write loops with an errgroup so
// the caller's goroutine doesn't return (and the connection isn't
// considered fully torn down) until both have actually exited --
// replacing a bare `go c.writeLoop()` fire-and-forget with a joined
// command-ingestion/output-write goroutine pair per connection.
func (c *conn) run() {
	var g errgroup.Group
	g.Go(func() error {
		c.writeLoop()
		return nil
	})
	g.Go(func() error {
		defer c.close()
		for {
			payload, err := c.r.ReadFrame()
			if err != nil {
				return nil
			}
			var cmd wire.Command
			if err := json.Unmarshal(payload, &cmd); err != nil {
				continue
			}
			c.handleCommand(cmd)
		}
	})
	g.Wait()
}

func (c *conn) writeLoop() {
	for {
		select {
		case frame, ok := <-c.outbound:
			if !ok {
				return
			}
			if err := c.w.WriteFrame(frame); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.nc.Close()

		c.mu.Lock()
		for _, detach := range c.ptyAttach {
			detach()
		}
		for _, unsub := range c.ptyEvents {
			unsub()
		}
		controllerID := c.controllerID
		c.mu.Unlock()

		if controllerID != "" {
			for _, sess := range c.server.Sessions.List() {
				if s, ok := c.server.Sessions.Get(sess.ID); ok {
					s.ReleaseController(controllerID)
				}
			}
		}
	})
}

// enqueue non-blockingly queues frame for delivery; a full queue drops
// the connection (the backpressure policy for slow/disconnected
// subscribers).
func (c *conn) enqueue(frame []byte) {
	select {
	case c.outbound <- frame:
	default:
		c.close()
	}
}

func (c *conn) writeValue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// deliverObserved pushes a cursor-stamped observed event to this
// connection if it is hello'd, subscribed, and scoped to ev.Scope.
func (c *conn) deliverObserved(scope record.Scope, cursor uint64, ev reduce.Event) {
	c.mu.Lock()
	deliver := c.helloDone && c.subscribed && c.scope == scope
	c.mu.Unlock()
	if !deliver {
		return
	}

	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	c.writeValue(wire.EventEnvelope{Type: string(ev.Kind), Cursor: cursor, Event: raw})
}

// deliverPTYOutput streams a replayed-or-live output chunk to the client
// as a pty.output frame.
func (c *conn) deliverPTYOutput(sessionID record.SessionID, chunk ptysession.OutputChunk) {
	c.writeValue(map[string]any{
		"type":      "pty.output",
		"sessionId": string(sessionID),
		"cursor":    chunk.EndCursor,
		"bytes":     base64.StdEncoding.EncodeToString(chunk.Data),
	})
}

// deliverSessionSnapshot streams a full session-status frame carrying the
// session's current snapshot (including its controller slot, which lives
// only in ptysession and never enters the reduced store).
func (c *conn) deliverSessionSnapshot(scope record.Scope, sess *record.Session) {
	c.mu.Lock()
	deliver := c.helloDone && c.subscribed && c.scope == scope
	c.mu.Unlock()
	if !deliver {
		return
	}
	c.writeValue(map[string]any{"type": "session-status", "sessionId": string(sess.ID), "session": sess})
}

// deliverPTYExit streams a pty.exit frame to the client.
func (c *conn) deliverPTYExit(sessionID record.SessionID, lastExit *record.LastExit) {
	msg := map[string]any{"type": "pty.exit", "sessionId": string(sessionID)}
	if lastExit != nil {
		if lastExit.Code != nil {
			msg["code"] = *lastExit.Code
		}
		if lastExit.Signal != nil {
			msg["signal"] = *lastExit.Signal
		}
	}
	c.writeValue(msg)
}

func (c *conn) reply(requestID int64, result any, cmdErr *wire.Error) {
	if cmdErr != nil {
		c.writeValue(wire.NewErrorReply(requestID, cmdErr))
		return
	}
	r, err := wire.NewOKReply(requestID, result)
	if err != nil {
		c.writeValue(wire.NewErrorReply(requestID, wire.NewError(wire.ErrInternal, err.Error())))
		return
	}
	c.writeValue(r)
}

func (c *conn) handleCommand(cmd wire.Command) {
	timer := metrics.NewTimer()
	outcome := "ok"
	defer func() {
		metrics.CommandsTotal.WithLabelValues(cmd.Type, outcome).Inc()
		timer.ObserveDuration(metrics.CommandDuration.WithLabelValues(cmd.Type))
	}()

	if cmd.Type != "hello" {
		c.mu.Lock()
		helloDone := c.helloDone
		c.mu.Unlock()
		if !helloDone {
			outcome = "error"
			c.reply(cmd.RequestID, nil, wire.NewError(wire.ErrAuthFailed, "hello required"))
			return
		}
	}

	result, cmdErr := c.dispatchRecovered(cmd)
	if cmdErr != nil {
		outcome = "error"
	}
	c.reply(cmd.RequestID, result, cmdErr)
}

// dispatchRecovered wraps dispatch so a panic inside a handler never
// crashes the gateway process; it surfaces as an internal error to this
// command's caller only, per the spec's worker-task-boundary policy.
func (c *conn) dispatchRecovered(cmd wire.Command) (result any, cmdErr *wire.Error) {
	defer func() {
		if r := recover(); r != nil {
			cmdErr = wire.NewError(wire.ErrInternal, "internal error handling command")
		}
	}()
	return c.dispatch(cmd)
}
