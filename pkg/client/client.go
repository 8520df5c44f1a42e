// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client is a Go client for the harness control plane's wire
// protocol: a length-prefixed, JSON-framed duplex connection over a
// loopback TCP socket (see internal/wire and internal/gwserver).
//
// # Getting started
//
// Dial the gateway, send hello, and start issuing commands:
//
//	c, err := client.Dial(ctx, "127.0.0.1:4455", authToken, client.Scope{
//		TenantID: "t1", UserID: "u1", WorkspaceID: "w1",
//	})
//	if err != nil { ... }
//	defer c.Close()
//
//	dirs, err := c.Directories.List(ctx)
//
// # Events
//
// The same connection carries out-of-band event frames (directory/task/
// conversation changes, pty output, session status, pty exit) interleaved
// with command replies. Register a handler with OnEvent before issuing
// commands that might produce events, since frames are dispatched as they
// arrive rather than buffered per-call.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/jmoyers/harness/internal/wire"
)

// Scope identifies the tenant/user/workspace triple every command after
// hello is evaluated against.
type Scope struct {
	TenantID    string
	UserID      string
	WorkspaceID string
}

// Event is an out-of-band frame delivered outside the request/reply cycle:
// a reduced-store event envelope (Cursor > 0) or an ad hoc frame like
// pty.output, session-status, or pty.exit (Cursor == 0).
type Event struct {
	Type   string
	Cursor uint64
	Raw    json.RawMessage
}

// APIError is a command failure reported by the gateway.
type APIError struct {
	Kind      wire.ErrorKind
	Message   string
	Retryable bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Client is a connection to a harness gateway. It is safe for concurrent
// use: Call may be invoked from multiple goroutines, and incoming event
// frames are dispatched on their own goroutine.
type Client struct {
	conn   net.Conn
	reader *wire.Reader
	writer *wire.Writer

	nextRequestID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan wire.Reply
	onEvent func(Event)

	closeOnce sync.Once
	done      chan struct{}

	// Directories, Repositories, Conversations, Tasks, PTY, Sessions, and
	// RenderTrace are typed wrappers over Call for each command family.
	Directories  *DirectoryClient
	Repositories *RepositoryClient
	Conversations *ConversationClient
	Tasks        *TaskClient
	PTY          *PTYClient
	Sessions     *SessionClient
	RenderTrace  *RenderTraceClient
	Profile      *ProfileClient
}

// Option configures a Client at Dial time.
type Option func(*Client)

// WithEventHandler registers fn to receive every out-of-band event frame
// delivered on the connection. Only one handler may be registered; a later
// call to OnEvent replaces it.
func WithEventHandler(fn func(Event)) Option {
	return func(c *Client) { c.onEvent = fn }
}

// Dial connects to addr, completes the hello handshake with authToken and
// scope, and returns a ready-to-use Client.
func Dial(ctx context.Context, addr, authToken string, scope Scope, opts ...Option) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}

	c := &Client{
		conn:    conn,
		reader:  wire.NewReader(conn),
		writer:  wire.NewWriter(conn),
		pending: make(map[int64]chan wire.Reply),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Directories = &DirectoryClient{c: c}
	c.Repositories = &RepositoryClient{c: c}
	c.Conversations = &ConversationClient{c: c}
	c.Tasks = &TaskClient{c: c}
	c.PTY = &PTYClient{c: c}
	c.Sessions = &SessionClient{c: c}
	c.RenderTrace = &RenderTraceClient{c: c}
	c.Profile = &ProfileClient{c: c}

	go c.readLoop()

	if _, err := c.Call(ctx, "hello", map[string]any{
		"authToken":   authToken,
		"tenantId":    scope.TenantID,
		"userId":      scope.UserID,
		"workspaceId": scope.WorkspaceID,
	}, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}
	return c, nil
}

// OnEvent replaces the client's event handler.
func (c *Client) OnEvent(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// Call issues one command and waits for its matching reply. If result is
// non-nil, the reply's result payload is unmarshaled into it.
func (c *Client) Call(ctx context.Context, cmdType string, args any, result any) error {
	requestID := c.nextRequestID.Add(1)

	var rawArgs json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return fmt.Errorf("marshal args: %w", err)
		}
		rawArgs = data
	}

	replyCh := make(chan wire.Reply, 1)
	c.mu.Lock()
	c.pending[requestID] = replyCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, requestID)
		c.mu.Unlock()
	}()

	cmd := wire.Command{RequestID: requestID, Type: cmdType, Args: rawArgs}
	if err := c.writer.WriteValue(cmd); err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	select {
	case reply := <-replyCh:
		if !reply.OK {
			return &APIError{Kind: reply.Error.Kind, Message: reply.Error.Message, Retryable: reply.Error.Retryable}
		}
		if result != nil && len(reply.Result) > 0 {
			if err := json.Unmarshal(reply.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("client: connection closed")
	}
}

// readLoop demultiplexes incoming frames: replies are routed to their
// waiting Call by requestId, everything else is dispatched to onEvent.
func (c *Client) readLoop() {
	for {
		payload, err := c.reader.ReadFrame()
		if err != nil {
			close(c.done)
			return
		}

		var probe struct {
			RequestID int64            `json:"requestId"`
			OK        *bool            `json:"ok"`
			Type      string           `json:"type"`
			Cursor    uint64           `json:"cursor"`
		}
		if err := json.Unmarshal(payload, &probe); err != nil {
			continue
		}

		if probe.OK != nil {
			var reply wire.Reply
			if err := json.Unmarshal(payload, &reply); err != nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[reply.RequestID]
			c.mu.Unlock()
			if ok {
				ch <- reply
			}
			continue
		}

		c.mu.Lock()
		handler := c.onEvent
		c.mu.Unlock()
		if handler != nil {
			var ev struct {
				Event json.RawMessage `json:"event"`
			}
			json.Unmarshal(payload, &ev)
			raw := ev.Event
			if len(raw) == 0 {
				raw = payload
			}
			handler(Event{Type: probe.Type, Cursor: probe.Cursor, Raw: raw})
		}
	}
}

// Close shuts down the underlying connection. Pending Call invocations
// unblock with an error.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
