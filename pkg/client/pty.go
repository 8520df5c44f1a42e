// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/jmoyers/harness/internal/record"
)

// PTYClient provides access to pty.* commands: spawning, attaching, and
// closing the pseudo-terminal process backing a session.
type PTYClient struct{ c *Client }

// StartParams are the fields accepted by Start.
type StartParams struct {
	SessionID  string
	Args       []string
	Env        map[string]string
	Cwd        string
	Cols       uint16
	Rows       uint16
	WorktreeID *string
	Foreground bool
	Background bool

	// DirectoryID, Title, and AgentType are optional: when DirectoryID is
	// set, Start also creates the backing conversation in one round trip
	// instead of requiring a separate conversation.create call first.
	DirectoryID string
	Title       string
	AgentType   string
}

// Start spawns a pty process and returns the resulting session snapshot.
func (p *PTYClient) Start(ctx context.Context, sp StartParams) (*record.Session, error) {
	var out record.Session
	if err := p.c.Call(ctx, "pty.start", map[string]any{
		"sessionId":   sp.SessionID,
		"args":        sp.Args,
		"env":         sp.Env,
		"cwd":         sp.Cwd,
		"cols":        sp.Cols,
		"rows":        sp.Rows,
		"worktreeId":  sp.WorktreeID,
		"fg":          sp.Foreground,
		"bg":          sp.Background,
		"directoryId": sp.DirectoryID,
		"title":       sp.Title,
		"agentType":   sp.AgentType,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Attach subscribes the connection to the session's pty output, delivered
// as pty.output events from sinceCursor onward. The returned cursor is the
// earliest cursor still held in the session's output ring buffer.
func (p *PTYClient) Attach(ctx context.Context, sessionID string, sinceCursor uint64) (earliestCursor uint64, err error) {
	var out struct {
		EarliestCursor uint64 `json:"earliestCursor"`
	}
	if err := p.c.Call(ctx, "pty.attach", map[string]any{
		"sessionId":   sessionID,
		"sinceCursor": sinceCursor,
	}, &out); err != nil {
		return 0, err
	}
	return out.EarliestCursor, nil
}

// Detach stops delivering pty output for sessionID on this connection.
func (p *PTYClient) Detach(ctx context.Context, sessionID string) error {
	return p.c.Call(ctx, "pty.detach", map[string]any{"sessionId": sessionID}, nil)
}

// SubscribeEvents subscribes the connection to the session's status and
// exit events, delivered as session-status and pty.exit frames.
func (p *PTYClient) SubscribeEvents(ctx context.Context, sessionID string) error {
	return p.c.Call(ctx, "pty.subscribe-events", map[string]any{"sessionId": sessionID}, nil)
}

// UnsubscribeEvents reverses SubscribeEvents.
func (p *PTYClient) UnsubscribeEvents(ctx context.Context, sessionID string) error {
	return p.c.Call(ctx, "pty.unsubscribe-events", map[string]any{"sessionId": sessionID}, nil)
}

// Close tears down the session's pty process.
func (p *PTYClient) Close(ctx context.Context, sessionID string) error {
	return p.c.Call(ctx, "pty.close", map[string]any{"sessionId": sessionID}, nil)
}
