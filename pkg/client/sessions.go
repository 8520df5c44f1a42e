// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/jmoyers/harness/internal/record"
)

// SessionClient provides access to session.* commands: sending input,
// interrupting, claiming controller ownership, and inspecting status.
type SessionClient struct{ c *Client }

// Respond writes text to the session's pty as if the claiming controller
// typed it. controllerID may be empty to use the connection's own claimed
// controller.
func (s *SessionClient) Respond(ctx context.Context, sessionID, text, controllerID string) (responded bool, sentBytes int, err error) {
	var out struct {
		Responded bool `json:"responded"`
		SentBytes int  `json:"sentBytes"`
	}
	if err := s.c.Call(ctx, "session.respond", map[string]any{
		"sessionId":    sessionID,
		"text":         text,
		"controllerId": controllerID,
	}, &out); err != nil {
		return false, 0, err
	}
	return out.Responded, out.SentBytes, nil
}

// Interrupt sends an interrupt signal to the session's pty process.
func (s *SessionClient) Interrupt(ctx context.Context, sessionID string) (bool, error) {
	var out struct {
		Interrupted bool `json:"interrupted"`
	}
	if err := s.c.Call(ctx, "session.interrupt", map[string]any{"sessionId": sessionID}, &out); err != nil {
		return false, err
	}
	return out.Interrupted, nil
}

// ClaimParams are the fields accepted by Claim.
type ClaimParams struct {
	SessionID       string
	ControllerID    string
	ControllerType  string
	ControllerLabel string
	Takeover        bool
}

// Claim attempts to take controller ownership of a session. Without
// Takeover, a session already claimed by a different controller fails
// with an APIError whose Kind is wire.ErrControllerHeld.
func (s *SessionClient) Claim(ctx context.Context, p ClaimParams) (*record.Session, error) {
	var out record.Session
	if err := s.c.Call(ctx, "session.claim", map[string]any{
		"sessionId":       p.SessionID,
		"controllerId":    p.ControllerID,
		"controllerType":  p.ControllerType,
		"controllerLabel": p.ControllerLabel,
		"takeover":        p.Takeover,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove tears down a session's supervisor state.
func (s *SessionClient) Remove(ctx context.Context, sessionID string) error {
	return s.c.Call(ctx, "session.remove", map[string]any{"sessionId": sessionID}, nil)
}

// List returns every session in the caller's scope.
func (s *SessionClient) List(ctx context.Context) ([]*record.Session, error) {
	var out []*record.Session
	if err := s.c.Call(ctx, "session.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status fetches a session's current snapshot.
func (s *SessionClient) Status(ctx context.Context, sessionID string) (*record.Session, error) {
	var out record.Session
	if err := s.c.Call(ctx, "session.status", map[string]any{"sessionId": sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
