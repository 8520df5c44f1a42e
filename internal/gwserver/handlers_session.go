// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"time"

	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/wire"
)

type sessionRespondArgs struct {
	SessionID    string `json:"sessionId"`
	Text         string `json:"text"`
	ControllerID string `json:"controllerId"`
}

func (c *conn) handleSessionRespond(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[sessionRespondArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId required")
	}
	sess, ok := c.server.Sessions.Get(record.SessionID(args.SessionID))
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}
	callerID := record.ControllerID(args.ControllerID)
	if callerID == "" {
		c.mu.Lock()
		callerID = c.controllerID
		c.mu.Unlock()
	}
	responded, sentBytes := sess.Respond(callerID, args.Text)
	return map[string]any{"responded": responded, "sentBytes": sentBytes}, nil
}

func (c *conn) handleSessionInterrupt(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptySessionIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId required")
	}
	sess, ok := c.server.Sessions.Get(record.SessionID(args.SessionID))
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}
	interrupted, err := sess.Interrupt()
	if err != nil {
		return map[string]any{"interrupted": false}, nil
	}
	return map[string]any{"interrupted": interrupted}, nil
}

type sessionClaimArgs struct {
	SessionID       string `json:"sessionId"`
	ControllerID    string `json:"controllerId"`
	ControllerType  string `json:"controllerType"`
	ControllerLabel string `json:"controllerLabel"`
	Takeover        bool   `json:"takeover"`
}

func (c *conn) handleSessionClaim(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[sessionClaimArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" || args.ControllerID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId and controllerId required")
	}
	sess, ok := c.server.Sessions.Get(record.SessionID(args.SessionID))
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}

	ctype := record.ControllerType(args.ControllerType)
	switch ctype {
	case record.ControllerHuman, record.ControllerAgent, record.ControllerAutomation:
	default:
		ctype = record.ControllerHuman
	}

	controller := record.Controller{
		ControllerID:    record.ControllerID(args.ControllerID),
		ControllerType:  ctype,
		ControllerLabel: args.ControllerLabel,
		ClaimedAt:       time.Now(),
	}

	ok2, _, err := sess.Claim(controller, args.Takeover)
	if !ok2 {
		if _, held := err.(ptysession.ErrControllerHeld); held {
			return nil, wire.NewError(wire.ErrControllerHeld, "session already claimed")
		}
		return nil, wire.NewError(wire.ErrInternal, err.Error())
	}

	c.mu.Lock()
	c.controllerID = controller.ControllerID
	c.mu.Unlock()

	snapshot := sess.Snapshot()
	c.server.broadcastSessionSnapshot(c.currentScope(), snapshot)
	return snapshot, nil
}

func (c *conn) handleSessionRemove(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptySessionIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId required")
	}
	sessionID := record.SessionID(args.SessionID)
	if _, ok := c.server.Sessions.Get(sessionID); !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}
	if err := c.server.Sessions.Remove(sessionID); err != nil {
		return nil, wire.NewError(wire.ErrInternal, err.Error())
	}
	return map[string]any{"sessionId": args.SessionID, "removed": true}, nil
}

func (c *conn) handleSessionList(cmd wire.Command) (any, *wire.Error) {
	scope := c.currentScope()
	out := make([]*record.Session, 0)
	for _, sess := range c.server.Sessions.List() {
		if sess.Scope == scope {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (c *conn) handleSessionStatus(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptySessionIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId required")
	}
	sess, ok := c.server.Sessions.Get(record.SessionID(args.SessionID))
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}
	return sess.Snapshot(), nil
}
