// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"time"

	"github.com/jmoyers/harness/internal/metrics"
	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/wire"
)

type ptyStartArgs struct {
	SessionID   string            `json:"sessionId"`
	Args        []string          `json:"args"`
	Env         map[string]string `json:"env"`
	Cwd         string            `json:"cwd"`
	Cols        uint16            `json:"cols"`
	Rows        uint16            `json:"rows"`
	WorktreeID  *string           `json:"worktreeId"`
	Foreground  bool              `json:"fg"`
	Background  bool              `json:"bg"`
	DirectoryID string            `json:"directoryId"`
	Title       string            `json:"title"`
	AgentType   string            `json:"agentType"`
}

func (c *conn) handlePTYStart(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptyStartArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" || len(args.Args) == 0 {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId and args required")
	}
	scope := c.currentScope()
	sessionID := record.SessionID(args.SessionID)
	convID := record.ConversationID(args.SessionID)

	if args.DirectoryID != "" {
		if err := c.ensureDirectory(scope, args.DirectoryID); err != nil {
			return nil, wire.NewError(wire.ErrStorageError, err.Error())
		}
		if _, err := c.ensureConversation(scope, convID, args.DirectoryID, args.Title, args.AgentType); err != nil {
			return nil, wire.NewError(wire.ErrStorageError, err.Error())
		}
	}

	launchCommand := args.Args[0]
	sess, err := c.server.Sessions.Start(sessionID, scope, ptysession.StartParams{
		Args:          args.Args,
		Env:           args.Env,
		Cwd:           args.Cwd,
		Cols:          args.Cols,
		Rows:          args.Rows,
		WorktreeID:    args.WorktreeID,
		Foreground:    args.Foreground,
		Background:    args.Background,
		LaunchCommand: launchCommand,
	})
	if err != nil {
		if err == ptysession.ErrAlreadyLive {
			return nil, wire.NewError(wire.ErrConflict, "session already live")
		}
		metrics.SessionSpawnFailuresTotal.Inc()
		return nil, wire.NewError(wire.ErrPTYStartFailed, err.Error())
	}

	c.server.startSessionBridge(scope, sess)
	metrics.SessionsActive.Inc()

	if ss := c.server.Store.GetState().Scopes[scope]; ss != nil {
		if _, ok := ss.Conversations[convID]; ok {
			data := map[string]any{
				"conversationId": string(convID),
				"runtimeStatus":  string(runtimeStatusForPhase(record.PhaseWorking)),
				"runtimeLive":    true,
				"statusModel": map[string]any{
					"phase":        string(record.PhaseWorking),
					"activityHint": "starting",
				},
			}
			ev := reduce.Event{Kind: reduce.KindSessionStatus, Scope: scope, Ts: time.Now(), Data: data}
			if _, _, err := c.server.emit(ev); err == nil {
				if conv := c.server.Store.GetState().Scopes[scope].Conversations[convID]; conv != nil {
					c.server.DB.UpsertConversation(conv)
				}
			}
		}
	}

	return sess.Snapshot(), nil
}

type ptySessionIDArgs struct {
	SessionID string `json:"sessionId"`
}

type ptyAttachArgs struct {
	SessionID   string `json:"sessionId"`
	SinceCursor uint64 `json:"sinceCursor"`
}

func (c *conn) handlePTYAttach(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptyAttachArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId required")
	}
	sessionID := record.SessionID(args.SessionID)
	sess, ok := c.server.Sessions.Get(sessionID)
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}

	ch, earliestCursor, detach := sess.AttachOutput(args.SinceCursor)

	c.mu.Lock()
	if existing, ok := c.ptyAttach[sessionID]; ok {
		c.mu.Unlock()
		existing()
		c.mu.Lock()
	}
	c.ptyAttach[sessionID] = detach
	c.mu.Unlock()

	go func() {
		for chunk := range ch {
			c.deliverPTYOutput(sessionID, chunk)
		}
	}()

	return map[string]any{"earliestCursor": earliestCursor}, nil
}

func (c *conn) handlePTYDetach(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptySessionIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	sessionID := record.SessionID(args.SessionID)

	c.mu.Lock()
	detach, ok := c.ptyAttach[sessionID]
	if ok {
		delete(c.ptyAttach, sessionID)
	}
	c.mu.Unlock()
	if ok {
		detach()
	}
	return map[string]any{"detached": ok}, nil
}

func (c *conn) handlePTYSubscribeEvents(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptySessionIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.SessionID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "sessionId required")
	}
	sessionID := record.SessionID(args.SessionID)
	sess, ok := c.server.Sessions.Get(sessionID)
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "session not found")
	}

	ch, unsubscribe := sess.SubscribeEvents()

	c.mu.Lock()
	if existing, ok := c.ptyEvents[sessionID]; ok {
		c.mu.Unlock()
		existing()
		c.mu.Lock()
	}
	c.ptyEvents[sessionID] = unsubscribe
	c.mu.Unlock()

	go func() {
		for ev := range ch {
			switch ev.Kind {
			case "exited":
				c.deliverPTYExit(sessionID, ev.LastExit)
			default:
				c.writeValue(map[string]any{
					"type":      "session-status",
					"sessionId": string(sessionID),
					"status": map[string]any{
						"phase":           string(ev.Status.Phase),
						"activityHint":    ev.Status.ActivityHint,
						"attentionReason": ev.Status.AttentionReason,
					},
				})
			}
		}
	}()

	return map[string]any{"subscribed": true}, nil
}

func (c *conn) handlePTYUnsubscribeEvents(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[ptySessionIDArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	sessionID := record.SessionID(args.SessionID)

	c.mu.Lock()
	unsubscribe, ok := c.ptyEvents[sessionID]
	if ok {
		delete(c.ptyEvents, sessionID)
	}
	c.mu.Unlock()
	if ok {
		unsubscribe()
	}
	return map[string]any{"unsubscribed": ok}, nil
}

func (c *conn) handlePTYClose(cmd wire.Command) (any, *wire.Error) {
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
	metrics.SessionsActive.Dec()
	return map[string]any{"sessionId": args.SessionID, "closed": true}, nil
}
