// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
)

// startSessionBridge subscribes once per live session to its status/exit
// events and translates them into the rest of the gateway's world: a
// "session-status" SessionEvent becomes a reduce.KindSessionStatus event
// projected onto the session's conversation (conversationId ≡ sessionId),
// and an "exited" SessionEvent becomes an out-of-band pty.exit broadcast.
// It is idempotent: calling it twice for the same session is a no-op.
func (s *Server) startSessionBridge(scope record.Scope, sess *ptysession.Session) {
	id := sess.ID()

	s.bridgesMu.Lock()
	if _, exists := s.bridges[id]; exists {
		s.bridgesMu.Unlock()
		return
	}
	ch, unsubscribe := sess.SubscribeEvents()
	s.bridges[id] = unsubscribe
	s.bridgesMu.Unlock()

	go func() {
		for ev := range ch {
			s.handleSessionBridgeEvent(scope, ev)
		}
	}()
}

func (s *Server) stopSessionBridge(id record.SessionID) {
	s.bridgesMu.Lock()
	unsubscribe, ok := s.bridges[id]
	if ok {
		delete(s.bridges, id)
	}
	s.bridgesMu.Unlock()
	if ok {
		unsubscribe()
	}
}

// runtimeStatusForPhase maps the heuristic session status model's phase
// onto the conversation-level runtimeStatus enum: idle/thinking/working are
// all "the session is alive and running", needs-input mirrors directly, and
// exited (the heuristic classifier rarely reports this itself -- the
// "exited" SessionEvent is the authoritative signal) falls back to exited.
func runtimeStatusForPhase(phase record.SessionPhase) record.RuntimeStatus {
	switch phase {
	case record.PhaseNeedsInput:
		return record.RuntimeNeedsInput
	case record.PhaseExited:
		return record.RuntimeExited
	default:
		return record.RuntimeRunning
	}
}

// runtimeStatusForExit distinguishes a clean process exit (no signal, zero
// or absent exit code) as "completed" from every other termination, which
// is "exited".
func runtimeStatusForExit(lastExit *record.LastExit) record.RuntimeStatus {
	if lastExit == nil {
		return record.RuntimeCompleted
	}
	if lastExit.Signal != nil {
		return record.RuntimeExited
	}
	if lastExit.Code != nil && *lastExit.Code != 0 {
		return record.RuntimeExited
	}
	return record.RuntimeCompleted
}

func (s *Server) handleSessionBridgeEvent(scope record.Scope, ev ptysession.SessionEvent) {
	convID := record.ConversationID(ev.SessionID)

	switch ev.Kind {
	case "session-status":
		if ss := s.Store.GetState().Scopes[scope]; ss == nil {
			return
		} else if _, ok := ss.Conversations[convID]; !ok {
			return
		}
		data := map[string]any{
			"conversationId": string(convID),
			"runtimeStatus":  string(runtimeStatusForPhase(ev.Status.Phase)),
			"runtimeLive":    true,
			"statusModel": map[string]any{
				"phase":           string(ev.Status.Phase),
				"activityHint":    ev.Status.ActivityHint,
				"attentionReason": ev.Status.AttentionReason,
			},
		}
		reducerEv := reduce.Event{Kind: reduce.KindSessionStatus, Scope: scope, Ts: ev.Ts, Data: data}
		if _, _, err := s.emit(reducerEv); err != nil {
			return
		}
		if conv := s.Store.GetState().Scopes[scope].Conversations[convID]; conv != nil && s.DB != nil {
			s.DB.UpsertConversation(conv)
		}

	case "exited":
		if ss := s.Store.GetState().Scopes[scope]; ss != nil {
			if _, ok := ss.Conversations[convID]; ok {
				data := map[string]any{
					"conversationId": string(convID),
					"runtimeStatus":  string(runtimeStatusForExit(ev.LastExit)),
					"runtimeLive":    false,
				}
				reducerEv := reduce.Event{Kind: reduce.KindSessionStatus, Scope: scope, Ts: ev.Ts, Data: data}
				if _, _, err := s.emit(reducerEv); err == nil {
					if updated := s.Store.GetState().Scopes[scope].Conversations[convID]; updated != nil && s.DB != nil {
						s.DB.UpsertConversation(updated)
					}
				}
			}
		}
		s.broadcastPTYExit(scope, ev.SessionID, ev.LastExit)
		s.stopSessionBridge(ev.SessionID)
	}
}
