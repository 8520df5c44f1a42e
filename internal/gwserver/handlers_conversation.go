// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"context"
	"strings"
	"time"

	"github.com/jmoyers/harness/internal/logging"
	"github.com/jmoyers/harness/internal/nim"
	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/wire"
)

type conversationCreateArgs struct {
	ConversationID string `json:"conversationId"`
	DirectoryID    string `json:"directoryId"`
	Title          string `json:"title"`
	AgentType      string `json:"agentType"`
}

// ensureDirectory upserts a minimal directory stub for directoryID if the
// scope doesn't already have one, so commands that only carry a
// directoryId (no path) -- conversation.create, pty.start's combined
// create-and-launch -- can still satisfy the "directory-upserted (if
// missing)" event ordering scenario S1 describes, without requiring
// callers to sequence a directory.upsert first.
func (c *conn) ensureDirectory(scope record.Scope, directoryID string) error {
	if ss := c.server.Store.GetState().Scopes[scope]; ss != nil {
		if _, ok := ss.Directories[record.DirectoryID(directoryID)]; ok {
			return nil
		}
	}
	ev := reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"directoryId": directoryID,
			"path":        directoryID,
			"scope":       scopeMap(scope),
			"createdAt":   nowRFC3339(),
		},
	}
	_, _, err := c.server.emit(ev)
	if err != nil {
		return err
	}
	if dir := c.server.Store.GetState().Scopes[scope].Directories[record.DirectoryID(directoryID)]; dir != nil {
		return c.server.DB.UpsertDirectory(dir)
	}
	return nil
}

// ensureConversation creates conv (if absent) in the given scope, upserting
// the directory stub if needed is the caller's responsibility; returns the
// resulting conversation record.
func (c *conn) ensureConversation(scope record.Scope, id record.ConversationID, directoryID, title, agentType string) (*record.Conversation, error) {
	if ss := c.server.Store.GetState().Scopes[scope]; ss != nil {
		if conv, ok := ss.Conversations[id]; ok {
			return conv, nil
		}
	}
	now := nowRFC3339()
	ev := reduce.Event{
		Kind:  reduce.KindConversationCreated,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"conversationId": string(id),
			"directoryId":    directoryID,
			"title":          title,
			"agentType":      agentType,
			"scope":          scopeMap(scope),
			"createdAt":      now,
			"updatedAt":      now,
		},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, err
	}
	conv := c.server.Store.GetState().Scopes[scope].Conversations[id]
	if err := c.server.DB.UpsertConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (c *conn) handleConversationCreate(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[conversationCreateArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.DirectoryID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "directoryId required")
	}
	id := args.ConversationID
	if id == "" {
		id = newID("conv")
	}
	scope := c.currentScope()

	if ss := c.server.Store.GetState().Scopes[scope]; ss != nil {
		if _, ok := ss.Conversations[record.ConversationID(id)]; ok {
			return nil, wire.NewError(wire.ErrConflict, "conversation already exists")
		}
	}

	if err := c.ensureDirectory(scope, args.DirectoryID); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	conv, err := c.ensureConversation(scope, record.ConversationID(id), args.DirectoryID, args.Title, args.AgentType)
	if err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return conv, nil
}

func (c *conn) handleConversationList(cmd wire.Command) (any, *wire.Error) {
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return []any{}, nil
	}
	out := make([]*record.Conversation, 0, len(ss.Conversations))
	for _, conv := range ss.Conversations {
		out = append(out, conv)
	}
	return out, nil
}

type conversationUpdateArgs struct {
	ConversationID string  `json:"conversationId"`
	Title          *string `json:"title"`
	AgentType      *string `json:"agentType"`
}

func (c *conn) handleConversationUpdate(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[conversationUpdateArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.ConversationID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "conversationId required")
	}
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "conversation not found")
	}
	existing, ok := ss.Conversations[record.ConversationID(args.ConversationID)]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "conversation not found")
	}

	title := existing.Title
	if args.Title != nil {
		title = *args.Title
	}
	agentType := existing.AgentType
	if args.AgentType != nil {
		agentType = *args.AgentType
	}

	ev := reduce.Event{
		Kind:  reduce.KindConversationUpdated,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"conversationId":     args.ConversationID,
			"directoryId":        string(existing.DirectoryID),
			"title":              title,
			"agentType":          agentType,
			"adapterState":       string(existing.AdapterState),
			"runtimeStatus":      string(existing.RuntimeStatus),
			"runtimeStatusModel": existing.RuntimeStatusModel,
			"runtimeLive":        existing.RuntimeLive,
			"scope":              scopeMap(scope),
			"createdAt":          existing.CreatedAt.UTC().Format(time.RFC3339),
			"updatedAt":          nowRFC3339(),
		},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	conv := c.server.Store.GetState().Scopes[scope].Conversations[record.ConversationID(args.ConversationID)]
	if err := c.server.DB.UpsertConversation(conv); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return conv, nil
}

type conversationArchiveArgs struct {
	ConversationID string `json:"conversationId"`
}

func (c *conn) handleConversationArchive(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[conversationArchiveArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.ConversationID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "conversationId required")
	}
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "conversation not found")
	}
	if _, ok := ss.Conversations[record.ConversationID(args.ConversationID)]; !ok {
		return nil, wire.NewError(wire.ErrNotFound, "conversation not found")
	}

	ev := reduce.Event{
		Kind:  reduce.KindConversationArchived,
		Scope: scope,
		Ts:    time.Now(),
		Data:  map[string]any{"conversationId": args.ConversationID},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	if err := c.server.DB.DeleteConversation(scope, record.ConversationID(args.ConversationID)); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return map[string]any{"conversationId": args.ConversationID, "archived": true}, nil
}

type conversationTitleRefreshArgs struct {
	ConversationID string `json:"conversationId"`
}

// handleConversationTitleRefresh answers asynchronously per Open Question 3:
// it schedules the title regeneration and returns immediately, emitting a
// separate conversation-updated event once the background NIM turn (see
// internal/nim) completes. With no TitleDriver registered on the server it
// reports {status:"skipped"} rather than blocking the caller.
func (c *conn) handleConversationTitleRefresh(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[conversationTitleRefreshArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.ConversationID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "conversationId required")
	}
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "conversation not found")
	}
	conv, ok := ss.Conversations[record.ConversationID(args.ConversationID)]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "conversation not found")
	}
	if c.server.TitleDriver == nil {
		return map[string]any{"status": "skipped", "reason": "no title summarizer configured"}, nil
	}

	go c.server.refreshConversationTitle(scope, record.ConversationID(args.ConversationID))
	return map[string]any{"status": "updated"}, nil
}

// refreshConversationTitle runs a one-shot NIM turn against TitleDriver
// with a fixed "summarize into a short title" prompt (no transcript
// content is sent), then emits
// conversation-updated with the result. Errors are logged and otherwise
// swallowed: title refresh is best-effort and must never surface as a
// command failure after the command already returned.
func (s *Server) refreshConversationTitle(scope record.Scope, id record.ConversationID) {
	session := nim.NewSession(nim.Config{UIMode: nim.ModeSeamless})
	session.RegisterProvider(s.TitleDriver)

	ui := session.SubscribeUI()
	defer session.UnsubscribeUI(ui)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if _, err := session.SendTurn(ctx, s.TitleDriver.ID(), "summarize this conversation into a short title", ""); err != nil {
		logging.Logger.Warn().Err(err).Str("component", "gwserver").Str("conversationId", string(id)).Msg("title refresh: send turn failed")
		return
	}

	var title string
	for {
		select {
		case ev, ok := <-ui:
			if !ok {
				return
			}
			if ev.Kind == nim.UITextMessage {
				title = strings.TrimSpace(ev.Text)
			}
			if ev.Kind == nim.UITurnFinished {
				goto done
			}
		case <-ctx.Done():
			goto done
		}
	}
done:
	if title == "" {
		return
	}

	ss, ok := s.Store.GetState().Scopes[scope]
	if !ok {
		return
	}
	existing, ok := ss.Conversations[id]
	if !ok || existing.Title == title {
		return
	}

	ev := reduce.Event{
		Kind:  reduce.KindConversationUpdated,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"conversationId":     string(id),
			"directoryId":        string(existing.DirectoryID),
			"title":              title,
			"agentType":          existing.AgentType,
			"adapterState":       string(existing.AdapterState),
			"runtimeStatus":      string(existing.RuntimeStatus),
			"runtimeStatusModel": existing.RuntimeStatusModel,
			"runtimeLive":        existing.RuntimeLive,
			"scope":              scopeMap(scope),
			"createdAt":          existing.CreatedAt.UTC().Format(time.RFC3339),
			"updatedAt":          nowRFC3339(),
		},
	}
	if _, _, err := s.emit(ev); err != nil {
		logging.Logger.Warn().Err(err).Str("component", "gwserver").Str("conversationId", string(id)).Msg("title refresh: emit failed")
		return
	}
	if conv := s.Store.GetState().Scopes[scope].Conversations[id]; conv != nil {
		if err := s.DB.UpsertConversation(conv); err != nil {
			logging.Logger.Warn().Err(err).Str("component", "gwserver").Str("conversationId", string(id)).Msg("title refresh: persist failed")
		}
	}
}
