// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/wire"
)

// decodeArgs unmarshals cmd.Args into T, wrapping any failure as a
// bad_request error per the spec's command-validation step.
func decodeArgs[T any](cmd wire.Command) (T, *wire.Error) {
	var args T
	if len(cmd.Args) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(cmd.Args, &args); err != nil {
		return args, wire.NewError(wire.ErrBadRequest, "malformed args: "+err.Error())
	}
	return args, nil
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// dispatch routes cmd to its handler. It never itself returns a Go error:
// every failure mode is expressed as a *wire.Error per the command
// contract.
func (c *conn) dispatch(cmd wire.Command) (any, *wire.Error) {
	switch cmd.Type {
	case "hello":
		return c.handleHello(cmd)

	case "pty.start":
		return c.handlePTYStart(cmd)
	case "pty.attach":
		return c.handlePTYAttach(cmd)
	case "pty.detach":
		return c.handlePTYDetach(cmd)
	case "pty.subscribe-events":
		return c.handlePTYSubscribeEvents(cmd)
	case "pty.unsubscribe-events":
		return c.handlePTYUnsubscribeEvents(cmd)
	case "pty.close":
		return c.handlePTYClose(cmd)

	case "session.respond":
		return c.handleSessionRespond(cmd)
	case "session.interrupt":
		return c.handleSessionInterrupt(cmd)
	case "session.claim":
		return c.handleSessionClaim(cmd)
	case "session.remove":
		return c.handleSessionRemove(cmd)
	case "session.list":
		return c.handleSessionList(cmd)
	case "session.status":
		return c.handleSessionStatus(cmd)

	case "directory.upsert":
		return c.handleDirectoryUpsert(cmd)
	case "directory.list":
		return c.handleDirectoryList(cmd)
	case "directory.archive":
		return c.handleDirectoryArchive(cmd)
	case "directory.git-status":
		return c.handleDirectoryGitStatus(cmd)

	case "repository.list":
		return c.handleRepositoryList(cmd)
	case "repository.upsert":
		return c.handleRepositoryUpsert(cmd)
	case "repository.update":
		return c.handleRepositoryUpdate(cmd)
	case "repository.archive":
		return c.handleRepositoryArchive(cmd)

	case "conversation.create":
		return c.handleConversationCreate(cmd)
	case "conversation.list":
		return c.handleConversationList(cmd)
	case "conversation.update":
		return c.handleConversationUpdate(cmd)
	case "conversation.title.refresh":
		return c.handleConversationTitleRefresh(cmd)
	case "conversation.archive":
		return c.handleConversationArchive(cmd)

	case "task.list":
		return c.handleTaskList(cmd)
	case "task.create":
		return c.handleTaskCreate(cmd)
	case "task.update":
		return c.handleTaskUpdate(cmd)
	case "task.ready":
		return c.handleTaskTransition(cmd, record.TaskReady)
	case "task.draft":
		return c.handleTaskTransition(cmd, record.TaskDraft)
	case "task.complete":
		return c.handleTaskTransition(cmd, record.TaskCompleted)
	case "task.reorder":
		return c.handleTaskReorder(cmd)
	case "task.delete":
		return c.handleTaskDelete(cmd)

	case "render-trace.start":
		return c.handleRenderTraceStart(cmd)
	case "render-trace.stop":
		return c.handleRenderTraceStop(cmd)

	case "profile.start":
		return c.handleProfileStart(cmd)
	case "profile.stop":
		return c.handleProfileStop(cmd)

	default:
		return nil, wire.NewError(wire.ErrBadRequest, "unknown command type: "+cmd.Type)
	}
}

type helloArgs struct {
	AuthToken   string `json:"authToken"`
	TenantID    string `json:"tenantId"`
	UserID      string `json:"userId"`
	WorkspaceID string `json:"workspaceId"`
}

func (c *conn) handleHello(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[helloArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.AuthToken != c.server.AuthToken {
		return nil, wire.NewError(wire.ErrAuthFailed, "bad auth token")
	}
	scope := scopeFromTriple(args.TenantID, args.UserID, args.WorkspaceID)
	if !scope.Valid() {
		return nil, wire.NewError(wire.ErrBadRequest, "tenantId/userId/workspaceId required")
	}

	c.mu.Lock()
	c.helloDone = true
	c.scope = scope
	c.subscribed = true
	c.mu.Unlock()

	return map[string]any{"gatewayStartedAt": c.server.StartedAt.UTC().Format(time.RFC3339)}, nil
}
