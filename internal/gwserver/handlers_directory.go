// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"time"

	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/wire"
)

type directoryUpsertArgs struct {
	DirectoryID string `json:"directoryId"`
	Path        string `json:"path"`
}

func (c *conn) handleDirectoryUpsert(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[directoryUpsertArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.Path == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "path required")
	}
	id := args.DirectoryID
	if id == "" {
		id = newID("dir")
	}

	scope := c.currentScope()
	existing := c.server.Store.GetState().Scopes[scope]
	createdAt := nowRFC3339()
	if existing != nil {
		if dir, ok := existing.Directories[record.DirectoryID(id)]; ok && dir.CreatedAt != nil {
			createdAt = dir.CreatedAt.UTC().Format(time.RFC3339)
		}
	}

	ev := reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"directoryId": id,
			"path":        args.Path,
			"scope":       scopeMap(scope),
			"createdAt":   createdAt,
		},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	dir, ok := c.server.Store.GetState().Scopes[scope].Directories[record.DirectoryID(id)]
	if !ok {
		return nil, wire.NewError(wire.ErrInternal, "directory upsert did not apply")
	}
	if err := c.server.DB.UpsertDirectory(dir); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return dir, nil
}

func (c *conn) handleDirectoryList(cmd wire.Command) (any, *wire.Error) {
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return []any{}, nil
	}
	out := make([]*record.Directory, 0, len(ss.Directories))
	for _, d := range ss.Directories {
		out = append(out, d)
	}
	return out, nil
}

type directoryArchiveArgs struct {
	DirectoryID string `json:"directoryId"`
}

func (c *conn) handleDirectoryArchive(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[directoryArchiveArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.DirectoryID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "directoryId required")
	}
	scope := c.currentScope()

	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "directory not found")
	}
	dir, ok := ss.Directories[record.DirectoryID(args.DirectoryID)]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "directory not found")
	}

	var removedConvIDs []record.ConversationID
	for id, conv := range ss.Conversations {
		if conv.DirectoryID == dir.ID {
			removedConvIDs = append(removedConvIDs, id)
		}
	}

	ev := reduce.Event{
		Kind:  reduce.KindDirectoryArchived,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"directoryId": args.DirectoryID,
			"archivedAt":  nowRFC3339(),
		},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	updated := c.server.Store.GetState().Scopes[scope].Directories[dir.ID]
	if err := c.server.DB.UpsertDirectory(updated); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	for _, id := range removedConvIDs {
		if err := c.server.DB.DeleteConversation(scope, id); err != nil {
			return nil, wire.NewError(wire.ErrStorageError, err.Error())
		}
	}
	return updated, nil
}

type directoryGitStatusArgs struct {
	DirectoryID string `json:"directoryId"`
}

// handleDirectoryGitStatus shells out to `git status --porcelain` in the
// directory's path. It is a thin, best-effort convenience: a failing git
// invocation (not a repo, git missing) is reported as an empty, clean
// status rather than a command error, since the caller cannot act on the
// difference.
func (c *conn) handleDirectoryGitStatus(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[directoryGitStatusArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.DirectoryID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "directoryId required")
	}
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "directory not found")
	}
	dir, ok := ss.Directories[record.DirectoryID(args.DirectoryID)]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "directory not found")
	}
	return gitPorcelainStatus(dir.Path), nil
}

func scopeMap(s record.Scope) map[string]any {
	return map[string]any{
		"tenantId":    s.TenantID,
		"userId":      s.UserID,
		"workspaceId": s.WorkspaceID,
	}
}

func (c *conn) currentScope() record.Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}
