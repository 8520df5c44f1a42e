// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"time"

	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/wire"
)

func (c *conn) handleRepositoryList(cmd wire.Command) (any, *wire.Error) {
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return []any{}, nil
	}
	out := make([]*record.Repository, 0, len(ss.Repositories))
	for _, r := range ss.Repositories {
		out = append(out, r)
	}
	return out, nil
}

type repositoryUpsertArgs struct {
	RepositoryID  string `json:"repositoryId"`
	Name          string `json:"name"`
	RemoteURL     string `json:"remoteUrl"`
	DefaultBranch string `json:"defaultBranch"`
	Metadata      struct {
		HomePriority *int `json:"homePriority"`
	} `json:"metadata"`
}

func (c *conn) handleRepositoryUpsert(cmd wire.Command) (any, *wire.Error) {
	return c.upsertRepository(cmd, reduce.KindRepositoryUpserted)
}

func (c *conn) handleRepositoryUpdate(cmd wire.Command) (any, *wire.Error) {
	return c.upsertRepository(cmd, reduce.KindRepositoryUpdated)
}

func (c *conn) upsertRepository(cmd wire.Command, kind reduce.Kind) (any, *wire.Error) {
	args, argErr := decodeArgs[repositoryUpsertArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.Name == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "name required")
	}
	id := args.RepositoryID
	if id == "" {
		id = newID("repo")
	}
	scope := c.currentScope()

	createdAt := nowRFC3339()
	if existing := c.server.Store.GetState().Scopes[scope]; existing != nil {
		if repo, ok := existing.Repositories[record.RepositoryID(id)]; ok && repo.CreatedAt != nil {
			createdAt = repo.CreatedAt.UTC().Format(time.RFC3339)
		}
	}

	data := map[string]any{
		"repositoryId":  id,
		"name":          args.Name,
		"remoteUrl":     args.RemoteURL,
		"defaultBranch": args.DefaultBranch,
		"scope":         scopeMap(scope),
		"createdAt":     createdAt,
	}
	if args.Metadata.HomePriority != nil {
		data["metadata"] = map[string]any{"homePriority": *args.Metadata.HomePriority}
	}

	ev := reduce.Event{Kind: kind, Scope: scope, Ts: time.Now(), Data: data}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	repo, ok := c.server.Store.GetState().Scopes[scope].Repositories[record.RepositoryID(id)]
	if !ok {
		return nil, wire.NewError(wire.ErrInternal, "repository upsert did not apply")
	}
	if err := c.server.DB.UpsertRepository(repo); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return repo, nil
}

type repositoryArchiveArgs struct {
	RepositoryID string `json:"repositoryId"`
}

func (c *conn) handleRepositoryArchive(cmd wire.Command) (any, *wire.Error) {
	args, argErr := decodeArgs[repositoryArchiveArgs](cmd)
	if argErr != nil {
		return nil, argErr
	}
	if args.RepositoryID == "" {
		return nil, wire.NewError(wire.ErrBadRequest, "repositoryId required")
	}
	scope := c.currentScope()
	ss, ok := c.server.Store.GetState().Scopes[scope]
	if !ok {
		return nil, wire.NewError(wire.ErrNotFound, "repository not found")
	}
	if _, ok := ss.Repositories[record.RepositoryID(args.RepositoryID)]; !ok {
		return nil, wire.NewError(wire.ErrNotFound, "repository not found")
	}

	ev := reduce.Event{
		Kind:  reduce.KindRepositoryArchived,
		Scope: scope,
		Ts:    time.Now(),
		Data: map[string]any{
			"repositoryId": args.RepositoryID,
			"archivedAt":   nowRFC3339(),
		},
	}
	if _, _, err := c.server.emit(ev); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}

	repo := c.server.Store.GetState().Scopes[scope].Repositories[record.RepositoryID(args.RepositoryID)]
	if err := c.server.DB.UpsertRepository(repo); err != nil {
		return nil, wire.NewError(wire.ErrStorageError, err.Error())
	}
	return repo, nil
}
