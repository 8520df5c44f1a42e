// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/jmoyers/harness/internal/record"
)

// RepositoryClient provides access to repository.* commands.
type RepositoryClient struct{ c *Client }

// UpsertParams are the fields accepted by Upsert and Update.
type UpsertParams struct {
	RepositoryID  string
	Name          string
	RemoteURL     string
	DefaultBranch string
	HomePriority  *int
}

func (p UpsertParams) args() map[string]any {
	m := map[string]any{
		"repositoryId":  p.RepositoryID,
		"name":          p.Name,
		"remoteUrl":     p.RemoteURL,
		"defaultBranch": p.DefaultBranch,
	}
	if p.HomePriority != nil {
		m["metadata"] = map[string]any{"homePriority": *p.HomePriority}
	}
	return m
}

// List returns every repository in the caller's scope.
func (r *RepositoryClient) List(ctx context.Context) ([]*record.Repository, error) {
	var out []*record.Repository
	if err := r.c.Call(ctx, "repository.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert creates or updates a repository. An empty RepositoryID mints a
// new one.
func (r *RepositoryClient) Upsert(ctx context.Context, p UpsertParams) (*record.Repository, error) {
	var out record.Repository
	if err := r.c.Call(ctx, "repository.upsert", p.args(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits an existing repository's fields.
func (r *RepositoryClient) Update(ctx context.Context, p UpsertParams) (*record.Repository, error) {
	var out record.Repository
	if err := r.c.Call(ctx, "repository.update", p.args(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Archive marks a repository archived.
func (r *RepositoryClient) Archive(ctx context.Context, repositoryID string) (*record.Repository, error) {
	var out record.Repository
	if err := r.c.Call(ctx, "repository.archive", map[string]any{"repositoryId": repositoryID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
