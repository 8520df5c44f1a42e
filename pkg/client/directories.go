// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"

	"github.com/jmoyers/harness/internal/record"
)

// DirectoryClient provides access to directory.* commands. Directories are
// project roots on disk that conversations and sessions are scoped under.
type DirectoryClient struct{ c *Client }

// Upsert creates or updates a directory. An empty directoryID mints a new
// one.
func (d *DirectoryClient) Upsert(ctx context.Context, directoryID, path string) (*record.Directory, error) {
	var out record.Directory
	if err := d.c.Call(ctx, "directory.upsert", map[string]any{
		"directoryId": directoryID,
		"path":        path,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns every directory in the caller's scope.
func (d *DirectoryClient) List(ctx context.Context) ([]*record.Directory, error) {
	var out []*record.Directory
	if err := d.c.Call(ctx, "directory.list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Archive marks a directory archived, cascading to its conversations.
func (d *DirectoryClient) Archive(ctx context.Context, directoryID string) (*record.Directory, error) {
	var out record.Directory
	if err := d.c.Call(ctx, "directory.archive", map[string]any{"directoryId": directoryID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GitFileStat is one changed path from `git status --porcelain`.
type GitFileStat struct {
	Path string `json:"path"`
	XY   string `json:"xy"`
}

// GitStatus is the best-effort porcelain-v1 summary of a directory's
// working tree. A git invocation failure (not a repo, git missing) comes
// back as a clean, branchless status rather than an error.
type GitStatus struct {
	Branch string        `json:"branch"`
	Clean  bool          `json:"clean"`
	Files  []GitFileStat `json:"files"`
}

// GitStatus fetches the directory's current git porcelain status.
func (d *DirectoryClient) GitStatus(ctx context.Context, directoryID string) (*GitStatus, error) {
	var out GitStatus
	if err := d.c.Call(ctx, "directory.git-status", map[string]any{"directoryId": directoryID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
