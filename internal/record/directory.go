// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// Directory represents a project root on disk.
type Directory struct {
	ID         DirectoryID
	Scope      Scope
	Path       string
	CreatedAt  *time.Time
	ArchivedAt *time.Time
}

// ParseDirectory validates a wire payload into a Directory record.
func ParseDirectory(v any) (*Directory, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: directory: not an object", ErrInvalid)
	}

	id, ok := asString(m, "directoryId")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: directory: missing directoryId", ErrInvalid)
	}
	path, ok := asString(m, "path")
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: directory: missing path", ErrInvalid)
	}
	scope, err := parseScope(m)
	if err != nil {
		return nil, fmt.Errorf("%w: directory: %v", ErrInvalid, err)
	}

	createdAt, ok := parseOptionalTime(m, "createdAt")
	if !ok {
		return nil, fmt.Errorf("%w: directory: bad createdAt", ErrInvalid)
	}
	archivedAt, ok := parseOptionalTime(m, "archivedAt")
	if !ok {
		return nil, fmt.Errorf("%w: directory: bad archivedAt", ErrInvalid)
	}

	return &Directory{
		ID:         DirectoryID(id),
		Scope:      scope,
		Path:       path,
		CreatedAt:  createdAt,
		ArchivedAt: archivedAt,
	}, nil
}

func parseScope(m map[string]any) (Scope, error) {
	var s Scope
	if sc, ok := asMap(m, "scope"); ok {
		m = sc
	}
	tenantID, ok := asString(m, "tenantId")
	if !ok || tenantID == "" {
		return s, fmt.Errorf("missing tenantId")
	}
	userID, ok := asString(m, "userId")
	if !ok || userID == "" {
		return s, fmt.Errorf("missing userId")
	}
	workspaceID, ok := asString(m, "workspaceId")
	if !ok || workspaceID == "" {
		return s, fmt.Errorf("missing workspaceId")
	}
	return Scope{TenantID: tenantID, UserID: userID, WorkspaceID: workspaceID}, nil
}

func parseOptionalTime(m map[string]any, key string) (*time.Time, bool) {
	v, present := m[key]
	if !present || v == nil {
		return nil, true
	}
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
