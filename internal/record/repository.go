// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// RepositoryMetadata holds optional per-repository display hints.
type RepositoryMetadata struct {
	// HomePriority orders repositories on the home view when set. Nil means
	// unset; the zero value is a legitimate priority so a bare int can't
	// represent "unset" without ambiguity.
	HomePriority *int
}

// Repository represents a git repository known to the harness.
type Repository struct {
	ID            RepositoryID
	Scope         Scope
	Name          string
	RemoteURL     string
	DefaultBranch string
	Metadata      RepositoryMetadata
	CreatedAt     *time.Time
	ArchivedAt    *time.Time
}

// ParseRepository validates a wire payload into a Repository record.
func ParseRepository(v any) (*Repository, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: repository: not an object", ErrInvalid)
	}

	id, ok := asString(m, "repositoryId")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: repository: missing repositoryId", ErrInvalid)
	}
	name, ok := asString(m, "name")
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: repository: missing name", ErrInvalid)
	}
	remoteURL, ok := asOptionalString(m, "remoteUrl")
	if !ok {
		return nil, fmt.Errorf("%w: repository: bad remoteUrl", ErrInvalid)
	}
	defaultBranch, ok := asOptionalString(m, "defaultBranch")
	if !ok {
		return nil, fmt.Errorf("%w: repository: bad defaultBranch", ErrInvalid)
	}
	scope, err := parseScope(m)
	if err != nil {
		return nil, fmt.Errorf("%w: repository: %v", ErrInvalid, err)
	}

	var meta RepositoryMetadata
	if rawMeta, ok := asOptionalMap(m, "metadata"); ok && rawMeta != nil {
		priority, ok := asOptionalNonNegativeInt(rawMeta, "homePriority")
		if !ok {
			return nil, fmt.Errorf("%w: repository: bad metadata.homePriority", ErrInvalid)
		}
		meta.HomePriority = priority
	} else if !ok {
		return nil, fmt.Errorf("%w: repository: bad metadata", ErrInvalid)
	}

	createdAt, ok := parseOptionalTime(m, "createdAt")
	if !ok {
		return nil, fmt.Errorf("%w: repository: bad createdAt", ErrInvalid)
	}
	archivedAt, ok := parseOptionalTime(m, "archivedAt")
	if !ok {
		return nil, fmt.Errorf("%w: repository: bad archivedAt", ErrInvalid)
	}

	return &Repository{
		ID:            RepositoryID(id),
		Scope:         scope,
		Name:          name,
		RemoteURL:     remoteURL,
		DefaultBranch: defaultBranch,
		Metadata:      meta,
		CreatedAt:     createdAt,
		ArchivedAt:    archivedAt,
	}, nil
}

// Archived reports whether the repository is soft-archived.
func (r *Repository) Archived() bool { return r.ArchivedAt != nil }
