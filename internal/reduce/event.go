// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"time"

	"github.com/jmoyers/harness/internal/record"
)

// Kind identifies an observed-event variant the reducer understands.
type Kind string

const (
	KindDirectoryUpserted    Kind = "directory-upserted"
	KindDirectoryArchived    Kind = "directory-archived"
	KindConversationCreated  Kind = "conversation-created"
	KindConversationUpdated  Kind = "conversation-updated"
	KindConversationArchived Kind = "conversation-archived"
	KindConversationDeleted  Kind = "conversation-deleted"
	KindRepositoryUpserted   Kind = "repository-upserted"
	KindRepositoryUpdated    Kind = "repository-updated"
	KindRepositoryArchived   Kind = "repository-archived"
	KindTaskCreated          Kind = "task-created"
	KindTaskUpdated          Kind = "task-updated"
	KindTaskDeleted          Kind = "task-deleted"
	KindTaskReordered        Kind = "task-reordered"
	KindSessionStatus        Kind = "session-status"
)

// Event is one observed-state change delivered by the gateway. Data carries
// the kind-specific wire payload; every event also carries a scope and a
// timestamp regardless of kind.
type Event struct {
	Kind  Kind
	Scope record.Scope
	Ts    time.Time
	Data  map[string]any
}
