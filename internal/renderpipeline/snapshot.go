// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package renderpipeline implements the single-threaded, cooperative render
// orchestration contract shared by every UI client: a dirty flag set by
// store notifications, a snapshot read, composition into rows, and a
// diff-against-prior-screen flush. The contract is transport-agnostic —
// a terminal multiplexer client and a web client both drive it, supplying
// their own FlushFunc — and it never reads store state between the
// snapshot read and the flush.
package renderpipeline

import (
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/syncedstore"
)

// Snapshot is one identity-stable capture of everything a tick's render may
// read. Once captured it must not be mutated, and the pipeline must not
// re-read the store until the next tick.
type Snapshot struct {
	Directories          []*record.Directory
	Conversations        []syncedstore.ConversationSummary
	Repositories         []*record.Repository
	Tasks                []*record.Task
	TaskComposers        map[record.TaskID]string
	ProcessUsage         map[record.SessionID]Telemetry
	ActiveConversationID *record.ConversationID
}

// Telemetry is the per-session process usage the render snapshot carries.
// It is its own type, not record.Telemetry (whose fields differ), and
// renderpipeline has no compile-time dependency on the pty supervisor, so
// the renderer only ever sees a captured snapshot value.
type Telemetry struct {
	BytesOut   int64
	CPUPercent float64
	RSSBytes   int64
}

// Selection describes the current cursor/drag state fed to
// prepareRenderState; its shape is owned by whichever UI client is driving
// the pipeline (left-rail item under cursor, selection anchor, etc.) so it
// is carried here as an opaque value.
type Selection any

// SelectionDrag carries an in-progress mouse drag selection, also
// client-owned and opaque to the pipeline.
type SelectionDrag any
