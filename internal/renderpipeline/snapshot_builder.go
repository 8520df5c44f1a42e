// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package renderpipeline

import (
	"sort"

	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
	"github.com/jmoyers/harness/internal/syncedstore"
)

// SnapshotBuilder captures one Snapshot per tick from a single scope's
// slice of the synced store, reusing the store's own memoized selectors so
// a tick that only touched tasks does not re-walk the conversation map.
type SnapshotBuilder struct {
	scope record.Scope

	conversations *syncedstore.ConversationListSelector
	tasks         *syncedstore.TaskListSelector
	directories   *syncedstore.DirectoryListSelector

	taskComposers map[record.TaskID]string
	processUsage  map[record.SessionID]Telemetry
	activeConvID  *record.ConversationID
}

// NewSnapshotBuilder returns a builder scoped to one tenant/user/workspace
// triple. TaskComposers and ProcessUsage are supplied by the caller (they
// are UI-local, not store-derived) via SetTaskComposers/SetProcessUsage;
// SetActiveConversation records which conversation, if any, is focused.
func NewSnapshotBuilder(scope record.Scope) *SnapshotBuilder {
	return &SnapshotBuilder{
		scope:         scope,
		conversations: syncedstore.NewConversationListSelector(),
		tasks:         syncedstore.NewTaskListSelector(),
		directories:   syncedstore.NewDirectoryListSelector(),
	}
}

// SetTaskComposers records the in-progress per-task composer text shown in
// the task editor overlay.
func (b *SnapshotBuilder) SetTaskComposers(m map[record.TaskID]string) {
	b.taskComposers = m
}

// SetProcessUsage records the latest per-session telemetry sample.
func (b *SnapshotBuilder) SetProcessUsage(m map[record.SessionID]Telemetry) {
	b.processUsage = m
}

// SetActiveConversation records the conversation currently focused by the
// UI, or nil.
func (b *SnapshotBuilder) SetActiveConversation(id *record.ConversationID) {
	b.activeConvID = id
}

// Build implements SnapshotFunc: one identity-stable capture per tick.
func (b *SnapshotBuilder) Build(state reduce.State) Snapshot {
	convs := b.conversations.Select(state, b.scope)
	tasks := b.tasks.Select(state, b.scope)
	dirs := b.directories.Select(state, b.scope)

	var repos []*record.Repository
	if ss, ok := state.Scopes[b.scope]; ok {
		repos = make([]*record.Repository, 0, len(ss.Repositories))
		for _, r := range ss.Repositories {
			repos = append(repos, r)
		}
		sort.Slice(repos, func(i, j int) bool { return repos[i].ID < repos[j].ID })
	}

	return Snapshot{
		Directories:          dirs,
		Conversations:        convs,
		Repositories:         repos,
		Tasks:                tasks,
		TaskComposers:        b.taskComposers,
		ProcessUsage:         b.processUsage,
		ActiveConversationID: b.activeConvID,
	}
}
