// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package syncedstore

import (
	"reflect"
	"sort"

	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
)

// ConversationSummary is the list-view projection of a Conversation.
type ConversationSummary struct {
	ID            record.ConversationID
	DirectoryID   record.DirectoryID
	Title         string
	AgentType     string
	RuntimeStatus record.RuntimeStatus
	Phase         *record.SessionPhase
	ActivityHint  *string
}

// ConversationListSelector is a stateful closure that memoizes its
// projection of a scope's conversation map by the map's identity. It is
// safe for use by a single subscriber goroutine only: like every selector
// here, it is not internally locked.
type ConversationListSelector struct {
	lastInput  map[record.ConversationID]*record.Conversation
	lastOutput []ConversationSummary
}

// NewConversationListSelector returns a fresh, unmemoized selector.
func NewConversationListSelector() *ConversationListSelector {
	return &ConversationListSelector{}
}

// Select projects scope's conversation list, sorted lexicographically by
// id. If the underlying map is identity-equal to the last call's, the
// memoized output is returned without recomputation.
func (s *ConversationListSelector) Select(state reduce.State, scope record.Scope) []ConversationSummary {
	ss, ok := state.Scopes[scope]
	if !ok {
		return nil
	}
	if sameMap(s.lastInput, ss.Conversations) {
		return s.lastOutput
	}

	out := make([]ConversationSummary, 0, len(ss.Conversations))
	for _, c := range ss.Conversations {
		summary := ConversationSummary{
			ID:            c.ID,
			DirectoryID:   c.DirectoryID,
			Title:         c.Title,
			AgentType:     c.AgentType,
			RuntimeStatus: c.RuntimeStatus,
		}
		if c.LatestStatusModel != nil {
			phase := c.LatestStatusModel.Phase
			summary.Phase = &phase
			if c.LatestStatusModel.ActivityHint != "" {
				hint := c.LatestStatusModel.ActivityHint
				summary.ActivityHint = &hint
			}
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	s.lastInput = ss.Conversations
	s.lastOutput = out
	return out
}

// TaskListSelector memoizes its projection of a scope's task map by map
// identity, same discipline as ConversationListSelector.
type TaskListSelector struct {
	lastInput  map[record.TaskID]*record.Task
	lastOutput []*record.Task
}

// NewTaskListSelector returns a fresh, unmemoized selector.
func NewTaskListSelector() *TaskListSelector {
	return &TaskListSelector{}
}

// Select projects scope's task list sorted by (orderIndex asc, taskId asc).
func (s *TaskListSelector) Select(state reduce.State, scope record.Scope) []*record.Task {
	ss, ok := state.Scopes[scope]
	if !ok {
		return nil
	}
	if sameMap(s.lastInput, ss.Tasks) {
		return s.lastOutput
	}

	out := make([]*record.Task, 0, len(ss.Tasks))
	for _, t := range ss.Tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})

	s.lastInput = ss.Tasks
	s.lastOutput = out
	return out
}

// DirectoryListSelector memoizes its projection of a scope's directory map
// by map identity.
type DirectoryListSelector struct {
	lastInput  map[record.DirectoryID]*record.Directory
	lastOutput []*record.Directory
}

// NewDirectoryListSelector returns a fresh, unmemoized selector.
func NewDirectoryListSelector() *DirectoryListSelector {
	return &DirectoryListSelector{}
}

// Select projects scope's directory list sorted by id.
func (s *DirectoryListSelector) Select(state reduce.State, scope record.Scope) []*record.Directory {
	ss, ok := state.Scopes[scope]
	if !ok {
		return nil
	}
	if sameMap(s.lastInput, ss.Directories) {
		return s.lastOutput
	}

	out := make([]*record.Directory, 0, len(ss.Directories))
	for _, d := range ss.Directories {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	s.lastInput = ss.Directories
	s.lastOutput = out
	return out
}

// ConversationByIDSelector memoizes a single conversation lookup by the
// owning map's identity, not the conversation pointer itself: an upsert
// elsewhere in the scope still produces a new Conversations map, so a
// pointer-identity check alone would suffice too, but keying off the map
// keeps it consistent with the other selectors here.
type ConversationByIDSelector struct {
	id         record.ConversationID
	lastInput  map[record.ConversationID]*record.Conversation
	lastOutput *record.Conversation
}

// SelectConversationByID returns a selector memoized for one conversation
// id.
func SelectConversationByID(id record.ConversationID) *ConversationByIDSelector {
	return &ConversationByIDSelector{id: id}
}

// Select returns the conversation, or nil if absent in scope.
func (s *ConversationByIDSelector) Select(state reduce.State, scope record.Scope) *record.Conversation {
	ss, ok := state.Scopes[scope]
	if !ok {
		return nil
	}
	if sameMap(s.lastInput, ss.Conversations) {
		return s.lastOutput
	}
	s.lastInput = ss.Conversations
	s.lastOutput = ss.Conversations[s.id]
	return s.lastOutput
}

// sameMap reports whether a and b are the same underlying map value. Maps
// are reference types in Go; reflect.Value.Pointer gives the address of
// the runtime map header, which package reduce's copy-on-write discipline
// guarantees is unchanged for any submap the current event didn't touch.
func sameMap[K comparable, V any](a, b map[K]V) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
