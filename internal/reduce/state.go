// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package reduce implements the pure observed-event reducer that folds
// gateway events into the synced store's state.
package reduce

import "github.com/jmoyers/harness/internal/record"

// ScopedState holds every record visible within one tenant/user/workspace
// scope. Its four maps are independently copy-on-write: reducing an event
// that only touches conversations leaves Directories, Repositories and Tasks
// referentially identical to their pre-reduce values, so selectors that
// memoize on map identity skip recomputation.
type ScopedState struct {
	Directories   map[record.DirectoryID]*record.Directory
	Conversations map[record.ConversationID]*record.Conversation
	Repositories  map[record.RepositoryID]*record.Repository
	Tasks         map[record.TaskID]*record.Task
}

func newScopedState() *ScopedState {
	return &ScopedState{
		Directories:   map[record.DirectoryID]*record.Directory{},
		Conversations: map[record.ConversationID]*record.Conversation{},
		Repositories:  map[record.RepositoryID]*record.Repository{},
		Tasks:         map[record.TaskID]*record.Task{},
	}
}

func (s *ScopedState) clone() *ScopedState {
	return &ScopedState{
		Directories:   s.Directories,
		Conversations: s.Conversations,
		Repositories:  s.Repositories,
		Tasks:         s.Tasks,
	}
}

// State is the full observed-state tree, partitioned by Scope. A zero value
// is ready to use.
type State struct {
	Scopes map[record.Scope]*ScopedState
}

// New returns an empty State.
func New() State {
	return State{Scopes: map[record.Scope]*ScopedState{}}
}

func (st State) scopedOrEmpty(scope record.Scope) *ScopedState {
	if ss, ok := st.Scopes[scope]; ok {
		return ss
	}
	return newScopedState()
}

// cloneWithScope returns a State whose Scopes map is a shallow copy with
// scope replaced by ss. Every other scope's *ScopedState pointer is shared
// with the original state.
func (st State) cloneWithScope(scope record.Scope, ss *ScopedState) State {
	next := make(map[record.Scope]*ScopedState, len(st.Scopes)+1)
	for k, v := range st.Scopes {
		next[k] = v
	}
	next[scope] = ss
	return State{Scopes: next}
}
