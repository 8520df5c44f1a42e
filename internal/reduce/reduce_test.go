// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package reduce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/record"
)

var testScope = record.Scope{TenantID: "t1", UserID: "u1", WorkspaceID: "w1"}

func scoped(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+3)
	for k, v := range data {
		out[k] = v
	}
	out["tenantId"] = testScope.TenantID
	out["userId"] = testScope.UserID
	out["workspaceId"] = testScope.WorkspaceID
	return out
}

func TestReduce_DirectoryUpsert(t *testing.T) {
	state := New()
	res := Reduce(state, Event{
		Kind:  KindDirectoryUpserted,
		Scope: testScope,
		Ts:    time.Now(),
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	})
	require.True(t, res.Changed)
	assert.Equal(t, []record.DirectoryID{"dir-1"}, res.UpsertedDirectoryIDs)
	assert.Contains(t, res.State.Scopes[testScope].Directories, record.DirectoryID("dir-1"))
}

func TestReduce_MalformedEventIsNoOp(t *testing.T) {
	state := New()
	res := Reduce(state, Event{
		Kind:  KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"path": "/a"}), // missing directoryId
	})
	assert.False(t, res.Changed)
	assert.Equal(t, state, res.State)
}

func TestReduce_UnknownKindIsNoOp(t *testing.T) {
	state := New()
	res := Reduce(state, Event{Kind: "not-a-real-kind", Scope: testScope})
	assert.False(t, res.Changed)
}

func TestReduce_IdentityPreservationForUntouchedSubmaps(t *testing.T) {
	state := New()
	res1 := Reduce(state, Event{
		Kind:  KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	})
	require.True(t, res1.Changed)

	res2 := Reduce(res1.State, Event{
		Kind:  KindRepositoryUpserted,
		Scope: testScope,
		Data: scoped(map[string]any{
			"repositoryId":  "repo-1",
			"name":          "harness",
			"remoteUrl":     "git@example.com:org/harness.git",
			"defaultBranch": "main",
		}),
	})
	require.True(t, res2.Changed)

	before := res1.State.Scopes[testScope]
	after := res2.State.Scopes[testScope]
	assert.NotSame(t, before, after, "scoped state pointer must change when scope is touched")

	assert.True(t, sameDirectoriesMap(before.Directories, after.Directories),
		"directories map must be referentially identical when only repositories changed")
}

func sameDirectoriesMap(a, b map[record.DirectoryID]*record.Directory) bool {
	// Compare via a side channel: mutate neither; just check the two map
	// headers reference the same backing data by comparing addresses of a
	// shared key's value pointer across both, plus length as sanity.
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || bv != v {
			return false
		}
	}
	return true
}

func TestReduce_DirectoryArchivedCascadesConversations(t *testing.T) {
	state := New()
	res := Reduce(state, Event{
		Kind:  KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	})
	require.True(t, res.Changed)
	state = res.State

	res = Reduce(state, Event{
		Kind:  KindConversationCreated,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-1",
			"directoryId":    "dir-1",
			"createdAt":      "2026-01-01T00:00:00Z",
			"updatedAt":      "2026-01-01T00:00:00Z",
		}),
	})
	require.True(t, res.Changed)
	state = res.State
	require.Contains(t, state.Scopes[testScope].Conversations, record.ConversationID("conv-1"))

	res = Reduce(state, Event{
		Kind:  KindDirectoryArchived,
		Scope: testScope,
		Ts:    time.Now(),
		Data:  scoped(map[string]any{"directoryId": "dir-1"}),
	})
	require.True(t, res.Changed)
	assert.Equal(t, []record.ConversationID{"conv-1"}, res.RemovedConversationIDs)
	assert.NotContains(t, res.State.Scopes[testScope].Conversations, record.ConversationID("conv-1"))
	assert.NotNil(t, res.State.Scopes[testScope].Directories["dir-1"].ArchivedAt)
}

func TestReduce_TaskReordered(t *testing.T) {
	state := New()

	t.Run("all-invalid is a no-op", func(t *testing.T) {
		res := Reduce(state, Event{
			Kind:  KindTaskReordered,
			Scope: testScope,
			Data: scoped(map[string]any{
				"tasks": []any{"not-an-object", 42},
			}),
		})
		assert.False(t, res.Changed)
	})

	t.Run("partial success upserts the valid ones", func(t *testing.T) {
		res := Reduce(state, Event{
			Kind:  KindTaskReordered,
			Scope: testScope,
			Data: scoped(map[string]any{
				"tasks": []any{
					"garbage",
					scoped(map[string]any{
						"taskId":     "task-1",
						"title":      "a",
						"status":     "ready",
						"orderIndex": float64(0),
						"createdAt":  "2026-01-01T00:00:00Z",
						"updatedAt":  "2026-01-01T00:00:00Z",
					}),
				},
			}),
		})
		require.True(t, res.Changed)
		assert.Equal(t, []record.TaskID{"task-1"}, res.UpsertedTaskIDs)
	})
}

func TestReduce_SessionStatusNoOpWhenConversationAbsent(t *testing.T) {
	state := New()
	res := Reduce(state, Event{
		Kind:  KindSessionStatus,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-missing",
			"runtimeStatus":  "running",
		}),
	})
	assert.False(t, res.Changed)
}

func TestReduce_SessionStatusUpdatesConversation(t *testing.T) {
	state := New()
	res := Reduce(state, Event{
		Kind:  KindConversationCreated,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-1",
			"directoryId":    "dir-1",
			"createdAt":      "2026-01-01T00:00:00Z",
			"updatedAt":      "2026-01-01T00:00:00Z",
		}),
	})
	require.True(t, res.Changed)
	state = res.State

	res = Reduce(state, Event{
		Kind:  KindSessionStatus,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-1",
			"runtimeStatus":  "needs-input",
		}),
	})
	require.True(t, res.Changed)
	assert.Equal(t, record.RuntimeNeedsInput, res.State.Scopes[testScope].Conversations["conv-1"].RuntimeStatus)
}
