// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package syncedstore

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
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

func TestStore_ApplyObserved_CursorOrdering(t *testing.T) {
	s := New()
	ev := reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: testScope,
		Ts:    time.Now(),
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	}

	require.True(t, s.ApplyObserved("sub-1", 0, ev))
	require.False(t, s.ApplyObserved("sub-1", 0, ev), "replayed cursor rejected")
}

func TestStore_ApplyObserved_NoOpDoesNotNotify(t *testing.T) {
	s := New()
	notified := 0
	unsub := s.Subscribe(func(reduce.State) { notified++ })
	defer unsub()

	ev := reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"path": "/a"}), // missing directoryId: no-op
	}
	accepted := s.ApplyObserved("sub-1", 0, ev)
	assert.False(t, accepted)
	assert.Equal(t, 0, notified)
}

func TestStore_Subscribe_Unsubscribe(t *testing.T) {
	s := New()
	notified := 0
	unsub := s.Subscribe(func(reduce.State) { notified++ })

	ev := reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	}
	require.True(t, s.ApplyObserved("sub-1", 0, ev))
	assert.Equal(t, 1, notified)

	unsub()
	ev.Data = scoped(map[string]any{"directoryId": "dir-2", "path": "/b"})
	require.True(t, s.ApplyObserved("sub-1", 1, ev))
	assert.Equal(t, 1, notified, "unsubscribed listener must not fire again")
}

func TestConversationListSelector_Memoization(t *testing.T) {
	s := New()
	sel := NewConversationListSelector()

	require.True(t, s.ApplyObserved("sub-1", 0, reduce.Event{
		Kind:  reduce.KindConversationCreated,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-1",
			"directoryId":    "dir-1",
			"createdAt":      "2026-01-01T00:00:00Z",
			"updatedAt":      "2026-01-01T00:00:00Z",
		}),
	}))
	out1 := sel.Select(s.GetState(), testScope)
	require.Len(t, out1, 1)

	// Only a directory changes next: the selector's memoized conversation
	// map identity is untouched, so it must return the exact same slice.
	require.True(t, s.ApplyObserved("sub-1", 1, reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	}))
	out2 := sel.Select(s.GetState(), testScope)
	assert.True(t, sameSlice(out1, out2))
}

func sameSlice[T any](a, b []T) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.IsNil() || vb.IsNil() {
		return va.IsNil() && vb.IsNil()
	}
	return va.Pointer() == vb.Pointer()
}

func TestConversationListSelector_SortedByID(t *testing.T) {
	s := New()
	for _, id := range []string{"conv-b", "conv-a"} {
		ev := reduce.Event{
			Kind:  reduce.KindConversationCreated,
			Scope: testScope,
			Data: scoped(map[string]any{
				"conversationId": id,
				"directoryId":    "dir-1",
				"createdAt":      "2026-01-01T00:00:00Z",
				"updatedAt":      "2026-01-01T00:00:00Z",
			}),
		}
		require.True(t, s.ApplyObserved("sub-1", nextCursor(), ev))
	}

	sel := NewConversationListSelector()
	out := sel.Select(s.GetState(), testScope)
	require.Len(t, out, 2)
	assert.Equal(t, record.ConversationID("conv-a"), out[0].ID)
	assert.Equal(t, record.ConversationID("conv-b"), out[1].ID)
}

func TestTaskListSelector_SortedByOrderThenID(t *testing.T) {
	s := New()
	tasks := []map[string]any{
		{"taskId": "task-z", "title": "z", "status": "ready", "orderIndex": float64(1)},
		{"taskId": "task-a", "title": "a", "status": "ready", "orderIndex": float64(1)},
		{"taskId": "task-first", "title": "first", "status": "ready", "orderIndex": float64(0)},
	}
	for _, tk := range tasks {
		tk["createdAt"] = "2026-01-01T00:00:00Z"
		tk["updatedAt"] = "2026-01-01T00:00:00Z"
		ev := reduce.Event{Kind: reduce.KindTaskCreated, Scope: testScope, Data: scoped(tk)}
		require.True(t, s.ApplyObserved("sub-1", nextCursor(), ev))
	}

	sel := NewTaskListSelector()
	out := sel.Select(s.GetState(), testScope)
	require.Len(t, out, 3)
	assert.Equal(t, record.TaskID("task-first"), out[0].ID)
	assert.Equal(t, record.TaskID("task-a"), out[1].ID)
	assert.Equal(t, record.TaskID("task-z"), out[2].ID)
}

func TestSelectConversationByID(t *testing.T) {
	s := New()
	ev := reduce.Event{
		Kind:  reduce.KindConversationCreated,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-1",
			"directoryId":    "dir-1",
			"createdAt":      "2026-01-01T00:00:00Z",
			"updatedAt":      "2026-01-01T00:00:00Z",
		}),
	}
	require.True(t, s.ApplyObserved("sub-1", 0, ev))

	sel := SelectConversationByID("conv-1")
	got := sel.Select(s.GetState(), testScope)
	require.NotNil(t, got)
	assert.Equal(t, record.ConversationID("conv-1"), got.ID)

	missing := SelectConversationByID("nope").Select(s.GetState(), testScope)
	assert.Nil(t, missing)
}

func TestSubscribeSelector_FiresOnlyOnChange(t *testing.T) {
	s := New()
	// Create the scope first, so the selector starts from the scope's empty
	// directory list rather than nil for a scope the store has never seen.
	require.True(t, s.ApplyObserved("seed", 0, reduce.Event{
		Kind:  reduce.KindRepositoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"repositoryId": "repo-1", "name": "harness"}),
	}))
	sel := NewDirectoryListSelector()
	calls := 0

	unsub := SubscribeSelector(s, func(state reduce.State) []*record.Directory {
		return sel.Select(state, testScope)
	}, func([]*record.Directory) {
		calls++
	}, nil)
	defer unsub()

	assert.Equal(t, 1, calls, "fires once immediately")

	ev := reduce.Event{
		Kind:  reduce.KindConversationCreated,
		Scope: testScope,
		Data: scoped(map[string]any{
			"conversationId": "conv-1",
			"directoryId":    "dir-1",
			"createdAt":      "2026-01-01T00:00:00Z",
			"updatedAt":      "2026-01-01T00:00:00Z",
		}),
	}
	require.True(t, s.ApplyObserved("sub-1", 0, ev))
	assert.Equal(t, 1, calls, "directory list unaffected by a conversation change")

	ev2 := reduce.Event{
		Kind:  reduce.KindDirectoryUpserted,
		Scope: testScope,
		Data:  scoped(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	}
	require.True(t, s.ApplyObserved("sub-1", 1, ev2))
	assert.Equal(t, 2, calls)
}

var cursorCounter uint64

func nextCursor() uint64 {
	cursorCounter++
	return cursorCounter - 1
}

