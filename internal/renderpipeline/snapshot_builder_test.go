// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package renderpipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/reduce"
)

var testScope = record.Scope{TenantID: "t1", UserID: "u1", WorkspaceID: "w1"}

func withScope(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+3)
	for k, v := range data {
		out[k] = v
	}
	out["tenantId"] = testScope.TenantID
	out["userId"] = testScope.UserID
	out["workspaceId"] = testScope.WorkspaceID
	return out
}

func TestSnapshotBuilder_Build(t *testing.T) {
	state := reduce.New()
	res := reduce.Reduce(state, reduce.Event{
		Kind: reduce.KindDirectoryUpserted, Scope: testScope, Ts: time.Now(),
		Data: withScope(map[string]any{"directoryId": "dir-1", "path": "/a"}),
	})
	require.True(t, res.Changed)
	state = res.State

	res = reduce.Reduce(state, reduce.Event{
		Kind: reduce.KindConversationCreated, Scope: testScope, Ts: time.Now(),
		Data: withScope(map[string]any{
			"conversationId": "conv-1", "directoryId": "dir-1", "title": "Alpha",
			"agentType": "codex", "createdAt": time.Now().Format(time.RFC3339), "updatedAt": time.Now().Format(time.RFC3339),
		}),
	})
	require.True(t, res.Changed)
	state = res.State

	b := NewSnapshotBuilder(testScope)
	activeID := record.ConversationID("conv-1")
	b.SetActiveConversation(&activeID)
	b.SetTaskComposers(map[record.TaskID]string{"t1": "draft"})
	b.SetProcessUsage(map[record.SessionID]Telemetry{"conv-1": {BytesOut: 42}})

	snap := b.Build(state)
	require.Len(t, snap.Directories, 1)
	require.Len(t, snap.Conversations, 1)
	assert.Equal(t, record.ConversationID("conv-1"), snap.Conversations[0].ID)
	assert.Equal(t, &activeID, snap.ActiveConversationID)
	assert.Equal(t, "draft", snap.TaskComposers["t1"])
	assert.Equal(t, int64(42), snap.ProcessUsage["conv-1"].BytesOut)

	// A second build with an untouched directory map returns the same
	// selector-memoized slice identity (matching the store's own identity
	// stability guarantee), not just equal contents.
	snap2 := b.Build(state)
	assert.Same(t, &snap.Directories[0], &snap2.Directories[0])
}
