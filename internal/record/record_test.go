// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeFields() map[string]any {
	return map[string]any{
		"tenantId":    "t1",
		"userId":      "u1",
		"workspaceId": "w1",
	}
}

func TestParseDirectory(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		wantErr bool
	}{
		{
			name: "valid",
			payload: map[string]any{
				"directoryId": "dir-1",
				"path":        "/home/user/project",
				"tenantId":    "t1",
				"userId":      "u1",
				"workspaceId": "w1",
			},
		},
		{
			name: "missing directoryId",
			payload: map[string]any{
				"path":        "/home/user/project",
				"tenantId":    "t1",
				"userId":      "u1",
				"workspaceId": "w1",
			},
			wantErr: true,
		},
		{
			name: "missing scope component",
			payload: map[string]any{
				"directoryId": "dir-1",
				"path":        "/home/user/project",
				"tenantId":    "t1",
				"userId":      "u1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDirectory(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DirectoryID("dir-1"), d.ID)
			assert.True(t, d.Scope.Valid())
		})
	}
}

func TestParseDirectory_NotAnObject(t *testing.T) {
	_, err := ParseDirectory("not a map")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestParseConversation_RuntimeStatusEnum(t *testing.T) {
	base := map[string]any{
		"conversationId": "conv-1",
		"directoryId":    "dir-1",
		"createdAt":      "2026-01-01T00:00:00Z",
		"updatedAt":      "2026-01-01T00:00:00Z",
		"tenantId":       "t1",
		"userId":         "u1",
		"workspaceId":    "w1",
	}

	t.Run("missing defaults to exited", func(t *testing.T) {
		conv, err := ParseConversation(cloneMap(base))
		require.NoError(t, err)
		assert.Equal(t, RuntimeExited, conv.RuntimeStatus)
	})

	for _, status := range []RuntimeStatus{RuntimeRunning, RuntimeNeedsInput, RuntimeCompleted, RuntimeExited} {
		t.Run(string(status), func(t *testing.T) {
			p := cloneMap(base)
			p["runtimeStatus"] = string(status)
			conv, err := ParseConversation(p)
			require.NoError(t, err)
			assert.Equal(t, status, conv.RuntimeStatus)
		})
	}

	t.Run("rejects turn-status vocabulary", func(t *testing.T) {
		for _, bad := range []string{"idle", "thinking", "tool-call", "responding"} {
			p := cloneMap(base)
			p["runtimeStatus"] = bad
			_, err := ParseConversation(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		}
	})
}

func TestParseRepository_HomePriority(t *testing.T) {
	base := map[string]any{
		"repositoryId":  "repo-1",
		"name":          "harness",
		"remoteUrl":     "git@example.com:org/harness.git",
		"defaultBranch": "main",
		"tenantId":      "t1",
		"userId":        "u1",
		"workspaceId":   "w1",
	}

	t.Run("absent metadata", func(t *testing.T) {
		r, err := ParseRepository(base)
		require.NoError(t, err)
		assert.Nil(t, r.Metadata.HomePriority)
	})

	t.Run("explicit null priority", func(t *testing.T) {
		p := cloneMap(base)
		p["metadata"] = map[string]any{"homePriority": nil}
		r, err := ParseRepository(p)
		require.NoError(t, err)
		assert.Nil(t, r.Metadata.HomePriority)
	})

	t.Run("zero is a valid priority", func(t *testing.T) {
		p := cloneMap(base)
		p["metadata"] = map[string]any{"homePriority": float64(0)}
		r, err := ParseRepository(p)
		require.NoError(t, err)
		require.NotNil(t, r.Metadata.HomePriority)
		assert.Equal(t, 0, *r.Metadata.HomePriority)
	})

	t.Run("negative priority rejected", func(t *testing.T) {
		p := cloneMap(base)
		p["metadata"] = map[string]any{"homePriority": float64(-1)}
		_, err := ParseRepository(p)
		require.Error(t, err)
	})
}

func TestNormalizeTaskStatus_LegacyAlias(t *testing.T) {
	status, ok := normalizeTaskStatus("queued")
	require.True(t, ok)
	assert.Equal(t, TaskReady, status)

	_, ok = normalizeTaskStatus("bogus")
	assert.False(t, ok)
}

func TestTaskStatusTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		allowed  bool
	}{
		{TaskDraft, TaskReady, true},
		{TaskDraft, TaskInProgress, false},
		{TaskReady, TaskInProgress, true},
		{TaskReady, TaskDraft, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskCompleted, TaskReady, false},
		{TaskCompleted, TaskCompleted, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, TaskStatusTransitionAllowed(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestParseTask_ScopeKindDerivation(t *testing.T) {
	base := map[string]any{
		"taskId":      "task-1",
		"title":       "Fix the bug",
		"status":      "ready",
		"orderIndex":  float64(0),
		"createdAt":   "2026-01-01T00:00:00Z",
		"updatedAt":   "2026-01-01T00:00:00Z",
		"tenantId":    "t1",
		"userId":      "u1",
		"workspaceId": "w1",
	}

	t.Run("no project or repo is global", func(t *testing.T) {
		tk, err := ParseTask(cloneMap(base))
		require.NoError(t, err)
		assert.Equal(t, TaskScopeGlobal, tk.ScopeKind)
	})

	t.Run("repositoryId implies repository scope", func(t *testing.T) {
		p := cloneMap(base)
		p["repositoryId"] = "repo-1"
		tk, err := ParseTask(p)
		require.NoError(t, err)
		assert.Equal(t, TaskScopeRepository, tk.ScopeKind)
	})

	t.Run("projectId implies project scope", func(t *testing.T) {
		p := cloneMap(base)
		p["projectId"] = "proj-1"
		tk, err := ParseTask(p)
		require.NoError(t, err)
		assert.Equal(t, TaskScopeProject, tk.ScopeKind)
	})

	t.Run("explicit scopeKind wins", func(t *testing.T) {
		p := cloneMap(base)
		p["projectId"] = "proj-1"
		p["scopeKind"] = "global"
		tk, err := ParseTask(p)
		require.NoError(t, err)
		assert.Equal(t, TaskScopeGlobal, tk.ScopeKind)
	})

	t.Run("legacy queued status normalizes", func(t *testing.T) {
		p := cloneMap(base)
		p["status"] = "queued"
		tk, err := ParseTask(p)
		require.NoError(t, err)
		assert.Equal(t, TaskReady, tk.Status)
	})
}

func TestParseSession_StatusModel(t *testing.T) {
	payload := map[string]any{
		"sessionId":        "sess-1",
		"status":           "thinking",
		"latestCursor":     float64(42),
		"attachedClients":  float64(1),
		"eventSubscribers": float64(2),
		"startedAt":        "2026-01-01T00:00:00Z",
		"launchCommand":    "claude",
		"tenantId":         "t1",
		"userId":           "u1",
		"workspaceId":      "w1",
		"statusModel": map[string]any{
			"phase":        "thinking",
			"activityHint": "reading files",
		},
	}
	s, err := ParseSession(payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), s.LatestCursor)
	assert.Equal(t, PhaseThinking, s.StatusModel.Phase)
	assert.Nil(t, s.Controller)
}

func TestParseController_TypeEnum(t *testing.T) {
	payload := map[string]any{
		"controllerId":   "ctrl-1",
		"controllerType": "human",
		"claimedAt":      "2026-01-01T00:00:00Z",
	}
	c, err := ParseController(payload)
	require.NoError(t, err)
	assert.Equal(t, ControllerHuman, c.ControllerType)

	payload["controllerType"] = "robot"
	_, err = ParseController(payload)
	require.Error(t, err)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
