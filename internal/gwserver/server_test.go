// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/internal/storage"
	"github.com/jmoyers/harness/internal/syncedstore"
	"github.com/jmoyers/harness/internal/wire"
)

const testAuthToken = "test-token"

func newTestServer(t *testing.T) (*Server, *wire.Reader, *wire.Writer) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "harness.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := syncedstore.New()
	sessions := ptysession.NewManager(ptysession.DefaultConfig(), ptysession.HeuristicClassifier{})
	srv := New(testAuthToken, store, sessions, db, 0)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go srv.Serve(ln)

	clientConn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	return srv, wire.NewReader(clientConn), wire.NewWriter(clientConn)
}

type testClient struct {
	t       *testing.T
	r       *wire.Reader
	w       *wire.Writer
	nextReq int64
	events  []wire.EventEnvelope
}

func newTestClient(t *testing.T, r *wire.Reader, w *wire.Writer) *testClient {
	return &testClient{t: t, r: r, w: w}
}

// send writes a command and reads replies until it sees the matching
// requestId, skipping any out-of-band event frames delivered in between.
func (tc *testClient) send(cmdType string, args any) wire.Reply {
	tc.t.Helper()
	tc.nextReq++
	reqID := tc.nextReq

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		require.NoError(tc.t, err)
		raw = b
	}
	require.NoError(tc.t, tc.w.WriteValue(wire.Command{RequestID: reqID, Type: cmdType, Args: raw}))

	for {
		payload, err := tc.r.ReadFrame()
		require.NoError(tc.t, err)
		var reply wire.Reply
		if err := json.Unmarshal(payload, &reply); err != nil {
			continue
		}
		if reply.RequestID != reqID {
			var ev wire.EventEnvelope
			if err := json.Unmarshal(payload, &ev); err == nil && ev.Type != "" {
				tc.events = append(tc.events, ev)
			}
			continue
		}
		return reply
	}
}

// drainEvents waits for and returns the next n out-of-band event frames
// this client has observed (queued by send as it reads past them looking
// for its own reply), in delivery order.
func (tc *testClient) drainEvents(t *testing.T, n int) []wire.EventEnvelope {
	t.Helper()
	for len(tc.events) < n {
		payload, err := tc.r.ReadFrame()
		require.NoError(t, err)
		var ev wire.EventEnvelope
		if err := json.Unmarshal(payload, &ev); err == nil && ev.Type != "" {
			tc.events = append(tc.events, ev)
		}
	}
	out := tc.events[:n]
	tc.events = tc.events[n:]
	return out
}

func helloScope(tc *testClient, scope record.Scope) wire.Reply {
	return tc.send("hello", map[string]any{
		"authToken":   testAuthToken,
		"tenantId":    scope.TenantID,
		"userId":      scope.UserID,
		"workspaceId": scope.WorkspaceID,
	})
}

var testScope = record.Scope{TenantID: "t1", UserID: "u1", WorkspaceID: "w1"}

func TestHello_RejectsBadToken(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)

	reply := tc.send("hello", map[string]any{
		"authToken":   "wrong",
		"tenantId":    "t1",
		"userId":      "u1",
		"workspaceId": "w1",
	})
	require.False(t, reply.OK)
	require.Equal(t, wire.ErrAuthFailed, reply.Error.Kind)
}

func TestHello_RequiredBeforeOtherCommands(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)

	reply := tc.send("directory.list", map[string]any{})
	require.False(t, reply.OK)
	require.Equal(t, wire.ErrAuthFailed, reply.Error.Kind)

	helloReply := helloScope(tc, testScope)
	require.True(t, helloReply.OK)
}

func TestDirectoryUpsertListArchive(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	upsertReply := tc.send("directory.upsert", map[string]any{"path": "/repo/a"})
	require.True(t, upsertReply.OK)
	var dir record.Directory
	require.NoError(t, json.Unmarshal(upsertReply.Result, &dir))
	require.Equal(t, "/repo/a", dir.Path)
	require.NotEmpty(t, dir.ID)

	listReply := tc.send("directory.list", map[string]any{})
	require.True(t, listReply.OK)
	var dirs []record.Directory
	require.NoError(t, json.Unmarshal(listReply.Result, &dirs))
	require.Len(t, dirs, 1)

	archiveReply := tc.send("directory.archive", map[string]any{"directoryId": string(dir.ID)})
	require.True(t, archiveReply.OK)
}

func TestTaskCreateAndReorder(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	first := tc.send("task.create", map[string]any{"title": "first"})
	require.True(t, first.OK)
	var t1 record.Task
	require.NoError(t, json.Unmarshal(first.Result, &t1))
	require.Equal(t, 0, t1.OrderIndex)

	second := tc.send("task.create", map[string]any{"title": "second"})
	require.True(t, second.OK)
	var t2 record.Task
	require.NoError(t, json.Unmarshal(second.Result, &t2))
	require.Equal(t, 1, t2.OrderIndex)

	reorderReply := tc.send("task.reorder", map[string]any{"taskIds": []string{string(t2.ID), string(t1.ID)}})
	require.True(t, reorderReply.OK)
	var reordered []record.Task
	require.NoError(t, json.Unmarshal(reorderReply.Result, &reordered))
	require.Len(t, reordered, 2)
	require.Equal(t, t2.ID, reordered[0].ID)
	require.Equal(t, 0, reordered[0].OrderIndex)
	require.Equal(t, t1.ID, reordered[1].ID)
	require.Equal(t, 1, reordered[1].OrderIndex)

	readyReply := tc.send("task.ready", map[string]any{"taskId": string(t1.ID)})
	require.True(t, readyReply.OK)

	badTransition := tc.send("task.complete", map[string]any{"taskId": string(t2.ID)})
	require.False(t, badTransition.OK)
	require.Equal(t, wire.ErrConflict, badTransition.Error.Kind)
}

// TestPTYStartRespondClose exercises scenario S1-style flow: start a
// short-lived real process, attach to its output, and close it.
func TestPTYStartRespondClose(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	startReply := tc.send("pty.start", map[string]any{
		"sessionId": "sess-1",
		"args":      []string{"/bin/cat"},
		"cols":      80,
		"rows":      24,
	})
	require.True(t, startReply.OK)
	var sess record.Session
	require.NoError(t, json.Unmarshal(startReply.Result, &sess))
	require.Equal(t, record.SessionID("sess-1"), sess.ID)

	attachReply := tc.send("pty.attach", map[string]any{"sessionId": "sess-1", "sinceCursor": 0})
	require.True(t, attachReply.OK)

	respondReply := tc.send("session.respond", map[string]any{
		"sessionId":    "sess-1",
		"text":         "hello\n",
		"controllerId": "ctl-1",
	})
	require.True(t, respondReply.OK)

	deadline := time.After(2 * time.Second)
	sawOutput := false
	for !sawOutput {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for pty output echo")
		default:
		}
		payload, err := tc.r.ReadFrame()
		require.NoError(t, err)
		var frame map[string]any
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		if frame["type"] == "pty.output" {
			sawOutput = true
		}
	}

	closeReply := tc.send("pty.close", map[string]any{"sessionId": "sess-1"})
	require.True(t, closeReply.OK)
}

// TestConversationRuntimeStatusTracksSession confirms the session bridge
// actually projects the session's lifecycle onto
// Conversation.RuntimeStatus: it starts "running" once a process is live,
// and settles to "exited" once pty.close SIGTERMs it (an ungraceful
// signal exit, as distinct from a clean "completed" one).
func TestConversationRuntimeStatusTracksSession(t *testing.T) {
	srv, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	startReply := tc.send("pty.start", map[string]any{
		"sessionId":   "sess-status",
		"args":        []string{"/bin/cat"},
		"cols":        80,
		"rows":        24,
		"directoryId": "dir-status",
		"title":       "untitled",
		"agentType":   "codex",
	})
	require.True(t, startReply.OK)

	require.Eventually(t, func() bool {
		state := srv.Store.GetState()
		conv, ok := state.Scopes[testScope].Conversations[record.ConversationID("sess-status")]
		return ok && conv.RuntimeStatus == record.RuntimeRunning && conv.RuntimeLive
	}, 2*time.Second, 10*time.Millisecond)

	closeReply := tc.send("pty.close", map[string]any{"sessionId": "sess-status"})
	require.True(t, closeReply.OK)

	require.Eventually(t, func() bool {
		state := srv.Store.GetState()
		conv, ok := state.Scopes[testScope].Conversations[record.ConversationID("sess-status")]
		return ok && conv.RuntimeStatus == record.RuntimeExited && !conv.RuntimeLive
	}, 2*time.Second, 10*time.Millisecond)
}

// TestSessionClaimConflict covers scenario S3: a second controller
// claiming an already-held session without takeover gets controller_held.
func TestSessionClaimConflict(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	startReply := tc.send("pty.start", map[string]any{
		"sessionId": "sess-claim",
		"args":      []string{"/bin/cat"},
		"cols":      80,
		"rows":      24,
	})
	require.True(t, startReply.OK)

	claim1 := tc.send("session.claim", map[string]any{
		"sessionId":    "sess-claim",
		"controllerId": "ctl-a",
	})
	require.True(t, claim1.OK)

	claim2 := tc.send("session.claim", map[string]any{
		"sessionId":    "sess-claim",
		"controllerId": "ctl-b",
		"takeover":     false,
	})
	require.False(t, claim2.OK)
	require.Equal(t, wire.ErrControllerHeld, claim2.Error.Kind)

	claim3 := tc.send("session.claim", map[string]any{
		"sessionId":    "sess-claim",
		"controllerId": "ctl-b",
		"takeover":     true,
	})
	require.True(t, claim3.OK)

	tc.send("pty.close", map[string]any{"sessionId": "sess-claim"})
}

func TestConversationCreateUpsertsMissingDirectory(t *testing.T) {
	_, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	reply := tc.send("conversation.create", map[string]any{
		"conversationId": "conv-1",
		"directoryId":    "missing-dir",
		"title":          "untitled",
	})
	require.True(t, reply.OK)

	dirReply := tc.send("directory.list", nil)
	require.True(t, dirReply.OK)
	var dirs []record.Directory
	require.NoError(t, json.Unmarshal(dirReply.Result, &dirs))
	require.Len(t, dirs, 1)
	assert.Equal(t, record.DirectoryID("missing-dir"), dirs[0].ID)

	dup := tc.send("conversation.create", map[string]any{
		"conversationId": "conv-1",
		"directoryId":    "missing-dir",
		"title":          "untitled",
	})
	require.False(t, dup.OK)
	require.Equal(t, wire.ErrConflict, dup.Error.Kind)
}

// TestScenarioS1_CreateAndRenameConversation is scenario S1: creating a
// conversation against a not-yet-known directory upserts the directory
// first, then the conversation (two observed events), and a title rename
// then goes out as a single conversation-updated event.
func TestScenarioS1_CreateAndRenameConversation(t *testing.T) {
	srv, r, w := newTestServer(t)
	tc := newTestClient(t, r, w)
	require.True(t, helloScope(tc, testScope).OK)

	createReply := tc.send("conversation.create", map[string]any{
		"conversationId": "c1",
		"directoryId":    "d1",
		"title":          "",
		"agentType":      "codex",
	})
	require.True(t, createReply.OK)

	createEvents := tc.drainEvents(t, 2)
	require.Equal(t, "directory-upserted", createEvents[0].Type)
	require.Equal(t, "conversation-created", createEvents[1].Type)

	updateReply := tc.send("conversation.update", map[string]any{
		"conversationId": "c1",
		"title":          "Alpha",
	})
	require.True(t, updateReply.OK)

	updateEvents := tc.drainEvents(t, 1)
	require.Equal(t, "conversation-updated", updateEvents[0].Type)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(updateEvents[0].Event, &payload))
	assert.Equal(t, "Alpha", payload["title"])

	state := srv.Store.GetState()
	conv := state.Scopes[testScope].Conversations[record.ConversationID("c1")]
	require.NotNil(t, conv)
	assert.Equal(t, "Alpha", conv.Title)
}
