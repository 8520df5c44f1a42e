// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/gwserver"
	"github.com/jmoyers/harness/internal/ptysession"
	"github.com/jmoyers/harness/internal/storage"
	"github.com/jmoyers/harness/internal/syncedstore"
	"github.com/jmoyers/harness/pkg/client"
)

const testAuthToken = "test-token"

var testScope = client.Scope{TenantID: "t1", UserID: "u1", WorkspaceID: "w1"}

func newTestClient(t *testing.T) *client.Client {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "harness.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := syncedstore.New()
	sessions := ptysession.NewManager(ptysession.DefaultConfig(), ptysession.HeuristicClassifier{})
	srv := gwserver.New(testAuthToken, store, sessions, db, 0)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go srv.Serve(ln)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := client.Dial(ctx, ln.Addr().String(), testAuthToken, testScope)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDial_BadTokenFails(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "harness.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := syncedstore.New()
	sessions := ptysession.NewManager(ptysession.DefaultConfig(), ptysession.HeuristicClassifier{})
	srv := gwserver.New(testAuthToken, store, sessions, db, 0)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	go srv.Serve(ln)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = client.Dial(ctx, ln.Addr().String(), "wrong-token", testScope)
	require.Error(t, err)
}

func TestDirectoryAndTaskRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	dir, err := c.Directories.Upsert(ctx, "", "/repo/a")
	require.NoError(t, err)
	require.Equal(t, "/repo/a", dir.Path)

	dirs, err := c.Directories.List(ctx)
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	task, err := c.Tasks.Create(ctx, client.CreateParams{Title: "first"})
	require.NoError(t, err)
	require.Equal(t, 0, task.OrderIndex)

	task2, err := c.Tasks.Create(ctx, client.CreateParams{Title: "second"})
	require.NoError(t, err)
	require.Equal(t, 1, task2.OrderIndex)

	err = c.Tasks.Reorder(ctx, []string{string(task2.ID), string(task.ID)})
	require.NoError(t, err)

	tasks, err := c.Tasks.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, task2.ID, tasks[0].ID)
}

func TestTaskCompleteWithoutReadyConflicts(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	task, err := c.Tasks.Create(ctx, client.CreateParams{Title: "draft-task"})
	require.NoError(t, err)

	_, err = c.Tasks.Complete(ctx, string(task.ID))
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "conflict", string(apiErr.Kind))
}

func TestPTYStartAttachRespondClose(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	events := make(chan client.Event, 16)
	c.OnEvent(func(ev client.Event) { events <- ev })

	sess, err := c.PTY.Start(ctx, client.StartParams{
		SessionID: "sess-1",
		Args:      []string{"/bin/cat"},
		Cols:      80,
		Rows:      24,
	})
	require.NoError(t, err)
	require.Equal(t, "sess-1", string(sess.ID))

	_, err = c.PTY.Attach(ctx, "sess-1", 0)
	require.NoError(t, err)

	responded, sentBytes, err := c.Sessions.Respond(ctx, "sess-1", "hello\n", "ctl-1")
	require.NoError(t, err)
	require.True(t, responded)
	require.Positive(t, sentBytes)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == "pty.output" {
				err := c.PTY.Close(ctx, "sess-1")
				require.NoError(t, err)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for pty.output event")
		}
	}
}

func TestSessionClaimConflict(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.PTY.Start(ctx, client.StartParams{
		SessionID: "sess-claim",
		Args:      []string{"/bin/cat"},
		Cols:      80,
		Rows:      24,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.PTY.Close(context.Background(), "sess-claim") })

	_, err = c.Sessions.Claim(ctx, client.ClaimParams{SessionID: "sess-claim", ControllerID: "ctl-a"})
	require.NoError(t, err)

	_, err = c.Sessions.Claim(ctx, client.ClaimParams{SessionID: "sess-claim", ControllerID: "ctl-b"})
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "controller_held", string(apiErr.Kind))

	_, err = c.Sessions.Claim(ctx, client.ClaimParams{SessionID: "sess-claim", ControllerID: "ctl-b", Takeover: true})
	require.NoError(t, err)
}
