// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/record"
)

var testScope = record.Scope{TenantID: "t1", UserID: "u1", WorkspaceID: "w1"}

func testConfig() Config {
	return Config{RingBufferBytes: 64 * 1024, RespondQueueDepth: 8}
}

func startEchoSession(t *testing.T) *Session {
	t.Helper()
	sess := New("sess-1", testScope, testConfig(), nil)
	err := sess.Start(StartParams{
		Args:          []string{"/bin/sh", "-c", "cat"},
		Cols:          80,
		Rows:          24,
		LaunchCommand: "cat",
	})
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestSession_StartTwiceFails(t *testing.T) {
	sess := startEchoSession(t)
	err := sess.Start(StartParams{Args: []string{"/bin/sh", "-c", "cat"}})
	assert.ErrorIs(t, err, ErrAlreadyLive)
}

func TestSession_StartEmptyCommandFails(t *testing.T) {
	sess := New("sess-empty", testScope, testConfig(), nil)
	err := sess.Start(StartParams{})
	assert.Error(t, err)
}

func TestSession_AttachReplaysAndStreams(t *testing.T) {
	sess := startEchoSession(t)

	ch, earliest, detach := sess.AttachOutput(0)
	defer detach()
	assert.Equal(t, uint64(0), earliest)
	assert.EqualValues(t, 1, sess.AttachedClients())

	_, sentBytes := writeRawForTest(t, sess, "hello\n")
	assert.Greater(t, sentBytes, 0)

	select {
	case chunk := <-ch:
		assert.Contains(t, string(chunk.Data), "hello")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed output")
	}
}

// writeRawForTest claims the controller as a test caller and responds,
// bypassing the normal claim-then-respond command sequence's separate
// steps for test brevity.
func writeRawForTest(t *testing.T, sess *Session, text string) (bool, int) {
	t.Helper()
	_, _, err := sess.Claim(record.Controller{
		ControllerID:   "test-caller",
		ControllerType: record.ControllerHuman,
		ClaimedAt:      time.Now(),
	}, false)
	require.NoError(t, err)
	return sess.Respond("test-caller", text)
}

func TestSession_RespondRejectsNonController(t *testing.T) {
	sess := startEchoSession(t)
	responded, sent := sess.Respond("nobody", "hi\n")
	assert.False(t, responded)
	assert.Zero(t, sent)
}

func TestSession_ClaimControllerHeld(t *testing.T) {
	sess := startEchoSession(t)
	a := record.Controller{ControllerID: "a", ControllerType: record.ControllerHuman, ClaimedAt: time.Now()}
	b := record.Controller{ControllerID: "b", ControllerType: record.ControllerHuman, ClaimedAt: time.Now()}

	ok, _, err := sess.Claim(a, false)
	require.True(t, ok)
	require.NoError(t, err)

	ok, _, err = sess.Claim(b, false)
	assert.False(t, ok)
	assert.Error(t, err)

	ok, prev, err := sess.Claim(b, true)
	require.True(t, ok)
	require.NoError(t, err)
	assert.Equal(t, record.ControllerID("a"), prev.ControllerID)
}

func TestSession_InterruptSendsSignal(t *testing.T) {
	sess := startEchoSession(t)
	ok, err := sess.Interrupt()
	assert.True(t, ok)
	assert.NoError(t, err)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	sess := startEchoSession(t)
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
}

func TestSession_SnapshotReflectsLiveState(t *testing.T) {
	sess := startEchoSession(t)
	snap := sess.Snapshot()
	assert.Equal(t, record.SessionID("sess-1"), snap.ID)
	assert.True(t, snap.Live)
	assert.NotNil(t, snap.ProcessID)
}
