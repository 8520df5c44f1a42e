// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gatewayrecord

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "gateway.json"))
}

func TestStore_LoadMissingIsNilNotError(t *testing.T) {
	s := tempStore(t)
	rec, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestStore_CreateExclusive_RejectsSecondCreate(t *testing.T) {
	s := tempStore(t)
	rec := Record{Port: 9000, AuthToken: "a", PID: os.Getpid(), StartedAt: time.Now()}
	require.NoError(t, s.CreateExclusive(rec))

	err := s.CreateExclusive(rec)
	assert.True(t, os.IsExist(err))
}

func TestStore_SaveThenLoad_RoundTrips(t *testing.T) {
	s := tempStore(t)
	rec := Record{Port: 9001, AuthToken: "tok", PID: 1234, StartedAt: time.Now().Truncate(time.Second)}
	require.NoError(t, s.Save(rec))

	got, err := s.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Port, got.Port)
	assert.Equal(t, rec.AuthToken, got.AuthToken)
	assert.Equal(t, rec.PID, got.PID)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
}

func TestStore_Delete_IsIdempotent(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(Record{Port: 1, PID: os.Getpid()}))
	require.NoError(t, s.Delete())
	require.NoError(t, s.Delete())
}

func TestPIDLive(t *testing.T) {
	assert.True(t, PIDLive(os.Getpid()))
	assert.False(t, PIDLive(0))
	assert.False(t, PIDLive(-1))
}

func TestElect_FreshRecordSucceeds(t *testing.T) {
	s := tempStore(t)
	rec, err := Elect(s, 9100, "tok")
	require.NoError(t, err)
	assert.Equal(t, 9100, rec.Port)
	assert.Equal(t, os.Getpid(), rec.PID)
}

func TestElect_LiveExistingRecordReportsAlreadyRunning(t *testing.T) {
	s := tempStore(t)
	_, err := Elect(s, 9200, "tok1")
	require.NoError(t, err)

	_, err = Elect(s, 9201, "tok2")
	var already *AlreadyRunningError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, 9200, already.Existing.Port)
}

func TestElect_StaleExistingRecordIsTakenOver(t *testing.T) {
	s := tempStore(t)
	// A pid that (almost certainly) isn't alive: pid 1 belongs to init in
	// most containers/VMs and go-ps can't be signaled by this test, so
	// instead synthesize a pid far outside any plausible live range.
	stale := Record{Port: 9300, AuthToken: "old", PID: 999999, StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, s.Save(stale))

	rec, err := Elect(s, 9301, "new")
	require.NoError(t, err)
	assert.Equal(t, 9301, rec.Port)
	assert.Equal(t, os.Getpid(), rec.PID)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 9301, got.Port)
}

func TestStatus_NoRecordIsNotRunning(t *testing.T) {
	s := tempStore(t)
	st, err := Status(s)
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestStatus_LiveRecordIsRunning(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(Record{Port: 9400, PID: os.Getpid(), StartedAt: time.Now().Add(-time.Minute)}))

	st, err := Status(s)
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.Equal(t, 9400, st.Port)
	assert.GreaterOrEqual(t, st.Uptime, time.Minute-time.Second)
}

func TestStatus_DeadPIDIsNotRunning(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(Record{Port: 9500, PID: 999999}))

	st, err := Status(s)
	require.NoError(t, err)
	assert.False(t, st.Running)
}

func TestRelease_DeletesRecord(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(Record{Port: 1, PID: os.Getpid()}))
	require.NoError(t, Release(s))

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, rec)
}
