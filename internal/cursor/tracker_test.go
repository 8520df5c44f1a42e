// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_FirstObservationAtZeroAccepted(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.Observe("sub-1", 0))
}

func TestTracker_StrictlyMonotonic(t *testing.T) {
	tr := NewTracker()
	require := assert.New(t)

	require.True(tr.Observe("sub-1", 5))
	require.False(tr.Observe("sub-1", 5), "equal cursor rejected")
	require.False(tr.Observe("sub-1", 3), "lower cursor rejected")
	require.True(tr.Observe("sub-1", 6))
}

func TestTracker_SubscriptionsAreIndependent(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.Observe("sub-1", 10))
	assert.True(t, tr.Observe("sub-2", 0))
}

func TestTracker_ForgetResetsWatermark(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.Observe("sub-1", 10))
	tr.Forget("sub-1")
	_, ok := tr.LastCursor("sub-1")
	assert.False(t, ok)
	assert.True(t, tr.Observe("sub-1", 0))
}
