// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	r := NewReader(&buf)

	cmd := Command{RequestID: 1, Type: "hello"}
	require.NoError(t, w.WriteValue(cmd))

	var got Command
	require.NoError(t, r.ReadInto(&got))
	assert.Equal(t, cmd, got)
}

func TestFrame_MultipleFramesInOrder(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	r := NewReader(&buf)

	for i := int64(0); i < 5; i++ {
		require.NoError(t, w.WriteValue(Command{RequestID: i, Type: "ping"}))
	}
	for i := int64(0); i < 5; i++ {
		var got Command
		require.NoError(t, r.ReadInto(&got))
		assert.Equal(t, i, got.RequestID)
	}
}

func TestFrame_TooLargeRejected(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteFrame(make([]byte, MaxFrameBytes+1))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestErrorKind_Retryable(t *testing.T) {
	assert.True(t, ErrBackpressure.Retryable())
	assert.True(t, ErrStorageError.Retryable())
	assert.False(t, ErrBadRequest.Retryable())
	assert.False(t, ErrNotFound.Retryable())
	assert.False(t, ErrControllerHeld.Retryable())
}
