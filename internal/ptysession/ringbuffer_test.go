// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_WriteAndSince(t *testing.T) {
	rb := NewRingBuffer(1024)

	start, end := rb.Write([]byte("hello"))
	assert.Equal(t, uint64(0), start)
	assert.Equal(t, uint64(5), end)

	data, earliest, evicted := rb.Since(0)
	require.False(t, evicted)
	assert.Equal(t, uint64(0), earliest)
	assert.Equal(t, "hello", string(data))

	data, _, _ = rb.Since(2)
	assert.Equal(t, "llo", string(data))
}

func TestRingBuffer_EvictionReportsEarliestCursor(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte("abcdefgh")) // only last 4 bytes ("efgh") survive

	data, earliest, evicted := rb.Since(0)
	assert.True(t, evicted)
	assert.Equal(t, uint64(4), earliest)
	assert.Equal(t, "efgh", string(data))
}

func TestRingBuffer_SinceAtCurrentCursorIsEmpty(t *testing.T) {
	rb := NewRingBuffer(1024)
	_, end := rb.Write([]byte("abc"))

	data, _, evicted := rb.Since(end)
	assert.False(t, evicted)
	assert.Empty(t, data)
}

func TestRingBuffer_CursorStrictlyMonotonic(t *testing.T) {
	rb := NewRingBuffer(1024)
	_, e1 := rb.Write([]byte("a"))
	_, e2 := rb.Write([]byte("bc"))
	assert.Less(t, e1, e2)
	assert.Equal(t, e2, rb.Cursor())
}
