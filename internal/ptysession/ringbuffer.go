// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import "sync"

// RingBuffer stores a session's output byte stream, tagged with a strictly
// monotonic cursor equal to the total byte count written before each
// chunk. It is bounded: once the buffered bytes exceed capacity, the
// oldest bytes are evicted and the earliest available cursor advances
// past them.
type RingBuffer struct {
	mu           sync.Mutex
	capacity     int
	buf          []byte
	startCursor  uint64 // cursor of buf[0]
	totalWritten uint64 // cursor of the next byte to be written
}

// NewRingBuffer returns an empty buffer bounded to capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultRingBufferBytes
	}
	return &RingBuffer{capacity: capacity}
}

// Write appends data, returning the cursor range it now occupies
// [startCursor, endCursor).
func (r *RingBuffer) Write(data []byte) (startCursor, endCursor uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	startCursor = r.totalWritten
	r.buf = append(r.buf, data...)
	r.totalWritten += uint64(len(data))

	if len(r.buf) > r.capacity {
		overflow := len(r.buf) - r.capacity
		r.buf = append([]byte(nil), r.buf[overflow:]...)
		r.startCursor += uint64(overflow)
	}

	return startCursor, r.totalWritten
}

// Since returns the bytes strictly after sinceCursor that remain
// buffered. evicted reports whether part of the requested range has
// already fallen out of the buffer; callers should fall back to a
// snapshot rather than trust the returned bytes as a complete replay in
// that case. earliestCursor is always the oldest cursor still available.
func (r *RingBuffer) Since(sinceCursor uint64) (data []byte, earliestCursor uint64, evicted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sinceCursor < r.startCursor {
		return append([]byte(nil), r.buf...), r.startCursor, true
	}
	offset := sinceCursor - r.startCursor
	if offset >= uint64(len(r.buf)) {
		return nil, r.startCursor, false
	}
	return append([]byte(nil), r.buf[offset:]...), r.startCursor, false
}

// Cursor returns the cursor of the next byte to be written.
func (r *RingBuffer) Cursor() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalWritten
}
