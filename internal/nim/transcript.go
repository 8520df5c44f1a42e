// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package nim

import "sync"

// TranscriptLine is one line of rendered conversation history.
type TranscriptLine struct {
	Role string // "user" | "assistant" | "tool"
	Text string
}

// transcriptRing is a bounded ring buffer of transcript lines, evicting the
// oldest line once full. Mirrors ptysession.RingBuffer's bounded-eviction
// shape, sized in lines rather than bytes since a turn's transcript is
// line-oriented, not a byte stream.
type transcriptRing struct {
	mu    sync.Mutex
	cap   int
	lines []TranscriptLine
}

func newTranscriptRing(capacity int) *transcriptRing {
	if capacity <= 0 {
		capacity = defaultTranscriptLines
	}
	return &transcriptRing{cap: capacity}
}

func (t *transcriptRing) append(line TranscriptLine) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.cap {
		t.lines = t.lines[len(t.lines)-t.cap:]
	}
}

func (t *transcriptRing) snapshot() []TranscriptLine {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TranscriptLine, len(t.lines))
	copy(out, t.lines)
	return out
}
