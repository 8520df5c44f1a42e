// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cursor enforces strictly-monotonic per-subscription event
// ordering, shared by the gateway (producer side) and client SDKs
// (consumer side) so both enforce the same invariant independently.
package cursor

import "sync"

// none is the sentinel "no cursor observed yet" value. Cursor 0 is a valid,
// acceptable first observation because it compares strictly greater than
// none, not greater than 0.
const none int64 = -1

// Tracker maps subscriptionId -> lastCursor observed for that subscription.
type Tracker struct {
	mu   sync.Mutex
	last map[string]int64
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{last: map[string]int64{}}
}

// Observe rejects any cursor <= the last cursor accepted for
// subscriptionId, and otherwise accepts it and advances the watermark. A
// fresh subscriptionId starts with no watermark, so its first observed
// cursor (including 0) is always accepted.
func (t *Tracker) Observe(subscriptionID string, cursor uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := int64(cursor)
	last, ok := t.last[subscriptionID]
	if !ok {
		last = none
	}
	if c <= last {
		return false
	}
	t.last[subscriptionID] = c
	return true
}

// LastCursor reports the last accepted cursor for subscriptionId and
// whether any has been observed.
func (t *Tracker) LastCursor(subscriptionID string) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[subscriptionID]
	if !ok {
		return 0, false
	}
	return uint64(last), true
}

// Forget drops the watermark for subscriptionId, e.g. when its connection
// closes. A later reuse of the same id behaves like a fresh subscription.
func (t *Tracker) Forget(subscriptionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, subscriptionID)
}
