// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import (
	"sync"

	"github.com/jmoyers/harness/internal/record"
)

// ErrControllerHeld is returned by Claim when takeover is false and a
// different controller already holds the slot.
type ErrControllerHeld struct{}

func (ErrControllerHeld) Error() string { return "controller_held" }

// controllerSlot enforces at most one active controller per session.
type controllerSlot struct {
	mu      sync.Mutex
	current *record.Controller
}

// claim attempts to take the slot. Re-claiming with the same
// controllerId always succeeds (idempotent heartbeat). Otherwise, with
// takeover=false it fails if the slot is already held; with takeover=true
// it always succeeds and evicts whoever held it.
func (c *controllerSlot) claim(next record.Controller, takeover bool) (ok bool, previous *record.Controller, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.ControllerID != next.ControllerID && !takeover {
		return false, c.current, ErrControllerHeld{}
	}
	previous = c.current
	c.current = &next
	return true, previous, nil
}

// release clears the slot if held by controllerID, e.g. on disconnect.
func (c *controllerSlot) release(controllerID record.ControllerID) (released bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.ControllerID != controllerID {
		return false
	}
	c.current = nil
	return true
}

func (c *controllerSlot) get() *record.Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
