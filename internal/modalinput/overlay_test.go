// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package modalinput

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boxHitTest(p PointerEvent) (bool, string) {
	if p.Col < 5 || p.Col > 15 || p.Row < 2 || p.Row > 8 {
		return false, ""
	}
	if p.Row == 7 {
		return true, "save"
	}
	return true, ""
}

func TestOverlay_FeedAppendsAndSubmits(t *testing.T) {
	o := NewOverlay(KindNewThread, []string{""}, boxHitTest)
	assert.False(t, o.Feed([]byte("title")))
	assert.Equal(t, "title", o.State.Fields[0])
	assert.True(t, o.Feed([]byte{0x0d}))
}

func TestOverlay_ClickOutsideDismisses(t *testing.T) {
	o := NewOverlay(KindTaskEditor, []string{""}, boxHitTest)
	res := o.HandlePointer(PointerEvent{Col: 100, Row: 100, Pressed: true})
	assert.True(t, res.Dismiss)
	assert.True(t, o.State.Dismissed)
}

func TestOverlay_ClickInsideFiresAction(t *testing.T) {
	o := NewOverlay(KindTaskEditor, []string{""}, boxHitTest)
	res := o.HandlePointer(PointerEvent{Col: 10, Row: 7, Pressed: true})
	assert.False(t, res.Dismiss)
	assert.Equal(t, "save", res.Action)
	assert.False(t, o.State.Dismissed)
}

func TestOverlay_ReleaseNeverDismissesOrFires(t *testing.T) {
	o := NewOverlay(KindTaskEditor, []string{""}, boxHitTest)
	res := o.HandlePointer(PointerEvent{Col: 100, Row: 100, Pressed: false})
	assert.False(t, res.Dismiss)
	assert.Empty(t, res.Action)
	assert.False(t, o.State.Dismissed)
}
