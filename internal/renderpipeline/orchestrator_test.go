// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package renderpipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmoyers/harness/internal/reduce"
)

type stubLeftRail struct{ calls int }

func (s *stubLeftRail) Render(in LeftRailInput) []Row {
	s.calls++
	return []Row{"left"}
}

type stubRightPane struct{ calls int }

func (s *stubRightPane) Render(in RightPaneInput) []Row {
	s.calls++
	return []Row{"right"}
}

func newTestOrchestrator(prepare PrepareFunc) (*Orchestrator, *stubLeftRail, *stubRightPane, *int) {
	lr := &stubLeftRail{}
	rp := &stubRightPane{}
	flushes := 0
	o := New(Config{
		Prepare:   prepare,
		Snapshot:  func(reduce.State) Snapshot { return Snapshot{} },
		LeftRail:  lr,
		RightPane: rp,
		Flush:     func(ComposedFrame) { flushes++ },
	})
	return o, lr, rp, &flushes
}

func TestTick_SkipsWhenNotDirty(t *testing.T) {
	o, lr, rp, flushes := newTestOrchestrator(func(Selection, SelectionDrag) RenderState { return struct{}{} })
	o.Tick(nil, nil, nil, nil, false, false, nil)
	assert.Equal(t, 0, lr.calls)
	assert.Equal(t, 0, rp.calls)
	assert.Equal(t, 0, *flushes)
}

func TestTick_RendersAndFlushesWhenDirty(t *testing.T) {
	o, lr, rp, flushes := newTestOrchestrator(func(Selection, SelectionDrag) RenderState { return struct{}{} })
	o.MarkDirty(reduce.State{})
	o.Tick(nil, nil, nil, nil, false, false, nil)
	assert.Equal(t, 1, lr.calls)
	assert.Equal(t, 1, rp.calls)
	assert.Equal(t, 1, *flushes)
	assert.False(t, o.IsDirty())
}

func TestTick_ClearsDirtyEvenWhenPrepareReturnsNil(t *testing.T) {
	o, lr, rp, flushes := newTestOrchestrator(func(Selection, SelectionDrag) RenderState { return nil })
	o.MarkDirty(reduce.State{})
	o.Tick(nil, nil, nil, nil, false, false, nil)
	assert.Equal(t, 0, lr.calls)
	assert.Equal(t, 0, rp.calls)
	assert.Equal(t, 0, *flushes)
	assert.False(t, o.IsDirty(), "dirty must clear even when the tick renders nothing")
}

func TestTick_NoopAfterShutdown(t *testing.T) {
	o, lr, _, flushes := newTestOrchestrator(func(Selection, SelectionDrag) RenderState { return struct{}{} })
	o.MarkDirty(reduce.State{})
	o.Shutdown()
	o.Tick(nil, nil, nil, nil, false, false, nil)
	assert.Equal(t, 0, lr.calls)
	assert.Equal(t, 0, *flushes)
}

func TestMarkDirty_IsIdempotentAcrossMultipleNotifications(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(func(Selection, SelectionDrag) RenderState { return struct{}{} })
	o.MarkDirty(reduce.State{})
	o.MarkDirty(reduce.State{})
	require.True(t, o.IsDirty())
	o.Tick(nil, nil, nil, nil, false, false, nil)
	assert.False(t, o.IsDirty())
}
