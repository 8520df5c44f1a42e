// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package renderpipeline

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jmoyers/harness/internal/reduce"
)

// Layout carries the caller's terminal/viewport dimensions and any
// client-specific geometry; opaque to the orchestrator.
type Layout any

// Row is one composed output row (a terminal line, a DOM row, ...);
// opaque to the orchestrator, interpreted only by FlushFunc.
type Row any

// RenderState is whatever prepareRenderState decides the current frame
// needs rendered; nil means "skip this tick" (e.g. no active directory).
type RenderState any

// LeftRailInput is handed to LeftRailRenderer.Render.
type LeftRailInput struct {
	Layout   Layout
	Snapshot Snapshot
}

// LeftRailRenderer composes the left navigation rail.
type LeftRailRenderer interface {
	Render(in LeftRailInput) []Row
}

// RightPaneInput is handed to RightPaneRenderer.Render.
type RightPaneInput struct {
	Layout              Layout
	RightFrame          any
	HomePaneActive      bool
	ProjectPaneActive   bool
	ActiveDirectoryID   *string
	Snapshot            Snapshot
}

// RightPaneRenderer composes the main content pane.
type RightPaneRenderer interface {
	Render(in RightPaneInput) []Row
}

// ComposedFrame is everything FlushFunc needs to diff and write the
// terminal/DOM: the composed rows plus at most one modal overlay layered on
// top.
type ComposedFrame struct {
	LeftRail []Row
	RightPane []Row
	Overlay   []Row // nil when no modal is active
}

// FlushFunc composes rows, applies at most one modal overlay, diffs against
// the prior screen, and writes only the changed rows. It is supplied by the
// transport (TUI or web) driving this orchestrator; the orchestrator itself
// never touches a terminal or DOM.
type FlushFunc func(ComposedFrame)

// PrepareFunc computes this tick's RenderState from the current
// selection/drag, or nil to skip the tick entirely (e.g. nothing selected
// yet). It must not read the store: all further reads for the tick come
// from the Snapshot captured right after this call.
type PrepareFunc func(selection Selection, drag SelectionDrag) RenderState

// SnapshotFunc captures one identity-stable Snapshot from the store.
type SnapshotFunc func(state reduce.State) Snapshot

// Orchestrator runs the single-threaded cooperative render loop described by
// §4.I: a boolean dirty flag set by every store notification, consulted
// once per tick, gating a prepare → snapshot → compose → flush sequence.
type Orchestrator struct {
	mu    sync.Mutex
	dirty bool
	shuttingDown bool

	prepare   PrepareFunc
	snapshot  SnapshotFunc
	leftRail  LeftRailRenderer
	rightPane RightPaneRenderer
	flush     FlushFunc

	getState func() reduce.State
}

// Config wires an Orchestrator to its collaborators. All fields are
// required except GetState, which defaults to returning an empty state
// (useful only in tests that never mark the pipeline dirty from a real
// store).
type Config struct {
	Prepare   PrepareFunc
	Snapshot  SnapshotFunc
	LeftRail  LeftRailRenderer
	RightPane RightPaneRenderer
	Flush     FlushFunc
	GetState  func() reduce.State
}

// New returns an Orchestrator that starts clean (not dirty); call MarkDirty
// once after construction if an initial render is required before any
// store notification arrives.
func New(cfg Config) *Orchestrator {
	getState := cfg.GetState
	if getState == nil {
		getState = func() reduce.State { return reduce.New() }
	}
	return &Orchestrator{
		prepare:   cfg.Prepare,
		snapshot:  cfg.Snapshot,
		leftRail:  cfg.LeftRail,
		rightPane: cfg.RightPane,
		flush:     cfg.Flush,
		getState:  getState,
	}
}

// MarkDirty sets the dirty flag; it is the listener an Orchestrator's owner
// registers with syncedstore.Store.Subscribe so every state replacement
// schedules a re-render on the next tick.
func (o *Orchestrator) MarkDirty(reduce.State) {
	o.mu.Lock()
	o.dirty = true
	o.mu.Unlock()
}

// Shutdown marks the pipeline as shutting down; subsequent Tick calls are
// no-ops. Safe to call more than once.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.shuttingDown = true
	o.mu.Unlock()
}

// Tick runs one cooperative pass: if shutting down or not dirty, it
// returns immediately without flushing. Otherwise it clears dirty, calls
// prepareRenderState, and — unless that returned nil — reads one snapshot,
// composes left rail and right pane, and hands the composed frame to
// FlushFunc. No store read happens between the snapshot and the flush.
func (o *Orchestrator) Tick(selection Selection, drag SelectionDrag, layout Layout, rightFrame any, homePaneActive, projectPaneActive bool, activeDirectoryID *string) {
	o.mu.Lock()
	if o.shuttingDown || !o.dirty {
		o.mu.Unlock()
		return
	}
	o.dirty = false
	o.mu.Unlock()

	state := o.prepare(selection, drag)
	if state == nil {
		return
	}

	snap := o.snapshot(o.getState())

	// leftRail and rightPane each render from the same by-value Snapshot
	// and touch nothing else, so they run concurrently rather than back
	// to back; g.Wait() is the tick's only join point before flush.
	var g errgroup.Group
	frame := ComposedFrame{}
	if o.leftRail != nil {
		g.Go(func() error {
			frame.LeftRail = o.leftRail.Render(LeftRailInput{Layout: layout, Snapshot: snap})
			return nil
		})
	}
	if o.rightPane != nil {
		g.Go(func() error {
			frame.RightPane = o.rightPane.Render(RightPaneInput{
				Layout:            layout,
				RightFrame:        rightFrame,
				HomePaneActive:    homePaneActive,
				ProjectPaneActive: projectPaneActive,
				ActiveDirectoryID: activeDirectoryID,
				Snapshot:          snap,
			})
			return nil
		})
	}
	g.Wait()
	o.flush(frame)
}

// IsDirty reports the current dirty flag, for tests and diagnostics only;
// production callers should rely on Tick's own gating.
func (o *Orchestrator) IsDirty() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dirty
}
