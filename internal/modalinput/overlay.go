// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package modalinput

// Kind enumerates the overlay families the gateway's UI clients drive
// through this contract. Each has a single reducer instance wired to
// Reduce plus its own hit-test function for pointer events.
type Kind string

const (
	KindNewThread         Kind = "new-thread"
	KindCommandMenu       Kind = "command-menu"
	KindTaskEditor        Kind = "task-editor"
	KindRepository        Kind = "repository"
	KindAPIKey            Kind = "api-key"
	KindConversationTitle Kind = "conversation-title"
	KindReleaseNotes      Kind = "release-notes"
)

// HitTest maps a pointer event to an overlay action: Inside reports whether
// (col, row) falls within the overlay's current bounds, and Action (valid
// only when Inside and Pressed) names which control was hit, e.g. "save",
// "cancel", or a field index encoded by the overlay.
type HitTest func(p PointerEvent) (inside bool, action string)

// Overlay wraps FieldState with an overlay Kind and its pointer hit-test,
// giving every overlay in the enumeration above one consistent shape:
// bytes fold through Reduce, pointer events fold through HandlePointer.
type Overlay struct {
	Kind    Kind
	State   FieldState
	HitTest HitTest
}

// NewOverlay returns an Overlay with the given field values, focused on the
// first field.
func NewOverlay(kind Kind, fields []string, hitTest HitTest) Overlay {
	return Overlay{
		Kind:    kind,
		State:   FieldState{Fields: append([]string(nil), fields...)},
		HitTest: hitTest,
	}
}

// Feed folds one chunk of raw input through the overlay's key/paste
// handling, updating State in place and reporting submit.
func (o *Overlay) Feed(inputBytes []byte) (submit bool) {
	next, submit := Reduce(o.State, inputBytes)
	o.State = next
	return submit
}

// PointerResult is what HandlePointer reports back to the caller so it can
// decide whether to dismiss the overlay or dispatch an action.
type PointerResult struct {
	Dismiss bool
	Action  string
}

// HandlePointer routes a decoded pointer event to the overlay's hit-test.
// A press outside the overlay's bounds dismisses it; a press inside fires
// whatever action the hit-test names. Release events never dismiss or
// fire — only a press does.
func (o *Overlay) HandlePointer(p PointerEvent) PointerResult {
	if !p.Pressed {
		return PointerResult{}
	}
	inside, action := o.HitTest(p)
	if !inside {
		o.State.Dismissed = true
		return PointerResult{Dismiss: true}
	}
	return PointerResult{Action: action}
}
