// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package modalinput

import (
	"strings"
	"unicode/utf8"
)

// FieldState is the shared state shape every overlay reducer folds input
// into: a round-robin set of named fields plus the currently focused one.
// Overlay-specific reducers (see overlay.go) wrap this with their own
// submit/cancel semantics; the byte-level rules (submit/advance/delete/
// append) are identical across every overlay per the contract.
type FieldState struct {
	Fields   []string // field values, in tab order
	Focused  int
	Dismissed bool
}

// Reduce folds one chunk of raw input bytes into state, returning the next
// state and whether the chunk completed with a submit. Overlays that also
// need pointer hit-testing should decode separately via Decode and route
// EventPointer entries to their own hit-test function; Reduce handles only
// EventKey and EventPaste.
func Reduce(state FieldState, inputBytes []byte) (next FieldState, submit bool) {
	next = state
	for _, ev := range Decode(inputBytes) {
		switch ev.Kind {
		case EventKey:
			switch ev.Key {
			case KeySubmit:
				return next, true
			case KeyAdvance:
				if len(next.Fields) > 0 {
					next.Focused = (next.Focused + 1) % len(next.Fields)
				}
			case KeyDelete:
				next = deleteChar(next)
			case KeyNone:
				if ev.Byte >= 0x20 && ev.Byte < 0x7f {
					next = appendByte(next, ev.Byte)
				}
			}
		case EventPaste:
			next = appendText(next, ev.Text)
		case EventPointer:
			// Pointer routing is overlay-specific; see Overlay.HandlePointer.
		}
	}
	return next, false
}

func deleteChar(s FieldState) FieldState {
	if s.Focused < 0 || s.Focused >= len(s.Fields) {
		return s
	}
	f := s.Fields[s.Focused]
	if f == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(f)
	s.Fields = append([]string(nil), s.Fields...)
	s.Fields[s.Focused] = f[:len(f)-size]
	return s
}

func appendByte(s FieldState, b byte) FieldState {
	return appendText(s, string(rune(b)))
}

func appendText(s FieldState, text string) FieldState {
	if s.Focused < 0 || s.Focused >= len(s.Fields) || text == "" {
		return s
	}
	s.Fields = append([]string(nil), s.Fields...)
	var sb strings.Builder
	sb.WriteString(s.Fields[s.Focused])
	sb.WriteString(text)
	s.Fields[s.Focused] = sb.String()
	return s
}
