// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package modalinput implements the pure byte-level input reducer contract
// shared by every overlay (new-thread, command-menu, task-editor,
// repository, api-key, conversation-title, release-notes): decode raw
// terminal input bytes into typed key/paste/pointer events, then fold them
// into an overlay's field state. No terminal rendering happens here — see
// the render orchestration contract in package renderpipeline for that.
package modalinput

import (
	"strconv"
	"strings"
)

// EventKind distinguishes the decoded input events a Decoder can produce.
type EventKind int

const (
	EventKey EventKind = iota
	EventPaste
	EventPointer
)

// Key names for non-printable control actions a KeyEvent may carry instead
// of a literal byte.
type Key int

const (
	KeyNone Key = iota
	KeySubmit
	KeyAdvance
	KeyDelete
)

// InputEvent is one decoded unit of terminal input.
type InputEvent struct {
	Kind EventKind

	// EventKey
	Key  Key
	Byte byte // printable byte when Key == KeyNone

	// EventPaste
	Text string

	// EventPointer
	Pointer PointerEvent
}

// PointerEvent is a decoded SGR mouse report: `CSI <b;col;row M` (press) or
// `CSI <b;col;row m` (release).
type PointerEvent struct {
	Col, Row int
	Pressed  bool
	Button   int
	Mods     Modifiers
}

// Modifiers decodes the modifier bitmask carried by kitty/modifyOtherKeys
// and SGR mouse sequences (1=shift, 2=alt, 4=ctrl, added to a base of 1).
type Modifiers struct {
	Shift, Alt, Ctrl bool
}

func decodeMods(n int) Modifiers {
	if n <= 0 {
		return Modifiers{}
	}
	bits := n - 1
	return Modifiers{
		Shift: bits&1 != 0,
		Alt:   bits&2 != 0,
		Ctrl:  bits&4 != 0,
	}
}

// classifyByte turns one raw byte into the InputEvent the contract assigns
// it: submit, advance, delete, or a literal printable byte. Both the main
// Decode loop and a decoded kitty/modifyOtherKeys code point (re-fed per
// the contract) go through this single classification.
func classifyByte(b byte) InputEvent {
	switch {
	case b == 0x0d || b == 0x0a:
		return InputEvent{Kind: EventKey, Key: KeySubmit}
	case b == 0x09 || b == 0x20:
		return InputEvent{Kind: EventKey, Key: KeyAdvance}
	case b == 0x7f || b == 0x08:
		return InputEvent{Kind: EventKey, Key: KeyDelete}
	default:
		return InputEvent{Kind: EventKey, Key: KeyNone, Byte: b}
	}
}

// Decode parses a raw byte chunk into a sequence of InputEvents. Unknown
// escape sequences are dropped (ignored, not surfaced as an error) per the
// contract's rule that unrecognized CSI sequences produce no event.
func Decode(data []byte) []InputEvent {
	var out []InputEvent
	i := 0
	for i < len(data) {
		b := data[i]
		switch {
		case b == 0x1b && i+1 < len(data) && data[i+1] == '[':
			n, ev, ok := decodeCSI(data[i:])
			if ok && ev != nil {
				out = append(out, *ev)
			}
			if n <= 0 {
				n = 1
			}
			i += n
		default:
			out = append(out, classifyByte(b))
			i++
		}
	}
	return out
}

// decodeCSI parses one CSI sequence (and, for bracketed paste, everything
// up to its matching end marker) starting at data[0] == 0x1b. It returns
// the number of bytes consumed and the decoded event, or ok=false if the
// sequence is recognized-but-produces-no-event (e.g. a lone escape) or
// unrecognized entirely.
func decodeCSI(data []byte) (consumed int, ev *InputEvent, ok bool) {
	// Bracketed paste start: CSI 200~ ... CSI 201~
	if strings.HasPrefix(string(data), "\x1b[200~") {
		end := strings.Index(string(data), "\x1b[201~")
		if end < 0 {
			// No terminator yet in this chunk; treat the rest as literal
			// paste text and consume it all.
			text := string(data[6:])
			return len(data), &InputEvent{Kind: EventPaste, Text: text}, true
		}
		text := string(data[6:end])
		return end + len("\x1b[201~"), &InputEvent{Kind: EventPaste, Text: text}, true
	}

	end := csiEnd(data)
	if end < 0 {
		return len(data), nil, false
	}
	body := string(data[2:end]) // between "\x1b[" and the final byte
	final := data[end]

	switch final {
	case 'u':
		// kitty: CSI <code> u
		code, err := strconv.Atoi(body)
		if err != nil || code < 0 || code > 255 {
			return end + 1, nil, false
		}
		classified := classifyByte(byte(code))
		return end + 1, &classified, true
	case '~':
		// modifyOtherKeys: CSI 27;<mods>;<code> ~
		parts := strings.Split(body, ";")
		if len(parts) == 3 && parts[0] == "27" {
			code, err := strconv.Atoi(parts[2])
			if err != nil || code < 0 || code > 255 {
				return end + 1, nil, false
			}
			classified := classifyByte(byte(code))
			return end + 1, &classified, true
		}
		return end + 1, nil, false
	case 'M', 'm':
		// SGR mouse: CSI <b;col;row M/m
		if !strings.HasPrefix(body, "<") {
			return end + 1, nil, false
		}
		parts := strings.Split(body[1:], ";")
		if len(parts) != 3 {
			return end + 1, nil, false
		}
		btnCode, err1 := strconv.Atoi(parts[0])
		col, err2 := strconv.Atoi(parts[1])
		row, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return end + 1, nil, false
		}
		p := PointerEvent{
			Col:     col,
			Row:     row,
			Pressed: final == 'M',
			Button:  btnCode & 0x3,
			Mods:    decodeMods(((btnCode >> 2) & 0x7) + 1),
		}
		return end + 1, &InputEvent{Kind: EventPointer, Pointer: p}, true
	default:
		return end + 1, nil, false
	}
}

// csiEnd returns the index of the final byte of a CSI sequence beginning
// "\x1b[" (a byte in 0x40-0x7e), or -1 if the chunk ends before one is
// found.
func csiEnd(data []byte) int {
	for i := 2; i < len(data); i++ {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			return i
		}
	}
	return -1
}
