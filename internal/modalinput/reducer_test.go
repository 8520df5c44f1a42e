// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package modalinput

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce_AppendAndSubmit(t *testing.T) {
	state := FieldState{Fields: []string{""}}
	state, submit := Reduce(state, []byte("hi"))
	assert.False(t, submit)
	assert.Equal(t, "hi", state.Fields[0])

	state, submit = Reduce(state, []byte{0x0d})
	assert.True(t, submit)
	assert.Equal(t, "hi", state.Fields[0])
}

func TestReduce_TabAdvancesRoundRobin(t *testing.T) {
	state := FieldState{Fields: []string{"a", "b", "c"}}
	state, _ = Reduce(state, []byte{0x09})
	assert.Equal(t, 1, state.Focused)
	state, _ = Reduce(state, []byte{0x09, 0x09})
	assert.Equal(t, 0, state.Focused)
}

func TestReduce_DeleteOnEmptyFieldIsNoop(t *testing.T) {
	state := FieldState{Fields: []string{""}}
	state, _ = Reduce(state, []byte{0x7f})
	assert.Equal(t, "", state.Fields[0])
}

func TestReduce_DeleteRemovesLastRune(t *testing.T) {
	state := FieldState{Fields: []string{"abc"}}
	state, _ = Reduce(state, []byte{0x7f})
	assert.Equal(t, "ab", state.Fields[0])
}

func TestReduce_BracketedPasteAppendsLiteralText(t *testing.T) {
	state := FieldState{Fields: []string{""}}
	state, submit := Reduce(state, []byte("\x1b[200~pasted\x1b[201~"))
	assert.False(t, submit)
	assert.Equal(t, "pasted", state.Fields[0])
}

func TestReduce_StopsAtFirstSubmitInChunk(t *testing.T) {
	state := FieldState{Fields: []string{""}}
	state, submit := Reduce(state, []byte("ab\rcd"))
	assert.True(t, submit)
	assert.Equal(t, "ab", state.Fields[0])
}
