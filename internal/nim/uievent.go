// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package nim

import "time"

// UIEventKind enumerates the coarser events a session projects to the UI.
// Debug mode forwards all of these; seamless mode drops ui.thinking and
// the ui.tool.call.* kinds and forwards the rest (assistant.text.*,
// ui.state.changed, ui.turn.finished and turn.aborted).
type UIEventKind string

const (
	UIThinking        UIEventKind = "ui.thinking"
	UIToolCallStarted UIEventKind = "ui.tool.call.started"
	UIToolCallResult  UIEventKind = "ui.tool.call.result"
	UIToolCallFailed  UIEventKind = "ui.tool.call.failed"
	UITextDelta       UIEventKind = "assistant.text.delta"
	UITextMessage     UIEventKind = "assistant.text.message"
	UIStateChanged    UIEventKind = "ui.state.changed"
	UITurnAborted     UIEventKind = "turn.aborted"
	UITurnFinished    UIEventKind = "ui.turn.finished"
)

// UIEvent is one entry on a session's UI stream.
type UIEvent struct {
	Kind  UIEventKind
	Ts    time.Time
	RunID string

	Status Status // ui.state.changed

	ToolName string // ui.tool.call.*
	ToolID   string

	Text  string // assistant.text.delta/message
	Delta string

	Reason string // turn.aborted / ui.turn.finished(finishReason)
}

// EventStream is the semantic (fidelity-preserving) stream a session
// forwards every ProviderEvent onto, tagged with the owning run.
type EventStream struct {
	RunID string
	Event ProviderEvent
}
