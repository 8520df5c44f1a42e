// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// SessionPhase is the coarse status-model phase derived from recent pty
// output heuristics.
type SessionPhase string

const (
	PhaseIdle       SessionPhase = "idle"
	PhaseThinking   SessionPhase = "thinking"
	PhaseWorking    SessionPhase = "working"
	PhaseNeedsInput SessionPhase = "needs-input"
	PhaseExited     SessionPhase = "exited"
)

// StatusModel is the derived heuristic status published with session-status
// events: a phase plus free-form hints for the UI.
type StatusModel struct {
	Phase          SessionPhase
	ActivityHint   string
	AttentionReason string
}

// LastExit records how a pty process terminated.
type LastExit struct {
	Code   *int
	Signal *string
}

// Telemetry carries optional, best-effort session metrics. It is set only
// when a parsed session map carries it; the pty supervisor does not fill it.
type Telemetry struct {
	BytesOut   int64
	BytesIn    int64
	ChunkCount int64
}

// Session is the live runtime view of a Conversation.
type Session struct {
	ID               SessionID
	Scope            Scope
	WorktreeID       *string
	Status           SessionPhase
	StatusModel      StatusModel
	LatestCursor     uint64
	ProcessID        *int
	AttachedClients  uint32
	EventSubscribers uint32
	StartedAt        time.Time
	LastEventAt      *time.Time
	LastExit         *LastExit
	ExitedAt         *time.Time
	Live             bool
	LaunchCommand    string
	Controller       *Controller
	Telemetry        *Telemetry
}

// ParseSession validates a wire payload into a Session record.
func ParseSession(v any) (*Session, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: session: not an object", ErrInvalid)
	}

	id, ok := asString(m, "sessionId")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: session: missing sessionId", ErrInvalid)
	}
	scope, err := parseScope(m)
	if err != nil {
		return nil, fmt.Errorf("%w: session: %v", ErrInvalid, err)
	}

	worktreeID, ok := asOptionalString(m, "worktreeId")
	if !ok {
		return nil, fmt.Errorf("%w: session: bad worktreeId", ErrInvalid)
	}
	var worktreeIDPtr *string
	if worktreeID != "" {
		worktreeIDPtr = &worktreeID
	}

	statusRaw, ok := asString(m, "status")
	if !ok {
		return nil, fmt.Errorf("%w: session: missing status", ErrInvalid)
	}
	status := SessionPhase(statusRaw)
	switch status {
	case PhaseIdle, PhaseThinking, PhaseWorking, PhaseNeedsInput, PhaseExited:
	default:
		return nil, fmt.Errorf("%w: session: unknown status %q", ErrInvalid, statusRaw)
	}

	statusModel, err := parseStatusModel(m)
	if err != nil {
		return nil, fmt.Errorf("%w: session: %v", ErrInvalid, err)
	}

	cursor, ok := asNumber(m, "latestCursor")
	if !ok || cursor < 0 {
		return nil, fmt.Errorf("%w: session: missing/bad latestCursor", ErrInvalid)
	}

	processID, ok := asOptionalNonNegativeInt(m, "processId")
	if !ok {
		return nil, fmt.Errorf("%w: session: bad processId", ErrInvalid)
	}

	attached, ok := asNumber(m, "attachedClients")
	if !ok || attached < 0 {
		return nil, fmt.Errorf("%w: session: missing/bad attachedClients", ErrInvalid)
	}
	subscribers, ok := asNumber(m, "eventSubscribers")
	if !ok || subscribers < 0 {
		return nil, fmt.Errorf("%w: session: missing/bad eventSubscribers", ErrInvalid)
	}

	startedAt, ok := parseRequiredTime(m, "startedAt")
	if !ok {
		return nil, fmt.Errorf("%w: session: missing/bad startedAt", ErrInvalid)
	}
	lastEventAt, ok := parseOptionalTime(m, "lastEventAt")
	if !ok {
		return nil, fmt.Errorf("%w: session: bad lastEventAt", ErrInvalid)
	}
	exitedAt, ok := parseOptionalTime(m, "exitedAt")
	if !ok {
		return nil, fmt.Errorf("%w: session: bad exitedAt", ErrInvalid)
	}

	lastExit, ok := parseLastExit(m)
	if !ok {
		return nil, fmt.Errorf("%w: session: bad lastExit", ErrInvalid)
	}

	live, _ := asBool(m, "live")

	launchCommand, ok := asString(m, "launchCommand")
	if !ok {
		return nil, fmt.Errorf("%w: session: missing launchCommand", ErrInvalid)
	}

	var controller *Controller
	if rawController, present := m["controller"]; present && rawController != nil {
		controller, err = ParseController(rawController)
		if err != nil {
			return nil, fmt.Errorf("%w: session: %v", ErrInvalid, err)
		}
	}

	telemetry, ok := parseTelemetry(m)
	if !ok {
		return nil, fmt.Errorf("%w: session: bad telemetry", ErrInvalid)
	}

	return &Session{
		ID:               SessionID(id),
		Scope:            scope,
		WorktreeID:       worktreeIDPtr,
		Status:           status,
		StatusModel:      statusModel,
		LatestCursor:     uint64(cursor),
		ProcessID:        processID,
		AttachedClients:  uint32(attached),
		EventSubscribers: uint32(subscribers),
		StartedAt:        startedAt,
		LastEventAt:      lastEventAt,
		LastExit:         lastExit,
		ExitedAt:         exitedAt,
		Live:             live,
		LaunchCommand:    launchCommand,
		Controller:       controller,
		Telemetry:        telemetry,
	}, nil
}

func parseStatusModel(m map[string]any) (StatusModel, error) {
	raw, ok := asMap(m, "statusModel")
	if !ok {
		return StatusModel{}, nil
	}
	return ParseStatusModel(raw)
}

// ParseStatusModel validates a standalone statusModel object, e.g. the one
// embedded in a session-status event payload.
func ParseStatusModel(raw map[string]any) (StatusModel, error) {
	phaseRaw, ok := asString(raw, "phase")
	if !ok {
		return StatusModel{}, fmt.Errorf("statusModel: missing phase")
	}
	phase := SessionPhase(phaseRaw)
	switch phase {
	case PhaseIdle, PhaseThinking, PhaseWorking, PhaseNeedsInput, PhaseExited:
	default:
		return StatusModel{}, fmt.Errorf("statusModel: unknown phase %q", phaseRaw)
	}
	hint, ok := asOptionalString(raw, "activityHint")
	if !ok {
		return StatusModel{}, fmt.Errorf("statusModel: bad activityHint")
	}
	reason, ok := asOptionalString(raw, "attentionReason")
	if !ok {
		return StatusModel{}, fmt.Errorf("statusModel: bad attentionReason")
	}
	return StatusModel{Phase: phase, ActivityHint: hint, AttentionReason: reason}, nil
}

func parseLastExit(m map[string]any) (*LastExit, bool) {
	raw, present := m["lastExit"]
	if !present || raw == nil {
		return nil, true
	}
	rm, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	code, ok := asOptionalNonNegativeInt(rm, "code")
	if !ok {
		return nil, false
	}
	signal, ok := asOptionalString(rm, "signal")
	if !ok {
		return nil, false
	}
	var signalPtr *string
	if signal != "" {
		signalPtr = &signal
	}
	return &LastExit{Code: code, Signal: signalPtr}, true
}

func parseTelemetry(m map[string]any) (*Telemetry, bool) {
	raw, present := m["telemetry"]
	if !present || raw == nil {
		return nil, true
	}
	rm, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	bytesOut, ok := asNumber(rm, "bytesOut")
	if !ok {
		bytesOut = 0
	}
	bytesIn, ok := asNumber(rm, "bytesIn")
	if !ok {
		bytesIn = 0
	}
	chunkCount, ok := asNumber(rm, "chunkCount")
	if !ok {
		chunkCount = 0
	}
	return &Telemetry{
		BytesOut:   int64(bytesOut),
		BytesIn:    int64(bytesIn),
		ChunkCount: int64(chunkCount),
	}, true
}
