// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// AdapterState is the lifecycle of a conversation's provider adapter.
type AdapterState string

const (
	AdapterUninitialized AdapterState = "uninitialized"
	AdapterStarting      AdapterState = "starting"
	AdapterReady         AdapterState = "ready"
	AdapterStopped       AdapterState = "stopped"
)

// RuntimeStatus is the coarse, UI-facing lifecycle state of a
// conversation's backing session.
type RuntimeStatus string

const (
	RuntimeRunning    RuntimeStatus = "running"
	RuntimeNeedsInput RuntimeStatus = "needs-input"
	RuntimeCompleted  RuntimeStatus = "completed"
	RuntimeExited     RuntimeStatus = "exited"
)

// Conversation is a single back-and-forth thread with a provider adapter,
// scoped to a Directory.
type Conversation struct {
	ID                 ConversationID
	Scope              Scope
	DirectoryID        DirectoryID
	Title              string
	AgentType          string
	AdapterState       AdapterState
	RuntimeStatus      RuntimeStatus
	RuntimeStatusModel string
	RuntimeLive        bool
	// LatestStatusModel mirrors the most recent session-status event's
	// heuristic status model, when one has been observed. Nil until the
	// conversation's session has emitted at least one status update.
	LatestStatusModel *StatusModel
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ParseConversation validates a wire payload into a Conversation record.
func ParseConversation(v any) (*Conversation, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: conversation: not an object", ErrInvalid)
	}

	id, ok := asString(m, "conversationId")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: conversation: missing conversationId", ErrInvalid)
	}
	directoryID, ok := asString(m, "directoryId")
	if !ok || directoryID == "" {
		return nil, fmt.Errorf("%w: conversation: missing directoryId", ErrInvalid)
	}
	scope, err := parseScope(m)
	if err != nil {
		return nil, fmt.Errorf("%w: conversation: %v", ErrInvalid, err)
	}

	title, ok := asOptionalString(m, "title")
	if !ok {
		return nil, fmt.Errorf("%w: conversation: bad title", ErrInvalid)
	}
	agentType, ok := asOptionalString(m, "agentType")
	if !ok {
		return nil, fmt.Errorf("%w: conversation: bad agentType", ErrInvalid)
	}

	adapterRaw, ok := asString(m, "adapterState")
	if !ok {
		adapterRaw = string(AdapterUninitialized)
	}
	adapterState := AdapterState(adapterRaw)
	switch adapterState {
	case AdapterUninitialized, AdapterStarting, AdapterReady, AdapterStopped:
	default:
		return nil, fmt.Errorf("%w: conversation: unknown adapterState %q", ErrInvalid, adapterRaw)
	}

	runtimeRaw, ok := asString(m, "runtimeStatus")
	if !ok {
		// No session has ever reported status for this conversation yet.
		runtimeRaw = string(RuntimeExited)
	}
	runtimeStatus := RuntimeStatus(runtimeRaw)
	switch runtimeStatus {
	case RuntimeRunning, RuntimeNeedsInput, RuntimeCompleted, RuntimeExited:
	default:
		return nil, fmt.Errorf("%w: conversation: unknown runtimeStatus %q", ErrInvalid, runtimeRaw)
	}

	runtimeStatusModel, ok := asOptionalString(m, "runtimeStatusModel")
	if !ok {
		return nil, fmt.Errorf("%w: conversation: bad runtimeStatusModel", ErrInvalid)
	}

	runtimeLive, _ := asBool(m, "runtimeLive")

	createdAt, ok := parseRequiredTime(m, "createdAt")
	if !ok {
		return nil, fmt.Errorf("%w: conversation: missing/bad createdAt", ErrInvalid)
	}
	updatedAt, ok := parseRequiredTime(m, "updatedAt")
	if !ok {
		return nil, fmt.Errorf("%w: conversation: missing/bad updatedAt", ErrInvalid)
	}

	return &Conversation{
		ID:                 ConversationID(id),
		Scope:              scope,
		DirectoryID:        DirectoryID(directoryID),
		Title:              title,
		AgentType:          agentType,
		AdapterState:       adapterState,
		RuntimeStatus:      runtimeStatus,
		RuntimeStatusModel: runtimeStatusModel,
		RuntimeLive:        runtimeLive,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}, nil
}
