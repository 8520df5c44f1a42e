// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package record

import (
	"fmt"
	"time"
)

// ControllerType identifies what kind of actor holds a session's write slot.
type ControllerType string

const (
	ControllerHuman      ControllerType = "human"
	ControllerAgent      ControllerType = "agent"
	ControllerAutomation ControllerType = "automation"
)

// Controller owns exclusive write access to a session.
type Controller struct {
	ControllerID    ControllerID
	ControllerType  ControllerType
	ControllerLabel string
	ClaimedAt       time.Time
}

// ParseController validates a wire payload into a Controller record.
func ParseController(v any) (*Controller, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: controller: not an object", ErrInvalid)
	}

	id, ok := asString(m, "controllerId")
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: controller: missing controllerId", ErrInvalid)
	}
	typeRaw, ok := asString(m, "controllerType")
	if !ok {
		return nil, fmt.Errorf("%w: controller: missing controllerType", ErrInvalid)
	}
	ctype := ControllerType(typeRaw)
	switch ctype {
	case ControllerHuman, ControllerAgent, ControllerAutomation:
	default:
		return nil, fmt.Errorf("%w: controller: unknown controllerType %q", ErrInvalid, typeRaw)
	}

	label, ok := asOptionalString(m, "controllerLabel")
	if !ok {
		return nil, fmt.Errorf("%w: controller: bad controllerLabel", ErrInvalid)
	}

	claimedAt, ok := parseRequiredTime(m, "claimedAt")
	if !ok {
		return nil, fmt.Errorf("%w: controller: missing/bad claimedAt", ErrInvalid)
	}

	return &Controller{
		ControllerID:    ControllerID(id),
		ControllerType:  ctype,
		ControllerLabel: label,
		ClaimedAt:       claimedAt,
	}, nil
}
