// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmoyers/harness/internal/record"
)

func TestRuntimeStatusForPhase(t *testing.T) {
	tests := []struct {
		phase record.SessionPhase
		want  record.RuntimeStatus
	}{
		{record.PhaseIdle, record.RuntimeRunning},
		{record.PhaseThinking, record.RuntimeRunning},
		{record.PhaseWorking, record.RuntimeRunning},
		{record.PhaseNeedsInput, record.RuntimeNeedsInput},
		{record.PhaseExited, record.RuntimeExited},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			assert.Equal(t, tt.want, runtimeStatusForPhase(tt.phase))
		})
	}
}

func TestRuntimeStatusForExit(t *testing.T) {
	zero := 0
	nonzero := 1
	sig := "SIGTERM"

	tests := []struct {
		name string
		exit *record.LastExit
		want record.RuntimeStatus
	}{
		{"nil exit is completed", nil, record.RuntimeCompleted},
		{"zero code is completed", &record.LastExit{Code: &zero}, record.RuntimeCompleted},
		{"nonzero code is exited", &record.LastExit{Code: &nonzero}, record.RuntimeExited},
		{"signal is exited", &record.LastExit{Signal: &sig}, record.RuntimeExited},
		{"signal beats a zero code", &record.LastExit{Code: &zero, Signal: &sig}, record.RuntimeExited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, runtimeStatusForExit(tt.exit))
		})
	}
}
