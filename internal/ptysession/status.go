// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import (
	"strings"

	"github.com/jmoyers/harness/internal/record"
)

// StatusClassifier derives a status model from the most recent output
// chunk. It is pluggable so providers with structured output (see
// internal/nim) can supply a model-aware classifier instead of the
// default plain-text heuristic.
type StatusClassifier interface {
	Classify(chunk []byte, prev record.StatusModel) record.StatusModel
}

// HeuristicClassifier is the default StatusClassifier: simple textual
// heuristics over the tail of pty output. It favors false "working" over
// false "idle" since the cost of an unwarranted spinner is lower than a
// missed needs-input prompt.
type HeuristicClassifier struct{}

var confirmationSuffixes = []string{"?", "(y/n)", "(y/n) ", "[y/n]", "[y/N]"}

// Classify implements StatusClassifier.
func (HeuristicClassifier) Classify(chunk []byte, prev record.StatusModel) record.StatusModel {
	text := string(chunk)
	trimmed := strings.TrimRight(text, " \t\r\n")
	lower := strings.ToLower(trimmed)

	if trimmed == "" {
		return prev
	}

	for _, suffix := range confirmationSuffixes {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return record.StatusModel{
				Phase:        record.PhaseNeedsInput,
				ActivityHint: "awaiting confirmation",
			}
		}
	}

	if strings.Contains(lower, "traceback") || strings.Contains(lower, "panic:") {
		return record.StatusModel{
			Phase:           record.PhaseWorking,
			ActivityHint:    "producing output",
			AttentionReason: "error output detected",
		}
	}

	return record.StatusModel{
		Phase:        record.PhaseWorking,
		ActivityHint: "producing output",
	}
}
