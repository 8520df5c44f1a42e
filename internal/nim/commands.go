// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package nim

import (
	"context"
	"fmt"
	"strings"
)

// LocalCommandResult is returned by HandleLocalCommand when text was a
// recognized "/" command; Handled is false for anything else, and the
// caller should treat text as ordinary composer input instead.
type LocalCommandResult struct {
	Handled bool
	Output  string
}

// HandleLocalCommand intercepts "/help", "/state", "/clear", "/abort", and
// "/mode {debug|seamless}" before they ever reach a provider. Anything else
// starting with "/" is reported handled with a usage error so a client
// doesn't accidentally forward an unrecognized slash command as a prompt.
func (s *Session) HandleLocalCommand(text string) LocalCommandResult {
	if !strings.HasPrefix(text, "/") {
		return LocalCommandResult{Handled: false}
	}
	fields := strings.Fields(text)
	switch fields[0] {
	case "/help":
		return LocalCommandResult{Handled: true, Output: "/help /state /clear /abort /mode {debug|seamless}"}
	case "/state":
		return LocalCommandResult{Handled: true, Output: string(s.Status())}
	case "/clear":
		s.mu.Lock()
		s.queuedInputs = nil
		s.composerText = ""
		s.mu.Unlock()
		return LocalCommandResult{Handled: true, Output: "cleared"}
	case "/abort":
		if err := s.AbortTurn("user requested /abort"); err != nil {
			return LocalCommandResult{Handled: true, Output: err.Error()}
		}
		return LocalCommandResult{Handled: true, Output: "aborted"}
	case "/mode":
		if len(fields) != 2 || (fields[1] != string(ModeDebug) && fields[1] != string(ModeSeamless)) {
			return LocalCommandResult{Handled: true, Output: "usage: /mode {debug|seamless}"}
		}
		s.SetUIMode(UIMode(fields[1]))
		return LocalCommandResult{Handled: true, Output: "mode set to " + fields[1]}
	default:
		return LocalCommandResult{Handled: true, Output: fmt.Sprintf("unknown command: %s", fields[0])}
	}
}

// QueueComposer implements the "Tab" key: the current composer text is
// pushed onto queuedInputs and the composer is cleared, without starting a
// run.
func (s *Session) QueueComposer() {
	s.mu.Lock()
	text := s.composerText
	s.composerText = ""
	if text != "" {
		s.queuedInputs = append(s.queuedInputs, text)
	}
	s.mu.Unlock()
}

// SubmitComposer implements the "Enter" key: the composer text is submitted
// as a turn (intercepting local "/" commands first) and the composer is
// cleared.
func (s *Session) SubmitComposer(ctx context.Context, providerID string) (LocalCommandResult, RunHandle, error) {
	s.mu.Lock()
	text := s.composerText
	s.composerText = ""
	s.mu.Unlock()

	if res := s.HandleLocalCommand(text); res.Handled {
		return res, RunHandle{}, nil
	}
	handle, err := s.SendTurn(ctx, providerID, text, "")
	return LocalCommandResult{}, handle, err
}
