// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package nim

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmoyers/harness/internal/logging"
)

const (
	defaultTranscriptLines = 500
	defaultQueueCapacity   = 64
)

// ErrNoActiveRun is returned by SteerTurn/AbortTurn when no run is active.
var ErrNoActiveRun = errors.New("no active run")

// ErrUnknownProvider is returned by SendTurn when the named provider was
// never registered on the session.
var ErrUnknownProvider = errors.New("unknown provider")

// RunHandle identifies one turn's run.
type RunHandle struct {
	RunID          string
	IdempotencyKey string
}

// Session is the in-memory NIM runtime for a single conversation. One
// Session drives at most one active run at a time; mid-turn steering and
// queued follow-up inputs are handled per §4.H of the runtime's turn state
// machine.
type Session struct {
	mu sync.Mutex

	status       Status
	uiMode       UIMode
	composerText string
	queuedInputs []string

	activeRunID string
	cancelRun   context.CancelFunc

	providers map[string]ProviderDriver
	toolBridge ToolBridge

	transcript *transcriptRing

	idempotent map[string]RunHandle

	abortReason string

	eventSubs map[chan EventStream]struct{}
	uiSubs    map[chan UIEvent]struct{}
}

// Config configures a new Session.
type Config struct {
	UIMode           UIMode
	TranscriptLines  int
	QueueCapacity    int
	ToolBridge       ToolBridge
}

// NewSession creates an idle session with no registered providers.
func NewSession(cfg Config) *Session {
	if cfg.UIMode == "" {
		cfg.UIMode = ModeSeamless
	}
	qc := cfg.QueueCapacity
	if qc <= 0 {
		qc = defaultQueueCapacity
	}
	return &Session{
		status:     StatusIdle,
		uiMode:     cfg.UIMode,
		providers:  make(map[string]ProviderDriver),
		toolBridge: cfg.ToolBridge,
		transcript: newTranscriptRing(cfg.TranscriptLines),
		idempotent: make(map[string]RunHandle),
		eventSubs:  make(map[chan EventStream]struct{}),
		uiSubs:     make(map[chan UIEvent]struct{}),
	}
}

// RegisterProvider adds or replaces a driver available to SendTurn.
func (s *Session) RegisterProvider(d ProviderDriver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[d.ID()] = d
}

// Status returns the current coarse status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// UIMode returns the current projection mode.
func (s *Session) UIMode() UIMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uiMode
}

// SetUIMode switches between debug and seamless projection.
func (s *Session) SetUIMode(mode UIMode) {
	s.mu.Lock()
	s.uiMode = mode
	s.mu.Unlock()
}

// Transcript returns a snapshot of the bounded transcript.
func (s *Session) Transcript() []TranscriptLine {
	return s.transcript.snapshot()
}

// ComposerText returns the UI-editable composer buffer.
func (s *Session) ComposerText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composerText
}

// SetComposerText replaces the composer buffer (UI-driven edits).
func (s *Session) SetComposerText(text string) {
	s.mu.Lock()
	s.composerText = text
	s.mu.Unlock()
}

// QueuedInputs returns a snapshot of the pending FIFO.
func (s *Session) QueuedInputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queuedInputs))
	copy(out, s.queuedInputs)
	return out
}

// SubscribeEvents registers a listener for the raw semantic event stream
// (fidelity "semantic" — every ProviderEvent the driver emits).
func (s *Session) SubscribeEvents() chan EventStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan EventStream, 256)
	s.eventSubs[ch] = struct{}{}
	return ch
}

// UnsubscribeEvents removes a semantic-event listener.
func (s *Session) UnsubscribeEvents(ch chan EventStream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.eventSubs[ch]; ok {
		delete(s.eventSubs, ch)
		close(ch)
	}
}

// SubscribeUI registers a listener for the mode-projected UI stream.
func (s *Session) SubscribeUI() chan UIEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan UIEvent, 256)
	s.uiSubs[ch] = struct{}{}
	return ch
}

// UnsubscribeUI removes a UI-event listener.
func (s *Session) UnsubscribeUI(ch chan UIEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.uiSubs[ch]; ok {
		delete(s.uiSubs, ch)
		close(ch)
	}
}

func (s *Session) fanOutEvent(runID string, ev ProviderEvent) {
	s.mu.Lock()
	subs := make([]chan EventStream, 0, len(s.eventSubs))
	for ch := range s.eventSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()
	payload := EventStream{RunID: runID, Event: ev}
	for _, ch := range subs {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (s *Session) fanOutUI(ev UIEvent) {
	s.mu.Lock()
	subs := make([]chan UIEvent, 0, len(s.uiSubs))
	for ch := range s.uiSubs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.fanOutUI(UIEvent{Kind: UIStateChanged, Ts: time.Now(), Status: st})
}

// SendTurn starts a turn on the named provider. A repeated idempotencyKey
// (non-empty) returns the prior run's handle instead of starting a new run.
func (s *Session) SendTurn(ctx context.Context, providerID, input, idempotencyKey string) (RunHandle, error) {
	s.mu.Lock()
	if idempotencyKey != "" {
		if prior, ok := s.idempotent[idempotencyKey]; ok {
			s.mu.Unlock()
			return prior, nil
		}
	}
	driver, ok := s.providers[providerID]
	if !ok {
		s.mu.Unlock()
		return RunHandle{}, ErrUnknownProvider
	}
	if s.activeRunID != "" {
		// A run is already in flight: queue this input rather than start a
		// second concurrent run (at most one run is active at a time).
		s.queuedInputs = append(s.queuedInputs, input)
		s.mu.Unlock()
		return RunHandle{}, nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	runID := uuid.New().String()
	s.activeRunID = runID
	s.cancelRun = cancel
	handle := RunHandle{RunID: runID, IdempotencyKey: idempotencyKey}
	if idempotencyKey != "" {
		s.idempotent[idempotencyKey] = handle
	}
	s.mu.Unlock()

	s.transcript.append(TranscriptLine{Role: "user", Text: input})
	s.setStatus(StatusThinking)

	stream, err := driver.RunTurn(runCtx, input)
	if err != nil {
		s.finishRun(runID)
		s.setStatus(StatusIdle)
		cancel()
		return RunHandle{}, err
	}
	go s.pump(runCtx, cancel, runID, stream)
	return handle, nil
}

// pump drains the driver's semantic event stream, projecting each event to
// both the raw event stream and (mode-dependent) the UI stream, and
// tracking coarse status transitions for the turn.
func (s *Session) pump(ctx context.Context, cancel context.CancelFunc, runID string, stream <-chan ProviderEvent) {
	defer cancel()
	var textBuf strings.Builder
	for {
		select {
		case ev, ok := <-stream:
			if !ok {
				s.finishRun(runID)
				s.setStatus(StatusIdle)
				s.drainQueue(runID)
				return
			}
			s.fanOutEvent(runID, ev)
			s.project(runID, ev, &textBuf)
			if ev.Kind == EvtTurnFinished {
				s.transcript.append(TranscriptLine{Role: "assistant", Text: textBuf.String()})
			}
		case <-ctx.Done():
			s.mu.Lock()
			reason := s.abortReason
			if reason == "" {
				reason = "aborted"
			}
			s.abortReason = ""
			s.mu.Unlock()
			s.finishRun(runID)
			s.setStatus(StatusIdle)
			s.fanOutUI(UIEvent{Kind: UITurnAborted, Ts: time.Now(), RunID: runID, Reason: reason})
			return
		}
	}
}

// project translates one semantic event into the UI stream according to the
// session's current mode: debug forwards thinking and tool activity,
// seamless drops them. Assistant text, the turn-finished marker and the
// state changes sent by setStatus go out in both modes.
func (s *Session) project(runID string, ev ProviderEvent, textBuf *strings.Builder) {
	mode := s.UIMode()
	switch ev.Kind {
	case EvtThinkingStarted:
		s.setStatus(StatusThinking)
		if mode == ModeDebug {
			s.fanOutUI(UIEvent{Kind: UIThinking, Ts: ev.Ts, RunID: runID})
		}
	case EvtThinkingCompleted:
		// no UI-visible transition; responding/tool-calling follow next
	case EvtToolCallStarted:
		s.setStatus(StatusToolCalling)
		if mode == ModeDebug {
			s.fanOutUI(UIEvent{Kind: UIToolCallStarted, Ts: ev.Ts, RunID: runID, ToolName: ev.ToolName, ToolID: ev.ToolCallID})
		}
	case EvtToolArgumentsDelta:
		// swallowed in both modes; only start/completed/failed surface
	case EvtToolCallCompleted:
		if mode == ModeDebug {
			s.fanOutUI(UIEvent{Kind: UIToolCallResult, Ts: ev.Ts, RunID: runID, ToolName: ev.ToolName, ToolID: ev.ToolCallID})
		}
	case EvtToolCallFailed:
		if mode == ModeDebug {
			s.fanOutUI(UIEvent{Kind: UIToolCallFailed, Ts: ev.Ts, RunID: runID, ToolName: ev.ToolName, ToolID: ev.ToolCallID, Reason: ev.ToolError})
		}
	case EvtToolResultEmitted:
		// carried in ToolCallCompleted's projection; semantic stream keeps
		// it distinct for fidelity but the UI stream does not.
	case EvtOutputDelta:
		s.setStatus(StatusResponding)
		textBuf.WriteString(ev.TextDelta)
		s.fanOutUI(UIEvent{Kind: UITextDelta, Ts: ev.Ts, RunID: runID, Delta: ev.TextDelta})
	case EvtOutputCompleted:
		s.fanOutUI(UIEvent{Kind: UITextMessage, Ts: ev.Ts, RunID: runID, Text: ev.Text})
	case EvtTurnFinished:
		s.fanOutUI(UIEvent{Kind: UITurnFinished, Ts: ev.Ts, RunID: runID, Reason: ev.FinishReason})
	}
}

func (s *Session) finishRun(runID string) {
	s.mu.Lock()
	if s.activeRunID == runID {
		s.activeRunID = ""
		s.cancelRun = nil
	}
	s.mu.Unlock()
}

// drainQueue pulls one queued input, if any are pending, and starts a
// follow-up turn on a registered provider. The finished run's provider is
// not recorded: with several providers registered, whichever one map
// iteration yields first is used.
func (s *Session) drainQueue(finishedRunID string) {
	s.mu.Lock()
	if len(s.queuedInputs) == 0 {
		s.mu.Unlock()
		return
	}
	next := s.queuedInputs[0]
	s.queuedInputs = s.queuedInputs[1:]
	var providerID string
	for id := range s.providers {
		providerID = id
		break
	}
	s.mu.Unlock()
	if providerID == "" {
		return
	}
	if _, err := s.SendTurn(context.Background(), providerID, next, ""); err != nil {
		logging.Logger.Warn().Err(err).Str("component", "nim").Msg("drain queue: send turn failed")
	}
}

// SteerTurn injects mid-turn user text into the active run. The driver
// decides whether it can accept the steer right now (e.g. between tool
// calls); a rejected steer is pushed back onto the queue rather than lost.
func (s *Session) SteerTurn(ctx context.Context, text string) (accepted bool, reason string, err error) {
	s.mu.Lock()
	runID := s.activeRunID
	if runID == "" {
		s.mu.Unlock()
		return false, "", ErrNoActiveRun
	}
	var driver ProviderDriver
	for _, d := range s.providers {
		driver = d
		break
	}
	s.mu.Unlock()
	if driver == nil {
		return false, "", ErrUnknownProvider
	}
	accepted, reason, err = driver.Steer(ctx, runID, text)
	if err != nil {
		return false, "", err
	}
	if !accepted {
		s.mu.Lock()
		s.queuedInputs = append(s.queuedInputs, text)
		s.mu.Unlock()
	}
	return accepted, reason, nil
}

// AbortTurn cancels the active run. The runtime emits turn.aborted and
// transitions to idle; it does not drain the queue (an explicit abort is a
// user decision to stop, not a turn boundary).
func (s *Session) AbortTurn(reason string) error {
	s.mu.Lock()
	cancel := s.cancelRun
	if cancel == nil {
		s.mu.Unlock()
		return ErrNoActiveRun
	}
	s.abortReason = reason
	s.mu.Unlock()
	cancel()
	return nil
}
