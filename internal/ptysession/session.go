// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package ptysession

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"

	"github.com/jmoyers/harness/internal/metrics"
	"github.com/jmoyers/harness/internal/record"
)

// ErrAlreadyLive is returned by Start when sessionId is already live.
var ErrAlreadyLive = errors.New("session already live")

// ErrNoController names the case where no controller holds the session,
// or the caller isn't the controller that does. Respond reports that case
// as responded=false and does not return this error.
var ErrNoController = errors.New("no controller")

// StartParams configures a new pty.start invocation.
type StartParams struct {
	SessionID     record.SessionID
	Scope         record.Scope
	Args          []string
	Env           map[string]string
	Cwd           string
	Cols, Rows    uint16
	WorktreeID    *string
	Foreground    bool
	Background    bool
	LaunchCommand string
}

// OutputChunk is one replayed-or-live slice of pty output.
type OutputChunk struct {
	StartCursor uint64
	EndCursor   uint64
	Data        []byte
}

// SessionEvent is a status or lifecycle notification a subscriber of
// pty.subscribe-events receives. The control-plane command server (4.F)
// translates these into observed events stamped with a global cursor.
type SessionEvent struct {
	Kind      string // "session-status" | "exited"
	SessionID record.SessionID
	Scope     record.Scope
	Ts        time.Time
	Status    record.StatusModel
	LastExit  *record.LastExit
}

// Session supervises one pty-backed child process: its output ring
// buffer, controller slot, and attached/subscribed client bookkeeping.
type Session struct {
	id            record.SessionID
	scope         record.Scope
	cfg           Config
	classifier    StatusClassifier
	launchCommand string
	worktreeID    *string

	mu        sync.Mutex
	cmd       *exec.Cmd
	ptmx      *os.File
	live      bool
	startedAt time.Time
	exitedAt  *time.Time
	lastExit  *record.LastExit
	processID int
	status    record.StatusModel

	ring *RingBuffer

	controller controllerSlot

	outputMu      sync.Mutex
	outputClients map[chan OutputChunk]struct{}

	eventsMu    sync.Mutex
	eventSubs   map[chan SessionEvent]struct{}

	respondQueue chan respondJob
	respondStop  chan struct{}
	stdinMu      sync.Mutex

	closeOnce sync.Once
	doneCh    chan struct{}

	// pump groups the session's three long-lived goroutines (output
	// read, respond-queue drain, exit wait) so Close can join all of
	// them instead of merely waiting for the exit signal while the
	// other two are still tailing off.
	pump errgroup.Group
}

type respondJob struct {
	text     string
	callerID record.ControllerID
	result   chan respondResult
}

type respondResult struct {
	responded bool
	sentBytes int
}

// New constructs a not-yet-started Session.
func New(id record.SessionID, scope record.Scope, cfg Config, classifier StatusClassifier) *Session {
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	return &Session{
		id:            id,
		scope:         scope,
		cfg:           cfg,
		classifier:    classifier,
		ring:          NewRingBuffer(cfg.RingBufferBytes),
		outputClients: map[chan OutputChunk]struct{}{},
		eventSubs:     map[chan SessionEvent]struct{}{},
		status:        record.StatusModel{Phase: record.PhaseIdle},
		doneCh:        make(chan struct{}),
	}
}

// ID returns the session's id.
func (s *Session) ID() record.SessionID { return s.id }

// Start spawns the child process under a pty. It fails with ErrAlreadyLive
// if the session has already been started.
func (s *Session) Start(params StartParams) error {
	s.mu.Lock()
	if s.live {
		s.mu.Unlock()
		return ErrAlreadyLive
	}
	if len(params.Args) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("pty_start_failed: empty command")
	}

	cmd := exec.Command(params.Args[0], params.Args[1:]...)
	cmd.Dir = params.Cwd
	cmd.Env = os.Environ()
	for k, v := range params.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: params.Rows, Cols: params.Cols})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("pty_start_failed: %w", err)
	}

	s.cmd = cmd
	s.ptmx = ptmx
	s.live = true
	s.startedAt = time.Now()
	s.processID = cmd.Process.Pid
	s.worktreeID = params.WorktreeID
	s.launchCommand = params.LaunchCommand
	s.status = record.StatusModel{Phase: record.PhaseWorking, ActivityHint: "starting"}
	s.respondQueue = make(chan respondJob, s.cfg.RespondQueueDepth)
	s.respondStop = make(chan struct{})
	s.mu.Unlock()

	s.pump.Go(func() error { s.readLoop(); return nil })
	s.pump.Go(func() error { s.respondLoop(); return nil })
	s.pump.Go(func() error { s.waitLoop(); return nil })

	return nil
}

func (s *Session) readLoop() {
	buf := make([]byte, 32*1024)
	for {
		s.mu.Lock()
		ptmx := s.ptmx
		s.mu.Unlock()
		if ptmx == nil {
			return
		}

		n, err := ptmx.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			start, end := s.ring.Write(chunk)
			s.broadcastOutput(OutputChunk{StartCursor: start, EndCursor: end, Data: chunk})
			s.updateStatus(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) updateStatus(chunk []byte) {
	s.mu.Lock()
	prev := s.status
	next := s.classifier.Classify(chunk, prev)
	changed := next != prev
	if changed {
		s.status = next
	}
	scope := s.scope
	id := s.id
	s.mu.Unlock()

	if changed {
		s.broadcastEvent(SessionEvent{Kind: "session-status", SessionID: id, Scope: scope, Ts: time.Now(), Status: next})
	}
}

func (s *Session) waitLoop() {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	waitErr := cmd.Wait()

	s.mu.Lock()
	now := time.Now()
	s.live = false
	s.exitedAt = &now
	s.status = record.StatusModel{Phase: record.PhaseExited}
	s.lastExit = lastExitFromWaitErr(waitErr)
	scope := s.scope
	id := s.id
	lastExit := s.lastExit
	s.mu.Unlock()

	close(s.respondStop)
	s.broadcastEvent(SessionEvent{Kind: "exited", SessionID: id, Scope: scope, Ts: now, LastExit: lastExit})
	close(s.doneCh)
}

func lastExitFromWaitErr(err error) *record.LastExit {
	if err == nil {
		code := 0
		return &record.LastExit{Code: &code}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			sig := status.Signal().String()
			return &record.LastExit{Signal: &sig}
		}
		return &record.LastExit{Code: &code}
	}
	code := -1
	return &record.LastExit{Code: &code}
}

func (s *Session) respondLoop() {
	for {
		select {
		case job := <-s.respondQueue:
			ok, n := s.writeStdin(job.text, job.callerID)
			job.result <- respondResult{responded: ok, sentBytes: n}
		case <-s.respondStop:
			s.drainRespondQueue()
			return
		}
	}
}

func (s *Session) drainRespondQueue() {
	for {
		select {
		case job := <-s.respondQueue:
			job.result <- respondResult{responded: false}
		default:
			return
		}
	}
}

func (s *Session) writeStdin(text string, callerID record.ControllerID) (bool, int) {
	controller := s.controller.get()
	if controller == nil || controller.ControllerID != callerID {
		return false, 0
	}

	s.mu.Lock()
	ptmx := s.ptmx
	live := s.live
	s.mu.Unlock()
	if !live || ptmx == nil {
		return false, 0
	}

	s.stdinMu.Lock()
	defer s.stdinMu.Unlock()
	n, err := io.WriteString(ptmx, text)
	if err != nil {
		return false, n
	}
	return true, n
}

// Respond writes text to the pty's stdin on behalf of callerID, rejecting
// if callerID does not hold the controller slot. Sustained backpressure
// (the respond queue is full) reports responded=false rather than
// blocking indefinitely.
func (s *Session) Respond(callerID record.ControllerID, text string) (responded bool, sentBytes int) {
	s.mu.Lock()
	queue := s.respondQueue
	s.mu.Unlock()
	if queue == nil {
		return false, 0
	}

	result := make(chan respondResult, 1)
	select {
	case queue <- respondJob{text: text, callerID: callerID, result: result}:
	default:
		metrics.RespondDroppedTotal.Inc()
		return false, 0
	}

	select {
	case r := <-result:
		return r.responded, r.sentBytes
	case <-time.After(5 * time.Second):
		return false, 0
	}
}

// Interrupt sends SIGINT to the process group.
func (s *Session) Interrupt() (bool, error) {
	s.mu.Lock()
	cmd := s.cmd
	live := s.live
	s.mu.Unlock()
	if !live || cmd == nil || cmd.Process == nil {
		return false, errors.New("not_found")
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGINT); err != nil {
		return false, err
	}
	return true, nil
}

// Close gracefully terminates the process: SIGTERM, CloseGrace, then
// SIGKILL. It blocks until the process has exited.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		cmd := s.cmd
		live := s.live
		done := s.doneCh
		s.mu.Unlock()
		if !live || cmd == nil || cmd.Process == nil {
			return
		}

		pgid := cmd.Process.Pid
		syscall.Kill(-pgid, syscall.SIGTERM)

		select {
		case <-done:
		case <-time.After(CloseGrace):
			syscall.Kill(-pgid, syscall.SIGKILL)
			<-done
		}
		s.pump.Wait()
	})
	return err
}

// Claim attempts to take the controller slot.
func (s *Session) Claim(controller record.Controller, takeover bool) (ok bool, previous *record.Controller, err error) {
	return s.controller.claim(controller, takeover)
}

// ReleaseController clears the slot if held by controllerID, e.g. on
// client disconnect.
func (s *Session) ReleaseController(controllerID record.ControllerID) bool {
	return s.controller.release(controllerID)
}

// Controller returns the current controller, or nil if unclaimed.
func (s *Session) Controller() *record.Controller { return s.controller.get() }

// AttachOutput registers an output subscriber and replays buffered bytes
// above sinceCursor onto the returned channel before live chunks flow.
// earliestCursor is the oldest cursor still available in the ring buffer;
// if it is greater than sinceCursor, some of the requested history was
// already evicted and the caller should fall back to a snapshot command.
func (s *Session) AttachOutput(sinceCursor uint64) (ch chan OutputChunk, earliestCursor uint64, detach func()) {
	ch = make(chan OutputChunk, 256)
	replay, earliest, evicted := s.ring.Since(sinceCursor)

	s.outputMu.Lock()
	s.outputClients[ch] = struct{}{}
	s.outputMu.Unlock()

	if len(replay) > 0 {
		start := sinceCursor
		if evicted {
			start = earliest
		}
		select {
		case ch <- OutputChunk{StartCursor: start, EndCursor: start + uint64(len(replay)), Data: replay}:
		default:
		}
	}

	detach = func() {
		s.outputMu.Lock()
		if _, ok := s.outputClients[ch]; ok {
			delete(s.outputClients, ch)
			close(ch)
		}
		s.outputMu.Unlock()
	}
	return ch, earliest, detach
}

// AttachedClients reports the number of live output subscribers.
func (s *Session) AttachedClients() uint32 {
	s.outputMu.Lock()
	defer s.outputMu.Unlock()
	return uint32(len(s.outputClients))
}

// SubscribeEvents registers a status/lifecycle event subscriber.
func (s *Session) SubscribeEvents() (ch chan SessionEvent, unsubscribe func()) {
	ch = make(chan SessionEvent, 64)
	s.eventsMu.Lock()
	s.eventSubs[ch] = struct{}{}
	s.eventsMu.Unlock()

	unsubscribe = func() {
		s.eventsMu.Lock()
		if _, ok := s.eventSubs[ch]; ok {
			delete(s.eventSubs, ch)
			close(ch)
		}
		s.eventsMu.Unlock()
	}
	return ch, unsubscribe
}

// EventSubscribers reports the number of live event subscribers.
func (s *Session) EventSubscribers() uint32 {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	return uint32(len(s.eventSubs))
}

func (s *Session) broadcastOutput(chunk OutputChunk) {
	s.outputMu.Lock()
	defer s.outputMu.Unlock()
	for ch := range s.outputClients {
		select {
		case ch <- chunk:
		default:
			// Slow/disconnected subscriber: dropped per the backpressure
			// policy in 4.F; the gateway layer is responsible for
			// eventually detaching it.
		}
	}
}

func (s *Session) broadcastEvent(ev SessionEvent) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	for ch := range s.eventSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Snapshot returns the record.Session projection of current state.
func (s *Session) Snapshot() *record.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var processID *int
	if s.processID != 0 {
		pid := s.processID
		processID = &pid
	}

	phase := s.status.Phase
	if phase == "" {
		phase = record.PhaseIdle
	}

	return &record.Session{
		ID:               s.id,
		Scope:            s.scope,
		WorktreeID:       s.worktreeID,
		Status:           phase,
		StatusModel:      s.status,
		LatestCursor:     s.ring.Cursor(),
		ProcessID:        processID,
		AttachedClients:  s.AttachedClients(),
		EventSubscribers: s.EventSubscribers(),
		StartedAt:        s.startedAt,
		ExitedAt:         s.exitedAt,
		LastExit:         s.lastExit,
		Live:             s.live,
		LaunchCommand:    s.launchCommand,
		Controller:       s.controller.get(),
	}
}
