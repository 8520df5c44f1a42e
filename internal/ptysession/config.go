// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ptysession is the PTY session supervisor: process lifecycle,
// output ring buffer with cursors, controller claims, and attach/detach
// bookkeeping for one pty-backed child process per session.
package ptysession

import (
	"os"
	"strconv"
	"time"
)

const (
	defaultRingBufferBytes   = 256 * 1024
	defaultRespondQueueDepth = 64
	// CloseGrace is how long pty.close waits after SIGTERM before SIGKILL.
	CloseGrace = 2 * time.Second
)

// Config tunes one session's resource limits.
type Config struct {
	// RingBufferBytes bounds the output ring buffer. Overrideable via
	// PTY_RING_BUFFER_BYTES.
	RingBufferBytes int
	// RespondQueueDepth bounds session.respond's write queue. Overrideable
	// via PTY_RESPOND_QUEUE_DEPTH.
	RespondQueueDepth int
}

// DefaultConfig returns the supervisor's defaults, applying environment
// overrides if present and valid. An invalid override is ignored in favor
// of the built-in default rather than failing startup.
func DefaultConfig() Config {
	cfg := Config{
		RingBufferBytes:   defaultRingBufferBytes,
		RespondQueueDepth: defaultRespondQueueDepth,
	}
	if v, ok := envInt("PTY_RING_BUFFER_BYTES"); ok && v > 0 {
		cfg.RingBufferBytes = v
	}
	if v, ok := envInt("PTY_RESPOND_QUEUE_DEPTH"); ok && v > 0 {
		cfg.RespondQueueDepth = v
	}
	return cfg
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
