// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gatewayrecord

import (
	"fmt"
	"os"
	"time"
)

// AlreadyRunningError is returned by Elect when a live gateway already
// holds the record.
type AlreadyRunningError struct {
	Existing Record
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("gateway already running (pid %d, port %d)", e.Existing.PID, e.Existing.Port)
}

// Elect performs the single-writer election for gateway start: it tries
// to create the record file exclusively; if one already exists it probes
// the recorded pid and either defers to it (AlreadyRunningError) or takes
// over a stale record by rewriting it.
func Elect(store *Store, port int, authToken string) (*Record, error) {
	candidate := Record{
		Port:      port,
		AuthToken: authToken,
		PID:       os.Getpid(),
		StartedAt: time.Now(),
	}

	if err := store.CreateExclusive(candidate); err == nil {
		return &candidate, nil
	} else if !os.IsExist(err) {
		return nil, fmt.Errorf("elect gateway: %w", err)
	}

	existing, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("elect gateway: load existing record: %w", err)
	}
	if existing == nil {
		// Record vanished between the failed create and the load; retry once.
		if err := store.CreateExclusive(candidate); err != nil {
			return nil, fmt.Errorf("elect gateway: retry create: %w", err)
		}
		return &candidate, nil
	}
	if PIDLive(existing.PID) {
		return nil, &AlreadyRunningError{Existing: *existing}
	}

	if err := store.Save(candidate); err != nil {
		return nil, fmt.Errorf("elect gateway: take over stale record: %w", err)
	}
	return &candidate, nil
}

// StatusInfo is the reported shape of `gateway status`.
type StatusInfo struct {
	Running bool          `json:"running"`
	Port    int           `json:"port,omitempty"`
	PID     int           `json:"pid,omitempty"`
	Uptime  time.Duration `json:"uptime,omitempty"`
}

// Status reports whether a gateway is currently running per the record
// file and, if so, its port/pid/uptime.
func Status(store *Store) (StatusInfo, error) {
	rec, err := store.Load()
	if err != nil {
		return StatusInfo{}, fmt.Errorf("gateway status: %w", err)
	}
	if rec == nil || !PIDLive(rec.PID) {
		return StatusInfo{Running: false}, nil
	}
	return StatusInfo{
		Running: true,
		Port:    rec.Port,
		PID:     rec.PID,
		Uptime:  time.Since(rec.StartedAt),
	}, nil
}

// Release deletes the record file. Called on every gateway exit path
// (clean shutdown, signal handler, or deferred from main).
func Release(store *Store) error {
	return store.Delete()
}
