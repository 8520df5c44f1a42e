// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gatewayrecord implements the gateway's single-writer election
// mechanism: a small JSON record file under the workspace state
// directory naming the port, auth token, pid, and start time of the
// process currently owning the control plane.
package gatewayrecord

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"
)

// Record is the persisted gateway election state.
type Record struct {
	Port      int       `json:"port"`
	AuthToken string    `json:"authToken"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
}

// Store reads and writes the gateway record file.
type Store struct {
	path string
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the record file's path.
func (s *Store) Path() string { return s.path }

// Load reads the record, returning (nil, nil) if no record file exists.
func (s *Store) Load() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read gateway record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse gateway record: %w", err)
	}
	return &rec, nil
}

// CreateExclusive atomically creates the record file, failing if one
// already exists. Used by gateway start's initial election attempt.
func (s *Store) CreateExclusive(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create gateway record dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gateway record: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// Save overwrites the record file atomically (write tmp, then rename),
// used when an existing record is stale and this process is taking over.
func (s *Store) Save(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal gateway record: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create gateway record dir: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write temp gateway record: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename gateway record: %w", err)
	}
	return nil
}

// Delete removes the record file. Called on every gateway exit path.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PIDLive reports whether pid names a running process, using
// github.com/mitchellh/go-ps for a portable liveness probe (avoids
// parsing /proc directly and works the same on darwin where the teacher's
// target platforms include macOS developer machines).
func PIDLive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := ps.FindProcess(pid)
	return err == nil && proc != nil
}
