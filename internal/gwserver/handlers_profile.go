// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/jmoyers/harness/internal/wire"
)

// handleProfileStart begins a CPU profile capture into a timestamped file
// under Server.StateDir, mirroring render-trace.start's toggle shape but
// backed by the Go runtime's own profiler instead of an in-process flag.
func (c *conn) handleProfileStart(cmd wire.Command) (any, *wire.Error) {
	c.server.profileMu.Lock()
	defer c.server.profileMu.Unlock()

	if c.server.profileFile != nil {
		return nil, wire.NewError(wire.ErrConflict, "profile already running")
	}

	dir := c.server.StateDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, fmt.Sprintf("harness-%d.pprof", time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return nil, wire.NewError(wire.ErrInternal, "create profile file: "+err.Error())
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, wire.NewError(wire.ErrInternal, "start cpu profile: "+err.Error())
	}
	c.server.profileFile = f
	return map[string]any{"enabled": true, "path": path}, nil
}

// handleProfileStop stops an in-flight CPU profile and closes its file.
func (c *conn) handleProfileStop(cmd wire.Command) (any, *wire.Error) {
	c.server.profileMu.Lock()
	defer c.server.profileMu.Unlock()

	if c.server.profileFile == nil {
		return map[string]any{"enabled": false}, nil
	}
	pprof.StopCPUProfile()
	path := c.server.profileFile.Name()
	err := c.server.profileFile.Close()
	c.server.profileFile = nil
	if err != nil {
		return nil, wire.NewError(wire.ErrInternal, "close profile file: "+err.Error())
	}
	return map[string]any{"enabled": false, "path": path}, nil
}
