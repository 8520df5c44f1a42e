// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import "github.com/jmoyers/harness/internal/wire"

// handleRenderTraceStart turns the server's render-trace flag on. The flag
// is read back through Server.RenderTraceEnabled; the render pipeline does
// not read it and records no per-tick trace, so this command only flips
// the flag.
func (c *conn) handleRenderTraceStart(cmd wire.Command) (any, *wire.Error) {
	c.server.renderTrace.Store(true)
	return map[string]any{"enabled": true}, nil
}

func (c *conn) handleRenderTraceStop(cmd wire.Command) (any, *wire.Error) {
	c.server.renderTrace.Store(false)
	return map[string]any{"enabled": false}, nil
}

// RenderTraceEnabled reports whether render tracing is currently on.
func (s *Server) RenderTraceEnabled() bool {
	return s.renderTrace.Load()
}
