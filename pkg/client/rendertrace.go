// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// RenderTraceClient provides access to render-trace.* commands, which
// toggle the gateway's render-trace flag. Nothing in the render pipeline
// reads that flag, so no per-tick trace is captured.
type RenderTraceClient struct{ c *Client }

// Start enables render tracing.
func (r *RenderTraceClient) Start(ctx context.Context) error {
	return r.c.Call(ctx, "render-trace.start", nil, nil)
}

// Stop disables render tracing.
func (r *RenderTraceClient) Stop(ctx context.Context) error {
	return r.c.Call(ctx, "render-trace.stop", nil, nil)
}
