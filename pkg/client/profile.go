// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// ProfileClient provides access to profile.* commands, which toggle a
// server-side CPU profile capture.
type ProfileClient struct{ c *Client }

// ProfileResult is the result of Start/Stop.
type ProfileResult struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Start begins a CPU profile capture, returning the file path it is
// writing to.
func (p *ProfileClient) Start(ctx context.Context) (*ProfileResult, error) {
	var out ProfileResult
	if err := p.c.Call(ctx, "profile.start", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stop ends an in-flight CPU profile capture.
func (p *ProfileClient) Stop(ctx context.Context) (*ProfileResult, error) {
	var out ProfileResult
	if err := p.c.Call(ctx, "profile.stop", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
