// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/internal/config"
	"github.com/jmoyers/harness/internal/gatewayrecord"
	"github.com/jmoyers/harness/pkg/client"
)

// cliScope is the scope operator CLI commands connect under. It carries
// no tenant data of its own; it exists only so commands that toggle
// process-wide state (render-trace, profile) can complete the hello
// handshake.
var cliScope = client.Scope{TenantID: "cli", UserID: "cli", WorkspaceID: "cli"}

// dialRunningGateway reads the gateway record for cfg's state directory
// and dials it, failing with a clear message if no gateway is running.
func dialRunningGateway(ctx context.Context, cfg *config.Config) (*client.Client, error) {
	store, _, err := recordStore(cfg)
	if err != nil {
		return nil, err
	}
	rec, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load gateway record: %w", err)
	}
	if rec == nil || !gatewayrecord.PIDLive(rec.PID) {
		return nil, fmt.Errorf("no gateway running")
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	addr := fmt.Sprintf("127.0.0.1:%d", rec.Port)
	return client.Dial(dialCtx, addr, rec.AuthToken, cliScope)
}

func withGatewayClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, err := loadGatewayConfig(cmd)
	if err != nil {
		return badArgs("load config: %v", err)
	}
	c, err := dialRunningGateway(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(cmd.Context(), c)
}
