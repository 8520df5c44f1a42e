// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var renderTraceCmd = &cobra.Command{
	Use:   "render-trace",
	Short: "toggle render-path tracing on the running gateway",
}

func init() {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "enable render-trace logging",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGatewayClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.RenderTrace.Start(ctx); err != nil {
					return err
				}
				fmt.Println("render-trace enabled")
				return nil
			})
		},
	}
	startCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "disable render-trace logging",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGatewayClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.RenderTrace.Stop(ctx); err != nil {
					return err
				}
				fmt.Println("render-trace disabled")
				return nil
			})
		},
	}
	stopCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")

	renderTraceCmd.AddCommand(startCmd, stopCmd)
}
