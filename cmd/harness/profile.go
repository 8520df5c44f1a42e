// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "capture a CPU profile from the running gateway",
}

func init() {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "begin a CPU profile capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGatewayClient(cmd, func(ctx context.Context, c *client.Client) error {
				result, err := c.Profile.Start(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("profiling started: %s\n", result.Path)
				return nil
			})
		},
	}
	startCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "stop an in-flight CPU profile capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGatewayClient(cmd, func(ctx context.Context, c *client.Client) error {
				result, err := c.Profile.Stop(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("profile written to %s\n", result.Path)
				return nil
			})
		},
	}
	stopCmd.Flags().String("config", "", "path to harness.hjson (defaults to the standard search path)")

	profileCmd.AddCommand(startCmd, stopCmd)
}
