// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "inspect and control pty sessions",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				sessions, err := c.Sessions.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range sessions {
					fmt.Printf("%s\t%s\t%v\n", s.ID, s.Status, s.Live)
				}
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "show a session's current snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				s, err := c.Sessions.Status(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("status=%s live=%v attached=%d phase=%s\n", s.Status, s.Live, s.AttachedClients, s.StatusModel.Phase)
				return nil
			})
		},
	}

	respondCmd := &cobra.Command{
		Use:   "respond <session-id> <text>",
		Short: "send input to a session's pty",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			controllerID, _ := cmd.Flags().GetString("controller-id")
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				responded, sentBytes, err := c.Sessions.Respond(ctx, args[0], args[1], controllerID)
				if err != nil {
					return err
				}
				fmt.Printf("responded=%v sentBytes=%d\n", responded, sentBytes)
				return nil
			})
		},
	}
	respondCmd.Flags().String("controller-id", "", "controller ID to respond as (defaults to the connection's claimed controller)")

	interruptCmd := &cobra.Command{
		Use:   "interrupt <session-id>",
		Short: "send an interrupt signal to a session's pty process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				ok, err := c.Sessions.Interrupt(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("interrupted=%v\n", ok)
				return nil
			})
		},
	}

	claimCmd := &cobra.Command{
		Use:   "claim <session-id>",
		Short: "claim controller ownership of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controllerID, _ := cmd.Flags().GetString("controller-id")
			controllerType, _ := cmd.Flags().GetString("controller-type")
			label, _ := cmd.Flags().GetString("label")
			takeover, _ := cmd.Flags().GetBool("takeover")
			p := client.ClaimParams{
				SessionID:       args[0],
				ControllerID:    controllerID,
				ControllerType:  controllerType,
				ControllerLabel: label,
				Takeover:        takeover,
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				s, err := c.Sessions.Claim(ctx, p)
				if err != nil {
					return err
				}
				fmt.Printf("claimed %s\n", s.ID)
				return nil
			})
		},
	}
	claimCmd.Flags().String("controller-id", "", "controller ID claiming the session")
	claimCmd.Flags().String("controller-type", "cli", "controller type")
	claimCmd.Flags().String("label", "", "human-readable controller label")
	claimCmd.Flags().Bool("takeover", false, "steal the claim from the current controller")

	removeCmd := &cobra.Command{
		Use:   "remove <session-id>",
		Short: "tear down a session's supervisor state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Sessions.Remove(ctx, args[0])
			})
		},
	}

	sessionCmd.AddCommand(listCmd, statusCmd, respondCmd, interruptCmd, claimCmd, removeCmd)
}
