// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var ptyCmd = &cobra.Command{
	Use:   "pty",
	Short: "spawn and stream pty-backed processes",
}

func init() {
	startCmd := &cobra.Command{
		Use:   "start -- <command> [args...]",
		Short: "spawn a pty process and print its session ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			cwd, _ := cmd.Flags().GetString("cwd")
			fg, _ := cmd.Flags().GetBool("fg")
			sp := client.StartParams{
				SessionID:  id,
				Args:       args,
				Cwd:        cwd,
				Cols:       80,
				Rows:       24,
				Foreground: fg,
				Background: !fg,
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				s, err := c.PTY.Start(ctx, sp)
				if err != nil {
					return err
				}
				fmt.Println(s.ID)
				return nil
			})
		},
	}
	startCmd.Flags().String("id", "", "existing session ID to reuse (empty mints a new one)")
	startCmd.Flags().String("cwd", "", "working directory (defaults to the gateway's own cwd)")
	startCmd.Flags().Bool("fg", true, "start the session as foreground (sent to the gateway as fg; this command only prints the session ID, use attach to stream output)")

	attachCmd := &cobra.Command{
		Use:   "attach <session-id>",
		Short: "stream a session's pty output to stdout until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := args[0]
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				done := make(chan struct{})
				c.OnEvent(func(ev client.Event) {
					switch ev.Type {
					case "pty.output":
						var payload struct {
							SessionID string `json:"sessionId"`
							Bytes     string `json:"bytes"`
						}
						if json.Unmarshal(ev.Raw, &payload) == nil && payload.SessionID == sessionID {
							if data, err := base64.StdEncoding.DecodeString(payload.Bytes); err == nil {
								os.Stdout.Write(data)
							}
						}
					case "pty.exit":
						var payload struct {
							SessionID string `json:"sessionId"`
						}
						if json.Unmarshal(ev.Raw, &payload) == nil && payload.SessionID == sessionID {
							close(done)
						}
					}
				})

				if _, err := c.PTY.Attach(ctx, sessionID, 0); err != nil {
					return err
				}
				defer c.PTY.Detach(ctx, sessionID)

				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, os.Interrupt)
				select {
				case <-sigCh:
				case <-done:
				case <-ctx.Done():
				}
				return nil
			})
		},
	}

	closeCmd := &cobra.Command{
		Use:   "close <session-id>",
		Short: "tear down a session's pty process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.PTY.Close(ctx, args[0])
			})
		},
	}

	ptyCmd.AddCommand(startCmd, attachCmd, closeCmd)
}
