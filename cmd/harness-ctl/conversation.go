// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "manage conversations",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				convs, err := c.Conversations.List(ctx)
				if err != nil {
					return err
				}
				for _, cv := range convs {
					fmt.Printf("%s\t%s\t%s\t%s\n", cv.ID, cv.DirectoryID, cv.Title, cv.RuntimeStatus)
				}
				return nil
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <directory-id>",
		Short: "start a new conversation under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			title, _ := cmd.Flags().GetString("title")
			agentType, _ := cmd.Flags().GetString("agent-type")
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				cv, err := c.Conversations.Create(ctx, id, args[0], title, agentType)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", cv.ID, cv.Title)
				return nil
			})
		},
	}
	createCmd.Flags().String("id", "", "existing conversation ID to reuse (empty mints a new one)")
	createCmd.Flags().String("title", "", "conversation title")
	createCmd.Flags().String("agent-type", "", "provider adapter type")

	archiveCmd := &cobra.Command{
		Use:   "archive <conversation-id>",
		Short: "archive a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Conversations.Archive(ctx, args[0])
			})
		},
	}

	titleRefreshCmd := &cobra.Command{
		Use:   "title-refresh <conversation-id>",
		Short: "ask the gateway to regenerate a conversation's title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				res, err := c.Conversations.TitleRefresh(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s: %s\n", res.Status, res.Reason)
				return nil
			})
		},
	}

	conversationCmd.AddCommand(listCmd, createCmd, archiveCmd, titleRefreshCmd)
}
