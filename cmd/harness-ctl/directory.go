// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "manage directories",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				dirs, err := c.Directories.List(ctx)
				if err != nil {
					return err
				}
				for _, d := range dirs {
					fmt.Printf("%s\t%s\n", d.ID, d.Path)
				}
				return nil
			})
		},
	}

	upsertCmd := &cobra.Command{
		Use:   "upsert <path>",
		Short: "create or update a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				d, err := c.Directories.Upsert(ctx, id, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", d.ID, d.Path)
				return nil
			})
		},
	}
	upsertCmd.Flags().String("id", "", "existing directory ID to update (empty mints a new one)")

	archiveCmd := &cobra.Command{
		Use:   "archive <directory-id>",
		Short: "archive a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				_, err := c.Directories.Archive(ctx, args[0])
				return err
			})
		},
	}

	gitStatusCmd := &cobra.Command{
		Use:   "git-status <directory-id>",
		Short: "show a directory's git porcelain status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				st, err := c.Directories.GitStatus(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("branch: %s  clean: %v\n", st.Branch, st.Clean)
				for _, f := range st.Files {
					fmt.Printf("  %s %s\n", f.XY, f.Path)
				}
				return nil
			})
		},
	}

	directoryCmd.AddCommand(listCmd, upsertCmd, archiveCmd, gitStatusCmd)
}
