// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/pkg/client"
)

var repositoryCmd = &cobra.Command{
	Use:   "repository",
	Short: "manage repositories",
}

func repositoryUpsertParams(cmd *cobra.Command) client.UpsertParams {
	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	remote, _ := cmd.Flags().GetString("remote-url")
	branch, _ := cmd.Flags().GetString("default-branch")
	return client.UpsertParams{
		RepositoryID:  id,
		Name:          name,
		RemoteURL:     remote,
		DefaultBranch: branch,
	}
}

func addRepositoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("id", "", "existing repository ID to update (empty mints a new one)")
	cmd.Flags().String("name", "", "repository name")
	cmd.Flags().String("remote-url", "", "git remote URL")
	cmd.Flags().String("default-branch", "main", "default branch")
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				repos, err := c.Repositories.List(ctx)
				if err != nil {
					return err
				}
				for _, r := range repos {
					fmt.Printf("%s\t%s\t%s\n", r.ID, r.Name, r.RemoteURL)
				}
				return nil
			})
		},
	}

	upsertCmd := &cobra.Command{
		Use:   "upsert",
		Short: "create or update a repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := repositoryUpsertParams(cmd)
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				r, err := c.Repositories.Upsert(ctx, p)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", r.ID, r.Name)
				return nil
			})
		},
	}
	addRepositoryFlags(upsertCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "update an existing repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := repositoryUpsertParams(cmd)
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				r, err := c.Repositories.Update(ctx, p)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", r.ID, r.Name)
				return nil
			})
		},
	}
	addRepositoryFlags(updateCmd)

	archiveCmd := &cobra.Command{
		Use:   "archive <repository-id>",
		Short: "archive a repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				_, err := c.Repositories.Archive(ctx, args[0])
				return err
			})
		},
	}

	repositoryCmd.AddCommand(listCmd, upsertCmd, updateCmd, archiveCmd)
}
