// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/internal/record"
	"github.com/jmoyers/harness/pkg/client"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "manage tasks",
}

func init() {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list tasks, ordered by their board position",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				tasks, err := c.Tasks.List(ctx)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					fmt.Printf("%d\t%s\t%s\t%s\n", t.OrderIndex, t.ID, t.Status, t.Title)
				}
				return nil
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "create a draft task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			body, _ := cmd.Flags().GetString("body")
			repoID, _ := cmd.Flags().GetString("repository-id")
			p := client.CreateParams{TaskID: id, Title: args[0], Body: body}
			if repoID != "" {
				p.RepositoryID = &repoID
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				t, err := c.Tasks.Create(ctx, p)
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", t.ID, t.Title)
				return nil
			})
		},
	}
	createCmd.Flags().String("id", "", "existing task ID to reuse (empty mints a new one)")
	createCmd.Flags().String("body", "", "task body")
	createCmd.Flags().String("repository-id", "", "scope the task to a repository")

	transitionCmd := func(use, short, cmdSuffix string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <task-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cmd, func(ctx context.Context, c *client.Client) error {
					var t *record.Task
					var err error
					switch cmdSuffix {
					case "ready":
						t, err = c.Tasks.Ready(ctx, args[0])
					case "draft":
						t, err = c.Tasks.Draft(ctx, args[0])
					case "complete":
						t, err = c.Tasks.Complete(ctx, args[0])
					}
					if err != nil {
						return err
					}
					fmt.Printf("%s\t%s\n", t.ID, t.Status)
					return nil
				})
			},
		}
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder <task-id> [task-id...]",
		Short: "reorder tasks to match the given sequence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Tasks.Reorder(ctx, args)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				return c.Tasks.Delete(ctx, args[0])
			})
		},
	}

	taskCmd.AddCommand(
		listCmd, createCmd,
		transitionCmd("ready", "mark a draft task ready", "ready"),
		transitionCmd("draft", "move a ready task back to draft", "draft"),
		transitionCmd("complete", "mark an in-progress task completed", "complete"),
		reorderCmd, deleteCmd,
	)
}
