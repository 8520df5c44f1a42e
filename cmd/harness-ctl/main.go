// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command harness-ctl is the operator CLI for a running harness gateway:
// it dials the gateway's wire protocol and issues directory, repository,
// conversation, task, session, and pty commands.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmoyers/harness/internal/config"
	"github.com/jmoyers/harness/internal/gatewayrecord"
	"github.com/jmoyers/harness/pkg/client"
)

const (
	exitOK         = 0
	exitGenericErr = 1
	exitBadArgs    = 2
)

var rootCmd = &cobra.Command{
	Use:           "harness-ctl",
	Short:         "harness-ctl talks to a running harness gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to harness.hjson (defaults to the standard search path)")
	rootCmd.PersistentFlags().String("tenant", "default", "tenant ID")
	rootCmd.PersistentFlags().String("user", "default", "user ID")
	rootCmd.PersistentFlags().String("workspace", "default", "workspace ID")

	rootCmd.AddCommand(directoryCmd)
	rootCmd.AddCommand(repositoryCmd)
	rootCmd.AddCommand(conversationCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(ptyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "harness-ctl: %v\n", err)
		if _, ok := err.(*badArgsError); ok {
			os.Exit(exitBadArgs)
		}
		os.Exit(exitGenericErr)
	}
}

type badArgsError struct{ msg string }

func (e *badArgsError) Error() string { return e.msg }

func badArgs(format string, args ...any) error {
	return &badArgsError{msg: fmt.Sprintf(format, args...)}
}

// scopeFromFlags builds a client.Scope from the root command's persistent
// flags. Subcommands pass themselves: cobra merges the root's persistent
// flags into each subcommand's flag set, so cmd.Flags() finds them.
func scopeFromFlags(cmd *cobra.Command) client.Scope {
	tenant, _ := cmd.Flags().GetString("tenant")
	user, _ := cmd.Flags().GetString("user")
	workspace, _ := cmd.Flags().GetString("workspace")
	return client.Scope{TenantID: tenant, UserID: user, WorkspaceID: workspace}
}

// dial connects to the gateway named by the operator's config, using the
// scope given by --tenant/--user/--workspace.
func dial(cmd *cobra.Command) (*client.Client, error) {
	path, _ := cmd.Flags().GetString("config")
	loader := config.NewLoader()
	var cfg *config.Config
	var err error
	if path == "" {
		if found, findErr := loader.FindConfig(); findErr == nil {
			path = found
		}
	}
	if path == "" {
		cfg = config.Default()
	} else {
		cfg, err = loader.LoadWithDefaults(cmd.Context(), path)
		if err != nil {
			return nil, badArgs("load config: %v", err)
		}
	}

	dir := cfg.Gateway.StateDir
	if len(dir) >= 2 && dir[:2] == "~/" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("resolve home directory: %w", homeErr)
		}
		dir = filepath.Join(home, dir[2:])
	}
	store := gatewayrecord.NewStore(filepath.Join(dir, "gateway.json"))
	rec, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load gateway record: %w", err)
	}
	if rec == nil || !gatewayrecord.PIDLive(rec.PID) {
		return nil, fmt.Errorf("no gateway running")
	}

	dialCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	addr := fmt.Sprintf("127.0.0.1:%d", rec.Port)
	return client.Dial(dialCtx, addr, rec.AuthToken, scopeFromFlags(cmd))
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	c, err := dial(cmd)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(cmd.Context(), c)
}
