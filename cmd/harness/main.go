// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Command harness runs the gateway daemon (harnessd, invoked as
// "harness gateway start") and its adjacent operator commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes per the documented CLI surface.
const (
	exitOK          = 0
	exitGenericErr  = 1
	exitBadArgs     = 2
	exitSIGINT      = 130
	exitSIGTERM     = 143
)

var rootCmd = &cobra.Command{
	Use:           "harness",
	Short:         "harness runs and controls the PTY-session control-plane gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(gatewayCmd)
	rootCmd.AddCommand(renderTraceCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "harness: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a returned error to the documented exit code. Argument
// validation errors are tagged with badArgsError; everything else is a
// generic failure.
func exitCodeFor(err error) int {
	if _, ok := err.(*badArgsError); ok {
		return exitBadArgs
	}
	return exitGenericErr
}

// badArgsError marks a command failure as a usage error (exit code 2)
// rather than a generic runtime error (exit code 1).
type badArgsError struct{ msg string }

func (e *badArgsError) Error() string { return e.msg }

func badArgs(format string, args ...any) error {
	return &badArgsError{msg: fmt.Sprintf(format, args...)}
}
