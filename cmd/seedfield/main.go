// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Command seedfield converts SEED blockettes between their binary record
// form and delimited text, and prints the blockette schemas.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iris-edu-legacy/java-seed-sub000/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(ver string) *cobra.Command {
	cfg := config.NewConfig()
	rootCmd := &cobra.Command{
		Use:          "seedfield",
		Short:        "SEED blockette codec utility",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
	}
	cfg.Bind(rootCmd.PersistentFlags())
	rootCmd.AddCommand(
		newDecodeCmd(cfg),
		newEncodeCmd(cfg),
		newSchemaCmd(),
		newVersionCmd(ver),
	)
	return rootCmd
}

func newVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of seedfield",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "seedfield version", ver)
		},
	}
}

// openInput returns the named file, or the command input for no name or "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
