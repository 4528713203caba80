// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/config"
)

// NewRootCmd creates the root command for the claimflags CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claimflags",
		Short: "Inspect and edit claim flags",
		Long: `claimflags manages named flags attached to land claims, worlds, and the
whole server. Flags set on a claim override its parent claim, the world, and
server-wide values; the default scope applies inside every claim that does not
override it.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewValidateCmd(),
		NewListCmd(),
		NewGetCmd(),
		NewSetCmd(),
		NewUnsetCmd(),
		NewResolveCmd(),
		NewPruneCmd(),
		NewDefinitionsCmd(),
		NewSchemaCmd(),
		NewServeCmd(),
	)

	return cmd
}
