// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewPruneCmd creates the prune subcommand.
func NewPruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop flags stored for claims that no longer exist",
		Long: `Remove every claim scope not listed in the world file and save the
flags file. World, server-wide, and default scopes are never pruned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			valid := a.world.ClaimIDs()
			var dropped []string
			if dryRun {
				dropped = a.manager.RetainOnly(valid)
			} else {
				dropped, err = a.datastore.Prune(ctx, valid)
				if err != nil {
					return err
				}
			}

			if len(dropped) == 0 {
				cmd.Println("Nothing to prune.")
				return nil
			}
			verb := "Pruned"
			if dryRun {
				verb = "Would prune"
			}
			cmd.Printf("%s %d scopes: %s\n", verb, len(dropped), strings.Join(dropped, ", "))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without saving")
	return cmd
}
