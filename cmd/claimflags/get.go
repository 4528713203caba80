// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewGetCmd creates the get subcommand.
func NewGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <scope> <flag>",
		Short: "Show the record stored for a flag in one scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			f, ok := a.manager.Store().Get(args[0], args[1])
			if !ok {
				cmd.Printf("%s is not stored in scope %s.\n", args[1], args[0])
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "SCOPE", "FLAG", "STATE", "PARAMS")
			t.AppendRow(flagRow(f))
			t.Render()
			return nil
		},
	}
}
