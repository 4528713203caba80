// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the flags file, world file, and definition packs",
		Long: `Load every input the way serve does and report each problem found.
Exits non-zero when any definition pack or flags file entry was rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			for _, perr := range a.packErrs {
				cmd.Printf("definitions: %v\n", perr)
			}
			for _, msg := range a.entryErrs {
				cmd.Printf("flags: %s\n", msg)
			}

			problems := len(a.packErrs) + len(a.entryErrs)
			if problems > 0 {
				return oops.In("cli").With("problems", problems).Errorf("%d problems found", problems)
			}

			cmd.Printf("OK: %d definitions, %d packs, %d scopes\n",
				len(a.registry.Names()), len(a.packs), len(a.manager.Store().Scopes()))
			return nil
		},
	}
}
