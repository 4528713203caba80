// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/flag"
)

// NewDefinitionsCmd creates the definitions subcommand.
func NewDefinitionsCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "definitions",
		Short: "List registered flag definitions",
		Long: `List built-in definitions and those loaded from definition packs, with
the scope kinds each allows and the number of scopes where it is active.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			defs := a.registry.All()
			if match != "" {
				if defs, err = a.registry.Match(match); err != nil {
					return err
				}
			}
			if len(defs) == 0 {
				cmd.Println("No definitions found.")
				return nil
			}

			t := newTable(cmd.OutOrStdout(), "NAME", "SCOPES", "MOVEMENT", "ACTIVE")
			for _, def := range defs {
				t.AppendRow([]any{def.Name(), scopeList(def), yesNo(def.Movement()), itoa(def.Instances())})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "only definitions whose name matches this glob")
	return cmd
}

func scopeList(def *flag.Definition) string {
	kinds := def.Scopes()
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return strings.Join(out, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
