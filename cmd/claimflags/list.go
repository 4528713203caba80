// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list subcommand.
func NewListCmd() *cobra.Command {
	var (
		match string
		scope string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored flags",
		Long: `List every stored flag record, including inactive ones. Records are
shown as stored, without inheritance; use resolve for effective values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			var names map[string]struct{}
			if match != "" {
				defs, err := a.registry.Match(match)
				if err != nil {
					return err
				}
				names = make(map[string]struct{}, len(defs))
				for _, def := range defs {
					names[def.Key()] = struct{}{}
				}
			}

			scopes := a.manager.Store().Scopes()
			if scope != "" {
				scopes = []string{scope}
			}

			t := newTable(cmd.OutOrStdout(), "SCOPE", "FLAG", "STATE", "PARAMS")
			rows := 0
			for _, s := range scopes {
				for _, f := range a.manager.Flags(s) {
					if names != nil {
						if _, ok := names[strings.ToLower(f.Name)]; !ok {
							continue
						}
					}
					t.AppendRow(flagRow(f))
					rows++
				}
			}
			if rows == 0 {
				cmd.Println("No flags found.")
				return nil
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "only flags whose name matches this glob")
	cmd.Flags().StringVar(&scope, "scope", "", "only flags stored in this scope")
	return cmd
}
