// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strconv"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/flag"
)

// NewResolveCmd creates the resolve subcommand.
func NewResolveCmd() *cobra.Command {
	var (
		scope string
		at    string
	)

	cmd := &cobra.Command{
		Use:   "resolve <flag>",
		Short: "Show the effective value of a flag",
		Long: `Resolve a flag the way the game does, following claim, parent claim,
world, and server-wide values. Give either --scope with a scope ID or --at
with a location written world:x,y,z.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (scope == "") == (at == "") {
				return userError("Give exactly one of --scope or --at.")
			}

			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			def, err := a.lookup(args[0])
			if err != nil {
				return err
			}

			var (
				f  flag.Flag
				ok bool
			)
			if scope != "" {
				f, ok = a.manager.Flag(scope, def.Name())
			} else {
				loc, err := parseLocation(at)
				if err != nil {
					return err
				}
				f, ok = a.manager.FlagAt(loc, def.Name())
			}

			if !ok {
				cmd.Printf("%s is not set.\n", def.Name())
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "SCOPE", "FLAG", "STATE", "PARAMS")
			t.AppendRow(flagRow(f))
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "scope ID to resolve from")
	cmd.Flags().StringVar(&at, "at", "", "location to resolve at, as world:x,y,z")
	return cmd
}

// parseLocation reads "world:x,y,z". The y coordinate may be omitted.
func parseLocation(s string) (flag.Location, error) {
	world, coords, ok := strings.Cut(s, ":")
	if !ok || world == "" {
		return flag.Location{}, invalidLocation(s)
	}
	parts := strings.Split(coords, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return flag.Location{}, invalidLocation(s)
	}
	nums := make([]float64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return flag.Location{}, invalidLocation(s)
		}
		nums[i] = n
	}
	loc := flag.Location{World: world, X: nums[0]}
	if len(nums) == 2 {
		loc.Z = nums[1]
	} else {
		loc.Y, loc.Z = nums[1], nums[2]
	}
	return loc, nil
}

func invalidLocation(s string) error {
	return oops.In("cli").
		With("location", s).
		With("message", "Locations are written world:x,y,z.").
		Errorf("invalid location %q", s)
}
