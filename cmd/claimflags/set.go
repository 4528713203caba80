// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/flag"
)

// NewSetCmd creates the set subcommand.
func NewSetCmd() *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "set <scope> <flag> [params...]",
		Short: "Set a flag in a scope",
		Long: `Set a flag in a scope and save the flags file.

Scopes are claim IDs, a world name, "everywhere" for the whole server, or
"-2" for the default claim scope (write "set -- -2 ..." so it is not read
as a flag). The flag must allow the scope's kind.
With --off the flag is stored as explicitly disabled, which stops inherited
values from applying.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			scope := args[0]
			def, err := a.lookup(args[1])
			if err != nil {
				return err
			}
			if err := a.checkScope(def, scope); err != nil {
				return err
			}

			result := a.manager.SetFlag(ctx, scope, def, !off, args[2:]...)
			if !result.Success {
				return userError(result.Message)
			}
			if err := a.save(ctx); err != nil {
				return err
			}
			cmd.Println(result.Message)
			return nil
		},
	}

	cmd.Flags().BoolVar(&off, "off", false, "store the flag as disabled")
	return cmd
}

// NewUnsetCmd creates the unset subcommand.
func NewUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <scope> <flag>",
		Short: "Remove a flag from a scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}

			def, err := a.lookup(args[1])
			if err != nil {
				return err
			}

			result := a.manager.UnsetFlag(ctx, args[0], def)
			if !result.Success {
				return userError(result.Message)
			}
			if err := a.save(ctx); err != nil {
				return err
			}
			cmd.Println(result.Message)
			return nil
		},
	}
}

// checkScope rejects scopes whose kind def does not allow, and world names
// the world file does not know.
func (a *app) checkScope(def *flag.Definition, scope string) error {
	kind := a.manager.ScopeKindOf(scope)
	if !def.AllowsScope(kind) {
		allowed := make([]string, 0, len(def.Scopes()))
		for _, k := range def.Scopes() {
			allowed = append(allowed, k.String())
		}
		return userError(def.Name() + " cannot be set in a " + kind.String() +
			" scope. Allowed: " + strings.Join(allowed, ", ") + ".")
	}
	if kind == flag.ScopeWorld && len(a.world.Worlds()) > 0 && !a.manager.IsWorld(scope) {
		return userError("Unknown world " + scope + ".")
	}
	return nil
}
