// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package behavior

import (
	"context"
	"errors"
	"strings"

	"github.com/holomush/claimflags/internal/flag"
)

// BypassExitCommandPermission exempts a player from owner exit commands.
const BypassExitCommandPermission = "claimflags.bypass.exitcommand"

// ExitCommandOwner runs console commands when a claim owner leaves their claim.
// Commands are separated by ';' and may use %name% and %uuid%.
func ExitCommandOwner(deps Deps) (*flag.Definition, error) {
	b := &exitCommandOwner{deps: deps}
	return flag.NewDefinition(flag.DefinitionSpec{
		Name:         ExitCommandOwnerName,
		SetMessage:   "Owner exit commands set: {{ .Params }}",
		UnsetMessage: "Owner exit commands cleared.",
		Scopes:       []flag.ScopeKind{flag.ScopeClaim, flag.ScopeDefault},
		Validate:     requireParams("You must provide at least one command."),
		OnMove:       b.onMove,
	})
}

type exitCommandOwner struct {
	deps Deps
}

func (b *exitCommandOwner) onMove(ctx context.Context, mv flag.Movement) error {
	if mv.From == nil || mv.FromRegion == nil || !isOwner(mv.Player, mv.FromRegion) {
		return nil
	}
	left, ok := b.deps.Resolver.FlagAt(*mv.From, ExitCommandOwnerName)
	if !ok {
		return nil
	}
	if entered, ok := b.deps.Resolver.FlagAt(mv.To, ExitCommandOwnerName); ok {
		if entered.SameInstance(left) {
			return nil
		}
		if entered.Params == left.Params && mv.ToRegion != nil && mv.ToRegion.OwnerID == mv.FromRegion.OwnerID {
			return nil
		}
	}
	if b.deps.Host.HasPermission(mv.Player, BypassExitCommandPermission) {
		return nil
	}

	replacer := strings.NewReplacer("%name%", mv.Player.Name, "%uuid%", mv.Player.ID.String())
	var errs []error
	for _, cmd := range strings.Split(left.Params, ";") {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" {
			continue
		}
		if err := b.deps.Host.DispatchCommand(ctx, replacer.Replace(cmd)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
