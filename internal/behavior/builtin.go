// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package behavior

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/claimflags/internal/flag"
)

// Built-in flag names.
const (
	NoEnterPlayerName    = "NoEnterPlayer"
	BuySubclaimName      = "BuySubclaim"
	ExitCommandOwnerName = "ExitCommand-Owner"
)

// Definitions builds every built-in definition.
func Definitions(deps Deps) ([]*flag.Definition, error) {
	if deps.Resolver == nil || deps.Host == nil {
		return nil, oops.Code(flag.CodeInvalidDefinition).Errorf("built-in behaviors need a resolver and a host")
	}
	builders := []func(Deps) (*flag.Definition, error){
		NoEnterPlayer,
		BuySubclaim,
		ExitCommandOwner,
	}
	defs := make([]*flag.Definition, 0, len(builders))
	for _, build := range builders {
		def, err := build(deps)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Register adds every built-in definition to registry.
func Register(registry *flag.Registry, deps Deps) error {
	defs, err := Definitions(deps)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// isOwner reports whether player owns region.
func isOwner(player flag.Player, region *flag.Region) bool {
	return region != nil && player.ID != (ulid.ULID{}) && region.OwnerID == player.ID
}
