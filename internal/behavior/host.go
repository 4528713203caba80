// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package behavior provides the built-in flag definitions that act on the
// game: entry bans, subclaim sale notices, and owner exit commands.
package behavior

import (
	"context"

	"github.com/holomush/claimflags/internal/flag"
)

// Host performs game actions on behalf of flag behaviors.
type Host interface {
	// SendMessage delivers a chat message to a player.
	SendMessage(ctx context.Context, player flag.Player, message string) error
	// DispatchCommand runs a console command.
	DispatchCommand(ctx context.Context, command string) error
	// HasPermission reports whether the player holds a permission node.
	HasPermission(player flag.Player, permission string) bool
	// CanBuild reports whether the player has build trust in region.
	CanBuild(player flag.Player, region *flag.Region) bool
	// Eject moves a player out of a region, back to from when it is known.
	Eject(ctx context.Context, player flag.Player, from *flag.Location) error
}

// Resolver answers effective flag queries. *flag.Manager satisfies it.
type Resolver interface {
	Flag(scopeID, name string) (flag.Flag, bool)
	FlagAt(loc flag.Location, name string) (flag.Flag, bool)
}

// Deps are the collaborators the built-in behaviors need.
type Deps struct {
	Resolver Resolver
	Host     Host
	Players  flag.PlayerDirectory
}
