// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package behavior

import (
	"context"
	"strings"

	"github.com/holomush/claimflags/internal/flag"
)

// maxPlayerNameLength bounds the names the argument transform resolves.
const maxPlayerNameLength = 30

// NoEnterPlayer bans listed players from a claim. Names are stored as player
// IDs when the directory knows them, so bans survive renames.
func NoEnterPlayer(deps Deps) (*flag.Definition, error) {
	b := &noEnterPlayer{deps: deps}
	return flag.NewDefinition(flag.DefinitionSpec{
		Name:         NoEnterPlayerName,
		SetMessage:   "Banned {{ .Args | join \", \" }} from entering this claim.",
		UnsetMessage: "Removed the entry ban from this claim.",
		Scopes:       []flag.ScopeKind{flag.ScopeClaim},
		Validate:     requireParams("You must specify at least one player to ban."),
		TransformArg: b.transform,
		OnMove:       b.onMove,
	})
}

type noEnterPlayer struct {
	deps Deps
}

func (b *noEnterPlayer) transform(arg string) string {
	if b.deps.Players == nil || len(arg) > maxPlayerNameLength {
		return arg
	}
	if id, ok := b.deps.Players.CachedPlayerID(arg); ok {
		return id.String()
	}
	return arg
}

func (b *noEnterPlayer) onMove(ctx context.Context, mv flag.Movement) error {
	if mv.ToRegion == nil {
		return nil
	}
	f, ok := b.deps.Resolver.FlagAt(mv.To, NoEnterPlayerName)
	if !ok || !listsPlayer(f.Params, mv.Player) {
		return nil
	}
	if isOwner(mv.Player, mv.ToRegion) || b.deps.Host.CanBuild(mv.Player, mv.ToRegion) {
		return nil
	}

	if err := b.deps.Host.SendMessage(ctx, mv.Player, "You have been banned from entering this claim."); err != nil {
		return err
	}
	return b.deps.Host.Eject(ctx, mv.Player, mv.From)
}

// listsPlayer reports whether params names the player by name or ID.
func listsPlayer(params string, player flag.Player) bool {
	id := player.ID.String()
	for _, entry := range strings.Fields(params) {
		if strings.EqualFold(entry, player.Name) || strings.EqualFold(entry, id) {
			return true
		}
	}
	return false
}

func requireParams(message string) flag.Validator {
	return func(params string) error {
		if strings.TrimSpace(params) == "" {
			return flag.ErrInvalidParameters(message)
		}
		return nil
	}
}
