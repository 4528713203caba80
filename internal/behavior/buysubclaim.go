// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package behavior

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/holomush/claimflags/internal/flag"
)

// BuySubclaim advertises a subclaim for sale to players who enter it.
func BuySubclaim(deps Deps) (*flag.Definition, error) {
	b := &buySubclaim{deps: deps}
	return flag.NewDefinition(flag.DefinitionSpec{
		Name:         BuySubclaimName,
		SetMessage:   "This subclaim is now for sale for {{ .Params }}.",
		UnsetMessage: "This subclaim is no longer for sale.",
		Scopes:       []flag.ScopeKind{flag.ScopeClaim},
		Validate:     validatePrice,
		OnMove:       b.onMove,
	})
}

type buySubclaim struct {
	deps Deps
}

func (b *buySubclaim) onMove(ctx context.Context, mv flag.Movement) error {
	region := mv.ToRegion
	if region == nil || !region.HasParent() {
		return nil
	}
	f, ok := b.deps.Resolver.Flag(region.ScopeID(), BuySubclaimName)
	if !ok || !f.Active {
		return nil
	}
	if isOwner(mv.Player, region) || b.deps.Host.CanBuild(mv.Player, region) {
		return nil
	}
	msg := fmt.Sprintf("This subclaim is for sale for %s. Use /buysubclaim to purchase it.", f.Params)
	return b.deps.Host.SendMessage(ctx, mv.Player, msg)
}

func validatePrice(params string) error {
	price, err := strconv.ParseFloat(strings.TrimSpace(params), 64)
	if err != nil || price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return flag.ErrInvalidParameters("The price must be a non-negative number.")
	}
	return nil
}
