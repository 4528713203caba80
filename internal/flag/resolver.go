// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"strings"
)

// Flag returns the flag that applies to scopeID, including inactive tombstones.
//
// Lookup order: the scope itself, then its immediate parent region (one level
// only), then the reserved default scope. Default flags only apply to numeric
// claim scopes; world names and the everywhere scope never inherit them.
func (m *Manager) Flag(scopeID, name string) (Flag, bool) {
	if f, ok := m.store.Get(scopeID, name); ok {
		return f, true
	}

	if parent, ok := m.parentScope(scopeID); ok {
		if f, ok := m.store.Get(parent, name); ok {
			return f, true
		}
	}

	if strings.EqualFold(scopeID, EverywhereScope) || m.IsWorld(scopeID) {
		return Flag{}, false
	}

	f, ok := m.store.Get(DefaultScope, name)
	if !ok || !isNumeric(scopeID) {
		return Flag{}, false
	}
	return f, true
}

// FlagAt returns the active flag that physically applies at loc.
//
// Regions are consulted first (the containing region, then its parent), then
// the world scope, then the everywhere scope. An inactive flag found at any
// level means the flag was explicitly disabled there and stops the search.
func (m *Manager) FlagAt(loc Location, name string) (Flag, bool) {
	if m.regions.TrackingEnabled(loc.World) {
		if region, ok := m.regions.RegionAt(loc); ok && region != nil {
			if f, ok := m.Flag(region.ScopeID(), name); ok {
				return activeOnly(f)
			}
			if parent, ok := m.regions.Parent(region); ok && parent != nil {
				if f, ok := m.Flag(parent.ScopeID(), name); ok {
					return activeOnly(f)
				}
			}
		}
	}

	for _, scope := range []string{loc.World, EverywhereScope} {
		if f, ok := m.Flag(scope, name); ok {
			return activeOnly(f)
		}
	}
	return Flag{}, false
}

func activeOnly(f Flag) (Flag, bool) {
	if !f.Active {
		return Flag{}, false
	}
	return f, true
}

func (m *Manager) parentScope(scopeID string) (string, bool) {
	region, ok := m.liveRegion(scopeID)
	if !ok {
		return "", false
	}
	parent, ok := m.regions.Parent(region)
	if !ok || parent == nil {
		return "", false
	}
	return parent.ScopeID(), true
}
