// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/holomush/claimflags/pkg/errutil"
)

// Manager owns the write path and the resolver over a registry and a store.
// It is safe for concurrent use.
type Manager struct {
	registry *Registry
	store    *Store
	regions  RegionLookup
	worlds   map[string]struct{}
	logger   *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for callback failures.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a manager. World names are captured from regions once,
// at construction. A nil regions lookup behaves as a host with no regions.
func NewManager(registry *Registry, store *Store, regions RegionLookup, opts ...ManagerOption) *Manager {
	if regions == nil {
		regions = noRegions{}
	}
	m := &Manager{
		registry: registry,
		store:    store,
		regions:  regions,
		worlds:   make(map[string]struct{}),
		logger:   slog.Default(),
	}
	for _, w := range regions.Worlds() {
		m.worlds[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the definition registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Store returns the underlying flag store.
func (m *Manager) Store() *Store {
	return m.store
}

// Regions returns the host region lookup.
func (m *Manager) Regions() RegionLookup {
	return m.regions
}

// SetFlag stores a flag for def in scopeID.
//
// When active, the space-joined args are validated first and a rejection
// returns without touching the store. Inactive writes skip validation and
// leave a tombstone remembering the parameters. Hook failures are logged and
// do not change the result.
func (m *Manager) SetFlag(ctx context.Context, scopeID string, def *Definition, active bool, args ...string) Result {
	if def == nil {
		return Result{Success: false, Message: "No such flag."}
	}

	friendly := make([]string, 0, len(args))
	internal := make([]string, 0, len(args))
	for _, arg := range args {
		friendly = append(friendly, arg)
		internal = append(internal, def.transform(arg))
	}
	friendlyParams := strings.TrimSpace(strings.Join(friendly, " "))
	internalParams := strings.TrimSpace(strings.Join(internal, " "))

	var result Result
	if active {
		if err := def.Validate(friendlyParams); err != nil {
			recordWrite(def.Name(), OperationSet, StatusRejected)
			return Result{Success: false, Message: PlayerMessage(err)}
		}
		result = Result{Success: true, Message: def.SetMessage(friendlyParams)}
	} else {
		result = Result{Success: true, Message: def.UnsetMessage()}
	}

	prev, existed := m.store.Put(scopeID, Flag{Name: def.Name(), Params: internalParams, Active: active})
	wasActive := existed && prev.Active
	switch {
	case active && !wasActive:
		def.incrementInstances()
	case !active && wasActive:
		def.decrementInstances()
	}

	if active {
		recordWrite(def.Name(), OperationSet, StatusSuccess)
	} else {
		recordWrite(def.Name(), OperationUnset, StatusSuccess)
	}

	if region, ok := m.liveRegion(scopeID); ok {
		if active {
			m.runSetHook(ctx, def, region, internalParams)
		} else {
			m.runUnsetHook(ctx, def, region)
		}
	}
	return result
}

// UnsetFlag removes def's record from scopeID. When the scope holds no
// record it leaves an inactive tombstone instead, so an explicit unset is
// always distinguishable from a flag that was never configured.
func (m *Manager) UnsetFlag(ctx context.Context, scopeID string, def *Definition) Result {
	if def == nil {
		return Result{Success: false, Message: "No such flag."}
	}

	prev, existed := m.store.Remove(scopeID, def.Name())
	if !existed {
		return m.SetFlag(ctx, scopeID, def, false)
	}
	if prev.Active {
		def.decrementInstances()
	}
	recordWrite(def.Name(), OperationRemove, StatusSuccess)

	if region, ok := m.liveRegion(scopeID); ok {
		m.runUnsetHook(ctx, def, region)
	}
	return Result{Success: true, Message: def.UnsetMessage()}
}

// Flags returns every flag stored directly in scopeID.
func (m *Manager) Flags(scopeID string) []Flag {
	return m.store.Flags(scopeID)
}

// UsedFlags returns the keys of flags present in any scope.
func (m *Manager) UsedFlags() []string {
	return m.store.Keys()
}

// Clear drops every stored flag.
func (m *Manager) Clear() {
	m.forget(m.store.Clear())
}

// RetainOnly drops every claim scope whose ID is not listed in valid.
// World, everywhere, and reserved negative scopes are always kept.
// It returns the removed scope identifiers in sorted order.
func (m *Manager) RetainOnly(valid []string) []string {
	keep := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		keep[id] = struct{}{}
	}

	var dropped []string
	removed := m.store.RemoveScopes(func(scope string) bool {
		if _, ok := keep[scope]; ok {
			return false
		}
		n, err := strconv.ParseInt(scope, 10, 64)
		if err != nil || n < 0 {
			return false
		}
		dropped = append(dropped, scope)
		return true
	})
	m.forget(removed)
	slices.Sort(dropped)
	return dropped
}

// ScopeKindOf classifies a scope identifier.
func (m *Manager) ScopeKindOf(scopeID string) ScopeKind {
	switch {
	case scopeID == DefaultScope:
		return ScopeDefault
	case strings.EqualFold(scopeID, EverywhereScope):
		return ScopeServer
	case isNumeric(scopeID):
		return ScopeClaim
	default:
		return ScopeWorld
	}
}

// IsWorld reports whether scopeID names a world known at construction.
func (m *Manager) IsWorld(scopeID string) bool {
	_, ok := m.worlds[scopeID]
	return ok
}

func (m *Manager) forget(removed []Flag) {
	for _, f := range removed {
		if !f.Active {
			continue
		}
		if def, ok := m.registry.Lookup(f.Name); ok {
			def.decrementInstances()
		}
	}
}

// liveRegion resolves a claim scope to a region that still exists.
func (m *Manager) liveRegion(scopeID string) (*Region, bool) {
	id, err := strconv.ParseInt(scopeID, 10, 64)
	if err != nil {
		return nil, false
	}
	region, ok := m.regions.Region(id)
	if !ok || region == nil {
		return nil, false
	}
	return region, true
}

func (m *Manager) runSetHook(ctx context.Context, def *Definition, region *Region, params string) {
	if def.onSet == nil {
		return
	}
	if err := def.onSet(ctx, region, params); err != nil {
		errutil.LogError(m.logger.With("flag", def.Name(), "region", region.ID), "flag set hook failed", err)
	}
}

func (m *Manager) runUnsetHook(ctx context.Context, def *Definition, region *Region) {
	if def.onUnset == nil {
		return
	}
	if err := def.onUnset(ctx, region); err != nil {
		errutil.LogError(m.logger.With("flag", def.Name(), "region", region.ID), "flag unset hook failed", err)
	}
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}
