// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"context"
	"strings"
	"sync"
)

// fakeRegions is an in-memory RegionLookup for tests.
type fakeRegions struct {
	regions map[int64]*Region
	at      map[Location]int64
	tracked map[string]bool
	worlds  []string
}

func newFakeRegions(worlds ...string) *fakeRegions {
	f := &fakeRegions{
		regions: make(map[int64]*Region),
		at:      make(map[Location]int64),
		tracked: make(map[string]bool),
		worlds:  worlds,
	}
	for _, w := range worlds {
		f.tracked[w] = true
	}
	return f
}

func (f *fakeRegions) add(r *Region, locs ...Location) *Region {
	f.regions[r.ID] = r
	for _, loc := range locs {
		f.at[loc] = r.ID
	}
	return r
}

func (f *fakeRegions) Region(id int64) (*Region, bool) {
	r, ok := f.regions[id]
	return r, ok
}

func (f *fakeRegions) RegionAt(loc Location) (*Region, bool) {
	id, ok := f.at[loc]
	if !ok {
		return nil, false
	}
	return f.Region(id)
}

func (f *fakeRegions) Parent(r *Region) (*Region, bool) {
	if !r.HasParent() {
		return nil, false
	}
	return f.Region(r.ParentID)
}

func (f *fakeRegions) TrackingEnabled(world string) bool {
	return f.tracked[world]
}

func (f *fakeRegions) Worlds() []string {
	return f.worlds
}

// hookRecorder captures set/unset hook invocations.
type hookRecorder struct {
	mu     sync.Mutex
	events []string
}

func (h *hookRecorder) onSet(_ context.Context, r *Region, params string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "set:"+r.ScopeID()+":"+params)
	return nil
}

func (h *hookRecorder) onUnset(_ context.Context, r *Region) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "unset:"+r.ScopeID())
	return nil
}

func (h *hookRecorder) recorded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func requireNonEmpty(params string) error {
	if strings.TrimSpace(params) == "" {
		return ErrInvalidParameters("You must specify at least one player.")
	}
	return nil
}

func noEnterPlayer(h *hookRecorder) *Definition {
	spec := DefinitionSpec{
		Name:         "NoEnterPlayer",
		SetMessage:   "Players {{ .Params }} may no longer enter.",
		UnsetMessage: "Anyone may enter again.",
		Scopes:       []ScopeKind{ScopeClaim},
		Validate:     requireNonEmpty,
	}
	if h != nil {
		spec.OnSet = h.onSet
		spec.OnUnset = h.onUnset
	}
	return MustDefinition(spec)
}

func switchFlag(name string) *Definition {
	return MustDefinition(DefinitionSpec{
		Name:         name,
		SetMessage:   name + " enabled.",
		UnsetMessage: name + " disabled.",
		Scopes:       []ScopeKind{ScopeClaim, ScopeDefault, ScopeWorld, ScopeServer},
	})
}
