// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"strconv"

	"github.com/oklog/ulid/v2"
)

// Location is a point in a named world.
type Location struct {
	World string
	X     float64
	Y     float64
	Z     float64
}

// Region is a claim supplied by the host land-management system.
type Region struct {
	ID        int64
	ParentID  int64 // zero when the region is top-level
	World     string
	OwnerID   ulid.ULID
	OwnerName string
}

// ScopeID returns the scope identifier flags in this region are stored under.
func (r *Region) ScopeID() string {
	return strconv.FormatInt(r.ID, 10)
}

// HasParent reports whether the region is a subdivision of another region.
func (r *Region) HasParent() bool {
	return r.ParentID != 0
}

// Player identifies an entity that moves between regions.
type Player struct {
	ID   ulid.ULID
	Name string
}

// Movement describes an entity crossing from one region to another.
// From is nil when the player has just joined.
type Movement struct {
	Player     Player
	From       *Location
	To         Location
	FromRegion *Region
	ToRegion   *Region
}

// RegionLookup provides read access to the host's claim hierarchy.
// Implementations must not block on I/O.
type RegionLookup interface {
	// Region returns the live region with the given ID.
	Region(id int64) (*Region, bool)
	// RegionAt returns the innermost region containing loc.
	RegionAt(loc Location) (*Region, bool)
	// Parent returns the immediate parent of r.
	Parent(r *Region) (*Region, bool)
	// TrackingEnabled reports whether regions exist in the named world.
	TrackingEnabled(world string) bool
	// Worlds lists the known world names.
	Worlds() []string
}

// PlayerDirectory resolves player names without blocking.
type PlayerDirectory interface {
	CachedPlayerID(name string) (ulid.ULID, bool)
}

type noRegions struct{}

func (noRegions) Region(int64) (*Region, bool) { return nil, false }
func (noRegions) RegionAt(Location) (*Region, bool) { return nil, false }
func (noRegions) Parent(*Region) (*Region, bool) { return nil, false }
func (noRegions) TrackingEnabled(string) bool { return false }
func (noRegions) Worlds() []string { return nil }
