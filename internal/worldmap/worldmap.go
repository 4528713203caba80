// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package worldmap reads a static description of worlds, claims, and known
// players from YAML and serves it through the flag collaborator interfaces.
//
//	worlds:
//	  - name: world
//	    tracking: true
//	regions:
//	  - id: 12
//	    world: world
//	    owner: 01J8Z3Q4YV5N4WQ6ZK5T3C1M2B
//	    owner-name: Alex
//	    builders: [Steve]
//	    min: {x: 0, z: 0}
//	    max: {x: 99, z: 99}
//	players:
//	  - name: Alex
//	    id: 01J8Z3Q4YV5N4WQ6ZK5T3C1M2B
package worldmap

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/claimflags/internal/flag"
)

// CodeInvalidWorld marks a world file that cannot be used.
const CodeInvalidWorld = "INVALID_WORLD"

// File is the on-disk layout of a world file.
type File struct {
	Worlds  []WorldEntry  `yaml:"worlds"`
	Regions []RegionEntry `yaml:"regions"`
	Players []PlayerEntry `yaml:"players"`
}

// WorldEntry describes one world.
type WorldEntry struct {
	Name     string `yaml:"name"`
	Tracking bool   `yaml:"tracking"`
}

// RegionEntry describes one claim.
type RegionEntry struct {
	ID        int64    `yaml:"id"`
	Parent    int64    `yaml:"parent,omitempty"`
	World     string   `yaml:"world"`
	Owner     string   `yaml:"owner,omitempty"`
	OwnerName string   `yaml:"owner-name,omitempty"`
	Builders  []string `yaml:"builders,omitempty"`
	Min       Point    `yaml:"min"`
	Max       Point    `yaml:"max"`
}

// Point is a horizontal coordinate. Claims span the full height of a world.
type Point struct {
	X float64 `yaml:"x"`
	Z float64 `yaml:"z"`
}

// PlayerEntry describes a known player.
type PlayerEntry struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

type region struct {
	flag.Region
	depth    int
	builders []string
	min, max Point
}

// Map is an immutable, validated world file. It implements
// flag.RegionLookup and flag.PlayerDirectory.
type Map struct {
	worlds  []string
	tracked map[string]bool
	regions map[int64]*region
	ordered []*region // deepest first, then by ID
	players map[string]flag.Player
}

var (
	_ flag.RegionLookup    = (*Map)(nil)
	_ flag.PlayerDirectory = (*Map)(nil)
)

// Empty returns a map with no worlds, regions, or players.
func Empty() *Map {
	m, _ := build(File{})
	return m
}

// Load reads a world file. A missing file yields an empty map.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, oops.Code(CodeInvalidWorld).With("path", path).Wrapf(err, "read world file")
	}
	m, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return m, nil
}

// Parse decodes and validates a world file.
func Parse(data []byte) (*Map, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, oops.Code(CodeInvalidWorld).Wrapf(err, "parse world file")
	}
	return build(f)
}

func build(f File) (*Map, error) {
	m := &Map{
		tracked: make(map[string]bool),
		regions: make(map[int64]*region),
		players: make(map[string]flag.Player),
	}

	for _, w := range f.Worlds {
		if w.Name == "" {
			return nil, invalid("world name cannot be empty")
		}
		if _, dup := m.tracked[w.Name]; dup {
			return nil, invalid("duplicate world %q", w.Name)
		}
		m.worlds = append(m.worlds, w.Name)
		m.tracked[w.Name] = w.Tracking
	}

	for _, p := range f.Players {
		id, err := ulid.ParseStrict(p.ID)
		if err != nil {
			return nil, invalid("player %q has invalid id %q", p.Name, p.ID)
		}
		m.players[strings.ToLower(p.Name)] = flag.Player{ID: id, Name: p.Name}
	}

	for _, e := range f.Regions {
		if e.ID <= 0 {
			return nil, invalid("region id %d must be positive", e.ID)
		}
		if _, dup := m.regions[e.ID]; dup {
			return nil, invalid("duplicate region %d", e.ID)
		}
		if _, ok := m.tracked[e.World]; !ok {
			return nil, invalid("region %d is in unknown world %q", e.ID, e.World)
		}
		r := &region{
			Region: flag.Region{
				ID:        e.ID,
				ParentID:  e.Parent,
				World:     e.World,
				OwnerName: e.OwnerName,
			},
			builders: e.Builders,
			min:      Point{X: min(e.Min.X, e.Max.X), Z: min(e.Min.Z, e.Max.Z)},
			max:      Point{X: max(e.Min.X, e.Max.X), Z: max(e.Min.Z, e.Max.Z)},
		}
		if e.Owner != "" {
			id, err := ulid.ParseStrict(e.Owner)
			if err != nil {
				return nil, invalid("region %d has invalid owner %q", e.ID, e.Owner)
			}
			r.OwnerID = id
		}
		m.regions[e.ID] = r
	}

	for _, r := range m.regions {
		depth, err := m.depthOf(r)
		if err != nil {
			return nil, err
		}
		r.depth = depth
		m.ordered = append(m.ordered, r)
	}
	sort.Slice(m.ordered, func(i, j int) bool {
		if m.ordered[i].depth != m.ordered[j].depth {
			return m.ordered[i].depth > m.ordered[j].depth
		}
		return m.ordered[i].ID < m.ordered[j].ID
	})
	return m, nil
}

func (m *Map) depthOf(r *region) (int, error) {
	depth := 0
	seen := map[int64]bool{r.ID: true}
	for cur := r; cur.HasParent(); depth++ {
		parent, ok := m.regions[cur.ParentID]
		if !ok {
			return 0, invalid("region %d has unknown parent %d", cur.ID, cur.ParentID)
		}
		if parent.World != cur.World {
			return 0, invalid("region %d and its parent %d are in different worlds", cur.ID, parent.ID)
		}
		if seen[parent.ID] {
			return 0, invalid("region %d has a parent cycle", r.ID)
		}
		seen[parent.ID] = true
		cur = parent
	}
	return depth, nil
}

// Region returns the region with the given ID.
func (m *Map) Region(id int64) (*flag.Region, bool) {
	r, ok := m.regions[id]
	if !ok {
		return nil, false
	}
	out := r.Region
	return &out, true
}

// RegionAt returns the innermost region containing loc.
func (m *Map) RegionAt(loc flag.Location) (*flag.Region, bool) {
	for _, r := range m.ordered {
		if r.World == loc.World && r.contains(loc) {
			out := r.Region
			return &out, true
		}
	}
	return nil, false
}

// Parent returns the immediate parent of r.
func (m *Map) Parent(r *flag.Region) (*flag.Region, bool) {
	if r == nil || !r.HasParent() {
		return nil, false
	}
	return m.Region(r.ParentID)
}

// TrackingEnabled reports whether claims are tracked in world.
func (m *Map) TrackingEnabled(world string) bool {
	return m.tracked[world]
}

// Worlds lists the world names in file order.
func (m *Map) Worlds() []string {
	return append([]string(nil), m.worlds...)
}

// CachedPlayerID resolves a known player name, ignoring case.
func (m *Map) CachedPlayerID(name string) (ulid.ULID, bool) {
	p, ok := m.players[strings.ToLower(name)]
	return p.ID, ok
}

// Player resolves a player by name or ID. Unknown names yield a player with
// a zero ID.
func (m *Map) Player(nameOrID string) flag.Player {
	if p, ok := m.players[strings.ToLower(nameOrID)]; ok {
		return p
	}
	if id, err := ulid.ParseStrict(nameOrID); err == nil {
		for _, p := range m.players {
			if p.ID == id {
				return p
			}
		}
		return flag.Player{ID: id, Name: nameOrID}
	}
	return flag.Player{Name: nameOrID}
}

// CanBuild reports whether player owns region or is listed as a builder in
// it or in any of its ancestors.
func (m *Map) CanBuild(player flag.Player, target *flag.Region) bool {
	if target == nil {
		return false
	}
	r, ok := m.regions[target.ID]
	for ok {
		if player.ID != (ulid.ULID{}) && r.OwnerID == player.ID {
			return true
		}
		for _, b := range r.builders {
			if strings.EqualFold(b, player.Name) || (player.ID != (ulid.ULID{}) && strings.EqualFold(b, player.ID.String())) {
				return true
			}
		}
		if !r.HasParent() {
			break
		}
		r, ok = m.regions[r.ParentID]
	}
	return false
}

// ClaimIDs returns the scope identifiers of every region, sorted numerically.
func (m *Map) ClaimIDs() []string {
	ids := make([]int64, 0, len(m.regions))
	for id := range m.regions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatInt(id, 10)
	}
	return out
}

func (r *region) contains(loc flag.Location) bool {
	return loc.X >= r.min.X && loc.X <= r.max.X && loc.Z >= r.min.Z && loc.Z <= r.max.Z
}

func invalid(format string, args ...any) error {
	return oops.Code(CodeInvalidWorld).Errorf(format, args...)
}
