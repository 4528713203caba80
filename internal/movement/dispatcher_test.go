// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package movement

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/holomush/claimflags/internal/flag"
)

// gridRegions places region N over x in [N*100, N*100+99] of the "world" world.
type gridRegions struct {
	regions map[int64]*flag.Region
}

func (g *gridRegions) Region(id int64) (*flag.Region, bool) {
	r, ok := g.regions[id]
	return r, ok
}

func (g *gridRegions) RegionAt(loc flag.Location) (*flag.Region, bool) {
	return g.Region(int64(loc.X) / 100)
}

func (g *gridRegions) Parent(r *flag.Region) (*flag.Region, bool) {
	return g.Region(r.ParentID)
}

func (g *gridRegions) TrackingEnabled(world string) bool { return world == "world" }
func (g *gridRegions) Worlds() []string                  { return []string{"world", "world_nether"} }

// moveRecorder captures movements delivered to a definition.
type moveRecorder struct {
	mu    sync.Mutex
	moves []flag.Movement
	err   error
}

func (r *moveRecorder) handle(_ context.Context, mv flag.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, mv)
	return r.err
}

func (r *moveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.moves)
}

func (r *moveRecorder) last() flag.Movement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.moves[len(r.moves)-1]
}

func setup(t *testing.T, opts ...Option) (*Dispatcher, *moveRecorder) {
	t.Helper()
	regions := &gridRegions{regions: map[int64]*flag.Region{
		1: {ID: 1, World: "world"},
		2: {ID: 2, World: "world"},
	}}
	rec := &moveRecorder{}
	registry := flag.NewRegistry()
	registry.MustRegister(flag.MustDefinition(flag.DefinitionSpec{Name: "Mover", OnMove: rec.handle}))
	registry.MustRegister(flag.MustDefinition(flag.DefinitionSpec{Name: "Static"}))
	return NewDispatcher(registry, regions, opts...), rec
}

var steve = flag.Player{Name: "Steve"}

func TestDispatcher_PlayerMoved_NotifiesOnRegionChange(t *testing.T) {
	d, rec := setup(t)
	before := testutil.ToFloat64(MovementEvents.WithLabelValues(string(KindMove)))

	n := d.PlayerMoved(context.Background(), steve,
		flag.Location{World: "world", X: 150},
		flag.Location{World: "world", X: 250})

	assert.Equal(t, 1, n)
	require.Equal(t, 1, rec.count())
	mv := rec.last()
	require.NotNil(t, mv.FromRegion)
	require.NotNil(t, mv.ToRegion)
	assert.Equal(t, int64(1), mv.FromRegion.ID)
	assert.Equal(t, int64(2), mv.ToRegion.ID)
	assert.Equal(t, 150.0, mv.From.X)
	assert.Equal(t, before+1, testutil.ToFloat64(MovementEvents.WithLabelValues(string(KindMove))))
}

func TestDispatcher_PlayerMoved_SameRegionIsDropped(t *testing.T) {
	d, rec := setup(t)

	n := d.PlayerMoved(context.Background(), steve,
		flag.Location{World: "world", X: 110},
		flag.Location{World: "world", X: 190})
	assert.Equal(t, 0, n)

	n = d.PlayerMoved(context.Background(), steve,
		flag.Location{World: "world", X: 910},
		flag.Location{World: "world", X: 990})
	assert.Equal(t, 0, n, "wilderness to wilderness")

	assert.Equal(t, 0, rec.count())
}

func TestDispatcher_PlayerMoved_LeavingAndUntrackedWorlds(t *testing.T) {
	d, rec := setup(t)

	d.PlayerMoved(context.Background(), steve,
		flag.Location{World: "world", X: 150},
		flag.Location{World: "world_nether", X: 150})

	require.Equal(t, 1, rec.count())
	assert.NotNil(t, rec.last().FromRegion)
	assert.Nil(t, rec.last().ToRegion)
}

func TestDispatcher_PlayerJoined(t *testing.T) {
	d, rec := setup(t)

	n := d.PlayerJoined(context.Background(), steve, flag.Location{World: "world", X: 150})

	assert.Equal(t, 1, n)
	mv := rec.last()
	assert.Nil(t, mv.From)
	assert.Nil(t, mv.FromRegion)
	require.NotNil(t, mv.ToRegion)
	assert.Equal(t, int64(1), mv.ToRegion.ID)
}

func TestDispatcher_HookFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	d, rec := setup(t, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	rec.err = errors.New("host unavailable")
	before := testutil.ToFloat64(HookFailures.WithLabelValues("Mover"))

	d.PlayerJoined(context.Background(), steve, flag.Location{World: "world", X: 150})

	assert.Contains(t, buf.String(), "movement hook failed")
	assert.Contains(t, buf.String(), "host unavailable")
	assert.Equal(t, before+1, testutil.ToFloat64(HookFailures.WithLabelValues("Mover")))
}

func TestDispatcher_HookTimeout(t *testing.T) {
	var buf bytes.Buffer
	registry := flag.NewRegistry()
	registry.MustRegister(flag.MustDefinition(flag.DefinitionSpec{
		Name: "Slow",
		OnMove: func(ctx context.Context, _ flag.Movement) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}))
	d := NewDispatcher(registry, nil,
		WithHookTimeout(20*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	d.PlayerJoined(context.Background(), steve, flag.Location{World: "world"})

	assert.Contains(t, buf.String(), "movement hook timed out")
}

func TestDispatcher_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	d, rec := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 2)
	d.Start(ctx, events)
	from := flag.Location{World: "world", X: 150}
	events <- Event{Kind: KindMove, Player: steve, From: &from, To: flag.Location{World: "world", X: 250}}
	events <- Event{Kind: KindJoin, Player: steve, To: flag.Location{World: "world", X: 250}}
	close(events)
	d.Stop()

	assert.Equal(t, 2, rec.count())
}
