// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package movement delivers player movement to the flag definitions that
// react to it.
package movement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/holomush/claimflags/internal/flag"
)

// DefaultHookTimeout bounds a single movement hook.
const DefaultHookTimeout = 5 * time.Second

// Kind distinguishes movement events.
type Kind string

// Movement event kinds.
const (
	KindMove Kind = "move"
	KindJoin Kind = "join"
)

// Event is a player movement reported by the host.
type Event struct {
	Kind   Kind
	Player flag.Player
	From   *flag.Location // nil for KindJoin
	To     flag.Location
}

// Dispatcher notifies movement-aware definitions when a player changes region.
type Dispatcher struct {
	registry *flag.Registry
	regions  flag.RegionLookup
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithHookTimeout overrides DefaultHookTimeout.
func WithHookTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(registry *flag.Registry, regions flag.RegionLookup, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		regions:  regions,
		logger:   slog.Default(),
		timeout:  DefaultHookTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PlayerMoved dispatches a move from one location to another.
func (d *Dispatcher) PlayerMoved(ctx context.Context, player flag.Player, from, to flag.Location) int {
	return d.Dispatch(ctx, Event{Kind: KindMove, Player: player, From: &from, To: to})
}

// PlayerJoined dispatches a player appearing at a location.
func (d *Dispatcher) PlayerJoined(ctx context.Context, player flag.Player, at flag.Location) int {
	return d.Dispatch(ctx, Event{Kind: KindJoin, Player: player, To: at})
}

// Dispatch resolves the regions on both sides of ev and notifies every
// movement-aware definition, in name order. Moves that stay inside the same
// region are dropped. It returns the number of definitions notified.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) int {
	mv := flag.Movement{
		Player:   ev.Player,
		To:       ev.To,
		ToRegion: d.regionAt(ev.To),
	}
	if ev.Kind != KindJoin && ev.From != nil {
		from := *ev.From
		mv.From = &from
		mv.FromRegion = d.regionAt(from)
		if sameRegion(mv.FromRegion, mv.ToRegion) {
			return 0
		}
	}

	MovementEvents.WithLabelValues(string(ev.Kind)).Inc()

	defs := d.registry.MovementAware()
	for _, def := range defs {
		d.deliver(ctx, def, mv)
	}
	return len(defs)
}

// Start processes events from the channel until it closes or ctx is done.
// Events are delivered one at a time, in order.
func (d *Dispatcher) Start(ctx context.Context, events <-chan Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				d.Dispatch(ctx, ev)
			}
		}
	}()
}

// Stop waits for the event loop to finish.
func (d *Dispatcher) Stop() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, def *flag.Definition, mv flag.Movement) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := def.HandleMove(ctx, mv)
	if err == nil {
		return
	}
	HookFailures.WithLabelValues(def.Name()).Inc()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		d.logger.Warn("movement hook timed out",
			"flag", def.Name(),
			"player", mv.Player.Name,
			"timeout", d.timeout.String())
	case errors.Is(err, context.Canceled):
		d.logger.Debug("movement hook canceled",
			"flag", def.Name(),
			"player", mv.Player.Name)
	default:
		d.logger.Warn("movement hook failed",
			"flag", def.Name(),
			"player", mv.Player.Name,
			"error", err)
	}
}

func (d *Dispatcher) regionAt(loc flag.Location) *flag.Region {
	if d.regions == nil || !d.regions.TrackingEnabled(loc.World) {
		return nil
	}
	region, ok := d.regions.RegionAt(loc)
	if !ok {
		return nil
	}
	return region
}

func sameRegion(a, b *flag.Region) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
