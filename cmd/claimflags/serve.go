// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/flag"
	"github.com/holomush/claimflags/internal/logging"
	"github.com/holomush/claimflags/internal/movement"
	"github.com/holomush/claimflags/internal/observability"
	"github.com/holomush/claimflags/internal/persist"
	"github.com/holomush/claimflags/internal/worldmap"
	"github.com/holomush/claimflags/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var (
		events      string
		hookTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the flag engine with metrics, hot reload, and movement events",
		Long: `Load the flag engine and keep it running until interrupted.

Metrics and health probes are served on --metrics-addr. With --watch the flags
file is reloaded whenever it changes on disk. With --events, movement events
are read as JSON lines ("-" for stdin) and delivered to movement-aware flags:

  {"kind":"move","player":"Steve","from":{"world":"world","x":5,"z":5},"to":{"world":"world","x":150,"z":5}}
  {"kind":"join","player":"Alex","to":{"world":"world","x":150,"z":5}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, serveOptions{events: events, hookTimeout: hookTimeout})
		},
	}

	cmd.Flags().StringVar(&events, "events", "", `movement event stream, a file path or "-" for stdin`)
	cmd.Flags().DurationVar(&hookTimeout, "hook-timeout", movement.DefaultHookTimeout, "time limit for one movement hook")
	return cmd
}

type serveOptions struct {
	events      string
	hookTimeout time.Duration
}

func runServe(ctx context.Context, cmd *cobra.Command, opts serveOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	logger := a.logger

	var src io.Reader
	if opts.events != "" {
		r, closeSrc, err := openEvents(cmd, opts.events)
		if err != nil {
			return err
		}
		defer closeSrc()
		src = r
	}

	if a.cfg.Watch {
		dir := filepath.Dir(a.cfg.DataFile)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return oops.In("cli").With("dir", dir).Wrapf(err, "create data directory")
		}
	}

	for _, perr := range a.packErrs {
		errutil.WarnError(logger, "definition pack rejected", perr)
	}
	for _, msg := range a.entryErrs {
		logger.Warn("flags file entry rejected", "error", msg)
	}

	var ready atomic.Bool
	var obs *observability.Server
	if a.cfg.MetricsAddr != "" {
		obs = observability.NewServer(a.cfg.MetricsAddr, ready.Load,
			observability.WithLogger(logging.Component(logger, "observability")))
		obsErrCh, err := obs.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, logger)
		obs.Metrics().RecordReload(len(a.entryErrs), nil)
		obs.Metrics().ScopesTracked.Set(float64(len(a.manager.Store().Scopes())))
	}

	done := make(chan struct{})
	running := 0

	if a.cfg.Watch {
		watcher := persist.NewWatcher(a.datastore, func(errs []string, err error) {
			for _, msg := range errs {
				logger.Warn("flags file entry rejected", "error", msg)
			}
			if obs != nil {
				obs.Metrics().RecordReload(len(errs), err)
				obs.Metrics().ScopesTracked.Set(float64(len(a.manager.Store().Scopes())))
			}
			logger.Info("flags file reloaded", "errors", len(errs))
		})
		running++
		go func() {
			defer func() { done <- struct{}{} }()
			if err := watcher.Run(ctx); err != nil {
				errutil.LogError(logger, "flags file watcher stopped", err)
				cancel()
			}
		}()
	}

	var dispatcher *movement.Dispatcher
	if src != nil {
		dispatcher = movement.NewDispatcher(a.registry, a.world,
			movement.WithLogger(logging.Component(logger, "movement")),
			movement.WithHookTimeout(opts.hookTimeout))
		ch := make(chan movement.Event)
		dispatcher.Start(ctx, ch)
		// Not awaited on shutdown: a read from stdin cannot be interrupted.
		go readEvents(ctx, src, a.world, ch, logger)
	}

	ready.Store(true)
	logger.Info("claimflags ready",
		"data_file", a.cfg.DataFile,
		"definitions", len(a.registry.Names()),
		"scopes", len(a.manager.Store().Scopes()),
		"watch", a.cfg.Watch,
	)
	cmd.Println("claimflags serving")

	<-ctx.Done()
	logger.Info("shutting down")
	ready.Store(false)

	for ; running > 0; running-- {
		<-done
	}
	if dispatcher != nil {
		dispatcher.Stop()
	}

	if obs != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels the serve context when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, logger *slog.Logger) {
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			errutil.LogError(logger, "observability server failed", err)
			cancel()
		}
	}
}

func openEvents(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, nil, oops.In("cli").With("path", path).Wrapf(err, "open event stream")
	}
	return f, func() { _ = f.Close() }, nil
}

// eventLine is one JSON-encoded movement event.
type eventLine struct {
	Kind   string     `json:"kind"`
	Player string     `json:"player"`
	From   *pointLine `json:"from,omitempty"`
	To     pointLine  `json:"to"`
}

type pointLine struct {
	World string  `json:"world"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

func (p pointLine) location() flag.Location {
	return flag.Location{World: p.World, X: p.X, Y: p.Y, Z: p.Z}
}

// parseEvent decodes one event line. Player names are resolved through the
// world file; unknown names keep a zero ID.
func parseEvent(line []byte, world *worldmap.Map) (movement.Event, error) {
	var raw eventLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return movement.Event{}, oops.In("cli").Wrapf(err, "decode movement event")
	}
	if raw.Player == "" || raw.To.World == "" {
		return movement.Event{}, oops.In("cli").Errorf("movement event needs a player and a destination world")
	}

	ev := movement.Event{
		Kind:   movement.Kind(strings.ToLower(raw.Kind)),
		Player: world.Player(raw.Player),
		To:     raw.To.location(),
	}
	switch ev.Kind {
	case movement.KindJoin:
	case movement.KindMove:
		if raw.From == nil {
			return movement.Event{}, oops.In("cli").Errorf("move event needs a from location")
		}
		from := raw.From.location()
		ev.From = &from
	default:
		return movement.Event{}, oops.In("cli").With("kind", raw.Kind).Errorf("unknown movement event kind %q", raw.Kind)
	}
	return ev, nil
}

// readEvents feeds decoded events into ch until src is exhausted or ctx is
// done, then closes ch. Bad lines are logged and skipped.
func readEvents(ctx context.Context, src io.Reader, world *worldmap.Map, ch chan<- movement.Event, logger *slog.Logger) {
	defer close(ch)

	scanner := bufio.NewScanner(src)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		ev, err := parseEvent(line, world)
		if err != nil {
			errutil.WarnError(logger.With("line", n), "skipping movement event", err)
			continue
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		errutil.LogError(logger, "movement event stream failed", err)
	}
}
