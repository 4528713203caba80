// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/claimflags/internal/behavior"
	"github.com/holomush/claimflags/internal/config"
	"github.com/holomush/claimflags/internal/defpack"
	"github.com/holomush/claimflags/internal/flag"
	"github.com/holomush/claimflags/internal/logging"
	"github.com/holomush/claimflags/internal/persist"
	"github.com/holomush/claimflags/internal/worldmap"
	"github.com/holomush/claimflags/pkg/errutil"
)

// app is the wired flag engine shared by every subcommand.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	world     *worldmap.Map
	registry  *flag.Registry
	manager   *flag.Manager
	datastore *persist.Datastore
	packs     []*defpack.Pack

	// Problems found while loading, reported by validate.
	packErrs  []error
	entryErrs []string
}

// appDeps allows tests to replace the host.
type appDeps struct {
	Host func(logger *slog.Logger, world *worldmap.Map) behavior.Host
}

func defaultHost(logger *slog.Logger, world *worldmap.Map) behavior.Host {
	return behavior.NewLogHost(logging.Component(logger, "host"), behavior.WithBuildChecker(world))
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	return newAppWithDeps(ctx, cmd, appDeps{Host: defaultHost})
}

// newAppWithDeps loads configuration, the world file, built-in and pack
// definitions, and the flags file.
func newAppWithDeps(ctx context.Context, cmd *cobra.Command, deps appDeps) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(logging.Options{
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.SlogLevel(),
		Writer:  cmd.ErrOrStderr(),
	})

	world, err := worldmap.Load(cfg.WorldFile)
	if err != nil {
		return nil, err
	}

	registry := flag.NewRegistry()
	manager := flag.NewManager(registry, flag.NewStore(), world,
		flag.WithLogger(logging.Component(logger, "flag")))

	host := deps.Host
	if host == nil {
		host = defaultHost
	}
	if err := behavior.Register(registry, behavior.Deps{
		Resolver: manager,
		Host:     host(logger, world),
		Players:  world,
	}); err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		world:    world,
		registry: registry,
		manager:  manager,
	}

	loader := defpack.NewLoader(defpack.NewScriptRunner(defpack.DefaultScriptTimeout), logging.Component(logger, "defpack"))
	a.packs, a.packErrs = loader.LoadDir(cfg.DefinitionsDir)
	if err := defpack.Register(registry, a.packs); err != nil {
		return nil, err
	}

	a.datastore = persist.NewDatastore(manager, cfg.DataFile,
		persist.WithLogger(logging.Component(logger, "persist")))
	a.entryErrs, err = a.datastore.Load(ctx)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// lookup returns the definition registered under name.
func (a *app) lookup(name string) (*flag.Definition, error) {
	def, ok := a.registry.Lookup(name)
	if !ok {
		return nil, flag.ErrUnknownFlag(name)
	}
	return def, nil
}

// save persists the store, logging failures before returning them.
func (a *app) save(ctx context.Context) error {
	if err := a.datastore.Save(ctx); err != nil {
		errutil.LogError(a.logger, "failed to save flags file", err)
		return err
	}
	return nil
}

// userError wraps a player-facing rejection for return from a command.
func userError(message string) error {
	return oops.In("cli").With("message", message).Errorf("%s", message)
}
