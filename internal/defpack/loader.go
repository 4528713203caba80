// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package defpack

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/claimflags/internal/flag"
)

// Pack is a loaded manifest and the definitions built from it.
type Pack struct {
	Manifest    *Manifest
	Path        string
	Definitions []*flag.Definition
}

// Build turns a manifest into definitions.
func Build(m *Manifest, scripts *ScriptRunner) ([]*flag.Definition, error) {
	defs := make([]*flag.Definition, 0, len(m.Flags))
	for _, f := range m.Flags {
		validate, err := buildValidator(f.Name, f.Validator, scripts)
		if err != nil {
			return nil, oops.With("pack", m.Name).Wrap(err)
		}
		scopes := make([]flag.ScopeKind, 0, len(f.Scopes))
		for _, s := range f.Scopes {
			k, _ := flag.ParseScopeKind(s)
			scopes = append(scopes, k)
		}
		def, err := flag.NewDefinition(flag.DefinitionSpec{
			Name:         f.Name,
			SetMessage:   f.SetMessage,
			UnsetMessage: f.UnsetMessage,
			Scopes:       scopes,
			Validate:     validate,
		})
		if err != nil {
			return nil, oops.With("pack", m.Name).Wrap(err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Parse parses a manifest and builds its definitions.
func Parse(data []byte, scripts *ScriptRunner) (*Pack, error) {
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	defs, err := Build(m, scripts)
	if err != nil {
		return nil, err
	}
	return &Pack{Manifest: m, Definitions: defs}, nil
}

// Loader reads definition packs from a directory.
type Loader struct {
	scripts *ScriptRunner
	logger  *slog.Logger
}

// NewLoader creates a loader. Nil arguments select defaults.
func NewLoader(scripts *ScriptRunner, logger *slog.Logger) *Loader {
	if scripts == nil {
		scripts = NewScriptRunner(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{scripts: scripts, logger: logger}
}

// LoadDir loads every *.yml and *.yaml file in dir, in name order.
// Invalid packs are skipped and reported in the returned error slice; they
// never stop the remaining packs from loading. A missing dir yields nothing.
func (l *Loader) LoadDir(dir string) ([]*Pack, []error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []error{oops.In("defpack").With("dir", dir).Wrapf(err, "read definitions directory")}
	}

	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		packs []*Pack
		errs  []error
	)
	for _, name := range names {
		path := filepath.Join(dir, name)
		pack, err := l.LoadFile(path)
		if err != nil {
			l.logger.Warn("skipping definition pack", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		packs = append(packs, pack)
	}
	return packs, errs
}

// LoadFile loads one pack.
func (l *Loader) LoadFile(path string) (*Pack, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.In("defpack").With("path", path).Wrapf(err, "read definition pack")
	}
	pack, err := Parse(data, l.scripts)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	pack.Path = path
	l.logger.Debug("loaded definition pack",
		"pack", pack.Manifest.Name,
		"version", pack.Manifest.Version,
		"flags", len(pack.Definitions))
	return pack, nil
}

// Register adds every definition from packs to registry. Pack definitions
// replace earlier definitions of the same name, including built-ins.
func Register(registry *flag.Registry, packs []*Pack) error {
	for _, p := range packs {
		for _, def := range p.Definitions {
			if err := registry.Register(def); err != nil {
				return oops.With("pack", p.Manifest.Name).Wrap(err)
			}
		}
	}
	return nil
}
