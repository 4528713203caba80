// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package persist loads and saves the flag store as a YAML document.
//
// The document maps scope identifiers to flag names, and each flag to a
// params/value pair:
//
//	"12":
//	  NoEnterPlayer:
//	    params: 01J8Z3Q4YV5N4WQ6ZK5T3C1M2B
//	    value: true
//
// A flag whose node is a scalar is in the legacy layout: the scalar is the
// parameter string of an active flag.
package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/holomush/claimflags/internal/flag"
	"github.com/holomush/claimflags/pkg/errutil"
)

// pathDelim separates key-path segments. World names are directory names and
// cannot contain it.
const pathDelim = "/"

var tracer = otel.Tracer("github.com/holomush/claimflags/internal/persist")

// flagNode is the persisted form of one flag.
type flagNode struct {
	Params string `yaml:"params"`
	Value  bool   `yaml:"value"`
}

// Datastore reads and writes the flags file for a manager.
// It is safe for concurrent use; saves are serialized.
type Datastore struct {
	manager *flag.Manager
	path    string
	logger  *slog.Logger

	mu         sync.Mutex
	lastSynced []byte
}

// Option configures a Datastore.
type Option func(*Datastore)

// WithLogger sets the datastore logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Datastore) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDatastore creates a datastore persisting manager's store at path.
func NewDatastore(manager *flag.Manager, path string, opts ...Option) *Datastore {
	d := &Datastore{
		manager: manager,
		path:    path,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the flags file path.
func (d *Datastore) Path() string {
	return d.path
}

// Load replaces the store with the contents of the flags file. A missing
// file loads as an empty document. It returns one message per rejected entry.
func (d *Datastore) Load(ctx context.Context) ([]string, error) {
	data, err := d.read()
	if err != nil {
		return nil, err
	}
	return d.load(ctx, data)
}

// LoadString replaces the store with the flags in text.
//
// The document is parsed before the store is cleared, so a document that is
// not valid YAML returns an error and leaves the store untouched. Every other
// problem is reported per entry and does not stop the load; entries applied
// before a failure stay applied. Flags without a registered definition are
// skipped. When the document used the legacy layout and every entry loaded,
// the file is rewritten in the current layout.
func (d *Datastore) LoadString(ctx context.Context, text string) ([]string, error) {
	return d.load(ctx, []byte(text))
}

// ReloadIfChanged reloads the flags file unless its contents match what this
// datastore last loaded or saved.
func (d *Datastore) ReloadIfChanged(ctx context.Context) ([]string, bool, error) {
	data, err := d.read()
	if err != nil {
		return nil, false, err
	}

	d.mu.Lock()
	unchanged := d.lastSynced != nil && bytes.Equal(d.lastSynced, data)
	d.mu.Unlock()
	if unchanged {
		return nil, false, nil
	}

	errs, err := d.load(ctx, data)
	return errs, err == nil, err
}

// Marshal serializes the store. Output is deterministic: scopes and flag
// names are emitted in sorted order.
func (d *Datastore) Marshal() ([]byte, error) {
	doc := make(map[string]map[string]flagNode)
	for scope, flags := range d.manager.Store().Snapshot() {
		nodes := make(map[string]flagNode, len(flags))
		for _, f := range flags {
			nodes[f.Name] = flagNode{Params: f.Params, Value: f.Active}
		}
		doc[scope] = nodes
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errSaveFailed(d.path, "marshal", err)
	}
	return data, nil
}

// Save writes the store to the flags file, creating parent directories.
// The file is replaced atomically. Failures are returned, not retried.
func (d *Datastore) Save(ctx context.Context) (err error) {
	_, span := tracer.Start(ctx, "datastore.save", trace.WithAttributes(attribute.String("path", d.path)))
	defer func() {
		endSpan(span, err)
		if err != nil {
			DatastoreSaves.WithLabelValues(SaveStatusError).Inc()
		} else {
			DatastoreSaves.WithLabelValues(SaveStatusSuccess).Inc()
		}
	}()

	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(d.path, data); err != nil {
		return err
	}
	d.lastSynced = data
	return nil
}

// Prune drops flags for claims not listed in valid, then saves.
// It returns the removed scope identifiers.
func (d *Datastore) Prune(ctx context.Context, valid []string) ([]string, error) {
	removed := d.manager.RetainOnly(valid)
	if len(removed) > 0 {
		d.logger.Info("pruned flags for deleted claims", "scopes", removed)
	}
	return removed, d.Save(ctx)
}

func (d *Datastore) read() ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, errLoadFailed(d.path, err)
	}
	return data, nil
}

func (d *Datastore) load(ctx context.Context, data []byte) (errs []string, err error) {
	ctx, span := tracer.Start(ctx, "datastore.load", trace.WithAttributes(attribute.String("path", d.path)))
	defer func() {
		span.SetAttributes(attribute.Int("entry_errors", len(errs)))
		endSpan(span, err)
	}()

	k, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	d.manager.Clear()
	registry := d.manager.Registry()
	migrated := false
	loaded := 0

	for _, scope := range scopeKeys(k) {
		if _, ok := k.Get(scope).(map[string]any); !ok {
			if k.Get(scope) != nil {
				errs = append(errs, errMalformedEntry(scope, "", "scope is not a mapping").Error())
			}
			continue
		}
		for _, name := range k.MapKeys(scope) {
			def, ok := registry.Lookup(name)
			if !ok {
				d.logger.Debug("skipping unregistered flag", "scope", scope, "flag", name)
				continue
			}

			params, active, legacy, nodeErr := readNode(k, scope, name)
			if nodeErr != nil {
				errutil.WarnError(d.logger, "rejected flags file entry", nodeErr)
				errs = append(errs, nodeErr.Error())
				continue
			}
			if legacy {
				params = reserialize(params)
				migrated = true
			}

			result := d.manager.SetFlag(ctx, scope, def, active, params)
			if !result.Success {
				errs = append(errs, fmt.Sprintf("%s/%s: %s", scope, name, result.Message))
				continue
			}
			loaded++
		}
	}

	d.mu.Lock()
	d.lastSynced = data
	d.mu.Unlock()

	DatastoreLoadErrors.Add(float64(len(errs)))
	d.logger.Info("loaded flags", "path", d.path, "flags", loaded, "errors", len(errs), "legacy", migrated)

	if len(errs) == 0 && migrated {
		if saveErr := d.Save(ctx); saveErr != nil {
			errutil.LogError(d.logger, "failed to rewrite legacy flags file", saveErr)
		}
	}
	if errs == nil {
		errs = []string{}
	}
	return errs, nil
}

func parseDocument(data []byte) (*koanf.Koanf, error) {
	k := koanf.New(pathDelim)
	if len(bytes.TrimSpace(data)) == 0 {
		return k, nil
	}
	if err := k.Load(rawbytes.Provider(data), kyaml.Parser()); err != nil {
		return nil, errParseFailed(err)
	}
	return k, nil
}

func scopeKeys(k *koanf.Koanf) []string {
	raw := k.Raw()
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// readNode extracts one flag. A mapping node carries params and value; any
// scalar node is the legacy layout and denotes an active flag.
func readNode(k *koanf.Koanf, scope, name string) (params string, active bool, legacy bool, err error) {
	node := k.Get(scope + pathDelim + name)
	fields, ok := node.(map[string]any)
	if !ok {
		s, ok := scalarString(node)
		if !ok {
			return "", false, false, errMalformedEntry(scope, name, "expected a mapping or a scalar")
		}
		return s, true, true, nil
	}

	params, ok = scalarString(fields["params"])
	if !ok {
		return "", false, false, errMalformedEntry(scope, name, "params must be a scalar")
	}

	switch v := fields["value"].(type) {
	case nil:
		active = true
	case bool:
		active = v
	case string:
		b, parseErr := strconv.ParseBool(strings.TrimSpace(v))
		if parseErr != nil {
			return "", false, false, errMalformedEntry(scope, name, "value must be a boolean")
		}
		active = b
	default:
		return "", false, false, errMalformedEntry(scope, name, "value must be a boolean")
	}
	return params, active, false, nil
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", true
	case string:
		return s, true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(s), true
	default:
		return "", false
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errSaveFailed(path, "mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errSaveFailed(path, "create", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errSaveFailed(path, "write", err)
	}
	if err := tmp.Close(); err != nil {
		return errSaveFailed(path, "close", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errSaveFailed(path, "rename", err)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
