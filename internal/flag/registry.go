// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Registry manages flag definitions keyed by lower-cased name.
// It is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

// NewRegistry creates an empty flag registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]*Definition)}
}

// Register adds a definition, replacing any definition with the same name.
// The replaced definition's instance count carries over so that flags already
// stored keep being counted after a reload.
func (r *Registry) Register(def *Definition) error {
	if def == nil {
		return ErrInvalidDefinition("", "definition cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := def.Key()
	if existing, ok := r.definitions[key]; ok && existing != def {
		def.instances.Store(existing.Instances())
		slog.Debug("replacing flag definition", "flag", def.Name())
	}
	r.definitions[key] = def
	return nil
}

// MustRegister adds a definition, panicking on error.
// This is intended for startup registration only.
func (r *Registry) MustRegister(def *Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Lookup returns the definition for name, ignoring case.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[strings.ToLower(name)]
	return def, ok
}

// All returns every registered definition sorted by name.
// The returned slice is a copy and safe to modify.
func (r *Registry) All() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key() < defs[j].Key() })
	return defs
}

// Names returns the lower-cased names of every registered definition, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match returns definitions whose name matches a case-insensitive glob pattern.
func (r *Registry) Match(pattern string) ([]*Definition, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, oops.With("pattern", pattern).Wrapf(err, "invalid flag pattern")
	}

	var matched []*Definition
	for _, def := range r.All() {
		if g.Match(def.Key()) {
			matched = append(matched, def)
		}
	}
	return matched, nil
}

// MovementAware returns the definitions that react to player movement.
func (r *Registry) MovementAware() []*Definition {
	var defs []*Definition
	for _, def := range r.All() {
		if def.Movement() {
			defs = append(defs, def)
		}
	}
	return defs
}
