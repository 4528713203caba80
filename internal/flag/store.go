// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import (
	"sort"
	"strings"
	"sync"
)

// Store maps scope identifiers to the flags set in that scope.
// It is safe for concurrent use; flags are stored and returned by value so a
// reader never observes a partially written flag.
type Store struct {
	mu     sync.RWMutex
	scopes map[string]map[string]Flag
}

// NewStore creates an empty flag store.
func NewStore() *Store {
	return &Store{scopes: make(map[string]map[string]Flag)}
}

// Get returns the flag stored under scope for name, ignoring case.
func (s *Store) Get(scope, name string) (Flag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.scopes[scope][strings.ToLower(name)]
	return f, ok
}

// Put replaces the flag stored under scope and returns the previous one.
func (s *Store) Put(scope string, f Flag) (Flag, bool) {
	f.Scope = scope
	key := f.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	flags, ok := s.scopes[scope]
	if !ok {
		flags = make(map[string]Flag)
		s.scopes[scope] = flags
	}
	prev, existed := flags[key]
	flags[key] = f
	return prev, existed
}

// Remove deletes the flag stored under scope for name and returns it.
// A scope left without flags is dropped.
func (s *Store) Remove(scope, name string) (Flag, bool) {
	key := strings.ToLower(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	flags, ok := s.scopes[scope]
	if !ok {
		return Flag{}, false
	}
	prev, existed := flags[key]
	if !existed {
		return Flag{}, false
	}
	delete(flags, key)
	if len(flags) == 0 {
		delete(s.scopes, scope)
	}
	return prev, true
}

// Flags returns the flags stored under scope sorted by key.
func (s *Store) Flags(scope string) []Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedFlags(s.scopes[scope])
}

// Scopes returns every scope identifier that holds flags, sorted.
func (s *Store) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scopes := make([]string, 0, len(s.scopes))
	for scope := range s.scopes {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Keys returns the distinct flag keys present in any scope, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, flags := range s.scopes {
		for key := range flags {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns an independent copy of the whole store.
func (s *Store) Snapshot() map[string][]Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]Flag, len(s.scopes))
	for scope, flags := range s.scopes {
		out[scope] = sortedFlags(flags)
	}
	return out
}

// Clear drops every scope and returns the flags that were removed.
func (s *Store) Clear() []Flag {
	return s.RemoveScopes(func(string) bool { return true })
}

// RemoveScopes drops every scope for which remove returns true and returns
// the flags that were removed.
func (s *Store) RemoveScopes(remove func(scope string) bool) []Flag {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []Flag
	for scope, flags := range s.scopes {
		if !remove(scope) {
			continue
		}
		for _, f := range flags {
			removed = append(removed, f)
		}
		delete(s.scopes, scope)
	}
	return removed
}

func sortedFlags(flags map[string]Flag) []Flag {
	out := make([]Flag, 0, len(flags))
	for _, f := range flags {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}
