// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package flag

import "strings"

// Reserved scope identifiers.
const (
	// DefaultScope holds flags applied inside any claim that does not override them.
	DefaultScope = "-2"
	// EverywhereScope holds server-wide flags applied across all worlds.
	EverywhereScope = "everywhere"
)

// Flag is a flag value attached to one scope. Flags are immutable values;
// every write replaces the stored flag wholesale.
type Flag struct {
	// Name is the definition name as registered.
	Name string
	// Params is the internal parameter string.
	Params string
	// Active is false for a tombstone that only remembers the last parameters.
	Active bool
	// Scope is the scope identifier the flag is stored under.
	Scope string
}

// Key returns the case-insensitive store key for the flag.
func (f Flag) Key() string {
	return strings.ToLower(f.Name)
}

// SameInstance reports whether f and other are the same stored record.
func (f Flag) SameInstance(other Flag) bool {
	return f.Scope == other.Scope && strings.EqualFold(f.Name, other.Name)
}

// Result is the outcome of a set or unset request.
type Result struct {
	Success bool
	Message string
}
