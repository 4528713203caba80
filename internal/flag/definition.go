// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package flag implements the claim flag registry, the per-scope flag store,
// the write path, and the claim → parent → world → everywhere resolver.
package flag

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// ScopeKind classifies where a flag may be set.
type ScopeKind string

// Scope kinds.
const (
	ScopeClaim   ScopeKind = "claim"
	ScopeDefault ScopeKind = "default"
	ScopeWorld   ScopeKind = "world"
	ScopeServer  ScopeKind = "server"
)

// String returns the string representation of the scope kind.
func (k ScopeKind) String() string {
	return string(k)
}

// ParseScopeKind converts a case-insensitive name into a ScopeKind.
func ParseScopeKind(s string) (ScopeKind, bool) {
	switch k := ScopeKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ScopeClaim, ScopeDefault, ScopeWorld, ScopeServer:
		return k, true
	default:
		return "", false
	}
}

// Validator checks a friendly parameter string. A nil return accepts it;
// rejections should be built with ErrInvalidParameters.
type Validator func(params string) error

// ArgTransform rewrites one raw argument into its stored form.
type ArgTransform func(arg string) string

// SetHook runs after a flag becomes active in a live region.
type SetHook func(ctx context.Context, region *Region, params string) error

// UnsetHook runs after a flag becomes inactive or is removed in a live region.
type UnsetHook func(ctx context.Context, region *Region) error

// MoveHook runs when a player crosses a region boundary or joins.
type MoveHook func(ctx context.Context, mv Movement) error

// DefinitionSpec describes a flag definition before registration.
type DefinitionSpec struct {
	Name string
	// SetMessage is a text/template rendered with .Flag, .Params and .Args.
	SetMessage   string
	UnsetMessage string
	Scopes       []ScopeKind
	Validate     Validator
	TransformArg ArgTransform
	OnSet        SetHook
	OnUnset      UnsetHook
	OnMove       MoveHook
}

// Definition is a registered flag capability. The registry owns definitions;
// flags refer to them by name only.
type Definition struct {
	name         string
	scopes       []ScopeKind
	setMessage   *template.Template
	unsetMessage string
	validate     Validator
	transformArg ArgTransform
	onSet        SetHook
	onUnset      UnsetHook
	onMove       MoveHook
	instances    atomic.Int64
}

// NewDefinition builds a definition from spec.
func NewDefinition(spec DefinitionSpec) (*Definition, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, ErrInvalidDefinition(spec.Name, "name cannot be empty")
	}
	if strings.ContainsAny(name, " /") {
		return nil, ErrInvalidDefinition(name, "name cannot contain spaces or slashes")
	}

	tmpl, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=zero").
		Parse(spec.SetMessage)
	if err != nil {
		return nil, ErrInvalidDefinition(name, "set message: "+err.Error())
	}

	scopes := slices.Clone(spec.Scopes)
	if len(scopes) == 0 {
		scopes = []ScopeKind{ScopeClaim}
	}

	return &Definition{
		name:         name,
		scopes:       scopes,
		setMessage:   tmpl,
		unsetMessage: spec.UnsetMessage,
		validate:     spec.Validate,
		transformArg: spec.TransformArg,
		onSet:        spec.OnSet,
		onUnset:      spec.OnUnset,
		onMove:       spec.OnMove,
	}, nil
}

// MustDefinition is NewDefinition that panics on error.
// This is intended for built-in definitions only.
func MustDefinition(spec DefinitionSpec) *Definition {
	def, err := NewDefinition(spec)
	if err != nil {
		panic(err)
	}
	return def
}

// Name returns the name as registered.
func (d *Definition) Name() string {
	return d.name
}

// Key returns the case-insensitive lookup key.
func (d *Definition) Key() string {
	return strings.ToLower(d.name)
}

// Scopes returns the scope kinds the flag may be set in.
func (d *Definition) Scopes() []ScopeKind {
	return slices.Clone(d.scopes)
}

// AllowsScope reports whether the flag may be set in a scope of kind k.
func (d *Definition) AllowsScope(k ScopeKind) bool {
	return slices.Contains(d.scopes, k)
}

// Validate runs the parameter validator. Definitions without one accept anything.
func (d *Definition) Validate(params string) error {
	if d.validate == nil {
		return nil
	}
	return d.validate(params)
}

// SetMessage renders the set message for params.
func (d *Definition) SetMessage(params string) string {
	var b strings.Builder
	data := map[string]any{
		"Flag":   d.name,
		"Params": params,
		"Args":   strings.Fields(params),
	}
	if err := d.setMessage.Execute(&b, data); err != nil {
		return d.name + " set: " + params
	}
	return b.String()
}

// UnsetMessage returns the fixed unset message.
func (d *Definition) UnsetMessage() string {
	return d.unsetMessage
}

// Instances returns the number of scopes where the flag is currently active.
func (d *Definition) Instances() int64 {
	return d.instances.Load()
}

// Movement reports whether the definition reacts to player movement.
func (d *Definition) Movement() bool {
	return d.onMove != nil
}

// HandleMove invokes the movement hook, if any.
func (d *Definition) HandleMove(ctx context.Context, mv Movement) error {
	if d.onMove == nil {
		return nil
	}
	return d.onMove(ctx, mv)
}

func (d *Definition) transform(arg string) string {
	if d.transformArg == nil || arg == "" {
		return arg
	}
	return d.transformArg(arg)
}

func (d *Definition) incrementInstances() {
	activeInstances.WithLabelValues(d.name).Set(float64(d.instances.Add(1)))
}

func (d *Definition) decrementInstances() {
	activeInstances.WithLabelValues(d.name).Set(float64(d.instances.Add(-1)))
}
