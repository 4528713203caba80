// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package defpack loads declarative flag definition packs.
//
// A pack is a YAML manifest declaring extra flags without writing Go:
//
//	name: server-basics
//	version: 1.2.0
//	requires: ">= 1.0.0"
//	flags:
//	  - name: EnterMessage
//	    scopes: [claim, default]
//	    set-message: "Visitors will now see: {{ .Params }}"
//	    validator:
//	      kind: required
//	      message: You must provide a message.
package defpack

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/claimflags/internal/flag"
)

// APIVersion is the definition pack API implemented by this build.
// Packs declare compatible versions with the requires constraint.
const APIVersion = "1.0.0"

// CodeInvalidManifest marks a pack that cannot be loaded.
const CodeInvalidManifest = "INVALID_MANIFEST"

// ValidatorKind selects how a pack flag validates its parameters.
type ValidatorKind string

// Validator kinds.
const (
	ValidatorNone     ValidatorKind = "none"
	ValidatorRequired ValidatorKind = "required"
	ValidatorNumber   ValidatorKind = "number"
	ValidatorExpr     ValidatorKind = "expr"
	ValidatorLua      ValidatorKind = "lua"
)

// Manifest is a definition pack file.
type Manifest struct {
	Name     string     `yaml:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version  string     `yaml:"version" jsonschema:"minLength=1"`
	Requires string     `yaml:"requires,omitempty"`
	Flags    []FlagSpec `yaml:"flags" jsonschema:"minItems=1"`
}

// FlagSpec declares one flag.
type FlagSpec struct {
	Name         string         `yaml:"name" jsonschema:"minLength=1"`
	Scopes       []string       `yaml:"scopes,omitempty"`
	SetMessage   string         `yaml:"set-message,omitempty"`
	UnsetMessage string         `yaml:"unset-message,omitempty"`
	Validator    *ValidatorSpec `yaml:"validator,omitempty"`
}

// ValidatorSpec declares a parameter validator.
type ValidatorSpec struct {
	Kind    ValidatorKind `yaml:"kind" jsonschema:"enum=none,enum=required,enum=number,enum=expr,enum=lua"`
	Expr    string        `yaml:"expr,omitempty"`
	Lua     string        `yaml:"lua,omitempty"`
	Message string        `yaml:"message,omitempty"`
}

var flagNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ParseManifest validates data against the manifest schema, decodes it, and
// checks the constraints the schema cannot express.
func ParseManifest(data []byte) (*Manifest, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, invalidManifest("", "invalid YAML").Wrap(err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks version compatibility and flag declarations.
func (m *Manifest) Validate() error {
	if _, err := semver.NewVersion(m.Version); err != nil {
		return invalidManifest(m.Name, "version must be a semantic version").Wrap(err)
	}
	if m.Requires != "" {
		constraint, err := semver.NewConstraint(m.Requires)
		if err != nil {
			return invalidManifest(m.Name, "requires must be a version constraint").Wrap(err)
		}
		if !constraint.Check(semver.MustParse(APIVersion)) {
			return invalidManifest(m.Name, "incompatible pack").
				With("requires", m.Requires).
				With("api_version", APIVersion).
				Errorf("pack %s requires API %s, have %s", m.Name, m.Requires, APIVersion)
		}
	}

	seen := make(map[string]bool, len(m.Flags))
	for _, f := range m.Flags {
		if !flagNamePattern.MatchString(f.Name) {
			return invalidManifest(m.Name, "bad flag name").Errorf("flag name %q must start with a letter and contain only letters, digits, '_' or '-'", f.Name)
		}
		key := strings.ToLower(f.Name)
		if seen[key] {
			return invalidManifest(m.Name, "duplicate flag").Errorf("flag %q is declared twice", f.Name)
		}
		seen[key] = true
		for _, s := range f.Scopes {
			if _, ok := flag.ParseScopeKind(s); !ok {
				return invalidManifest(m.Name, "bad scope").Errorf("flag %s: unknown scope %q", f.Name, s)
			}
		}
		if err := f.Validator.check(); err != nil {
			return invalidManifest(m.Name, "bad validator").With("flag", f.Name).Wrap(err)
		}
	}
	return nil
}

func (v *ValidatorSpec) check() error {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case ValidatorNone, ValidatorRequired, ValidatorNumber:
		return nil
	case ValidatorExpr:
		if strings.TrimSpace(v.Expr) == "" {
			return oops.Errorf("expr validator needs an expr")
		}
	case ValidatorLua:
		if strings.TrimSpace(v.Lua) == "" {
			return oops.Errorf("lua validator needs a lua script")
		}
	default:
		return oops.Errorf("unknown validator kind %q", v.Kind)
	}
	return nil
}

func invalidManifest(pack, reason string) oops.OopsErrorBuilder {
	return oops.In("defpack").
		Code(CodeInvalidManifest).
		With("pack", pack).
		With("reason", reason)
}
