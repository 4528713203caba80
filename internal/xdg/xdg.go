// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg provides XDG Base Directory paths for claimflags.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "claimflags"

// ConfigDir returns the XDG config directory for claimflags.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for claimflags.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", ".local", "share")
}

// ConfigFile returns the default configuration file path.
func ConfigFile() (string, error) {
	return join(ConfigDir, "config.yml")
}

// FlagsFile returns the default flags data file path.
func FlagsFile() (string, error) {
	return join(DataDir, "flags.yml")
}

// WorldFile returns the default world description path.
func WorldFile() (string, error) {
	return join(ConfigDir, "world.yml")
}

// DefinitionsDir returns the default definition pack directory.
func DefinitionsDir() (string, error) {
	return join(ConfigDir, "definitions")
}

func resolve(envVar string, fallback ...string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "", oops.In("xdg").With("env", envVar).Errorf("neither %s nor HOME is set", envVar)
		}
		base = filepath.Join(append([]string{home}, fallback...)...)
	}
	return filepath.Join(base, appName), nil
}

func join(dir func() (string, error), name string) (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, name), nil
}
