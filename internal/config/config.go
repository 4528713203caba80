// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads claimflags settings.
//
// Sources are applied in order, later ones winning: built-in defaults, the
// YAML config file, CLAIMFLAGS_* environment variables, and command-line
// flags the user explicitly set.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/claimflags/internal/logging"
	"github.com/holomush/claimflags/internal/xdg"
)

// CodeInvalidConfig marks configuration that cannot be used.
const CodeInvalidConfig = "INVALID_CONFIG"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CLAIMFLAGS_"

// Flag and key names.
const (
	KeyConfig         = "config"
	KeyDataFile       = "data-file"
	KeyWorldFile      = "world-file"
	KeyDefinitionsDir = "definitions-dir"
	KeyLogFormat      = "log-format"
	KeyLogLevel       = "log-level"
	KeyMetricsAddr    = "metrics-addr"
	KeyWatch          = "watch"
)

// Default values.
const (
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultMetricsAddr = "127.0.0.1:9110"
)

// Config holds claimflags settings.
type Config struct {
	DataFile       string `koanf:"data-file" env:"DATA_FILE"`
	WorldFile      string `koanf:"world-file" env:"WORLD_FILE"`
	DefinitionsDir string `koanf:"definitions-dir" env:"DEFINITIONS_DIR"`
	LogFormat      string `koanf:"log-format" env:"LOG_FORMAT"`
	LogLevel       string `koanf:"log-level" env:"LOG_LEVEL"`
	MetricsAddr    string `koanf:"metrics-addr" env:"METRICS_ADDR"`
	Watch          bool   `koanf:"watch" env:"WATCH"`
}

// Defaults returns the built-in configuration. File locations follow the
// XDG base directories and are left empty when they cannot be resolved.
func Defaults() Config {
	cfg := Config{
		LogFormat:   DefaultLogFormat,
		LogLevel:    DefaultLogLevel,
		MetricsAddr: DefaultMetricsAddr,
	}
	cfg.DataFile, _ = xdg.FlagsFile()
	cfg.WorldFile, _ = xdg.WorldFile()
	cfg.DefinitionsDir, _ = xdg.DefinitionsDir()
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return oops.Code(CodeInvalidConfig).With("key", KeyDataFile).Errorf("%s is required", KeyDataFile)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code(CodeInvalidConfig).
			With("key", KeyLogFormat).
			Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return oops.Code(CodeInvalidConfig).With("key", KeyLogLevel).Wrap(err)
	}
	return nil
}

// SlogLevel returns the parsed log level. Call Validate first.
func (c *Config) SlogLevel() slog.Level {
	level, _ := logging.ParseLevel(c.LogLevel)
	return level
}

// RegisterFlags adds the configuration flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String(KeyConfig, "", "config file (default $XDG_CONFIG_HOME/claimflags/config.yml)")
	fs.String(KeyDataFile, d.DataFile, "flags data file")
	fs.String(KeyWorldFile, d.WorldFile, "world description file")
	fs.String(KeyDefinitionsDir, d.DefinitionsDir, "definition pack directory")
	fs.String(KeyLogFormat, d.LogFormat, "log format (json or text)")
	fs.String(KeyLogLevel, d.LogLevel, "log level (debug, info, warn, error)")
	fs.String(KeyMetricsAddr, d.MetricsAddr, "metrics and health listen address")
	fs.Bool(KeyWatch, d.Watch, "reload the flags file when it changes on disk")
}

// Load builds the configuration. flags may be nil. When the --config flag is
// not set the default config file is read if it exists.
func Load(flags *pflag.FlagSet) (*Config, error) {
	cfg := Defaults()

	path, explicit := configPath(flags)
	if path != "" {
		if err := loadFile(path, explicit, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "parse environment")
	}

	if flags != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == KeyConfig {
				return "", nil
			}
			return f.Name, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "load command-line flags")
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return nil, oops.Code(CodeInvalidConfig).Wrapf(err, "decode command-line flags")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPath(flags *pflag.FlagSet) (string, bool) {
	if flags != nil {
		if f := flags.Lookup(KeyConfig); f != nil && f.Changed {
			return f.Value.String(), true
		}
	}
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, true
	}
	p, _ := xdg.ConfigFile()
	return p, false
}

func loadFile(path string, explicit bool, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return oops.Code(CodeInvalidConfig).With("path", path).Wrapf(err, "read config file")
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		return oops.Code(CodeInvalidConfig).With("path", path).Wrapf(err, "parse config file")
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return oops.Code(CodeInvalidConfig).With("path", path).Wrapf(err, "decode config file")
	}
	return nil
}
