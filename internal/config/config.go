// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

// Package config loads server configuration from an optional YAML file
// layered under command-line flags.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default listen addresses.
const (
	DefaultTelnetAddr    = ":4200"
	DefaultWebsocketAddr = ":8765"
	DefaultMetricsAddr   = "127.0.0.1:9100"
	DefaultLogFormat     = "json"
)

// Listener configures one listening address.
type Listener struct {
	Addr string `koanf:"addr"`
}

// Log configures logging output.
type Log struct {
	Format string `koanf:"format"`
}

// Config is the full server configuration.
type Config struct {
	Telnet    Listener `koanf:"telnet"`
	Websocket Listener `koanf:"websocket"`
	Metrics   Listener `koanf:"metrics"`
	Log       Log      `koanf:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Telnet:    Listener{Addr: DefaultTelnetAddr},
		Websocket: Listener{Addr: DefaultWebsocketAddr},
		Metrics:   Listener{Addr: DefaultMetricsAddr},
		Log:       Log{Format: DefaultLogFormat},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Telnet.Addr == "" && c.Websocket.Addr == "" {
		return oops.Errorf("at least one of telnet.addr and websocket.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.With("format", c.Log.Format).
			Errorf("log format must be 'json' or 'text'")
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then flags. A flag wins only when it was
// set explicitly or its key is absent from the file. Flag names map to
// config keys with dashes as separators (telnet-addr -> telnet.addr).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k,
			func(key, value string) (string, any) {
				return strings.ReplaceAll(key, "-", "."), value
			})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
