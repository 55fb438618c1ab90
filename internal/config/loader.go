// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path, which
// may be hjson or plain json.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg, err := l.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// FindConfig searches for a config file in the current directory,
// preferring claudegate.hjson over claudegate.json.
func (l *Loader) FindConfig() (string, error) {
	candidates := []string{
		"claudegate.hjson",
		"claudegate.json",
	}

	for _, name := range candidates {
		path := filepath.Join(".", name)
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, nil
			}
			return abs, nil
		}
	}

	return "", fmt.Errorf("config file not found (looked for claudegate.hjson, claudegate.json)")
}

// applyDefaults sets default values for missing config fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8089
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}

	if cfg.CLI.MinVersion == "" {
		cfg.CLI.MinVersion = "2.0.0"
	}
	if len(cfg.CLI.SettingSources) == 0 {
		cfg.CLI.SettingSources = []string{}
	}
	if cfg.CLI.MaxOutputTokens == 0 {
		cfg.CLI.MaxOutputTokens = 32000
	}

	if cfg.Session.IdleTimeout == "" {
		cfg.Session.IdleTimeout = "30m"
	}
	if cfg.Session.SweepInterval == "" {
		cfg.Session.SweepInterval = "5m"
	}
	if cfg.Session.MaxConcurrentSpawns == 0 {
		cfg.Session.MaxConcurrentSpawns = 8
	}

	if cfg.Cache.L1MaxEntries == 0 {
		cfg.Cache.L1MaxEntries = 1000
	}
	if cfg.Cache.L1TTL == "" {
		cfg.Cache.L1TTL = "1h"
	}
	if cfg.Cache.L2TTL == "" {
		cfg.Cache.L2TTL = "24h"
	}

	if cfg.Memory.BudgetChars == 0 {
		cfg.Memory.BudgetChars = 8000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
