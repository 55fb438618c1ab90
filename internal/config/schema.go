// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config loads claudegated's hjson/json configuration file,
// applies defaults, and validates the result. Grounded on the
// teacher's internal/config package (Loader/Validator/applyDefaults
// split) scoped down to the gateway's actual surface: CLI discovery,
// session pool tuning, cache tuning, and the memory index connection.
package config

import (
	"gopkg.in/yaml.v3"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// Config is the root of claudegated's configuration file.
type Config struct {
	Version string `json:"version"`

	Server  ServerConfig  `json:"server"`
	CLI     CLIConfig     `json:"cli"`
	Session SessionConfig `json:"session"`
	Cache   CacheConfig   `json:"cache"`
	Memory  MemoryConfig  `json:"memory"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CLIConfig configures how the `claude` binary is discovered and
// invoked, mirroring claudeproc.Options' process-wide knobs.
type CLIConfig struct {
	Path                    string   `json:"path"` // explicit override; "" falls back to PATH/cache/well-known dirs
	MinVersion              string   `json:"min_version"`
	RunAsUser               string   `json:"run_as_user"`
	SettingSources          []string `json:"setting_sources"`
	EnableFileCheckpointing bool     `json:"enable_file_checkpointing"`
	MaxOutputTokens         int      `json:"max_output_tokens"`

	// HookMatchersYAML is a YAML fragment (not hjson) listing
	// matcher/callback pairs, decoded by DecodeHookMatchers, embedded
	// as a raw string because the matcher rules are authored and
	// reviewed independently of the rest of the hjson document.
	// claudegated does not pass the decoded matchers to
	// Engine.Initialize; the chat facade registers no hooks.
	HookMatchersYAML string `json:"hook_matchers_yaml"`
}

// hookMatcherDoc is the YAML decode target for CLIConfig.HookMatchersYAML.
type hookMatcherDoc struct {
	Matcher string   `yaml:"matcher"`
	Hooks   []string `yaml:"hooks"`
}

// DecodeHookMatchers parses HookMatchersYAML into the hook-matcher list
// Engine.Initialize expects. An empty fragment decodes to nil, not an
// error.
func (c CLIConfig) DecodeHookMatchers() ([]gatewaytypes.HookMatcher, error) {
	if c.HookMatchersYAML == "" {
		return nil, nil
	}
	var docs []hookMatcherDoc
	if err := yaml.Unmarshal([]byte(c.HookMatchersYAML), &docs); err != nil {
		return nil, err
	}
	matchers := make([]gatewaytypes.HookMatcher, 0, len(docs))
	for _, d := range docs {
		matchers = append(matchers, gatewaytypes.HookMatcher{Matcher: d.Matcher, Hooks: d.Hooks})
	}
	return matchers, nil
}

// SessionConfig tunes internal/session.Manager's pooling behavior.
type SessionConfig struct {
	IdleTimeout         string `json:"idle_timeout"`          // e.g. "30m"
	SweepInterval       string `json:"sweep_interval"`        // e.g. "5m"
	MaxConcurrentSpawns int64  `json:"max_concurrent_spawns"` // 0 = package default
}

// CacheConfig tunes internal/cache.Config plus where the L2 store
// persists (empty path = in-memory L2 only).
type CacheConfig struct {
	Enabled      bool   `json:"enabled"`
	L1MaxEntries int    `json:"l1_max_entries"`
	L1TTL        string `json:"l1_ttl"`
	L2Enabled    bool   `json:"l2_enabled"`
	L2TTL        string `json:"l2_ttl"`
	L2StorePath  string `json:"l2_store_path"` // "" = in-memory MemoryStore
}

// MemoryConfig describes the persistent memory/retrieval index.
// claudegated does not read either field: it always uses the
// in-process MemoryIndex, and the prefix budget is
// memory.DefaultBudgetChars.
type MemoryConfig struct {
	Connection  string `json:"connection"`
	BudgetChars int    `json:"budget_chars"`
}

// LoggingConfig holds logging settings that claudegated does not read:
// gatewaylog has no level switch, and its debug output is enabled only
// by the CLAUDEGATE_DEBUG environment variable.
type LoggingConfig struct {
	Level string `json:"level"`
	Debug bool   `json:"debug"`
}
