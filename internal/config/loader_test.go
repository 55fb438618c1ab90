// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "claudegate.hjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewLoader()
	cfg, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	return cfg
}

func TestLoaderLoadValidConfig(t *testing.T) {
	cfg := loadFromString(t, `{
		version: "1.0"
		server: { host: "0.0.0.0", port: 9090 }
		cli: { path: "/usr/local/bin/claude", min_version: "2.1.0" }
	}`)

	assert.Equal(t, "1.0", cfg.Version)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/usr/local/bin/claude", cfg.CLI.Path)
	assert.Equal(t, "2.1.0", cfg.CLI.MinVersion)
}

func TestLoaderLoadHJSONFeatures(t *testing.T) {
	cfg := loadFromString(t, `{
		// a comment
		version: "1.0"
		# a hash comment
		server: {
			port: 8080,  // trailing comma below
		}
	}`)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoaderLoadMissingFile(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.hjson"))
	assert.Error(t, err)
}

func TestLoaderLoadWithDefaultsFillsZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claudegate.hjson")
	require.NoError(t, os.WriteFile(path, []byte(`{version: "1.0"}`), 0o644))

	loader := NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "2.0.0", cfg.CLI.MinVersion)
	assert.Equal(t, 32000, cfg.CLI.MaxOutputTokens)
	assert.Equal(t, "30m", cfg.Session.IdleTimeout)
	assert.Equal(t, "5m", cfg.Session.SweepInterval)
	assert.EqualValues(t, 8, cfg.Session.MaxConcurrentSpawns)
	assert.Equal(t, 1000, cfg.Cache.L1MaxEntries)
	assert.Equal(t, "1h", cfg.Cache.L1TTL)
	assert.Equal(t, "24h", cfg.Cache.L2TTL)
	assert.Equal(t, 8000, cfg.Memory.BudgetChars)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoaderLoadWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := loadFromString(t, `{
		server: { port: 1234 }
		session: { idle_timeout: "1h" }
	}`)
	applyDefaults(cfg)
	assert.Equal(t, 1234, cfg.Server.Port)
	assert.Equal(t, "1h", cfg.Session.IdleTimeout)
	assert.Equal(t, "5m", cfg.Session.SweepInterval) // still defaulted
}

func TestFindConfigNotFound(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(dir))

	loader := NewLoader()
	_, err = loader.FindConfig()
	assert.Error(t, err)
}

func TestFindConfigPrefersHJSON(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(dir))

	require.NoError(t, os.WriteFile("claudegate.json", []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile("claudegate.hjson", []byte(`{}`), 0o644))

	loader := NewLoader()
	path, err := loader.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "claudegate.hjson")
}
