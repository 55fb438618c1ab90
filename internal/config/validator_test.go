// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{Version: "1.0"}
	applyDefaults(cfg)
	return cfg
}

func TestValidatorAcceptsDefaultedConfig(t *testing.T) {
	err := NewValidator().Validate(validConfig())
	assert.NoError(t, err)
}

func TestValidatorRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "server.port")
}

func TestValidatorRejectsNegativeMaxOutputTokens(t *testing.T) {
	cfg := validConfig()
	cfg.CLI.MaxOutputTokens = -1

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cli.max_output_tokens")
}

func TestValidatorRejectsBadDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Session.IdleTimeout = "not-a-duration"

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.idle_timeout")
}

func TestValidatorCollectsMultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	cfg.Cache.L1MaxEntries = -5

	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestValidationErrorIsEmpty(t *testing.T) {
	verr := &ValidationError{}
	assert.True(t, verr.IsEmpty())
	verr.Add("field", "message")
	assert.False(t, verr.IsEmpty())
}

func TestParseDurationFallback(t *testing.T) {
	d := ParseDuration("garbage", 7)
	assert.EqualValues(t, 7, d)
}

func TestParseDurationValid(t *testing.T) {
	d := ParseDuration("10s", 0)
	assert.Equal(t, "10s", d.String())
}
