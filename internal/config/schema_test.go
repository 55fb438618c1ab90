// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHookMatchersEmpty(t *testing.T) {
	cli := CLIConfig{}
	matchers, err := cli.DecodeHookMatchers()
	require.NoError(t, err)
	assert.Nil(t, matchers)
}

func TestDecodeHookMatchers(t *testing.T) {
	cli := CLIConfig{HookMatchersYAML: `
- matcher: "Bash"
  hooks: ["audit-log", "confirm-destructive"]
- matcher: "Edit|Write"
  hooks: ["format-on-save"]
`}

	matchers, err := cli.DecodeHookMatchers()
	require.NoError(t, err)
	require.Len(t, matchers, 2)
	assert.Equal(t, "Bash", matchers[0].Matcher)
	assert.Equal(t, []string{"audit-log", "confirm-destructive"}, matchers[0].Hooks)
	assert.Equal(t, "Edit|Write", matchers[1].Matcher)
	assert.Equal(t, []string{"format-on-save"}, matchers[1].Hooks)
}

func TestDecodeHookMatchersInvalidYAML(t *testing.T) {
	cli := CLIConfig{HookMatchersYAML: "not: [valid"}
	_, err := cli.DecodeHookMatchers()
	assert.Error(t, err)
}
