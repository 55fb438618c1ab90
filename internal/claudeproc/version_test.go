// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSemVerPlain(t *testing.T) {
	v, ok := ParseSemVer("2.1.3")
	require.True(t, ok)
	assert.Equal(t, SemVer{2, 1, 3}, v)
}

func TestParseSemVerWithVPrefix(t *testing.T) {
	v, ok := ParseSemVer("v2.1.3")
	require.True(t, ok)
	assert.Equal(t, SemVer{2, 1, 3}, v)
}

func TestParseSemVerWithPackagePrefix(t *testing.T) {
	v, ok := ParseSemVer("claude-code/1.0.5")
	require.True(t, ok)
	assert.Equal(t, SemVer{1, 0, 5}, v)
}

func TestParseSemVerWithPrereleaseSuffix(t *testing.T) {
	v, ok := ParseSemVer("2.0.0-beta.1")
	require.True(t, ok)
	assert.Equal(t, SemVer{2, 0, 0}, v)
}

func TestParseSemVerWithTrailingNoise(t *testing.T) {
	v, ok := ParseSemVer("2.5.0 (build abc123)")
	require.True(t, ok)
	assert.Equal(t, SemVer{2, 5, 0}, v)
}

func TestParseSemVerRejectsGarbage(t *testing.T) {
	_, ok := ParseSemVer("not-a-version")
	assert.False(t, ok)
}

func TestSemVerLess(t *testing.T) {
	assert.True(t, SemVer{1, 9, 9}.Less(SemVer{2, 0, 0}))
	assert.True(t, SemVer{2, 0, 0}.Less(SemVer{2, 0, 1}))
	assert.False(t, SemVer{2, 0, 0}.Less(SemVer{2, 0, 0}))
	assert.False(t, SemVer{3, 0, 0}.Less(SemVer{2, 9, 9}))
}

func TestSemVerString(t *testing.T) {
	assert.Equal(t, "2.0.0", SemVer{2, 0, 0}.String())
}
