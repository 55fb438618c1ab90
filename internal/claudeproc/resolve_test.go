// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfiguredPathExists(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "my-claude")
	require.NoError(t, os.WriteFile(binPath, []byte("#!/bin/sh\n"), 0o755))

	resolved, err := Resolve(binPath)
	require.NoError(t, err)
	assert.Equal(t, binPath, resolved)
}

func TestResolveConfiguredPathMissing(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.CLINotFound, gatewayerrors.KindOf(err))
}

func TestResolveNotFoundListsSearchedPaths(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := Resolve("")
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.CLINotFound, gatewayerrors.KindOf(err))
	assert.Contains(t, err.Error(), "claude")
}

func TestFileExistsRejectsDirectories(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, fileExists(dir))
}
