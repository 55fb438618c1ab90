// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
)

// ProductName appears in the per-user cache directory path, e.g.
// ~/.cache/claudegate/cli/ on Linux (spec §6 "CLI discovery").
const ProductName = "claudegate"

// Resolve searches for the claude CLI binary in the order documented in
// spec §6: an explicit configured path, a PATH lookup, a per-user cache
// directory, then a fixed list of common install locations. On failure it
// returns a cli_not_found GatewayError naming every path it tried.
func Resolve(configuredPath string) (string, error) {
	if configuredPath != "" {
		if fileExists(configuredPath) {
			return configuredPath, nil
		}
		return "", gatewayerrors.New(gatewayerrors.CLINotFound,
			fmt.Sprintf("configured claude CLI path does not exist: %s", configuredPath))
	}

	var searched []string

	for _, name := range []string{"claude", "claude-code"} {
		searched = append(searched, "$PATH/"+name)
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	if cacheDir, err := userCacheDir(); err == nil {
		candidate := filepath.Join(cacheDir, "cli", "claude")
		searched = append(searched, candidate)
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		for _, candidate := range fixedInstallLocations(home) {
			searched = append(searched, candidate)
			if fileExists(candidate) {
				return candidate, nil
			}
		}
	}

	return "", gatewayerrors.New(gatewayerrors.CLINotFound,
		"claude CLI not found; searched:\n  "+strings.Join(searched, "\n  "))
}

func fixedInstallLocations(home string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(home, "AppData", "Roaming", "npm", "claude.cmd"),
			filepath.Join(home, "AppData", "Local", "Programs", "claude", "claude.exe"),
		}
	default:
		return []string{
			filepath.Join(home, ".npm-global", "bin", "claude"),
			filepath.Join(home, ".npm-global", "bin", "claude-code"),
			"/usr/local/bin/claude",
			"/usr/local/bin/claude-code",
			filepath.Join(home, ".local", "bin", "claude"),
			filepath.Join(home, ".local", "bin", "claude-code"),
			filepath.Join(home, "node_modules", ".bin", "claude"),
			filepath.Join(home, ".yarn", "bin", "claude"),
			"/opt/homebrew/bin/claude",
			filepath.Join(home, ".claude", "local", "claude"),
		}
	}
}

// userCacheDir returns the per-user cache directory per spec §6: ~/.cache
// on Linux, ~/Library/Caches on macOS, %LOCALAPPDATA% on Windows.
func userCacheDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, ProductName), nil
		}
		return "", fmt.Errorf("LOCALAPPDATA not set")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Caches", ProductName), nil
	default:
		if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
			return filepath.Join(dir, ProductName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".cache", ProductName), nil
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
