// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/groupsio/claudegate/internal/gatewaylog"
)

// MinSupportedVersion is the minimum CLI version the gateway was written
// against; falling below it only warns, never fails connect (spec §4.1,
// §8 boundary behavior).
var MinSupportedVersion = SemVer{2, 0, 0}

// SemVer is a permissive three-component version, ignoring prerelease and
// build metadata beyond what's needed for ordering.
type SemVer struct {
	Major, Minor, Patch int
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v is strictly older than other.
func (v SemVer) Less(other SemVer) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// ParseSemVer accepts "x.y.z", "vx.y.z", and "package/x.y.z" forms,
// stripping a leading "v" and any path-style package prefix, and
// tolerating trailing prerelease/build suffixes.
func ParseSemVer(raw string) (SemVer, bool) {
	s := strings.TrimSpace(raw)
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimPrefix(s, "v")
	if idx := strings.IndexAny(s, "-+ "); idx >= 0 {
		s = s[:idx]
	}
	parts := strings.SplitN(s, ".", 3)
	if len(parts) == 0 {
		return SemVer{}, false
	}
	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return SemVer{}, false
		}
		nums[i] = n
	}
	return SemVer{nums[0], nums[1], nums[2]}, true
}

// CheckVersion invokes the CLI with --version under a 5s timeout and warns
// (but never fails) if the reported version is below MinSupportedVersion
// or cannot be parsed at all.
func CheckVersion(ctx context.Context, cliPath string) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, cliPath, "--version").Output()
	if err != nil {
		gatewaylog.Warnf("could not determine claude CLI version: %v", err)
		return
	}

	version, ok := ParseSemVer(string(out))
	if !ok {
		gatewaylog.Warnf("could not parse claude CLI version output: %q", strings.TrimSpace(string(out)))
		return
	}

	if version.Less(MinSupportedVersion) {
		gatewaylog.Warnf("claude CLI version %s is below the minimum supported version %s", version, MinSupportedVersion)
		return
	}
	gatewaylog.Infof("claude CLI version: %s", version)
}
