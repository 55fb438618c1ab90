// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package claudeproc

import (
	"os/exec"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
)

// applyUserSwitch is unsupported on non-Unix platforms; per spec §4.1 this
// is a configuration error, not a silent no-op.
func applyUserSwitch(cmd *exec.Cmd, runAsUser string) error {
	if runAsUser == "" {
		return nil
	}
	return gatewayerrors.New(gatewayerrors.NotSupported,
		"user-switching (RunAsUser) is not supported on this platform")
}
