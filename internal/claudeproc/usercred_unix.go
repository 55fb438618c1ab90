// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package claudeproc

import (
	"fmt"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
)

// applyUserSwitch resolves runAsUser (a username or numeric uid) via the
// platform user database and applies the resulting uid/gid to cmd before
// exec, per spec §4.1 "User switching".
func applyUserSwitch(cmd *exec.Cmd, runAsUser string) error {
	if runAsUser == "" {
		return nil
	}

	u, err := user.Lookup(runAsUser)
	if err != nil {
		if _, numErr := strconv.Atoi(runAsUser); numErr == nil {
			u, err = user.LookupId(runAsUser)
		}
	}
	if err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Config,
			fmt.Sprintf("resolve run-as user %q", runAsUser), err)
	}

	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Config, "parse resolved uid", err)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Config, "parse resolved gid", err)
	}

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Credential = &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid)}
	return nil
}
