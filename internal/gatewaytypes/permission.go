// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gatewaytypes

import "encoding/json"

// PermissionResult is the return value of a registered CanUseTool
// callback: exactly one of Allow/Deny is meaningful, selected by the
// constructors below.
type PermissionResult struct {
	allowed bool
	allow   PermissionAllow
	deny    PermissionDeny
}

type PermissionAllow struct {
	UpdatedInput       json.RawMessage
	UpdatedPermissions json.RawMessage
}

type PermissionDeny struct {
	Message   string
	Interrupt bool
}

func Allow(a PermissionAllow) PermissionResult {
	return PermissionResult{allowed: true, allow: a}
}

func Deny(d PermissionDeny) PermissionResult {
	return PermissionResult{allowed: false, deny: d}
}

func (r PermissionResult) Allowed() bool { return r.allowed }

// MarshalResponse renders the CLI-facing {"allow":...} payload per spec §4.2.
func (r PermissionResult) MarshalResponse() map[string]any {
	if r.allowed {
		resp := map[string]any{"allow": true}
		if len(r.allow.UpdatedInput) > 0 {
			resp["input"] = r.allow.UpdatedInput
		}
		if len(r.allow.UpdatedPermissions) > 0 {
			resp["updatedPermissions"] = r.allow.UpdatedPermissions
		}
		return resp
	}
	resp := map[string]any{"allow": false}
	if r.deny.Message != "" {
		resp["reason"] = r.deny.Message
	}
	if r.deny.Interrupt {
		resp["interrupt"] = true
	}
	return resp
}
