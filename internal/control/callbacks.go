// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package control implements the bidirectional control protocol layered
// on top of claudeproc's line-delimited JSON transport: SDK-initiated
// requests (initialize, interrupt, set_permission_mode, set_model,
// rewind_files) and CLI-initiated callbacks (can_use_tool, hook_callback,
// mcp_message). Grounded on
// original_source/claude-code-sdk-rs/src/internal_query.rs.
package control

import (
	"context"
	"encoding/json"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// CanUseTool is consulted for every can_use_tool control request the CLI
// sends. A nil CanUseTool means "allow everything" (spec §4.2 default).
type CanUseTool interface {
	CanUseTool(ctx context.Context, toolName string, input json.RawMessage, suggestions json.RawMessage) gatewaytypes.PermissionResult
}

// CanUseToolFunc adapts a function to CanUseTool.
type CanUseToolFunc func(ctx context.Context, toolName string, input json.RawMessage, suggestions json.RawMessage) gatewaytypes.PermissionResult

func (f CanUseToolFunc) CanUseTool(ctx context.Context, toolName string, input json.RawMessage, suggestions json.RawMessage) gatewaytypes.PermissionResult {
	return f(ctx, toolName, input, suggestions)
}

// HookCallback handles one registered hook callback invocation.
type HookCallback interface {
	Invoke(ctx context.Context, input gatewaytypes.HookInput) (gatewaytypes.HookJSONOutput, error)
}

// HookCallbackFunc adapts a function to HookCallback.
type HookCallbackFunc func(ctx context.Context, input gatewaytypes.HookInput) (gatewaytypes.HookJSONOutput, error)

func (f HookCallbackFunc) Invoke(ctx context.Context, input gatewaytypes.HookInput) (gatewaytypes.HookJSONOutput, error) {
	return f(ctx, input)
}

// MCPServer dispatches an in-process JSON-RPC message for one named MCP
// server. It is a plain interface implemented by the caller; the module
// depends on no MCP SDK, so the engine itself stays SDK-agnostic.
type MCPServer interface {
	HandleMessage(ctx context.Context, message json.RawMessage) (json.RawMessage, error)
}
