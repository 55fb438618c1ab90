// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"encoding/json"

	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// dispatchInbound answers one CLI-initiated control request. Unknown or
// malformed requests get an error envelope rather than being dropped
// silently, so the CLI side never hangs waiting on a reply.
func (e *Engine) dispatchInbound(ctx context.Context, req gatewaytypes.InboundControlRequest) {
	switch req.Subtype {
	case "can_use_tool":
		e.handleCanUseTool(ctx, req)
	case "hook_callback":
		e.handleHookCallback(ctx, req)
	case "mcp_message":
		e.handleMCPMessage(ctx, req)
	default:
		gatewaylog.Warnf("unrecognized inbound control request subtype=%q", req.Subtype)
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, "unrecognized control request subtype: "+req.Subtype))
	}
}

func (e *Engine) handleCanUseTool(ctx context.Context, req gatewaytypes.InboundControlRequest) {
	var result gatewaytypes.PermissionResult
	if e.permission == nil {
		result = gatewaytypes.Allow(gatewaytypes.PermissionAllow{})
	} else {
		result = e.permission.CanUseTool(ctx, req.ToolName, req.Input, req.PermissionSuggestions)
	}
	e.respond(ctx, req.RequestID, gatewaytypes.SuccessResponse(req.RequestID, result.MarshalResponse()))
}

func (e *Engine) handleHookCallback(ctx context.Context, req gatewaytypes.InboundControlRequest) {
	if req.CallbackID == "" {
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, "invalid hook_callback control message: missing callback_id"))
		return
	}

	e.hooksMu.RLock()
	cb, ok := e.hooks[req.CallbackID]
	e.hooksMu.RUnlock()
	if !ok {
		gatewaylog.Warnf("no hook callback found for id=%q", req.CallbackID)
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, "no hook callback found for id: "+req.CallbackID))
		return
	}

	var input gatewaytypes.HookInput
	if err := json.Unmarshal(req.Input, &input); err != nil {
		gatewaylog.Warnf("failed to parse hook input: %v", err)
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, "invalid hook input: "+err.Error()))
		return
	}

	output, err := cb.Invoke(ctx, input)
	if err != nil {
		gatewaylog.Warnf("hook callback %q failed: %v", req.CallbackID, err)
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, err.Error()))
		return
	}
	e.respond(ctx, req.RequestID, gatewaytypes.SuccessResponse(req.RequestID, output))
}

func (e *Engine) handleMCPMessage(ctx context.Context, req gatewaytypes.InboundControlRequest) {
	server, ok := e.mcpServers[req.ServerName]
	if !ok {
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, "unknown mcp server: "+req.ServerName))
		return
	}

	reply, err := server.HandleMessage(ctx, req.Message)
	if err != nil {
		e.respond(ctx, req.RequestID, gatewaytypes.ErrorResponse(req.RequestID, err.Error()))
		return
	}
	e.respond(ctx, req.RequestID, gatewaytypes.SuccessResponse(req.RequestID, map[string]any{"mcp_response": reply}))
}

func (e *Engine) respond(ctx context.Context, requestID string, envelope gatewaytypes.ControlResponseEnvelope) {
	if err := e.transport.WriteLine(ctx, envelope); err != nil {
		gatewaylog.Errorf("failed to send control response for request id=%q: %v", requestID, err)
	}
}
