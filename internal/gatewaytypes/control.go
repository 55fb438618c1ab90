// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gatewaytypes

import "encoding/json"

// InboundControlRequest is a control request initiated by the CLI,
// addressed to the SDK side. Subtype gates which optional fields are
// populated: can_use_tool, hook_callback, mcp_message.
type InboundControlRequest struct {
	RequestID string `json:"-"`
	Subtype   string `json:"subtype"`

	// can_use_tool
	ToolName              string          `json:"tool_name,omitempty"`
	Input                 json.RawMessage `json:"input,omitempty"`
	PermissionSuggestions json.RawMessage `json:"permission_suggestions,omitempty"`

	// hook_callback (Input is shared with can_use_tool above)
	CallbackID string `json:"callback_id,omitempty"`
	ToolUseID  string `json:"tool_use_id,omitempty"`

	// mcp_message
	ServerName string          `json:"server_name,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`

	// Raw is the full envelope as received, preserved verbatim so a
	// dispatcher that doesn't recognize the subtype can still answer
	// with the original request id.
	Raw json.RawMessage `json:"-"`
}

// ExtractRequestID reads requestId (camelCase) or request_id (snake_case)
// from a raw control envelope — the CLI's own inconsistency that the
// gateway is required to tolerate on input (spec §6, §9).
func ExtractRequestID(raw json.RawMessage) string {
	var probe struct {
		RequestID  string `json:"request_id"`
		RequestID2 string `json:"requestId"`
		Request    struct {
			RequestID  string `json:"request_id"`
			RequestID2 string `json:"requestId"`
		} `json:"request"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	switch {
	case probe.RequestID != "":
		return probe.RequestID
	case probe.RequestID2 != "":
		return probe.RequestID2
	case probe.Request.RequestID != "":
		return probe.Request.RequestID
	default:
		return probe.Request.RequestID2
	}
}

// PermissionSuggestion mirrors the CLI's PermissionUpdate shape enough to
// round-trip; the gateway never interprets its fields beyond forwarding
// them to the registered permission callback.
type PermissionSuggestion = json.RawMessage

// OutboundControlRequest is the `request` payload of a control_request
// envelope the gateway sends to the CLI. Exactly one of the subtype-named
// constructors below should populate it.
type OutboundControlRequest struct {
	Subtype       string                     `json:"subtype"`
	Hooks         map[string][]HookEntryWire `json:"hooks,omitempty"`
	Mode          string                     `json:"mode,omitempty"`
	Model         *string                    `json:"model,omitempty"`
	UserMessageID string                     `json:"user_message_id,omitempty"`
}

// HookEntryWire is one matcher's worth of hook callback ids, as sent in
// an initialize request's hooks descriptor.
type HookEntryWire struct {
	Matcher         string   `json:"matcher,omitempty"`
	HookCallbackIDs []string `json:"hookCallbackIds"`
}

func InitializeRequest(hooks map[string][]HookEntryWire) OutboundControlRequest {
	return OutboundControlRequest{Subtype: "initialize", Hooks: hooks}
}

func InterruptRequest() OutboundControlRequest {
	return OutboundControlRequest{Subtype: "interrupt"}
}

func SetPermissionModeRequest(mode string) OutboundControlRequest {
	return OutboundControlRequest{Subtype: "set_permission_mode", Mode: mode}
}

func SetModelRequest(model *string) OutboundControlRequest {
	return OutboundControlRequest{Subtype: "set_model", Model: model}
}

func RewindFilesRequest(userMessageID string) OutboundControlRequest {
	return OutboundControlRequest{Subtype: "rewind_files", UserMessageID: userMessageID}
}

// ControlRequestEnvelope is the full outbound frame: {"type":
// "control_request","request_id":...,"request":{...}}.
type ControlRequestEnvelope struct {
	Type      string                  `json:"type"`
	RequestID string                  `json:"request_id"`
	Request   OutboundControlRequest  `json:"request"`
}

func NewControlRequestEnvelope(id string, req OutboundControlRequest) ControlRequestEnvelope {
	return ControlRequestEnvelope{Type: "control_request", RequestID: id, Request: req}
}

// ControlResponseEnvelope is the full outbound frame answering an inbound
// control request: {"type":"control_response","response":{...}}.
type ControlResponseEnvelope struct {
	Type     string          `json:"type"`
	Response ControlResponse `json:"response"`
}

// ControlResponse is the inner `response` object; Response carries the
// subtype-specific payload (allow/deny, hook output, mcp_response).
type ControlResponse struct {
	Subtype   string `json:"subtype"`
	RequestID string `json:"request_id"`
	Response  any    `json:"response,omitempty"`
	Error     string `json:"error,omitempty"`
}

func SuccessResponse(requestID string, payload any) ControlResponseEnvelope {
	return ControlResponseEnvelope{
		Type: "control_response",
		Response: ControlResponse{
			Subtype:   "success",
			RequestID: requestID,
			Response:  payload,
		},
	}
}

func ErrorResponse(requestID, message string) ControlResponseEnvelope {
	return ControlResponseEnvelope{
		Type: "control_response",
		Response: ControlResponse{
			Subtype:   "error",
			RequestID: requestID,
			Error:     message,
		},
	}
}

// UserFrame is the outbound `type:"user"` data frame.
type UserFrame struct {
	Type            string        `json:"type"`
	Message         UserFrameBody `json:"message"`
	SessionID       string        `json:"session_id"`
	ParentToolUseID *string       `json:"parent_tool_use_id"`
}

type UserFrameBody struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

func NewUserFrame(sessionID string, content []ContentBlock, parentToolUseID *string) UserFrame {
	return UserFrame{
		Type:            "user",
		Message:         UserFrameBody{Role: "user", Content: content},
		SessionID:       sessionID,
		ParentToolUseID: parentToolUseID,
	}
}
