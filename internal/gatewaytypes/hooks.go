// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gatewaytypes

// HookEvent names one of the events the CLI dispatches hook callbacks for.
type HookEvent string

const (
	HookPreToolUse      HookEvent = "PreToolUse"
	HookPostToolUse     HookEvent = "PostToolUse"
	HookUserPromptSubmit HookEvent = "UserPromptSubmit"
	HookStop            HookEvent = "Stop"
	HookSubagentStop    HookEvent = "SubagentStop"
	HookPreCompact      HookEvent = "PreCompact"
	HookSessionStart    HookEvent = "SessionStart"
	HookNotification    HookEvent = "Notification"
)

// HookMatcher pairs a tool-name matcher with the callbacks it dispatches
// to, mirroring the CLI's hooks configuration shape.
type HookMatcher struct {
	Matcher string
	Hooks   []string // registered callback keys, resolved to ids at Initialize
}

// HookInput is the strongly typed decode target for a hook_callback
// control request's `input` field. Exactly the fields relevant to
// HookEventName are populated on any given instance; all are omitempty on
// the wire per spec §9 ("missing optional fields must be omitted").
type HookInput struct {
	HookEventName   HookEvent `json:"hookEventName"`
	SessionID       string    `json:"sessionId,omitempty"`
	TranscriptPath  string    `json:"transcriptPath,omitempty"`
	CWD             string    `json:"cwd,omitempty"`
	ToolName        string    `json:"toolName,omitempty"`
	ToolInput       any       `json:"toolInput,omitempty"`
	ToolResponse    any       `json:"toolResponse,omitempty"`
	Prompt          string    `json:"prompt,omitempty"`
	StopHookActive  bool      `json:"stopHookActive,omitempty"`
	TriggerName     string    `json:"triggerName,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// HookJSONOutput is the strongly typed encode source for a hook callback's
// result. Every field is omitempty: the wire contract forbids sending
// nulls for absent optionals (spec §9).
type HookJSONOutput struct {
	Continue            *bool                `json:"continue,omitempty"`
	StopReason          string               `json:"stopReason,omitempty"`
	SuppressOutput      bool                 `json:"suppressOutput,omitempty"`
	Decision            string               `json:"decision,omitempty"`
	Reason              string               `json:"reason,omitempty"`
	Async               bool                 `json:"async,omitempty"`
	AsyncTimeout        int                  `json:"asyncTimeout,omitempty"`
	HookSpecificOutput  *HookSpecificOutput  `json:"hookSpecificOutput,omitempty"`
}

// HookSpecificOutput carries event-specific extras, e.g. PreToolUse's
// additionalContext (spec §8 scenario 5).
type HookSpecificOutput struct {
	HookEventName      HookEvent `json:"hookEventName,omitempty"`
	AdditionalContext  string    `json:"additionalContext,omitempty"`
	PermissionDecision string    `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}
