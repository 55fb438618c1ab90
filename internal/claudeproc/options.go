// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package claudeproc owns the CLI child process: argv construction, CLI
// discovery, version checking, line-delimited JSON framing, and the
// three-sink stdout fan-out (data / control responses / inbound control
// requests) described in SPEC_FULL.md §6.1.
package claudeproc

// PermissionMode enumerates the CLI's permission-prompt behavior.
type PermissionMode string

const (
	PermissionDefault           PermissionMode = "default"
	PermissionAcceptEdits       PermissionMode = "acceptEdits"
	PermissionPlan              PermissionMode = "plan"
	PermissionBypassPermissions PermissionMode = "bypassPermissions"
)

// SettingSource enumerates where the CLI is permitted to load settings
// from; always passed (possibly empty) for parity with the reference SDK.
type SettingSource string

const (
	SettingUser    SettingSource = "user"
	SettingProject SettingSource = "project"
	SettingLocal   SettingSource = "local"
)

// MaxOutputTokensHardCap is the ceiling the gateway clamps
// CLAUDE_CODE_MAX_OUTPUT_TOKENS to, regardless of what the caller asked
// for (spec §4.1, §8 boundary behavior).
const MaxOutputTokensHardCap = 32000

// Options configures one CLI child process spawn. Zero values are
// treated as "omit the corresponding flag" except where noted; an empty
// PermissionMode is sent as "default".
type Options struct {
	SystemPrompt       *string // nil sends --system-prompt "" to preserve CLI parity
	AppendSystemPrompt string
	AllowedTools       []string
	DisallowedTools    []string
	MaxTurns           *int
	MaxThinkingTokens  int // 0 = omit entirely (boundary behavior)
	Model              string
	PermissionMode     PermissionMode
	PermissionPromptTool string
	ContinueConversation bool
	Resume             string
	MCPServers         map[string]any // serialized as a single JSON object via --mcp-config
	ExtraArgs          map[string]*string
	AddDirs            []string
	ForkSession        bool
	SettingSources     []SettingSource
	MaxOutputTokens    int // 0 = use CLI default; otherwise clamped to MaxOutputTokensHardCap
	EnableFileCheckpointing bool
	IncludePartialMessages  bool
	InputFormatStreamJSON   bool // interactive mode; one-shot print mode omits this
	PrintMode          bool // --print -- (one-shot facade)
	RunAsUser          string // username or numeric uid for platform user-switching
	WorkDir            string
}
