// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/groupsio/claudegate/internal/gatewaylog"
)

// BuildArgs assembles the CLI argv from Options, following the grammar in
// SPEC_FULL.md §6.1 / spec.md §4.1 verbatim: system prompt always sent
// (empty string when absent), tool lists comma-joined, max-thinking-tokens
// omitted when zero, MCP servers as one JSON object, extra args prefixed
// with "--" when not already, setting-sources always present even if empty.
func BuildArgs(opts Options) []string {
	args := []string{"--output-format", "stream-json", "--verbose"}

	if opts.InputFormatStreamJSON {
		args = append(args, "--input-format", "stream-json")
	}
	if opts.IncludePartialMessages {
		args = append(args, "--include-partial-messages")
	}

	if opts.SystemPrompt != nil {
		args = append(args, "--system-prompt", *opts.SystemPrompt)
	} else {
		args = append(args, "--system-prompt", "")
	}
	if opts.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.AppendSystemPrompt)
	}

	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if len(opts.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(opts.DisallowedTools, ","))
	}

	mode := opts.PermissionMode
	if mode == "" {
		mode = PermissionDefault
	}
	args = append(args, "--permission-mode", string(mode))

	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.PermissionPromptTool != "" {
		args = append(args, "--permission-prompt-tool", opts.PermissionPromptTool)
	}
	if opts.MaxTurns != nil {
		args = append(args, "--max-turns", strconv.Itoa(*opts.MaxTurns))
	}
	if opts.MaxThinkingTokens > 0 {
		args = append(args, "--max-thinking-tokens", strconv.Itoa(opts.MaxThinkingTokens))
	}

	if len(opts.MCPServers) > 0 {
		wrapped := map[string]any{"mcpServers": opts.MCPServers}
		if data, err := json.Marshal(wrapped); err == nil {
			args = append(args, "--mcp-config", string(data))
		}
	}

	if opts.ContinueConversation {
		args = append(args, "--continue")
	}
	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	}

	for _, dir := range opts.AddDirs {
		args = append(args, "--add-dir", dir)
	}
	if opts.ForkSession {
		args = append(args, "--fork-session")
	}

	sources := make([]string, 0, len(opts.SettingSources))
	for _, s := range opts.SettingSources {
		sources = append(sources, string(s))
	}
	args = append(args, "--setting-sources", strings.Join(sources, ","))

	for key, value := range opts.ExtraArgs {
		flag := key
		if !strings.HasPrefix(flag, "-") {
			flag = "--" + flag
		}
		args = append(args, flag)
		if value != nil {
			args = append(args, *value)
		}
	}

	if opts.PrintMode {
		args = append(args, "--print", "--")
	}

	return args
}

// ClampMaxOutputTokens applies the hard cap and reports whether clamping
// occurred, so the caller can log it (spec §8 boundary behavior: 50000 ->
// 32000, logged).
func ClampMaxOutputTokens(requested int) (clamped int, wasClamped bool) {
	if requested <= 0 {
		return 0, false
	}
	if requested > MaxOutputTokensHardCap {
		gatewaylog.Warnf("CLAUDE_CODE_MAX_OUTPUT_TOKENS=%d exceeds maximum safe value of %d, clamping", requested, MaxOutputTokensHardCap)
		return MaxOutputTokensHardCap, true
	}
	return requested, false
}
