// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gatewaytypes holds the wire-level types shared by the
// transport, control engine, session manager, and facades: message
// frames, content blocks, and control request/response envelopes.
package gatewaytypes

import (
	"encoding/json"
	"time"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ContentBlock is a tagged union mirroring the Messages API content block
// shapes the CLI emits and accepts: text, thinking, tool_use, tool_result.
// Only the fields relevant to Type are populated; all are omitempty so
// round-tripping never introduces spurious nulls.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Message is one role-tagged turn in a Conversation.
type Message struct {
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
}

// Conversation is the external, advisory record of a chat: the gateway
// never treats it as authoritative persistence (spec: "persistence is
// advisory and best-effort").
type Conversation struct {
	ID        string         `json:"id"`
	Messages  []Message      `json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Model     string         `json:"model,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Usage mirrors the CLI's token usage breakdown on a result frame.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens"`
}

// ResultMessage is the terminal data frame of a turn (type:"result").
type ResultMessage struct {
	Type             string          `json:"type"`
	Subtype          string          `json:"subtype,omitempty"`
	DurationMS       int64           `json:"duration_ms,omitempty"`
	DurationAPIMS    int64           `json:"duration_api_ms,omitempty"`
	IsError          bool            `json:"is_error"`
	Errors           []string        `json:"errors,omitempty"`
	NumTurns         int             `json:"num_turns,omitempty"`
	SessionID        string          `json:"session_id,omitempty"`
	TotalCostUSD     *float64        `json:"total_cost_usd,omitempty"`
	Usage            *Usage          `json:"usage,omitempty"`
	ResultText       string          `json:"result,omitempty"`
	StructuredOutput json.RawMessage `json:"structured_output,omitempty"`
}

// DataFrame is the first-pass envelope used to classify an inbound stdout
// line before fully decoding it — mirrors the teacher's two-phase decode
// in readLoop (decode a loose StreamEvent, branch on Type/Subtype).
type DataFrame struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// HasContent reports whether this frame carries assistant text/content,
// used to arm the turn-completion heuristic's gap timer (spec §4.3).
func (d DataFrame) HasContent() bool {
	switch d.Type {
	case "assistant", "stream_event":
		return true
	default:
		return false
	}
}
