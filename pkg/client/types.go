// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

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

// ContentBlock mirrors the Messages API content block shapes the gateway
// accepts and returns: text, thinking, tool_use, tool_result. Only the
// fields relevant to Type need to be populated.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
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

// Message is one role-tagged turn in a conversation.
type Message struct {
	Role      Role           `json:"role"`
	Content   []ContentBlock `json:"content"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
}

// Usage mirrors the CLI's token usage breakdown on a completed turn.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	OutputTokens             int `json:"output_tokens"`
}

// ChatCompletionRequest is the OpenAI-shaped request body accepted by
// POST /v1/chat/completions.
type ChatCompletionRequest struct {
	// ConversationID pins this turn to a specific claude CLI process;
	// the gateway spawns one lazily on first use and reuses it for
	// every subsequent call with the same ID.
	ConversationID string `json:"conversation_id"`

	// Model is the model name forwarded to the CLI on first spawn for
	// this conversation. Ignored on subsequent turns of an already-live
	// conversation.
	Model string `json:"model"`

	// Messages is the full message history; only the last user message's
	// text is sent as the new turn, the rest is context for memory
	// retrieval and caching.
	Messages []Message `json:"messages"`

	// Stream requests an SSE response of incremental StreamDelta frames
	// instead of a single aggregated ChatCompletionResponse. Client
	// callers should use [Client.ChatCompletionStream] instead of
	// setting this directly.
	Stream bool `json:"stream,omitempty"`

	// Tools restricts the CLI's allowed tool list for this conversation.
	Tools []string `json:"tools,omitempty"`

	// SystemPrompt is appended after any memory-retrieved prefix the
	// gateway injects.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// CWD is the working directory the CLI process is spawned in.
	CWD string `json:"cwd,omitempty"`
}

// ChatCompletionResponse is the non-streaming response body.
type ChatCompletionResponse struct {
	ConversationID string  `json:"conversation_id"`
	Model          string  `json:"model"`
	Message        Message `json:"message"`
	Usage          *Usage  `json:"usage,omitempty"`

	// Cached is true when this response was served from the tiered
	// response cache rather than a live CLI turn.
	Cached bool `json:"cached,omitempty"`
}

// StreamDelta is one incremental SSE frame of a streaming chat completion.
type StreamDelta struct {
	Frame StreamFrame `json:"frame"`
}

// StreamFrame is the loose envelope of a single streamed CLI data frame,
// left with json.RawMessage fields so callers decode only what they need.
type StreamFrame struct {
	Type      string          `json:"type"`
	Subtype   string          `json:"subtype,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Errors    []string        `json:"errors,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// CacheStats reports the tiered response cache's hit/miss counters, as
// returned by GET /v1/cache/stats. Field names match internal/cache.Stats,
// which carries no json tags of its own.
type CacheStats struct {
	L1Entries int
	L1Hits    uint64
	L2Hits    uint64
	Misses    uint64
	L2Enabled bool
	HitRate   float64
}
