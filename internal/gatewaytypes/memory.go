// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gatewaytypes

import "time"

// MemoryDocument is one indexed message, grounded on
// message_document.rs's MessageDocument: enough contextual metadata
// (cwd, files touched, turn index) to drive relevance scoring without
// requiring explicit project identification.
type MemoryDocument struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	TurnIndex      int       `json:"turn_index"`
	CreatedAt      time.Time `json:"created_at"`
	CWD            string    `json:"cwd,omitempty"`
	FilesTouched   []string  `json:"files_touched,omitempty"`
	Summary        string    `json:"summary,omitempty"`
}
