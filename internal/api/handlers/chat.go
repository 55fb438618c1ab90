// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/groupsio/claudegate/internal/facade"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// ChatHandler exposes the OpenAI-shaped chat completions surface over
// internal/facade.Gateway.
type ChatHandler struct {
	gateway *facade.Gateway
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(gateway *facade.Gateway) *ChatHandler {
	return &ChatHandler{gateway: gateway}
}

// chatCompletionRequest mirrors the OpenAI Chat Completions request
// body's fields that claudegate consumes.
type chatCompletionRequest struct {
	ConversationID string                  `json:"conversation_id"`
	Model          string                  `json:"model"`
	Messages       []gatewaytypes.Message  `json:"messages"`
	Stream         bool                    `json:"stream,omitempty"`
	Tools          []string                `json:"tools,omitempty"`
	SystemPrompt   string                  `json:"system_prompt,omitempty"`
	CWD            string                  `json:"cwd,omitempty"`
}

type chatCompletionResponse struct {
	ConversationID string                `json:"conversation_id"`
	Model          string                `json:"model"`
	Message        gatewaytypes.Message  `json:"message"`
	Usage          *gatewaytypes.Usage   `json:"usage,omitempty"`
	Cached         bool                  `json:"cached,omitempty"`
}

// Completions handles POST /v1/chat/completions, streaming via SSE
// when the request sets stream:true, matching the teacher's
// writer-with-mutex WebSocket pattern generalized to flusher.Flush().
func (h *ChatHandler) Completions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body: "+err.Error())
		return
	}

	chatReq := facade.ChatRequest{
		ConversationID: req.ConversationID,
		Model:          req.Model,
		Messages:       req.Messages,
		Stream:         req.Stream,
		Tools:          req.Tools,
		SystemPrompt:   req.SystemPrompt,
		CWD:            req.CWD,
	}

	resp, deltas, err := h.gateway.ChatCompletion(r.Context(), chatReq)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}

	if deltas == nil {
		WriteJSON(w, http.StatusOK, chatCompletionResponse{
			ConversationID: resp.ConversationID,
			Model:          resp.Model,
			Message:        resp.Message,
			Usage:          resp.Usage,
			Cached:         resp.Cached,
		})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, "streaming unsupported by this connection")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for delta := range deltas {
		payload, err := json.Marshal(delta.Frame)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// CacheStats handles GET /v1/cache/stats.
func (h *ChatHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.gateway.Cache == nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "response cache is disabled")
		return
	}
	WriteJSON(w, http.StatusOK, h.gateway.Cache.Stats())
}
