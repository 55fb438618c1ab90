// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func apiHandler(data interface{}, statusCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

func apiErrorHandler(code, message string, statusCode int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": code, "message": message},
		})
	}
}

func TestNew(t *testing.T) {
	c := New("http://localhost:8089/")
	if c.BaseURL() != "http://localhost:8089" {
		t.Errorf("BaseURL() = %q, want trailing slash trimmed", c.BaseURL())
	}
}

func TestChatCompletion(t *testing.T) {
	want := ChatCompletionResponse{
		ConversationID: "conv-1",
		Model:          "claude-sonnet-4-5",
		Message: Message{
			Role:    RoleAssistant,
			Content: []ContentBlock{{Type: "text", Text: "hello there"}},
		},
		Usage: &Usage{InputTokens: 10, OutputTokens: 4},
	}

	srv := httptest.NewServer(apiHandler(want, http.StatusOK))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{
		ConversationID: "conv-1",
		Model:          "claude-sonnet-4-5",
		Messages: []Message{
			{Role: RoleUser, Content: []ContentBlock{{Type: "text", Text: "hi"}}},
		},
	})
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}
	if got.ConversationID != want.ConversationID || got.Message.Content[0].Text != "hello there" {
		t.Errorf("ChatCompletion() = %+v, want %+v", got, want)
	}
}

func TestChatCompletionError(t *testing.T) {
	srv := httptest.NewServer(apiErrorHandler("bad_request", "conversation_id is required", http.StatusBadRequest))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ChatCompletion(context.Background(), ChatCompletionRequest{})
	if err == nil {
		t.Fatal("ChatCompletion() expected error, got nil")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Code != "bad_request" {
		t.Errorf("apiErr.Code = %q, want %q", apiErr.Code, "bad_request")
	}
}

func TestChatCompletionStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		frames := []StreamFrame{
			{Type: "assistant"},
			{Type: "result", Subtype: "success"},
		}
		for _, f := range frames {
			payload, _ := json.Marshal(f)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	c := New(srv.URL)
	deltas, err := c.ChatCompletionStream(context.Background(), ChatCompletionRequest{
		ConversationID: "conv-1",
		Messages:       []Message{{Role: RoleUser, Content: []ContentBlock{{Type: "text", Text: "hi"}}}},
	})
	if err != nil {
		t.Fatalf("ChatCompletionStream() error = %v", err)
	}

	var got []StreamFrame
	for delta := range deltas {
		got = append(got, delta.Frame)
	}
	if len(got) != 2 {
		t.Fatalf("received %d deltas, want 2", len(got))
	}
	if got[0].Type != "assistant" || got[1].Type != "result" {
		t.Errorf("deltas = %+v", got)
	}
}

func TestCacheStats(t *testing.T) {
	want := CacheStats{L1Entries: 3, L1Hits: 5, L2Hits: 1, Misses: 2, HitRate: 0.75}
	srv := httptest.NewServer(apiHandler(want, http.StatusOK))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.CacheStats(context.Background())
	if err != nil {
		t.Fatalf("CacheStats() error = %v", err)
	}
	if *got != want {
		t.Errorf("CacheStats() = %+v, want %+v", got, want)
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Healthz(context.Background()); err != nil {
		t.Errorf("Healthz() error = %v", err)
	}
}

func TestHealthzUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.Healthz(context.Background()); err == nil {
		t.Error("Healthz() expected error for non-200 status")
	}
}
