// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package api assembles claudegated's HTTP surface: the OpenAI-shaped
// chat completions endpoint, cache introspection, and a debug
// WebSocket stream, grounded on the teacher's router.go/Dependencies
// wiring pattern.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/groupsio/claudegate/internal/api/handlers"
	"github.com/groupsio/claudegate/internal/api/middleware"
	"github.com/groupsio/claudegate/internal/facade"
)

// Dependencies holds everything the router needs to build its handlers.
type Dependencies struct {
	Gateway *facade.Gateway
}

// NewRouter creates claudegated's HTTP router.
func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)

	chat := handlers.NewChatHandler(deps.Gateway)
	r.HandleFunc("/v1/chat/completions", chat.Completions).Methods(http.MethodPost)
	r.HandleFunc("/v1/cache/stats", chat.CacheStats).Methods(http.MethodGet)

	if deps.Gateway != nil {
		session := handlers.NewSessionHandler(deps.Gateway.Interactive())
		r.HandleFunc("/v1/sessions/{id}/stream", session.Stream)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}
