// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/groupsio/claudegate/internal/facade"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionHandler exposes a debug WebSocket stream of a live
// conversation's inbound control traffic, independent of the OpenAI
// surface — kept close to the teacher's serveSession for the
// gateway's own introspection.
type SessionHandler struct {
	interactive *facade.Interactive
}

// NewSessionHandler creates a new session debug handler.
func NewSessionHandler(interactive *facade.Interactive) *SessionHandler {
	return &SessionHandler{interactive: interactive}
}

// debugMessage is one frame relayed to the debug WebSocket client.
type debugMessage struct {
	Type    string                               `json:"type"`
	Request *gatewaytypes.InboundControlRequest `json:"request,omitempty"`
	Message string                               `json:"message,omitempty"`
}

// Stream handles GET /v1/sessions/{id}/stream.
func (h *SessionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	conversationID := vars["id"]

	receiver, err := h.interactive.TakeControlReceiver(conversationID)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	writeJSON := func(msg debugMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(msg)
	}

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()
	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}()

	wsClosed := make(chan struct{})
	go func() {
		defer close(wsClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case req, ok := <-receiver:
			if !ok {
				return
			}
			if err := writeJSON(debugMessage{Type: "control_request", Request: &req}); err != nil {
				return
			}
		case <-wsClosed:
			return
		}
	}
}
