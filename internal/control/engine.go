// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/groupsio/claudegate/internal/claudeproc"
	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// requestTimeout bounds how long a sent control request waits for its
// response before failing, matching internal_query.rs's 60s timeout.
const requestTimeout = 60 * time.Second

// InitResult is whatever the CLI's initialize response carries; the
// gateway does not interpret its shape, only stores and exposes it.
type InitResult = json.RawMessage

// Engine owns the control-protocol state for one Transport: outstanding
// SDK-initiated requests, registered hook callbacks, and in-process MCP
// servers. One Engine per session.
type Engine struct {
	transport *claudeproc.Transport

	pendingMu sync.RWMutex
	pending   map[string]chan json.RawMessage

	hooksMu sync.RWMutex
	hooks   map[string]HookCallback

	mcpServers map[string]MCPServer
	permission CanUseTool

	requestCounter atomic.Uint64
	hookCounter    atomic.Uint64

	fileCheckpointingEnabled bool

	initResult InitResult
}

// New constructs an Engine bound to transport. mcpServers and permission
// may be nil; a nil permission callback allows every tool use (spec §4.2
// default).
func New(transport *claudeproc.Transport, mcpServers map[string]MCPServer, permission CanUseTool, fileCheckpointingEnabled bool) *Engine {
	if mcpServers == nil {
		mcpServers = map[string]MCPServer{}
	}
	return &Engine{
		transport:                transport,
		pending:                  make(map[string]chan json.RawMessage),
		hooks:                    make(map[string]HookCallback),
		mcpServers:               mcpServers,
		permission:               permission,
		fileCheckpointingEnabled: fileCheckpointingEnabled,
	}
}

// Start launches the two dispatcher goroutines that drain the
// transport's control sinks for the lifetime of ctx: one resolving
// pending SDK-initiated requests, one handling CLI-initiated control
// requests (spec.md §5 "control-channel dispatcher" task).
func (e *Engine) Start(ctx context.Context) {
	go e.resolvePendingLoop(ctx)
	go e.dispatchInboundLoop(ctx)
}

func (e *Engine) resolvePendingLoop(ctx context.Context) {
	for {
		select {
		case raw, ok := <-e.transport.ControlResponses():
			if !ok {
				return
			}
			id := gatewaytypes.ExtractRequestID(raw)
			e.pendingMu.Lock()
			ch, found := e.pending[id]
			if found {
				delete(e.pending, id)
			}
			e.pendingMu.Unlock()
			if !found {
				gatewaylog.Warnf("control response for unknown request id=%q", id)
				continue
			}
			ch <- raw
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) dispatchInboundLoop(ctx context.Context) {
	for {
		select {
		case req, ok := <-e.transport.InboundControl():
			if !ok {
				return
			}
			e.dispatchInbound(ctx, req)
		case <-ctx.Done():
			return
		}
	}
}

// Initialize assigns hook_<n>_<uuid> callback ids for every hook in
// hooks, registers them, and sends the initialize control request.
func (e *Engine) Initialize(ctx context.Context, hooks map[gatewaytypes.HookEvent][]gatewaytypes.HookMatcher, callbacksByKey map[string]HookCallback) (InitResult, error) {
	wireHooks := make(map[string][]gatewaytypes.HookEntryWire, len(hooks))

	e.hooksMu.Lock()
	for event, matchers := range hooks {
		entries := make([]gatewaytypes.HookEntryWire, 0, len(matchers))
		for _, m := range matchers {
			ids := make([]string, 0, len(m.Hooks))
			for _, key := range m.Hooks {
				cb, ok := callbacksByKey[key]
				if !ok {
					continue
				}
				id := e.nextHookID()
				e.hooks[id] = cb
				ids = append(ids, id)
			}
			entries = append(entries, gatewaytypes.HookEntryWire{
				Matcher:         m.Matcher,
				HookCallbackIDs: ids,
			})
		}
		wireHooks[string(event)] = entries
	}
	e.hooksMu.Unlock()

	resp, err := e.sendControlRequest(ctx, gatewaytypes.InitializeRequest(wireHooks))
	if err != nil {
		return nil, err
	}
	e.initResult = resp
	return resp, nil
}

func (e *Engine) nextHookID() string {
	n := e.hookCounter.Add(1)
	return "hook_" + itoa(n) + "_" + uuid.New().String()
}

func (e *Engine) nextRequestID() string {
	n := e.requestCounter.Add(1)
	return "req_" + itoa(n) + "_" + uuid.New().String()
}

func itoa(n uint64) string {
	// avoids pulling in strconv just for one call site's formatting; kept
	// simple since n only ever grows within a process lifetime.
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// sendControlRequest generates a request id, registers a buffered
// response channel, writes the envelope, and waits up to requestTimeout.
// A subtype:"error" response becomes a control_request GatewayError; a
// successful response returns response["response"], falling back to
// response["data"].
func (e *Engine) sendControlRequest(ctx context.Context, req gatewaytypes.OutboundControlRequest) (json.RawMessage, error) {
	id := e.nextRequestID()
	ch := make(chan json.RawMessage, 1)

	e.pendingMu.Lock()
	e.pending[id] = ch
	e.pendingMu.Unlock()

	envelope := gatewaytypes.NewControlRequestEnvelope(id, req)
	if err := e.transport.WriteLine(ctx, envelope); err != nil {
		e.pendingMu.Lock()
		delete(e.pending, id)
		e.pendingMu.Unlock()
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	select {
	case raw := <-ch:
		return parseControlResponse(raw)
	case <-timeoutCtx.Done():
		e.pendingMu.Lock()
		delete(e.pending, id)
		e.pendingMu.Unlock()
		return nil, gatewayerrors.New(gatewayerrors.Timeout, "control request "+req.Subtype+" timed out after 60s")
	}
}

func parseControlResponse(raw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Response struct {
			Subtype  string          `json:"subtype"`
			Error    string          `json:"error"`
			Response json.RawMessage `json:"response"`
			Data     json.RawMessage `json:"data"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, gatewayerrors.Wrap(gatewayerrors.Parse, "decode control response", err)
	}
	if envelope.Response.Subtype == "error" {
		msg := envelope.Response.Error
		if msg == "" {
			msg = "unknown control request error"
		}
		return nil, gatewayerrors.New(gatewayerrors.ControlRequest, msg)
	}
	if len(envelope.Response.Response) > 0 {
		return envelope.Response.Response, nil
	}
	if len(envelope.Response.Data) > 0 {
		return envelope.Response.Data, nil
	}
	return json.RawMessage("{}"), nil
}

// Interrupt sends an interrupt control request, cooperatively stopping
// the CLI's current turn.
func (e *Engine) Interrupt(ctx context.Context) error {
	_, err := e.sendControlRequest(ctx, gatewaytypes.InterruptRequest())
	return err
}

// SetPermissionMode switches the CLI's permission mode mid-session.
func (e *Engine) SetPermissionMode(ctx context.Context, mode claudeproc.PermissionMode) error {
	_, err := e.sendControlRequest(ctx, gatewaytypes.SetPermissionModeRequest(string(mode)))
	return err
}

// SetModel switches the CLI's active model mid-session; a nil model
// reverts to the CLI's own default.
func (e *Engine) SetModel(ctx context.Context, model *string) error {
	_, err := e.sendControlRequest(ctx, gatewaytypes.SetModelRequest(model))
	return err
}

// RewindFiles reverts filesystem edits made since userMessageID. Returns
// a not_supported GatewayError when file checkpointing was not enabled
// at session start.
func (e *Engine) RewindFiles(ctx context.Context, userMessageID string) error {
	if !e.fileCheckpointingEnabled {
		return gatewayerrors.New(gatewayerrors.NotSupported, "file checkpointing was not enabled for this session")
	}
	_, err := e.sendControlRequest(ctx, gatewaytypes.RewindFilesRequest(userMessageID))
	return err
}
