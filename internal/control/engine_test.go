// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

func TestParseControlResponseSuccessPrefersResponseOverData(t *testing.T) {
	raw := json.RawMessage(`{"response":{"subtype":"success","response":{"ok":true},"data":{"ignored":true}}}`)
	payload, err := parseControlResponse(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
}

func TestParseControlResponseFallsBackToData(t *testing.T) {
	raw := json.RawMessage(`{"response":{"subtype":"success","data":{"ok":true}}}`)
	payload, err := parseControlResponse(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
}

func TestParseControlResponseErrorSubtype(t *testing.T) {
	raw := json.RawMessage(`{"response":{"subtype":"error","error":"boom"}}`)
	_, err := parseControlResponse(raw)
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.ControlRequest, gatewayerrors.KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestParseControlResponseEmptySuccessReturnsEmptyObject(t *testing.T) {
	raw := json.RawMessage(`{"response":{"subtype":"success"}}`)
	payload, err := parseControlResponse(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(payload))
}

func TestEngineRewindFilesRequiresCheckpointing(t *testing.T) {
	e := New(nil, nil, nil, false)
	err := e.RewindFiles(context.Background(), "msg-1")
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.NotSupported, gatewayerrors.KindOf(err))
}

func TestEngineNextHookIDIncrementsAndIsUnique(t *testing.T) {
	e := New(nil, nil, nil, false)
	a := e.nextHookID()
	b := e.nextHookID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "hook_1_")
	assert.Contains(t, b, "hook_2_")
}

func TestEngineNextRequestIDIncrementsAndIsUnique(t *testing.T) {
	e := New(nil, nil, nil, false)
	a := e.nextRequestID()
	b := e.nextRequestID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "req_1_")
	assert.Contains(t, b, "req_2_")
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "42", itoa(42))
	assert.Equal(t, "12345", itoa(12345))
}

func TestSuccessResponseWrapsDefaultAllow(t *testing.T) {
	fakeRespond := gatewaytypes.SuccessResponse("req-1", gatewaytypes.Allow(gatewaytypes.PermissionAllow{}).MarshalResponse())
	assert.Equal(t, "control_response", fakeRespond.Type)
	assert.Equal(t, "success", fakeRespond.Response.Subtype)
}
