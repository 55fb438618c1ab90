// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

func TestResumeFailedNilResult(t *testing.T) {
	assert.False(t, resumeFailed(nil))
}

func TestResumeFailedNonErrorResult(t *testing.T) {
	assert.False(t, resumeFailed(&gatewaytypes.ResultMessage{IsError: false}))
}

func TestResumeFailedUnrelatedError(t *testing.T) {
	result := &gatewaytypes.ResultMessage{IsError: true, Errors: []string{"tool execution failed"}}
	assert.False(t, resumeFailed(result))
}

func TestResumeFailedMatchesMarker(t *testing.T) {
	result := &gatewaytypes.ResultMessage{
		IsError: true,
		Errors:  []string{"fatal: No conversation found with session ID abc-123"},
	}
	assert.True(t, resumeFailed(result))
}

func TestGatewayResumeIDRoundTrip(t *testing.T) {
	g := NewGateway("claude", nil, nil, 0, 0, 0)

	assert.Equal(t, "", g.getResumeID("conv-1"))

	g.setResumeID("conv-1", "cli-session-abc")
	assert.Equal(t, "cli-session-abc", g.getResumeID("conv-1"))

	g.setResumeID("conv-1", "")
	assert.Equal(t, "", g.getResumeID("conv-1"))
}
