// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupsio/claudegate/internal/claudeproc"
	"github.com/groupsio/claudegate/internal/control"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

func TestNewManagerAppliesDefaults(t *testing.T) {
	m := NewManager(nil, 0, 0, 0)
	assert.Equal(t, DefaultIdleTimeout, m.idle)
	assert.Equal(t, DefaultSweepInterval, m.sweep)
}

func TestAcquireSpawnsOnceAndReuses(t *testing.T) {
	spawnCount := 0
	spawn := func(ctx context.Context, conversationID string) (*claudeproc.Transport, *control.Engine, string, error) {
		spawnCount++
		return &claudeproc.Transport{}, control.New(nil, nil, nil, false), "claude-test-model", nil
	}
	m := NewManager(spawn, time.Hour, time.Hour, 4)

	sess1, release1, err := m.Acquire(context.Background(), "conv-1")
	require.NoError(t, err)
	release1()

	sess2, release2, err := m.Acquire(context.Background(), "conv-1")
	require.NoError(t, err)
	release2()

	assert.Same(t, sess1, sess2)
	assert.Equal(t, 1, spawnCount)
}

func TestAcquireDifferentConversationsSpawnSeparateSessions(t *testing.T) {
	spawn := func(ctx context.Context, conversationID string) (*claudeproc.Transport, *control.Engine, string, error) {
		return &claudeproc.Transport{}, control.New(nil, nil, nil, false), "model", nil
	}
	m := NewManager(spawn, time.Hour, time.Hour, 4)

	s1, r1, err := m.Acquire(context.Background(), "a")
	require.NoError(t, err)
	r1()
	s2, r2, err := m.Acquire(context.Background(), "b")
	require.NoError(t, err)
	r2()

	assert.NotSame(t, s1, s2)
}

func TestLookupFindsAcquiredSession(t *testing.T) {
	spawn := func(ctx context.Context, conversationID string) (*claudeproc.Transport, *control.Engine, string, error) {
		return &claudeproc.Transport{}, control.New(nil, nil, nil, false), "model", nil
	}
	m := NewManager(spawn, time.Hour, time.Hour, 4)

	sess, release, err := m.Acquire(context.Background(), "conv-1")
	require.NoError(t, err)
	release()

	found, ok := m.Lookup("conv-1")
	assert.True(t, ok)
	assert.Same(t, sess, found)
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	m := NewManager(nil, 0, 0, 0)
	_, ok := m.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestEvictMissingSessionIsNoop(t *testing.T) {
	m := NewManager(nil, 0, 0, 0)
	m.Evict("nonexistent") // must not panic despite no session and a nil Spawner
}

func TestSessionUsageAccumulatesAcrossTurns(t *testing.T) {
	sess := &Session{ID: "s1"}

	sess.recordUsage(&gatewaytypes.Usage{InputTokens: 10, OutputTokens: 5})
	sess.recordUsage(&gatewaytypes.Usage{InputTokens: 3, OutputTokens: 7, CacheReadInputTokens: 2})
	sess.recordUsage(nil) // must be a no-op, never panic on a nil result.Usage

	got := sess.Usage()
	assert.Equal(t, 13, got.InputTokens)
	assert.Equal(t, 12, got.OutputTokens)
	assert.Equal(t, 2, got.CacheReadInputTokens)
}

func TestDropGuardDisarmSkipsCleanup(t *testing.T) {
	sess := &Session{ID: "s1", Engine: control.New(nil, nil, nil, false)}
	m := NewManager(nil, 0, 0, 0)
	guard := m.InstallDropGuard(sess)
	guard.Disarm()
	// Cleanup must not attempt Engine.Interrupt (which would nil-deref
	// sess.Engine.transport) once disarmed.
	guard.Cleanup(context.Background())
}
