// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1000, cfg.L1MaxEntries)
	assert.Equal(t, time.Hour, cfg.L1TTL)
	assert.True(t, cfg.L2Enabled)
	assert.Equal(t, 24*time.Hour, cfg.L2TTL)
}

func TestCacheGetMissThenPutThenHit(t *testing.T) {
	c := New(DefaultConfig(), nil)
	ctx := context.Background()

	_, hit := c.Get(ctx, "k1")
	assert.False(t, hit)

	c.Put(ctx, "k1", json.RawMessage(`{"ok":true}`))
	val, hit := c.Get(ctx, "k1")
	require.True(t, hit)
	assert.JSONEq(t, `{"ok":true}`, string(val))

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.L1Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestCacheL1EvictsOldestAtCapacity(t *testing.T) {
	c := New(Config{L1MaxEntries: 2, L1TTL: time.Hour}, nil)
	ctx := context.Background()

	c.Put(ctx, "a", json.RawMessage(`1`))
	time.Sleep(time.Millisecond)
	c.Put(ctx, "b", json.RawMessage(`2`))
	time.Sleep(time.Millisecond)
	c.Put(ctx, "c", json.RawMessage(`3`))

	_, hitA := c.Get(ctx, "a")
	_, hitB := c.Get(ctx, "b")
	_, hitC := c.Get(ctx, "c")

	assert.False(t, hitA, "oldest entry should have been evicted")
	assert.True(t, hitB)
	assert.True(t, hitC)
}

func TestCacheL1TTLExpiry(t *testing.T) {
	c := New(Config{L1MaxEntries: 10, L1TTL: time.Millisecond}, nil)
	ctx := context.Background()
	c.Put(ctx, "k", json.RawMessage(`1`))
	time.Sleep(5 * time.Millisecond)

	_, hit := c.Get(ctx, "k")
	assert.False(t, hit)
}

func TestCachePromotesL2HitIntoL1(t *testing.T) {
	store := NewMemoryStore()
	c := New(DefaultConfig(), store)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", L2Entry{
		Response:  json.RawMessage(`{"from":"l2"}`),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	val, hit := c.Get(ctx, "k")
	require.True(t, hit)
	assert.JSONEq(t, `{"from":"l2"}`, string(val))
	assert.Equal(t, uint64(1), c.Stats().L2Hits)

	// Second read should be an L1 hit, not another L2 hit.
	_, hit = c.Get(ctx, "k")
	require.True(t, hit)
	assert.Equal(t, uint64(1), c.Stats().L2Hits)
	assert.Equal(t, uint64(1), c.Stats().L1Hits)
}

func TestCacheStatsHitRateFormula(t *testing.T) {
	c := New(DefaultConfig(), nil)
	ctx := context.Background()

	c.Put(ctx, "k", json.RawMessage(`1`))
	c.Get(ctx, "k")  // l1 hit
	c.Get(ctx, "k")  // l1 hit
	c.Get(ctx, "nope") // miss

	stats := c.Stats()
	assert.InDelta(t, 2.0/3.0, stats.HitRate, 0.0001)
}

func TestFingerprintStableAndSensitiveToContent(t *testing.T) {
	msgs := []gatewaytypes.Message{
		{Role: gatewaytypes.RoleUser, Content: []gatewaytypes.ContentBlock{{Type: "text", Text: "hello"}}},
	}
	a := Fingerprint("claude-sonnet", msgs)
	b := Fingerprint("claude-sonnet", msgs)
	assert.Equal(t, a, b)

	msgs2 := []gatewaytypes.Message{
		{Role: gatewaytypes.RoleUser, Content: []gatewaytypes.ContentBlock{{Type: "text", Text: "goodbye"}}},
	}
	c := Fingerprint("claude-sonnet", msgs2)
	assert.NotEqual(t, a, c)

	d := Fingerprint("claude-opus", msgs)
	assert.NotEqual(t, a, d)
}

func TestMemoryStoreDeleteExpired(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "expired", L2Entry{ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, store.Put(ctx, "live", L2Entry{ExpiresAt: time.Now().Add(time.Hour)}))

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, hit, _ := store.Get(ctx, "expired")
	assert.False(t, hit)
	_, hit, _ = store.Get(ctx, "live")
	assert.True(t, hit)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonl")
	ctx := context.Background()

	store1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store1.Put(ctx, "k", L2Entry{
		Response:  json.RawMessage(`{"v":1}`),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	store2, err := NewFileStore(path)
	require.NoError(t, err)
	entry, hit, err := store2.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	assert.JSONEq(t, `{"v":1}`, string(entry.Response))
}

func TestFileStoreDeleteExpiredCompactsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonl")
	ctx := context.Background()

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "expired", L2Entry{ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, store.Put(ctx, "live", L2Entry{ExpiresAt: time.Now().Add(time.Hour)}))

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, hit, _ := store.Get(ctx, "expired")
	assert.False(t, hit)
	_, hit, _ = store.Get(ctx, "live")
	assert.True(t, hit)
}
