// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package cache implements the two-tier response cache described in
// SPEC_FULL.md §6.4: an in-memory L1 and a pluggable persistent L2.
// Grounded directly on
// original_source/claude-code-api/src/core/storage/tiered_cache.rs.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// Config mirrors TieredCacheConfig's defaults exactly.
type Config struct {
	L1MaxEntries int
	L1TTL        time.Duration
	L2Enabled    bool
	L2TTL        time.Duration
}

// DefaultConfig matches tiered_cache.rs's Default impl: 1000 entries,
// 1-hour L1 TTL, L2 on by default, 24-hour L2 TTL.
func DefaultConfig() Config {
	return Config{
		L1MaxEntries: 1000,
		L1TTL:        time.Hour,
		L2Enabled:    true,
		L2TTL:        24 * time.Hour,
	}
}

// cleanupInterval is the L1 sweep cadence (l1_cleanup_loop's 300s sleep).
const cleanupInterval = 300 * time.Second

type l1Entry struct {
	response  json.RawMessage
	createdAt time.Time
	hitCount  uint64
}

// Cache is a two-tier response cache keyed by a request fingerprint.
type Cache struct {
	cfg Config

	mu sync.RWMutex
	l1 map[string]*l1Entry

	store Store

	l1Hits atomic.Uint64
	l2Hits atomic.Uint64
	misses atomic.Uint64
}

// New constructs a Cache. store may be nil, in which case the cache
// operates L1-only regardless of cfg.L2Enabled.
func New(cfg Config, store Store) *Cache {
	if cfg.L1MaxEntries <= 0 {
		cfg.L1MaxEntries = DefaultConfig().L1MaxEntries
	}
	if cfg.L1TTL <= 0 {
		cfg.L1TTL = DefaultConfig().L1TTL
	}
	if cfg.L2TTL <= 0 {
		cfg.L2TTL = DefaultConfig().L2TTL
	}
	return &Cache{
		cfg:   cfg,
		l1:    make(map[string]*l1Entry),
		store: store,
	}
}

// Run starts the L1 cleanup loop; call in a goroutine.
func (c *Cache) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanupL1()
			if c.store != nil {
				if n, err := c.store.DeleteExpired(ctx); err != nil {
					gatewaylog.Warnf("L2 cache cleanup failed: %v", err)
				} else if n > 0 {
					gatewaylog.Debugf("L2 cache cleanup: removed %d expired entries", n)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Cache) cleanupL1() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.l1 {
		if time.Since(entry.createdAt) > c.cfg.L1TTL {
			delete(c.l1, key)
		}
	}
	gatewaylog.Debugf("L1 cache cleanup: %d entries remaining", len(c.l1))
}

// Get returns the cached response for key, checking L1 then L2.
// An L2 hit is promoted into L1.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	c.mu.Lock()
	entry, ok := c.l1[key]
	if ok {
		if time.Since(entry.createdAt) > c.cfg.L1TTL {
			delete(c.l1, key)
			ok = false
		} else {
			entry.hitCount++
			c.l1Hits.Add(1)
		}
	}
	c.mu.Unlock()
	if ok {
		return entry.response, true
	}

	if c.store == nil || !c.cfg.L2Enabled {
		c.misses.Add(1)
		return nil, false
	}

	l2, found, err := c.store.Get(ctx, key)
	if err != nil {
		gatewaylog.Warnf("L2 cache read error: %v", err)
	}
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	if time.Now().After(l2.ExpiresAt) {
		c.misses.Add(1)
		return nil, false
	}

	c.l2Hits.Add(1)
	c.promoteToL1(key, l2.Response)
	return l2.Response, true
}

func (c *Cache) promoteToL1(key string, response json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictOldestLocked()
	c.l1[key] = &l1Entry{response: response, createdAt: time.Now()}
}

// evictOldestLocked removes the entry with the earliest CreatedAt, FIFO
// by creation time (tiered_cache.rs's evict_oldest_l1). Caller must hold
// c.mu.
func (c *Cache) evictOldestLocked() {
	if len(c.l1) < c.cfg.L1MaxEntries {
		return
	}
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, entry := range c.l1 {
		if first || entry.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.createdAt
			first = false
		}
	}
	if !first {
		delete(c.l1, oldestKey)
	}
}

// Put inserts response into L1, evicting the oldest entry if at
// capacity, and fires a best-effort async write to L2.
func (c *Cache) Put(ctx context.Context, key string, response json.RawMessage) {
	c.mu.Lock()
	c.evictOldestLocked()
	c.l1[key] = &l1Entry{response: response, createdAt: time.Now()}
	c.mu.Unlock()

	if c.store == nil || !c.cfg.L2Enabled {
		return
	}
	go func() {
		entry := L2Entry{Response: response, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(c.cfg.L2TTL)}
		if err := c.store.Put(context.WithoutCancel(ctx), key, entry); err != nil {
			gatewaylog.Warnf("L2 cache write error: %v", err)
		}
	}()
}

// Fingerprint derives a stable cache key from the model and message
// history, hashing a canonical JSON encoding of (model, [(role,
// content)...]) including tool-result blocks (spec.md §4.4 "Key").
func Fingerprint(model string, messages []gatewaytypes.Message) string {
	type canonicalMessage struct {
		Role    gatewaytypes.Role           `json:"role"`
		Content []gatewaytypes.ContentBlock `json:"content"`
	}
	canonical := struct {
		Model    string             `json:"model"`
		Messages []canonicalMessage `json:"messages"`
	}{Model: model}
	for _, m := range messages {
		canonical.Messages = append(canonical.Messages, canonicalMessage{Role: m.Role, Content: m.Content})
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		// Marshaling a closed, JSON-tagged struct graph cannot fail; if it
		// somehow does, fall back to a key that still varies per call site.
		data = []byte(model)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Stats reports the extended cache statistics (extended_stats in
// tiered_cache.rs).
type Stats struct {
	L1Entries int
	L1Hits    uint64
	L2Hits    uint64
	Misses    uint64
	L2Enabled bool
	HitRate   float64
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries := len(c.l1)
	c.mu.RUnlock()

	l1 := c.l1Hits.Load()
	l2 := c.l2Hits.Load()
	miss := c.misses.Load()

	total := l1 + l2 + miss
	var hitRate float64
	if total > 0 {
		hitRate = float64(l1+l2) / float64(total)
	}

	return Stats{
		L1Entries: entries,
		L1Hits:    l1,
		L2Hits:    l2,
		Misses:    miss,
		L2Enabled: c.cfg.L2Enabled && c.store != nil,
		HitRate:   hitRate,
	}
}
