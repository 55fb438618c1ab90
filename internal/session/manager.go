// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session owns the pool of live CLI child processes, keyed by
// conversation id, mapping SPEC_FULL.md §6.3's selection, reuse, and
// idle-reaping rules onto goroutines, mutexes, and a weighted semaphore.
// Grounded on the teacher's internal/claude/manager.go (process reuse,
// per-session mutex) and
// original_source/claude-code-api/src/core/interactive_session.rs (the
// turn-completion heuristic and reaper cadence).
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/groupsio/claudegate/internal/claudeproc"
	"github.com/groupsio/claudegate/internal/control"
	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// DefaultIdleTimeout is how long an unused session is kept warm before
// the reaper kills it (interactive_session.rs's cleanup_expired_sessions
// default window).
const DefaultIdleTimeout = 30 * time.Minute

// DefaultSweepInterval is how often the reaper scans for idle sessions
// (interactive_session.rs's 300-second cleanup loop).
const DefaultSweepInterval = 5 * time.Minute

// DefaultMaxConcurrentSpawns bounds how many CLI processes may be
// starting up at once, independent of how many are already running.
const DefaultMaxConcurrentSpawns = 8

// Session is one live CLI child process bound to a conversation id.
type Session struct {
	ID        string
	Model     string
	CreatedAt time.Time

	mu        sync.Mutex
	Transport *claudeproc.Transport
	Engine    *control.Engine

	lastUsed atomic.Int64 // unix nanos

	usageMu sync.Mutex
	usage   gatewaytypes.Usage
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

// recordUsage accumulates one turn's token counts into the session
// total, per SPEC_FULL.md §10's token usage tracking.
func (s *Session) recordUsage(u *gatewaytypes.Usage) {
	if u == nil {
		return
	}
	s.usageMu.Lock()
	defer s.usageMu.Unlock()
	s.usage.InputTokens += u.InputTokens
	s.usage.OutputTokens += u.OutputTokens
	s.usage.CacheCreationInputTokens += u.CacheCreationInputTokens
	s.usage.CacheReadInputTokens += u.CacheReadInputTokens
}

// Usage returns the session's cumulative token usage across every turn
// seen so far.
func (s *Session) Usage() gatewaytypes.Usage {
	s.usageMu.Lock()
	defer s.usageMu.Unlock()
	return s.usage
}

func (s *Session) idleSince() time.Duration {
	return time.Since(time.Unix(0, s.lastUsed.Load()))
}

// Spawner starts a new Transport+Engine pair for a fresh session. It is
// supplied by the facade layer, which knows how to build claudeproc.Options
// for a given conversation.
type Spawner func(ctx context.Context, conversationID string) (*claudeproc.Transport, *control.Engine, string, error)

// Manager pools sessions by conversation id, spawning on demand and
// reaping idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	spawn   Spawner
	spawnSem *semaphore.Weighted

	idle  time.Duration
	sweep time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewManager constructs a Manager. idle/sweep of zero fall back to the
// package defaults.
func NewManager(spawn Spawner, idle, sweep time.Duration, maxConcurrentSpawns int64) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if sweep <= 0 {
		sweep = DefaultSweepInterval
	}
	if maxConcurrentSpawns <= 0 {
		maxConcurrentSpawns = DefaultMaxConcurrentSpawns
	}
	return &Manager{
		sessions: make(map[string]*Session),
		spawn:    spawn,
		spawnSem: semaphore.NewWeighted(maxConcurrentSpawns),
		idle:     idle,
		sweep:    sweep,
		stop:     make(chan struct{}),
	}
}

// Run starts the idle reaper loop; call in a goroutine, stop via Shutdown
// or by canceling ctx.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.reapOnce()
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		}
	}
}

// Acquire returns the session for conversationID, spawning one if none
// exists, and locks it for exclusive use by the caller. The returned
// release func must be called exactly once to unlock and refresh
// lastUsed (spec.md §4.3 selection algorithm).
func (m *Manager) Acquire(ctx context.Context, conversationID string) (*Session, func(), error) {
	m.mu.RLock()
	sess, ok := m.sessions[conversationID]
	m.mu.RUnlock()

	if !ok {
		if err := m.spawnSem.Acquire(ctx, 1); err != nil {
			return nil, nil, gatewayerrors.Wrap(gatewayerrors.Internal, "acquire spawn slot", err)
		}
		defer m.spawnSem.Release(1)

		m.mu.Lock()
		// Double-checked: another goroutine may have spawned while we
		// waited on the semaphore.
		if existing, ok2 := m.sessions[conversationID]; ok2 {
			sess = existing
			m.mu.Unlock()
		} else {
			m.mu.Unlock()
			transport, engine, model, err := m.spawn(ctx, conversationID)
			if err != nil {
				return nil, nil, err
			}
			sess = &Session{
				ID:        conversationID,
				Model:     model,
				CreatedAt: time.Now(),
				Transport: transport,
				Engine:    engine,
			}
			sess.touch()

			m.mu.Lock()
			if existing, ok3 := m.sessions[conversationID]; ok3 {
				// Lost the race: discard our spawn, use the winner's.
				m.mu.Unlock()
				sess.Transport.Kill()
				sess = existing
			} else {
				m.sessions[conversationID] = sess
				m.mu.Unlock()
			}
		}
	}

	sess.mu.Lock()
	sess.touch()

	release := func() {
		sess.touch()
		sess.mu.Unlock()
	}
	return sess, release, nil
}

// Evict removes conversationID's session from the pool and disconnects
// its transport in the background, forcing the next Acquire to spawn a
// fresh process. Used by the facade when a turn's result frame reports a
// resume failure the CLI can't recover from on its own.
func (m *Manager) Evict(conversationID string) {
	m.mu.Lock()
	sess, ok := m.sessions[conversationID]
	if ok {
		delete(m.sessions, conversationID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sess.Transport.Disconnect(ctx)
	}()
}

// Lookup returns the live session for conversationID without spawning
// one, for callers (the facade's usage reporting) that only want to read
// state off an already-acquired session after release.
func (m *Manager) Lookup(conversationID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[conversationID]
	return sess, ok
}

// DropGuard, created by InstallDropGuard, sends a best-effort Interrupt
// from Cleanup unless Disarm is called first — used by the streaming
// facade so a client disconnect cooperatively stops the CLI's current turn.
type DropGuard struct {
	disarmed atomic.Bool
	session  *Session
}

func (m *Manager) InstallDropGuard(sess *Session) *DropGuard {
	return &DropGuard{session: sess}
}

func (g *DropGuard) Disarm() { g.disarmed.Store(true) }

func (g *DropGuard) Cleanup(ctx context.Context) {
	if g.disarmed.Load() {
		return
	}
	if err := g.session.Engine.Interrupt(ctx); err != nil {
		gatewaylog.Warnf("drop-guard interrupt failed for session %s: %v", g.session.ID, err)
	}
}

func (m *Manager) reapOnce() {
	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		candidates = append(candidates, sess)
	}
	m.mu.RUnlock()

	for _, sess := range candidates {
		if sess.idleSince() < m.idle {
			continue
		}
		if !sess.mu.TryLock() {
			// In flight; skip this sweep rather than race an active request.
			continue
		}
		if sess.idleSince() < m.idle {
			sess.mu.Unlock()
			continue
		}
		gatewaylog.Infof("reaping idle session %s (idle %s)", sess.ID, sess.idleSince())
		m.mu.Lock()
		delete(m.sessions, sess.ID)
		m.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = sess.Transport.Disconnect(ctx)
		cancel()
		sess.mu.Unlock()
	}
}

// Shutdown best-effort disconnects every live session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Transport.Disconnect(ctx); err != nil {
				gatewaylog.Warnf("shutdown: session %s disconnected with error: %v", s.ID, err)
			}
		}(sess)
	}
	wg.Wait()
}
