// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package facade

import (
	"context"
	"sync"
	"time"

	"github.com/groupsio/claudegate/internal/claudeproc"
	"github.com/groupsio/claudegate/internal/gatewayerrors"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
	"github.com/groupsio/claudegate/internal/session"
)

// dropGuardCleanupTimeout bounds how long a post-turn Interrupt call is
// allowed once the caller's own context has already been canceled (a
// client drop), since that context can no longer be used to bound it.
const dropGuardCleanupTimeout = 5 * time.Second

// Interactive is the pooled, multi-turn facade: one CLI process per
// conversation id, reused across calls.
type Interactive struct {
	sessions *session.Manager

	claimsMu sync.Mutex
	claims   map[string]bool // conversationID -> control receiver taken
}

// NewInteractive wraps a session.Manager.
func NewInteractive(sessions *session.Manager) *Interactive {
	return &Interactive{sessions: sessions, claims: make(map[string]bool)}
}

// Connect ensures a session exists for conversationID, spawning and
// initializing it if necessary.
func (i *Interactive) Connect(ctx context.Context, conversationID string) (*session.Session, error) {
	sess, release, err := i.sessions.Acquire(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	release()
	return sess, nil
}

// Send writes one user frame to the conversation's session without
// waiting for a response — used for fire-and-forget follow-ups (e.g.
// in response to a permission prompt answered out of band).
func (i *Interactive) Send(ctx context.Context, conversationID string, frame gatewaytypes.UserFrame) error {
	sess, release, err := i.sessions.Acquire(ctx, conversationID)
	if err != nil {
		return err
	}
	defer release()
	return sess.Transport.WriteLine(ctx, frame)
}

// SendAndReceiveUntilResult performs the atomic subscribe-then-send
// operation and streams deltas to the caller while aggregation runs in
// the background. The returned wait func blocks until the turn is
// fully aggregated (i.e. until deltas is closed) and yields the final
// result; callers that want live streaming should range over deltas
// and call wait afterward, which by then returns immediately.
//
// A drop guard is armed for the duration of the turn: if ctx is
// canceled before the turn reaches a normal terminal state (a client
// disconnecting mid-stream), the guard sends exactly one Interrupt to
// the CLI so the abandoned turn actually stops instead of running to
// completion unobserved (spec.md §4.3, §5, §8).
func (i *Interactive) SendAndReceiveUntilResult(ctx context.Context, conversationID string, frame gatewaytypes.UserFrame) (deltas <-chan session.StreamDelta, wait func() (*session.AggregatedTurn, error), err error) {
	sess, release, err := i.sessions.Acquire(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}

	guard := i.sessions.InstallDropGuard(sess)

	out := make(chan session.StreamDelta, claudeproc.DefaultChannelSize)
	result := make(chan struct {
		turn *session.AggregatedTurn
		err  error
	}, 1)
	go func() {
		defer release()
		defer close(out)
		turn, sendErr := session.SendAndCollect(ctx, sess, frame, out)
		if sendErr == nil {
			// Reached a normal terminal state (result frame, or the
			// gap-completion fallback) — nothing to interrupt.
			guard.Disarm()
		}
		cleanupCtx, cancel := context.WithTimeout(context.Background(), dropGuardCleanupTimeout)
		guard.Cleanup(cleanupCtx)
		cancel()
		result <- struct {
			turn *session.AggregatedTurn
			err  error
		}{turn, sendErr}
	}()

	return out, func() (*session.AggregatedTurn, error) {
		r := <-result
		return r.turn, r.err
	}, nil
}

// Interrupt cooperatively stops the conversation's in-flight turn.
func (i *Interactive) Interrupt(ctx context.Context, conversationID string) error {
	sess, release, err := i.sessions.Acquire(ctx, conversationID)
	if err != nil {
		return err
	}
	defer release()
	return sess.Engine.Interrupt(ctx)
}

// SendControlResponse forwards a pre-built control response envelope
// (e.g. an out-of-band permission decision) to the CLI.
func (i *Interactive) SendControlResponse(ctx context.Context, conversationID string, resp gatewaytypes.ControlResponseEnvelope) error {
	sess, release, err := i.sessions.Acquire(ctx, conversationID)
	if err != nil {
		return err
	}
	defer release()
	return sess.Transport.WriteLine(ctx, resp)
}

// TakeControlReceiver hands the caller exclusive access to the
// conversation's inbound control channel; a second caller for the same
// conversation gets an error, since the channel has exactly one
// consumer.
func (i *Interactive) TakeControlReceiver(conversationID string) (<-chan gatewaytypes.InboundControlRequest, error) {
	i.claimsMu.Lock()
	defer i.claimsMu.Unlock()
	if i.claims[conversationID] {
		return nil, gatewayerrors.New(gatewayerrors.BadRequest, "control receiver already claimed for this conversation")
	}

	sess, release, err := i.sessions.Acquire(context.Background(), conversationID)
	if err != nil {
		return nil, err
	}
	defer release()

	i.claims[conversationID] = true
	return sess.Transport.InboundControl(), nil
}

// Disconnect tears down the conversation's session, if any.
func (i *Interactive) Disconnect(ctx context.Context, conversationID string) error {
	sess, release, err := i.sessions.Acquire(ctx, conversationID)
	if err != nil {
		return err
	}
	defer release()
	i.claimsMu.Lock()
	delete(i.claims, conversationID)
	i.claimsMu.Unlock()
	return sess.Transport.Disconnect(ctx)
}
