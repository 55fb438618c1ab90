// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"testing"
	"time"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterFansOutToAllSubscribers(t *testing.T) {
	b := newBroadcaster(4)
	a := b.Subscribe()
	c := b.Subscribe()

	b.Publish(gatewaytypes.DataFrame{Type: "assistant"})

	select {
	case frame := <-a:
		assert.Equal(t, "assistant", frame.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber a never received frame")
	}
	select {
	case frame := <-c:
		assert.Equal(t, "assistant", frame.Type)
	case <-time.After(time.Second):
		t.Fatal("subscriber c never received frame")
	}
}

func TestBroadcasterDropsOnFullSubscriberPreservingOthers(t *testing.T) {
	b := newBroadcaster(1)
	slow := b.Subscribe()
	fast := b.Subscribe()

	b.Publish(gatewaytypes.DataFrame{Type: "frame1"})
	b.Publish(gatewaytypes.DataFrame{Type: "frame2"})

	// slow's buffer (size 1) is full after frame1; frame2 is dropped for it.
	first := <-slow
	assert.Equal(t, "frame1", first.Type)
	select {
	case _, ok := <-slow:
		t.Fatalf("slow subscriber should not have received a second frame, ok=%v", ok)
	default:
	}

	// fast drained nothing yet, so it sees only the buffered frame1 (its
	// buffer is also size 1, so frame2 was dropped for it too) — what
	// matters is order is preserved, never reordering frame2 before frame1.
	got := <-fast
	assert.Equal(t, "frame1", got.Type)
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := newBroadcaster(1)
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBroadcasterCloseAllClosesEverySubscriber(t *testing.T) {
	b := newBroadcaster(1)
	a := b.Subscribe()
	c := b.Subscribe()
	b.CloseAll()

	_, okA := <-a
	_, okC := <-c
	assert.False(t, okA)
	assert.False(t, okC)
}

func TestBroadcasterDefaultBufSize(t *testing.T) {
	b := newBroadcaster(0)
	require.Equal(t, DefaultChannelSize, b.bufSize)
}
