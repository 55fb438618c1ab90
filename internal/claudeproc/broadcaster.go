// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package claudeproc

import (
	"sync"

	"github.com/groupsio/claudegate/internal/gatewaylog"
	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// DefaultChannelSize is the default buffer for every bounded channel the
// transport owns (spec §5 "Bounded channel sizing. Default 100 per
// channel").
const DefaultChannelSize = 100

// broadcaster fans a single publisher's data frames out to any number of
// subscriber channels. A slow subscriber is dropped-from (not blocked on):
// publisher order is preserved for every other consumer, matching spec §5
// "each consumer sees a monotonically increasing subsequence (lagged
// items are dropped, never reordered)". Grounded on manager.go's
// Subscribe/Unsubscribe/fanOut.
type broadcaster struct {
	mu          sync.Mutex
	subscribers map[chan gatewaytypes.DataFrame]struct{}
	bufSize     int
}

func newBroadcaster(bufSize int) *broadcaster {
	if bufSize <= 0 {
		bufSize = DefaultChannelSize
	}
	return &broadcaster{
		subscribers: make(map[chan gatewaytypes.DataFrame]struct{}),
		bufSize:     bufSize,
	}
}

func (b *broadcaster) Subscribe() chan gatewaytypes.DataFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan gatewaytypes.DataFrame, b.bufSize)
	b.subscribers[ch] = struct{}{}
	return ch
}

func (b *broadcaster) Unsubscribe(ch chan gatewaytypes.DataFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

func (b *broadcaster) Publish(frame gatewaytypes.DataFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- frame:
		default:
			gatewaylog.Warnf("data subscriber lagging, dropping frame type=%q", frame.Type)
		}
	}
}

func (b *broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = make(map[chan gatewaytypes.DataFrame]struct{})
}
