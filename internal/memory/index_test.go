// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

func TestMemoryIndexSearchRanksFullContainmentHigher(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{ID: "1", Content: "fix the flaky retry test"}))
	require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{ID: "2", Content: "unrelated work about retry logic elsewhere"}))

	hits, err := idx.Search(ctx, SearchQuery{Text: "flaky retry test"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].Document.ID)
	assert.Greater(t, hits[0].RawScore, hits[1].RawScore)
}

func TestMemoryIndexSearchScopesToConversation(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{ID: "1", ConversationID: "a", Content: "widget bug"}))
	require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{ID: "2", ConversationID: "b", Content: "widget bug"}))

	hits, err := idx.Search(ctx, SearchQuery{ConversationID: "a", Text: "widget"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "1", hits[0].Document.ID)
}

func TestMemoryIndexListPaginatesNewestFirst(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{
			ID:             string(rune('a' + i)),
			ConversationID: "conv",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	docs, total, hasMore, err := idx.List(ctx, "conv", 2, 0, true)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.True(t, hasMore)
	require.Len(t, docs, 2)
	assert.Equal(t, "e", docs[0].ID) // newest first
	assert.Equal(t, "d", docs[1].ID)
}

func TestMemoryIndexListOffsetPastEnd(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{ID: "a", ConversationID: "conv"}))

	docs, total, hasMore, err := idx.List(ctx, "conv", 10, 5, false)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.False(t, hasMore)
	assert.Empty(t, docs)
}

func TestListMessagesDefaultsLimit(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, idx.Store(ctx, gatewaytypes.MemoryDocument{ID: string(rune('a' + i)), ConversationID: "conv"}))
	}

	page, err := ListMessages(ctx, idx, "conv", 0, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Documents, 3)
	assert.False(t, page.HasMore)
}
