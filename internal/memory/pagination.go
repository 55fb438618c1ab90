// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// PageResult is the paginated response for listing a conversation's
// indexed messages.
type PageResult struct {
	Documents []gatewaytypes.MemoryDocument
	Total     int
	HasMore   bool
}

// ListMessages is a thin pagination wrapper over Index.List, applying
// sane defaults when limit is unset.
func ListMessages(ctx context.Context, idx Index, conversationID string, limit, offset int, newestFirst bool) (PageResult, error) {
	if limit <= 0 {
		limit = 50
	}
	docs, total, hasMore, err := idx.List(ctx, conversationID, limit, offset, newestFirst)
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{Documents: docs, Total: total, HasMore: hasMore}, nil
}
