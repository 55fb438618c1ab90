// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/json"
	"time"
)

// L2Entry is one persisted cache row.
type L2Entry struct {
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store is the L2 persistence collaborator. The reference implementation
// backs this with Neo4j; claudegate treats persistence as an external
// interface (spec.md §6) so any backend — in-memory, file, SQL, a KV
// store — can satisfy it.
type Store interface {
	Get(ctx context.Context, key string) (L2Entry, bool, error)
	Put(ctx context.Context, key string, entry L2Entry) error
	DeleteExpired(ctx context.Context) (int, error)
}
