// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// SearchQuery parameterizes Index.Search.
type SearchQuery struct {
	ConversationID string // optional: restrict to one conversation
	Text           string
	Limit          int
}

// Hit is one search result paired with its unscored raw relevance.
type Hit struct {
	Document gatewaytypes.MemoryDocument
	RawScore float64
}

// Index is the memory persistence/search collaborator. An external
// full-text or semantic index is out of scope (spec.md §1); Index is an
// interface so one can be plugged in, with MemoryIndex as an in-process
// fallback for tests and for operators without one configured.
type Index interface {
	Store(ctx context.Context, doc gatewaytypes.MemoryDocument) error
	Search(ctx context.Context, query SearchQuery) ([]Hit, error)
	List(ctx context.Context, conversationID string, limit, offset int, newestFirst bool) (docs []gatewaytypes.MemoryDocument, total int, hasMore bool, err error)
}

// MemoryIndex is a sync.Map-free, mutex-guarded in-process Index using
// simple substring matching plus recency as its "semantic" raw score —
// a stand-in for an external embedding/full-text search backend.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs []gatewaytypes.MemoryDocument
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Store(ctx context.Context, doc gatewaytypes.MemoryDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc)
	return nil
}

// Search keeps documents by naive substring containment (raw score 2.0
// for the whole query, 1.0 for any shared word) and omits the rest —
// deliberately crude; Scorer.Score halves the raw score into its 0..1
// semantic factor, and the scoring in Scorer.Score, not the raw search, is what SPEC_FULL.md
// calls out as the interesting algorithm.
func (m *MemoryIndex) Search(ctx context.Context, query SearchQuery) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query.Text)
	words := strings.Fields(needle)

	hits := make([]Hit, 0)
	for _, doc := range m.docs {
		if query.ConversationID != "" && doc.ConversationID != query.ConversationID {
			continue
		}
		haystack := strings.ToLower(doc.Content)
		var raw float64
		switch {
		case needle != "" && strings.Contains(haystack, needle):
			raw = 2.0
		case anyWordMatches(haystack, words):
			raw = 1.0
		default:
			continue
		}
		hits = append(hits, Hit{Document: doc, RawScore: raw})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].RawScore > hits[j].RawScore })
	if query.Limit > 0 && len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

func anyWordMatches(haystack string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(haystack, w) {
			return true
		}
	}
	return false
}

func (m *MemoryIndex) List(ctx context.Context, conversationID string, limit, offset int, newestFirst bool) ([]gatewaytypes.MemoryDocument, int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]gatewaytypes.MemoryDocument, 0)
	for _, doc := range m.docs {
		if conversationID != "" && doc.ConversationID != conversationID {
			continue
		}
		matched = append(matched, doc)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if newestFirst {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return nil, total, false, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := matched[offset:end]
	hasMore := end < total
	return page, total, hasMore, nil
}
