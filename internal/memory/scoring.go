// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package memory implements cross-session memory retrieval: multi-factor
// relevance scoring, system-prompt prefix formatting, and a paginated
// message index. Grounded on
// original_source/claude-code-sdk-rs/src/memory/scoring.rs for the
// scoring formulas and on memory/{provider.rs, message_document.rs,
// tool_context.rs} for the document shape.
package memory

import (
	"math"
	"path/filepath"
	"strings"
	"time"
)

// Weights holds the per-factor contribution to the combined relevance
// score; the defaults below match scoring.rs's RelevanceConfig::default.
type Weights struct {
	Semantic float64
	CWD      float64
	Files    float64
	Recency  float64
}

// DefaultWeights sums to 1.0: 0.4 semantic, 0.3 cwd, 0.2 files, 0.1 recency.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.4, CWD: 0.3, Files: 0.2, Recency: 0.1}
}

// Scorer computes RelevanceScore values for memory search hits.
type Scorer struct {
	HalfLife time.Duration
	Weights  Weights
}

// NewScorer returns a Scorer with the documented defaults: a 24-hour
// recency half-life and DefaultWeights.
func NewScorer() Scorer {
	return Scorer{HalfLife: 24 * time.Hour, Weights: DefaultWeights()}
}

// RelevanceScore is the per-factor breakdown plus the weighted total.
type RelevanceScore struct {
	Semantic    float64
	CWDMatch    float64
	FilesOverlap float64
	Recency     float64
	Total       float64
}

// Score combines a hit's raw search score with cwd/file/recency context
// into a RelevanceScore.
func (s Scorer) Score(rawScore float64, currentCWD, storedCWD string, currentFiles, storedFiles []string, storedAt, now time.Time) RelevanceScore {
	semantic := clamp(rawScore/2, 0, 1)
	cwdMatch := cwdMatchScore(currentCWD, storedCWD)
	filesOverlap := jaccard(currentFiles, storedFiles)

	ageHours := now.Sub(storedAt).Hours()
	recency := s.recencyScore(ageHours)

	total := semantic*s.Weights.Semantic +
		cwdMatch*s.Weights.CWD +
		filesOverlap*s.Weights.Files +
		recency*s.Weights.Recency

	return RelevanceScore{
		Semantic:     semantic,
		CWDMatch:     cwdMatch,
		FilesOverlap: filesOverlap,
		Recency:      recency,
		Total:        total,
	}
}

func (s Scorer) recencyScore(ageHours float64) float64 {
	if ageHours < 0 {
		return 1.0
	}
	halfLifeHours := s.HalfLife.Hours()
	if halfLifeHours <= 0 {
		halfLifeHours = 24
	}
	return math.Exp(-ageHours / halfLifeHours)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// cwdMatchScore implements scoring.rs's four-way rule: 1.0 exact match,
// 0.5 parent/child, 0.25*min(1,depth/5) for a shared ancestor at least 2
// segments deep, 0 otherwise (including when either side is empty).
func cwdMatchScore(current, stored string) float64 {
	if current == "" || stored == "" {
		return 0
	}
	current = filepath.Clean(current)
	stored = filepath.Clean(stored)

	if current == stored {
		return 1.0
	}
	if hasPathPrefix(current, stored) || hasPathPrefix(stored, current) {
		return 0.5
	}

	depth := commonAncestorDepth(current, stored)
	if depth >= 2 {
		return 0.25 * math.Min(1.0, float64(depth)/5.0)
	}
	return 0
}

func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

func commonAncestorDepth(a, b string) int {
	aParts := splitPath(a)
	bParts := splitPath(b)
	depth := 0
	for i := 0; i < len(aParts) && i < len(bParts); i++ {
		if aParts[i] != bParts[i] {
			break
		}
		depth++
	}
	return depth
}

func splitPath(p string) []string {
	p = strings.Trim(p, string(filepath.Separator))
	if p == "" {
		return nil
	}
	return strings.Split(p, string(filepath.Separator))
}

// jaccard computes |A∩B| / |A∪B| over two string sets, 0 if either is
// empty.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	union := len(setA)
	for v := range setB {
		if _, ok := setA[v]; !ok {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
