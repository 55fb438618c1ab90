// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeightsSumToOne(t *testing.T) {
	w := DefaultWeights()
	assert.InDelta(t, 1.0, w.Semantic+w.CWD+w.Files+w.Recency, 0.001)
}

func TestScoreWorkedExample(t *testing.T) {
	// Reproduces the spec's worked example: raw semantic score 1.5,
	// exact cwd match, 1/2 file overlap, 1 hour old -> total ~= 0.796.
	s := NewScorer()
	now := time.Now()
	storedAt := now.Add(-1 * time.Hour)

	score := s.Score(1.5, "/projects/app", "/projects/app",
		[]string{"/src/main.rs"}, []string{"/src/main.rs", "/src/lib.rs"},
		storedAt, now)

	assert.InDelta(t, 0.75, score.Semantic, 0.01)
	assert.Equal(t, 1.0, score.CWDMatch)
	assert.Equal(t, 0.5, score.FilesOverlap)
	assert.InDelta(t, 0.959, score.Recency, 0.01)
	assert.InDelta(t, 0.796, score.Total, 0.02)
}

func TestSemanticScoreClamping(t *testing.T) {
	s := NewScorer()
	now := time.Now()
	assert.Equal(t, 0.0, s.Score(0, "", "", nil, nil, now, now).Semantic)
	assert.Equal(t, 0.5, s.Score(1.0, "", "", nil, nil, now, now).Semantic)
	assert.Equal(t, 1.0, s.Score(2.0, "", "", nil, nil, now, now).Semantic)
	assert.Equal(t, 1.0, s.Score(3.0, "", "", nil, nil, now, now).Semantic) // clamped
}

func TestCWDMatchExact(t *testing.T) {
	assert.Equal(t, 1.0, cwdMatchScore("/projects/my-app", "/projects/my-app"))
}

func TestCWDMatchParentChild(t *testing.T) {
	assert.Equal(t, 0.5, cwdMatchScore("/projects/my-app/src", "/projects/my-app"))
	assert.Equal(t, 0.5, cwdMatchScore("/projects/my-app", "/projects/my-app/src/components"))
}

func TestCWDMatchCommonAncestor(t *testing.T) {
	score := cwdMatchScore("/projects/my-app/frontend", "/projects/my-app/backend")
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, 0.5)
}

func TestCWDMatchNoRelation(t *testing.T) {
	assert.Equal(t, 0.0, cwdMatchScore("/home/user/project-a", "/var/www/project-b"))
}

func TestCWDMatchEmptyIsNeutral(t *testing.T) {
	assert.Equal(t, 0.0, cwdMatchScore("", "/projects"))
	assert.Equal(t, 0.0, cwdMatchScore("/projects", ""))
	assert.Equal(t, 0.0, cwdMatchScore("", ""))
}

func TestJaccardOverlap(t *testing.T) {
	current := []string{"/f1.rs", "/f2.rs", "/f3.rs"}
	stored := []string{"/f2.rs", "/f3.rs", "/f4.rs"}
	assert.Equal(t, 0.5, jaccard(current, stored))
}

func TestJaccardIdentical(t *testing.T) {
	files := []string{"/a.rs", "/b.rs"}
	assert.Equal(t, 1.0, jaccard(files, files))
}

func TestJaccardNoCommon(t *testing.T) {
	assert.Equal(t, 0.0, jaccard([]string{"/a.rs"}, []string{"/b.rs"}))
}

func TestJaccardEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccard(nil, []string{"/a.rs"}))
	assert.Equal(t, 0.0, jaccard([]string{"/a.rs"}, nil))
	assert.Equal(t, 0.0, jaccard(nil, nil))
}

func TestRecencyScoreDecay(t *testing.T) {
	s := NewScorer()
	assert.InDelta(t, 1.0, s.recencyScore(0), 0.001)
	assert.InDelta(t, 0.959, s.recencyScore(1), 0.01)
	assert.InDelta(t, 0.368, s.recencyScore(24), 0.01)
	assert.InDelta(t, 0.050, s.recencyScore(72), 0.01)
}

func TestRecencyScoreFutureIsFull(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 1.0, s.recencyScore(-1))
}
