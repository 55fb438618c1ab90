// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// relevanceThreshold discards results too weak to be worth the prompt
// budget they'd consume.
const relevanceThreshold = 0.3

// maxResults caps how many memories are ever surfaced, regardless of
// how much budget remains.
const maxResults = 5

// DefaultBudgetChars bounds FormatPrefix's output length: 2000 tokens'
// worth at a rough 4 chars/token.
const DefaultBudgetChars = 2000 * 4

// maxContentChars is how much of a document's raw Content is shown when
// no pre-computed Summary is available.
const maxContentChars = 200

// Scored pairs a Hit's document with its computed RelevanceScore.
type Scored struct {
	Role      string
	Content   string
	Summary   string
	CWD       string
	CreatedAt time.Time
	Score     RelevanceScore
}

// FormatPrefix renders the highest-relevance results as a labeled block
// suitable for prepending to a system prompt, honoring budgetChars (0
// means DefaultBudgetChars).
func FormatPrefix(results []Scored, budgetChars int) string {
	if budgetChars <= 0 {
		budgetChars = DefaultBudgetChars
	}

	filtered := make([]Scored, 0, len(results))
	for _, r := range results {
		if r.Score.Total >= relevanceThreshold {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Score.Total > filtered[j].Score.Total })
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	if len(filtered) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Relevant memory\n\n")
	for _, r := range filtered {
		line := formatLine(r)
		if b.Len()+len(line) > budgetChars {
			break
		}
		b.WriteString(line)
	}
	b.WriteString("---\n")
	return truncateToBudget(b.String(), budgetChars)
}

func formatLine(r Scored) string {
	text := r.Summary
	if text == "" {
		text = r.Content
		if len(text) > maxContentChars {
			text = text[:maxContentChars] + "…"
		}
	}
	age := humanizeAge(time.Since(r.CreatedAt))
	role := r.Role
	if role == "" {
		role = "unknown"
	}
	return fmt.Sprintf("- (%s, %s, score %.2f) %s\n", age, role, r.Score.Total, text)
}

func truncateToBudget(s string, budgetChars int) string {
	if len(s) <= budgetChars {
		return s
	}
	return s[:budgetChars]
}

// humanizeAge renders a duration as a short relative label: "just now",
// "5m ago", "3h ago", "2d ago".
func humanizeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
