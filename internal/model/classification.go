package model

import (
	"sort"
	"time"
)

// Result is the outcome of classifying one row.
type Result struct {
	Flags     map[string]any
	Primary   Category
	Secondary []Category
	Evidence  []string
}

// LabeledRow pairs a source row with its classification.
type LabeledRow struct {
	Row    Row
	Result Result
}

// Failure records a row that could not be classified.
type Failure struct {
	Reason string `json:"reason"`
	Index  int    `json:"index"`
}

// Summary aggregates a batch run.
type Summary struct {
	Counts    map[Category]int `json:"counts"`
	Failures  []Failure        `json:"failures,omitempty"`
	Warnings  []string         `json:"warnings,omitempty"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Duration  time.Duration    `json:"duration"`
}

// NewSummary returns an empty summary ready for counting.
func NewSummary(total int) *Summary {
	return &Summary{
		Total:  total,
		Counts: make(map[Category]int),
	}
}

// Failed returns the number of failed rows.
func (s *Summary) Failed() int {
	return len(s.Failures)
}

// CategoryCount is one entry of a sorted count listing.
type CategoryCount struct {
	Category Category
	Count    int
}

// SortedCounts returns counts ordered by count descending, then by name.
func (s *Summary) SortedCounts() []CategoryCount {
	out := make([]CategoryCount, 0, len(s.Counts))
	for c, n := range s.Counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}
