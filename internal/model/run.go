package model

import "time"

// Run kinds.
const (
	RunKindTag      = "tag"
	RunKindPackForm = "packform"
	RunKindInsight  = "insight"
)

// Run is the persisted record of one processed input file.
type Run struct {
	StartedAt time.Time
	Counts    map[Category]int
	ID        string
	Kind      string
	Profile   string
	Source    string
	Output    string
	Error     string
	Warnings  []string
	Duration  time.Duration
	Total     int
	Succeeded int
	Failed    int
}

// NewRun builds a run record from a batch summary.
func NewRun(kind, profile, source string, started time.Time, s *Summary) *Run {
	r := &Run{
		Kind:      kind,
		Profile:   profile,
		Source:    source,
		StartedAt: started,
		Counts:    make(map[Category]int),
	}
	if s != nil {
		r.Duration = s.Duration
		r.Total = s.Total
		r.Succeeded = s.Succeeded
		r.Failed = s.Failed()
		r.Warnings = append(r.Warnings, s.Warnings...)
		for c, n := range s.Counts {
			r.Counts[c] = n
		}
	}
	return r
}
