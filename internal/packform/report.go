package packform

import (
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
)

const (
	maxExamples    = 10
	maxProductText = 80
)

// Example is one standardized row shown in a report.
type Example struct {
	Product  string         `json:"product"`
	Original string         `json:"original"`
	PackForm model.Category `json:"pack_form"`
	Row      int            `json:"row"`
}

// Report summarizes a processed table.
type Report struct {
	Distribution           map[model.Category]int `json:"distribution"`
	Examples               []Example              `json:"examples,omitempty"`
	TotalRows              int                    `json:"total_rows"`
	StandardizationApplied int                    `json:"standardization_applied"`
	OriginallyEmpty        int                    `json:"originally_empty"`
	SuccessfullyFilled     int                    `json:"successfully_filled"`
	Unmatched              int                    `json:"unmatched"`
}

// FillRate is the share of originally empty rows that were derived from the
// product text.
func (r Report) FillRate() float64 {
	if r.OriginallyEmpty == 0 {
		return 0
	}
	return float64(r.SuccessfullyFilled) / float64(r.OriginallyEmpty)
}

// BuildReport aggregates labeled rows produced by a Labeler.
func (l *Labeler) BuildReport(rows []model.LabeledRow) Report {
	r := Report{
		TotalRows:    len(rows),
		Distribution: make(map[model.Category]int),
	}
	for _, lr := range rows {
		flags := lr.Result.Flags
		r.Distribution[lr.Result.Primary]++

		if flag(flags, FlagOriginallyEmpty) {
			r.OriginallyEmpty++
			if flag(flags, flagDetected) {
				r.SuccessfullyFilled++
			} else {
				r.Unmatched++
			}
			continue
		}
		if !flag(flags, FlagStandardizationApplied) {
			continue
		}
		r.StandardizationApplied++
		if len(r.Examples) < maxExamples {
			original, _ := flags[FlagOriginalPackForm].(string)
			r.Examples = append(r.Examples, Example{
				Row:      lr.Row.Index + 1,
				Product:  truncate(normalize.Text(lr.Row.Value(l.productColumn)), maxProductText),
				Original: original,
				PackForm: lr.Result.Primary,
			})
		}
	}
	return r
}

func flag(flags map[string]any, key string) bool {
	b, _ := flags[key].(bool)
	return b
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
