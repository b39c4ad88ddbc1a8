// Package batch applies a row classifier to every row of a table and
// aggregates the outcome.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/kwtag/internal/model"
)

// ErrMissingColumn is returned before any row is processed when the table
// lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// RowClassifier labels a single row.
type RowClassifier interface {
	Classify(row model.Row) (model.Result, error)
}

// RowClassifierFunc adapts a function to RowClassifier.
type RowClassifierFunc func(row model.Row) (model.Result, error)

// Classify calls f.
func (f RowClassifierFunc) Classify(row model.Row) (model.Result, error) {
	return f(row)
}

// ProgressFunc receives the number of processed rows and the total.
type ProgressFunc func(done, total int)

// Options configures a run.
type Options struct {
	Progress ProgressFunc
	// Required columns are checked before iteration starts.
	Required []string
	// Warnings are copied into the summary, e.g. reference tables that
	// could not be loaded.
	Warnings []string
	// Every is the progress reporting interval in rows. Zero reports on
	// every row.
	Every int
}

// Output is the result of a run. Rows holds one entry per successfully
// classified input row, in input order.
type Output struct {
	Summary *model.Summary
	Rows    []model.LabeledRow
}

// Run classifies every row of t in order. A row whose classifier returns an
// error or panics is recorded as a failure and the run continues. Run stops
// early and returns the partial output with ctx.Err() when ctx is canceled.
func Run(ctx context.Context, t *model.Table, rc RowClassifier, opts Options) (*Output, error) {
	if missing := t.MissingColumns(opts.Required...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	start := time.Now()
	total := t.Len()
	out := &Output{
		Summary: model.NewSummary(total),
		Rows:    make([]model.LabeledRow, 0, total),
	}
	out.Summary.Warnings = append(out.Summary.Warnings, opts.Warnings...)

	slog.Debug("Starting batch", "table", t.Name, "rows", total)

	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			out.Summary.Duration = time.Since(start)
			return out, err
		}

		res, err := classifyRow(rc, row)
		if err != nil {
			out.Summary.Failures = append(out.Summary.Failures, model.Failure{Index: row.Index, Reason: err.Error()})
			slog.Warn("Failed to classify row", "table", t.Name, "row", row.Index, "error", err)
		} else {
			out.Rows = append(out.Rows, model.LabeledRow{Row: row, Result: res})
			out.Summary.Counts[res.Primary]++
			out.Summary.Succeeded++
		}

		done := i + 1
		if opts.Progress != nil && (opts.Every <= 1 || done%opts.Every == 0 || done == total) {
			opts.Progress(done, total)
		}
	}

	out.Summary.Duration = time.Since(start)
	slog.Debug("Finished batch",
		"table", t.Name,
		"succeeded", out.Summary.Succeeded,
		"failed", out.Summary.Failed(),
		"duration", out.Summary.Duration)
	return out, nil
}

func classifyRow(rc RowClassifier, row model.Row) (res model.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	res, err = rc.Classify(row)
	if err == nil && res.Primary.IsZero() {
		err = errors.New("classifier returned no category")
	}
	return res, err
}
