package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
)

// RunFilter narrows ListRuns.
type RunFilter struct {
	Since time.Time
	Kind  string
	Limit int
}

// SaveRun stores a run and its category counts. A run without an ID is
// given a new one.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *model.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRun(run); err != nil {
		return err
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	warnings, err := json.Marshal(nonNil(run.Warnings))
	if err != nil {
		return fmt.Errorf("failed to encode warnings: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, kind, profile, source, output, started_at, duration_ms,
				total, succeeded, failed, warnings, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				kind = excluded.kind,
				profile = excluded.profile,
				source = excluded.source,
				output = excluded.output,
				started_at = excluded.started_at,
				duration_ms = excluded.duration_ms,
				total = excluded.total,
				succeeded = excluded.succeeded,
				failed = excluded.failed,
				warnings = excluded.warnings,
				error = excluded.error
		`, run.ID, run.Kind, run.Profile, run.Source, run.Output, run.StartedAt.UTC(),
			run.Duration.Milliseconds(), run.Total, run.Succeeded, run.Failed,
			string(warnings), run.Error)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM run_counts WHERE run_id = ?`, run.ID); err != nil {
			return fmt.Errorf("failed to clear run counts: %w", err)
		}
		for c, n := range run.Counts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_counts (run_id, category, count) VALUES (?, ?, ?)`,
				run.ID, c.String(), n); err != nil {
				return fmt.Errorf("failed to save run count %q: %w", c, err)
			}
		}
		return nil
	})
}

// GetRun returns one run with its counts.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadCounts(ctx, s.db, []*model.Run{run}); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter RunFilter) ([]*model.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if !filter.Since.IsZero() {
		where = append(where, "started_at >= ?")
		args = append(args, filter.Since.UTC())
	}
	query := selectRuns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	if err := s.loadCounts(ctx, s.db, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// DeleteRunsBefore removes runs started before cutoff and returns how many
// were deleted.
func (s *SQLiteStorage) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var deleted int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM run_counts
			WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)
		`, cutoff.UTC()); err != nil {
			return fmt.Errorf("failed to delete run counts: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete runs: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

// CategoryTotals sums category counts across all runs of a kind. An empty
// kind sums every run.
func (s *SQLiteStorage) CategoryTotals(ctx context.Context, kind string) (map[model.Category]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.category, SUM(c.count)
		FROM run_counts c
		JOIN runs r ON r.id = c.run_id
		WHERE ? = '' OR r.kind = ?
		GROUP BY c.category
	`, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to sum category counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[model.Category]int)
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals[model.Category(c)] = n
	}
	return totals, rows.Err()
}

const selectRuns = `
	SELECT id, kind, profile, source, output, started_at, duration_ms,
		total, succeeded, failed, warnings, error
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*model.Run, error) {
	var (
		run        model.Run
		durationMS int64
		warnings   string
	)
	err := sc.Scan(&run.ID, &run.Kind, &run.Profile, &run.Source, &run.Output,
		&run.StartedAt, &durationMS, &run.Total, &run.Succeeded, &run.Failed,
		&warnings, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("failed to decode warnings of run %s: %w", run.ID, err)
	}
	run.Counts = make(map[model.Category]int)
	return &run, nil
}

func (s *SQLiteStorage) loadCounts(ctx context.Context, q queryable, runs []*model.Run) error {
	if len(runs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Run, len(runs))
	placeholders := make([]string, 0, len(runs))
	args := make([]any, 0, len(runs))
	for _, r := range runs {
		byID[r.ID] = r
		placeholders = append(placeholders, "?")
		args = append(args, r.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT run_id, category, count FROM run_counts
		WHERE run_id IN (`+strings.Join(placeholders, ",")+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load run counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id, c string
		var n int
		if err := rows.Scan(&id, &c, &n); err != nil {
			return fmt.Errorf("failed to scan run count: %w", err)
		}
		byID[id].Counts[model.Category(c)] = n
	}
	return rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
