package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Veraticus/kwtag/internal/batch"
	"github.com/Veraticus/kwtag/internal/cli"
	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/storage"
)

// initStorage opens the run history database and brings its schema up to
// date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(appConfig.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// fileJob processes one input file. It returns the run record to persist,
// which may be nil when the file could not be read.
type fileJob func(ctx context.Context, path string, started time.Time) (*model.Run, error)

// processFiles runs job over every path in order. A failing file is reported
// and recorded and the next file is processed; cancellation stops the loop.
func processFiles(ctx context.Context, w io.Writer, task, kind, profile string, paths []string, job fileJob) error {
	handler := cli.NewInterruptHandler(w)
	ctx = handler.HandleInterrupts(ctx, task)
	defer handler.Stop()

	store, err := initStorage(ctx)
	if err != nil {
		slog.Warn("Run history unavailable", "database", appConfig.Database, "error", err)
	} else {
		defer closeStorage(store)
	}

	failed := 0
	for _, path := range paths {
		started := time.Now()
		run, err := job(ctx, path, started)
		if run == nil {
			run = model.NewRun(kind, profile, path, started, nil)
			run.Duration = time.Since(started)
		}
		if err != nil {
			run.Error = err.Error()
		}
		if store != nil {
			// The history write must survive cancellation of the run.
			if saveErr := store.SaveRun(context.WithoutCancel(ctx), run); saveErr != nil {
				slog.Warn("Failed to record run", "source", path, "error", saveErr)
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return common.NewUserError(task+" interrupted", ctx.Err())
			}
			failed++
			slog.Error("Failed to process file", "file", path, "error", err)
			fmt.Fprintln(w, cli.FormatError(filepath.Base(path)+": "+err.Error()))
		}
	}

	if len(paths) > 1 || failed > 0 {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Files: %d succeeded, %d failed", len(paths)-failed, failed)))
	}
	if failed > 0 {
		return common.NewUserError(fmt.Sprintf("%d of %d files failed", failed, len(paths)), nil)
	}
	return nil
}

// progressFor returns the progress sink for a batch of total rows, or nil
// when progress reporting is disabled. A bar is drawn only when stderr is a
// terminal; otherwise progress goes to the log.
func progressFor(total int, description string) batch.ProgressFunc {
	if !appConfig.Progress.Enabled || total == 0 {
		return nil
	}
	if !stderrIsTerminal() {
		return cli.NewProgressLogger(slog.Default(), description)
	}
	return cli.NewProgress(os.Stderr, total, description)
}

var stderrIsTerminal = func() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// batchOptions assembles the runner options shared by every command.
func batchOptions(required []string, total int, description string, warnings []string) batch.Options {
	return batch.Options{
		Required: required,
		Progress: progressFor(total, description),
		Every:    appConfig.Progress.Every,
		Warnings: warnings,
	}
}

// stringFlag returns the flag value when it was set on the command line and
// fallback otherwise.
func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// ensureDir creates dir when it is set.
func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// extendTable returns a copy of the labeled rows of src with columns added
// after the source columns. A column that already exists is overwritten in
// place. value supplies the cell for each labeled row and column.
func extendTable(src *model.Table, rows []model.LabeledRow, columns []string, value func(model.LabeledRow, string) any) *model.Table {
	header := append([]string(nil), src.Columns...)
	for _, c := range columns {
		if !src.HasColumn(c) {
			header = append(header, c)
		}
	}
	added := make(map[string]bool, len(columns))
	for _, c := range columns {
		added[c] = true
	}

	records := make([][]any, 0, len(rows))
	for _, lr := range rows {
		rec := make([]any, len(header))
		for i, c := range header {
			if added[c] {
				rec[i] = value(lr, c)
			} else {
				rec[i] = lr.Row.Value(c)
			}
		}
		records = append(records, rec)
	}
	return model.NewTable(src.Name, header, records)
}
