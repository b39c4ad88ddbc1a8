package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kwtag/internal/cli"
	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded tagging runs",
		Long: `List the runs recorded in the history database, newest first.

Every processed file is one run. Use 'history show' for the category counts
of a single run, 'history totals' for counts across runs and 'history prune'
to drop old records.`,
		RunE: runHistoryList,
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().String("kind", "", "only list runs of this kind (tag, packform, insight)")
	cmd.Flags().Int("days", 0, "only list runs started within this many days")

	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyTotalsCmd())
	cmd.AddCommand(historyPruneCmd())
	return cmd
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	kind, _ := cmd.Flags().GetString("kind")
	days, _ := cmd.Flags().GetInt("days")
	if err := validateKind(kind); err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	filter := storage.RunFilter{Kind: kind, Limit: limit}
	if days > 0 {
		filter.Since = time.Now().AddDate(0, 0, -days)
	}
	runs, err := store.ListRuns(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.FormatTitle("Run history"))
	fmt.Fprintln(w, cli.RenderHistory(runs))
	return nil
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one recorded run",
		Long:  "Show one recorded run. The ID may be abbreviated to the prefix shown by 'history'.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			run, err := findRun(cmd, store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderSummary(run.Kind+" · "+run.Source, runSummary(run)))
			if run.Output != "" {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Output: "+run.Output))
			}
			if run.Error != "" {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatError(run.Error))
			}
			return nil
		},
	}
}

func historyTotalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show category counts summed across recorded runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			kind, _ := cmd.Flags().GetString("kind")
			if err := validateKind(kind); err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			totals, err := store.CategoryTotals(ctx, kind)
			if err != nil {
				return fmt.Errorf("failed to total categories: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Category totals"))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTotals(totals))
			return nil
		},
	}
	cmd.Flags().String("kind", "", "only count runs of this kind (tag, packform, insight)")
	return cmd
}

func historyPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than a number of days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			days, _ := cmd.Flags().GetInt("older-than")
			if days <= 0 {
				return common.NewUserError("--older-than must be at least 1 day", common.ErrInvalidConfig)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			cutoff := time.Now().AddDate(0, 0, -days)
			deleted, err := store.DeleteRunsBefore(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("failed to prune runs: %w", err)
			}
			slog.Info("Pruned run history", "deleted", deleted, "before", cutoff.Format(time.RFC3339))
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d run(s) older than %d day(s)", deleted, days)))
			return nil
		},
	}
	cmd.Flags().Int("older-than", 90, "delete runs started more than this many days ago")
	return cmd
}

// findRun resolves a full run ID or a unique prefix of one.
func findRun(cmd *cobra.Command, store *storage.SQLiteStorage, id string) (*model.Run, error) {
	ctx := cmd.Context()
	run, err := store.GetRun(ctx, id)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	runs, err := store.ListRuns(ctx, storage.RunFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	var match *model.Run
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != nil {
			return nil, common.NewUserError("Run ID "+id+" is ambiguous", nil)
		}
		match = r
	}
	if match == nil {
		return nil, common.NewUserError("No run with ID "+id, common.ErrNotFound)
	}
	return match, nil
}

// runSummary rebuilds the summary view of a stored run. Individual failures
// are not stored, only their number.
func runSummary(r *model.Run) *model.Summary {
	s := model.NewSummary(r.Total)
	s.Succeeded = r.Succeeded
	s.Duration = r.Duration
	s.Warnings = append(s.Warnings, r.Warnings...)
	for c, n := range r.Counts {
		s.Counts[c] = n
	}
	if r.Failed > 0 {
		s.Warnings = append(s.Warnings, fmt.Sprintf("%d row(s) failed", r.Failed))
	}
	return s
}

func validateKind(kind string) error {
	switch kind {
	case "", model.RunKindTag, model.RunKindPackForm, model.RunKindInsight:
		return nil
	}
	return common.NewUserError("Unknown run kind "+kind+" (tag, packform, insight)", common.ErrInvalidConfig)
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}
