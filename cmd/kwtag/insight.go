package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kwtag/internal/batch"
	"github.com/Veraticus/kwtag/internal/cli"
	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/insight"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/sheet"
)

func insightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insight [flags] FILE...",
		Short: "Split search terms into branded and non-branded keywords",
		Long: `Tag the search terms of a search-insight export against the brands
listed in its brand column.

A term naming at least one brand is Branded KWs, otherwise Non-Branded KWs.
Short brand names match whole words only; longer names also match with
punctuation and spaces removed. Optional product parameters are extracted
per term, and search volume is totalled per brand.`,
		Example: `  kwtag insight report.xlsx
  kwtag insight report.xlsx --params "颜色,尺寸" --values "红,蓝|小,大"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runInsight,
	}

	cmd.Flags().StringP("out", "o", "", "output directory (default: next to each input)")
	cmd.Flags().String("sheet", "", "name of the sheet written to the output")
	cmd.Flags().String("params", "", "comma-separated parameter names")
	cmd.Flags().String("values", "", "value lists per parameter, separated by '|' or newlines")
	cmd.Flags().String("term-column", "", "search term column name")
	cmd.Flags().String("volume-column", "", "search volume column name")
	cmd.Flags().String("brand-column", "", "brand name column name")
	cmd.Flags().Int("top", 10, "number of brands listed in the volume summary (0 for all)")

	return cmd
}

func runInsight(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	outDir := stringFlag(cmd, "out", cfg.Tag.OutDir)
	if err := ensureDir(outDir); err != nil {
		return err
	}
	sheetName := stringFlag(cmd, "sheet", cfg.Insight.Sheet)
	top, _ := cmd.Flags().GetInt("top")

	cols := insight.Columns{
		Term:   stringFlag(cmd, "term-column", cfg.Insight.Columns.Term),
		Volume: stringFlag(cmd, "volume-column", cfg.Insight.Columns.Volume),
		Brand:  stringFlag(cmd, "brand-column", cfg.Insight.Columns.Brand),
	}
	params := cfg.Insight.Params
	if cmd.Flags().Changed("params") || cmd.Flags().Changed("values") {
		names, _ := cmd.Flags().GetString("params")
		values, _ := cmd.Flags().GetString("values")
		parsed, err := insight.ParseParams(names, values)
		if err != nil {
			return common.NewUserError("Each parameter needs exactly one value list", err)
		}
		params = parsed
	}
	// Validate the columns and parameters once before reading any file.
	if _, err := insight.New(nil, params, cols); err != nil {
		return common.NewUserError("Search insight settings are invalid", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Tagging search terms in %d file(s)", len(args))))

	job := func(ctx context.Context, path string, started time.Time) (*model.Run, error) {
		t, err := sheet.ReadTable(path)
		if err != nil {
			return nil, err
		}
		if !t.HasColumn(cols.Brand) {
			return nil, fmt.Errorf("%w: %s", batch.ErrMissingColumn, cols.Brand)
		}

		clf, err := insight.New(insight.BrandsFromTable(t, cols.Brand), params, cols)
		if err != nil {
			return nil, err
		}
		out, err := batch.Run(ctx, t, clf, batchOptions(clf.Required(), t.Len(), "Tagging "+t.Name, nil))
		if out == nil {
			return nil, err
		}
		run := model.NewRun(model.RunKindInsight, "", path, started, out.Summary)
		if err != nil {
			return run, err
		}

		dst := sheet.TaggedPath(outDir, path)
		if err := sheet.WriteTagged(path, dst, sheetName, insightTable(t, out.Rows, params)); err != nil {
			return run, err
		}
		run.Output = dst

		fmt.Fprintln(w, cli.RenderSummary(filepath.Base(path), out.Summary))
		fmt.Fprintln(w, cli.RenderInsightTotals(clf.Aggregate(out.Rows), top))
		fmt.Fprintln(w, cli.FormatSuccess("Wrote "+dst))
		return run, nil
	}

	return processFiles(cmd.Context(), w, "Search insight tagging", model.RunKindInsight, "", args, job)
}

// insightTable is the source table followed by the matched brands, the
// matched parameter values overall and per group, and the keyword type.
func insightTable(src *model.Table, rows []model.LabeledRow, params []insight.ParamGroup) *model.Table {
	columns := []string{insight.FlagBrands, insight.FlagParams}
	for _, p := range params {
		columns = append(columns, p.Name)
	}
	columns = append(columns, insight.FlagKeywordType)

	return extendTable(src, rows, columns, func(lr model.LabeledRow, column string) any {
		return lr.Result.Flags[column]
	})
}
