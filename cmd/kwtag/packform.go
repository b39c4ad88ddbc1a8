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
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/packform"
	"github.com/Veraticus/kwtag/internal/sheet"
)

func packFormCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packform [flags] FILE...",
		Short: "Standardize and fill the pack form of product listings",
		Long: `Standardize the pack-form column of product listings and derive the
form from the product text where the column is empty.

Explicit values are mapped onto canonical forms (caplet → Tablet, gummies →
Gummy). Empty values are detected from the product description; several
forms make a Bundle unless a tie-break applies, and nothing found makes
Others. The output adds match, confidence and standardization columns and a
report is printed per file.`,
		Example: `  kwtag packform listings.xlsx
  kwtag packform --product-column Title --out processed/ *.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPackForm,
	}

	cmd.Flags().StringP("out", "o", "", "output directory (default: next to each input)")
	cmd.Flags().String("sheet", "", "name of the sheet written to the output")
	cmd.Flags().String("pack-form-column", "", "pack form column name")
	cmd.Flags().String("product-column", "", "product description column name")

	return cmd
}

func runPackForm(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	outDir := stringFlag(cmd, "out", cfg.Tag.OutDir)
	if err := ensureDir(outDir); err != nil {
		return err
	}
	sheetName := stringFlag(cmd, "sheet", cfg.PackForm.Sheet)

	labeler, err := packform.New(packform.WithColumns(
		stringFlag(cmd, "pack-form-column", cfg.PackForm.PackFormColumn),
		stringFlag(cmd, "product-column", cfg.PackForm.ProductColumn),
	))
	if err != nil {
		return common.NewUserError("Pack form rules are invalid", err)
	}
	packFormColumn := labeler.Required()[0]

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Labeling pack forms in %d file(s)", len(args))))

	job := func(ctx context.Context, path string, started time.Time) (*model.Run, error) {
		t, err := sheet.ReadTable(path)
		if err != nil {
			return nil, err
		}

		out, err := batch.Run(ctx, t, labeler, batchOptions(labeler.Required(), t.Len(), "Labeling "+t.Name, nil))
		if out == nil {
			return nil, err
		}
		run := model.NewRun(model.RunKindPackForm, "", path, started, out.Summary)
		if err != nil {
			return run, err
		}

		dst := sheet.TaggedPath(outDir, path)
		if err := sheet.WriteTagged(path, dst, sheetName, processedTable(t, out.Rows, packFormColumn)); err != nil {
			return run, err
		}
		run.Output = dst

		fmt.Fprintln(w, cli.RenderSummary(filepath.Base(path), out.Summary))
		fmt.Fprintln(w, cli.RenderPackFormReport(labeler.BuildReport(out.Rows)))
		fmt.Fprintln(w, cli.FormatSuccess("Wrote "+dst))
		return run, nil
	}

	return processFiles(cmd.Context(), w, "Pack form labeling", model.RunKindPackForm, "", args, job)
}

// processedTable is the source table with the pack-form column replaced by
// the label and the match columns appended.
func processedTable(src *model.Table, rows []model.LabeledRow, packFormColumn string) *model.Table {
	columns := append([]string{packFormColumn}, packform.OutputColumns...)
	return extendTable(src, rows, columns, func(lr model.LabeledRow, column string) any {
		if column == packFormColumn {
			return lr.Result.Primary.String()
		}
		return lr.Result.Flags[column]
	})
}
