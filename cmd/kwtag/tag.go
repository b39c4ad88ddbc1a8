package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kwtag/internal/batch"
	"github.com/Veraticus/kwtag/internal/cli"
	"github.com/Veraticus/kwtag/internal/common"
	"github.com/Veraticus/kwtag/internal/keyword"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/normalize"
	"github.com/Veraticus/kwtag/internal/refset"
	"github.com/Veraticus/kwtag/internal/sheet"
)

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag [flags] FILE...",
		Short: "Tag advertising queries as brand, competitor or category terms",
		Long: `Label every query row of one or more search-term reports.

Keywords become Brand KW when they contain a brand token, CMP KW when they
contain a competitor brand (profiles with competitors enabled) and the
profile's fallback category otherwise. ASIN targets become Brand PAT when
listed in the first column of the reference file and CMP PAT otherwise;
auto campaigns remap them to Auto KW and Auto PAT.

Each input gets a copy named <name>_tagged with a new sheet holding the
normalized query, the campaign type and the label.`,
		Example: `  kwtag tag --reference asins.xlsx report.xlsx
  kwtag tag --profile blueland --reference ref.xlsx --out tagged/ *.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runTag,
	}

	cmd.Flags().StringP("profile", "p", "", "tagging profile (default from config: oneplus)")
	cmd.Flags().StringP("reference", "r", "", "reference file: brand ASINs in column 1, competitor brands in column 2")
	cmd.Flags().StringP("out", "o", "", "output directory (default: next to each input)")
	cmd.Flags().String("sheet", "", "name of the sheet written to the output")

	return cmd
}

func runTag(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	profile, err := cfg.Profile(stringFlag(cmd, "profile", cfg.Tag.Profile))
	if err != nil {
		return common.NewUserError("Unknown tagging profile", err)
	}
	outDir := stringFlag(cmd, "out", cfg.Tag.OutDir)
	if err := ensureDir(outDir); err != nil {
		return err
	}
	sheetName := stringFlag(cmd, "sheet", cfg.Tag.Sheet)
	reference, _ := cmd.Flags().GetString("reference")

	brandASINs, competitors, warnings := loadReference(reference)
	clf, err := keyword.New(profile, brandASINs, competitors)
	if err != nil {
		return common.NewUserError("Profile "+profile.Name+" cannot be used", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Tagging %d file(s) with profile %s", len(args), profile.Name)))
	if reference != "" {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Reference: %d brand ASINs, %d competitor brands",
			brandASINs.Len(), competitors.Len())))
	}

	job := func(ctx context.Context, path string, started time.Time) (*model.Run, error) {
		t, err := sheet.ReadTable(path)
		if err != nil {
			return nil, err
		}
		profile.Bind(t)

		out, err := batch.Run(ctx, t, clf, batchOptions(clf.Required(), t.Len(), "Tagging "+t.Name, warnings))
		if out == nil {
			return nil, err
		}
		run := model.NewRun(model.RunKindTag, profile.Name, path, started, out.Summary)
		if err != nil {
			return run, err
		}

		dst := sheet.TaggedPath(outDir, path)
		if err := sheet.WriteTagged(path, dst, sheetName, taggedTable(t.Name, profile, cfg.Tag.Label, out.Rows)); err != nil {
			return run, err
		}
		run.Output = dst

		fmt.Fprintln(w, cli.RenderSummary(filepath.Base(path), out.Summary))
		fmt.Fprintln(w, cli.FormatSuccess("Wrote "+dst))
		return run, nil
	}

	return processFiles(cmd.Context(), w, "Tagging", model.RunKindTag, profile.Name, args, job)
}

// loadReference builds the brand ASIN and competitor sets from the first two
// columns of a reference file. An unreadable file yields empty sets and a
// warning so tagging can still proceed.
func loadReference(path string) (*refset.Set, *refset.Set, []string) {
	if path == "" {
		return refset.Empty(normalize.Compacted), refset.Empty(normalize.Compacted), nil
	}
	cols, err := sheet.ReadReferenceColumns(path, 2)
	if err != nil {
		slog.Warn("Failed to read reference file, continuing with empty reference sets",
			"file", path, "error", err)
		warning := fmt.Sprintf("reference file %s unreadable, brand ASINs and competitors are empty: %v",
			filepath.Base(path), err)
		return refset.Empty(normalize.Compacted), refset.Empty(normalize.Compacted), []string{warning}
	}
	slog.Debug("Loaded reference file", "file", path, "asins", len(cols[0]), "competitors", len(cols[1]))
	return refset.New(cols[0], normalize.Compacted), refset.New(cols[1], normalize.Compacted), nil
}

// taggedTable holds the columns written to the tagged sheet: normalized
// query, campaign type when the profile has one, and the label.
func taggedTable(name string, p keyword.Profile, labelColumn string, rows []model.LabeledRow) *model.Table {
	columns := []string{p.QueryColumn}
	if p.CampaignColumn != "" {
		columns = append(columns, p.CampaignColumn)
	}
	columns = append(columns, labelColumn)

	records := make([][]any, 0, len(rows))
	for _, lr := range rows {
		rec := []any{lr.Result.Flags[keyword.FlagNormalized]}
		if p.CampaignColumn != "" {
			rec = append(rec, lr.Result.Flags[keyword.FlagCampaign])
		}
		rec = append(rec, lr.Result.Primary.String())
		records = append(records, rec)
	}
	return model.NewTable(name, columns, records)
}
