package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/kwtag/internal/insight"
	"github.com/Veraticus/kwtag/internal/model"
	"github.com/Veraticus/kwtag/internal/packform"
)

const maxListedFailures = 5

// RenderSummary renders the outcome of one batch run.
func RenderSummary(title string, s *model.Summary) string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d  Classified: %s  Failed: %s  Time: %s\n",
		s.Total,
		SuccessStyle.Render(fmt.Sprint(s.Succeeded)),
		failedText(s.Failed()),
		s.Duration.Round(time.Millisecond))

	if len(s.Counts) > 0 {
		rows := make([][]string, 0, len(s.Counts))
		for _, cc := range s.SortedCounts() {
			rows = append(rows, []string{cc.Category.String(), fmt.Sprint(cc.Count), percent(cc.Count, s.Succeeded)})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Category", "Rows", "Share"}, rows))
	}

	for i, f := range s.Failures {
		if i == maxListedFailures {
			fmt.Fprintf(&b, "\n%s", SubtleStyle.Render(fmt.Sprintf("... and %d more", len(s.Failures)-i)))
			break
		}
		fmt.Fprintf(&b, "\n%s", FormatError(fmt.Sprintf("row %d: %s", f.Index+1, f.Reason)))
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&b, "\n%s", FormatWarning(w))
	}

	return RenderBox(ChartIcon+" "+title, strings.TrimRight(b.String(), "\n"))
}

// RenderPackFormReport renders the pack-form distribution and fill
// statistics.
func RenderPackFormReport(r packform.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %d  Standardized: %d  Originally empty: %d  Filled: %d (%.1f%%)  Unmatched: %d\n",
		r.TotalRows, r.StandardizationApplied, r.OriginallyEmpty,
		r.SuccessfullyFilled, r.FillRate()*100, r.Unmatched)

	if len(r.Distribution) > 0 {
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Pack form", "Rows", "Share"}, countRows(r.Distribution, r.TotalRows)))
	}

	if len(r.Examples) > 0 {
		rows := make([][]string, 0, len(r.Examples))
		for _, ex := range r.Examples {
			rows = append(rows, []string{fmt.Sprint(ex.Row), ex.Original, ex.PackForm.String(), ex.Product})
		}
		b.WriteString("\n\n")
		b.WriteString(SubtleStyle.Render("Standardization examples"))
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Row", "Original", "Pack form", "Product"}, rows))
	}

	return RenderBox(ChartIcon+" Pack form report", strings.TrimRight(b.String(), "\n"))
}

// RenderInsightTotals renders branded versus non-branded counts and the
// top brands by search volume. limit caps the brand listing; zero lists all.
func RenderInsightTotals(t insight.Totals, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Branded: %d  Non-branded: %d  Total volume: %s\n",
		t.Branded, t.NonBranded, formatVolume(t.TotalVolume))

	brands := t.Brands
	if limit > 0 && len(brands) > limit {
		brands = brands[:limit]
	}
	if len(brands) > 0 {
		rows := make([][]string, 0, len(brands))
		for _, bv := range brands {
			rows = append(rows, []string{bv.Brand, formatVolume(bv.Volume), fmt.Sprint(bv.Terms), share(bv.Volume, t.TotalVolume)})
		}
		b.WriteString("\n")
		b.WriteString(RenderTable([]string{"Brand", "Volume", "Terms", "Share"}, rows))
	}

	return RenderBox(ChartIcon+" Search insight", strings.TrimRight(b.String(), "\n"))
}

// RenderHistory renders stored runs, newest first.
func RenderHistory(runs []*model.Run) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No runs recorded.")
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := SuccessStyle.Render("ok")
		if r.Error != "" {
			status = ErrorStyle.Render("error")
		} else if r.Failed > 0 {
			status = WarningStyle.Render(fmt.Sprintf("%d failed", r.Failed))
		}
		rows = append(rows, []string{
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.Kind,
			r.Profile,
			r.Source,
			fmt.Sprint(r.Total),
			status,
		})
	}
	return RenderTable([]string{"ID", "Started", "Kind", "Profile", "Source", "Rows", "Status"}, rows)
}

// RenderTotals renders category totals across stored runs.
func RenderTotals(totals map[model.Category]int) string {
	if len(totals) == 0 {
		return SubtleStyle.Render("No runs recorded.")
	}
	sum := 0
	for _, n := range totals {
		sum += n
	}
	return RenderTable([]string{"Category", "Rows", "Share"}, countRows(totals, sum))
}

// RenderTable lays out rows under headers in left-aligned columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = TableCellStyle.Width(widths[i] + 2).Render(h)
	}
	lines = append(lines, TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cells...)))

	for _, row := range rows {
		cells := make([]string, len(headers))
		for i := range headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			cells[i] = TableCellStyle.Width(widths[i] + 2).Render(v)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}

func countRows(counts map[model.Category]int, total int) [][]string {
	s := model.Summary{Counts: counts}
	sorted := s.SortedCounts()
	rows := make([][]string, 0, len(sorted))
	for _, cc := range sorted {
		rows = append(rows, []string{cc.Category.String(), fmt.Sprint(cc.Count), percent(cc.Count, total)})
	}
	return rows
}

func failedText(n int) string {
	if n == 0 {
		return SubtleStyle.Render("0")
	}
	return ErrorStyle.Render(fmt.Sprint(n))
}

func percent(n, total int) string {
	return share(float64(n), float64(total))
}

func share(v, total float64) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", v/total*100)
}

// formatVolume prints whole volumes without decimals and groups thousands.
func formatVolume(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	if v != float64(int64(v)) {
		s = fmt.Sprintf("%.2f", v)
	}
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	if frac != "" {
		out += "." + frac
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
