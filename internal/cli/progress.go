package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/kwtag/internal/batch"
)

// NewProgress returns a batch progress callback that drives a terminal
// progress bar of total rows. The bar only moves forward, so callbacks
// that skip rows advance it by the gap.
func NewProgress(w io.Writer, total int, description string) batch.ProgressFunc {
	if w == nil {
		w = os.Stderr
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)

	shown := 0
	return func(done, _ int) {
		if done <= shown {
			return
		}
		if err := bar.Add(done - shown); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
		shown = done
	}
}

// NewProgressLogger returns a batch progress callback that logs instead of
// drawing, for non-interactive output.
func NewProgressLogger(logger *slog.Logger, source string) batch.ProgressFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(done, total int) {
		logger.Info("Progress", "source", source, "done", done, "total", total)
	}
}
