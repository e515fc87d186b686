package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/llm-pipeline/internal/model"
)

// Bar renders a terminal progress bar that advances once per result.
type Bar struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

// NewBar creates a bar writing to w, or stderr when w is nil.
func NewBar(w io.Writer) *Bar {
	if w == nil {
		w = os.Stderr
	}
	return &Bar{writer: w}
}

// Start sizes the bar for total records.
func (b *Bar) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Processing records...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(b.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}

// Observe advances the bar for result.
func (b *Bar) Observe(result model.ProcessingResult) {
	if b.bar == nil {
		return
	}

	status := "[green]OK[reset]"
	if !result.Success {
		status = "[red]ERR[reset]"
	}
	b.bar.Describe(fmt.Sprintf("[cyan][bold]Processing records...[reset] %s %v", status, result.RecordID))

	if err := b.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar.
func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	if err := b.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
