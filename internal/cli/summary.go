package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/llm-pipeline/internal/model"
	"github.com/Veraticus/llm-pipeline/internal/progress"
)

// maxListedFailures caps the failures shown under a summary.
const maxListedFailures = 10

// RenderSummary formats run totals in a box.
func RenderSummary(stats progress.Stats, interrupted bool) string {
	lines := []string{
		FormatField("Total records", fmt.Sprintf("%d", stats.Total)),
		FormatField("Processed", fmt.Sprintf("%d", stats.Processed)),
		FormatField("Succeeded", SuccessStyle.Render(fmt.Sprintf("%d", stats.Succeeded))),
		FormatField("Failed", failedStyle(stats.Failed).Render(fmt.Sprintf("%d", stats.Failed))),
		FormatField("Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate())),
		FormatField("Tokens used", fmt.Sprintf("%d", stats.Tokens)),
		FormatField("Estimated cost", fmt.Sprintf("$%.4f", stats.Cost)),
		FormatField("Duration", stats.Elapsed.Round(time.Second).String()),
	}

	title := ChartIcon + " Pipeline Summary"
	if interrupted {
		lines = append(lines, "", FormatWarning("Stopped early on request"))
	}

	return RenderBox(title, strings.Join(lines, "\n"))
}

// RenderFailures lists failed results, up to a fixed number.
func RenderFailures(results []model.ProcessingResult) string {
	var sb strings.Builder
	shown := 0
	for _, r := range results {
		if r.Success {
			continue
		}
		if shown == maxListedFailures {
			sb.WriteString(SubtleStyle.Render("  ...") + "\n")
			break
		}
		sb.WriteString(FormatError(fmt.Sprintf("record %v: %s", r.RecordID, r.ErrorMessage())) + "\n")
		shown++
	}
	return sb.String()
}

func failedStyle(failed int) lipgloss.Style {
	if failed > 0 {
		return ErrorStyle
	}
	return SubtleStyle
}
