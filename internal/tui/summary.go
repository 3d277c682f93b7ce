package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"metascrub/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows lays out the totals of a finished run.
func SummaryRows(s processor.Summary, elapsed time.Duration) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Files", Value: humanize.Comma(int64(s.Total))},
		{Label: "Cleaned", Value: humanize.Comma(int64(s.Cleaned))},
		{Label: "Failed", Value: humanize.Comma(int64(s.Errors))},
		{Label: "Unsupported", Value: humanize.Comma(int64(s.Unsupported))},
		{Label: "Metadata removed", Value: humanize.Comma(int64(s.Leaks))},
		{Label: "Size change", Value: signedBytes(s.BytesSaved)},
		{Label: "Elapsed", Value: elapsed.Round(time.Millisecond).String()},
	}
	if s.Processed < s.Total {
		rows = append(rows, SummaryRow{Label: "Not attempted", Value: humanize.Comma(int64(s.Total - s.Processed))})
	}
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
