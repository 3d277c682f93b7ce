package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"metascrub/internal/placement"
	"metascrub/internal/processor"
	"metascrub/internal/tui"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Report privacy metadata without modifying files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		files, err := placement.Collect(args, "")
		if err != nil {
			return err
		}

		proc := processor.New(nil, processorOptions(cfg))
		w := cmd.OutOrStdout()
		for i, path := range files {
			if i > 0 {
				fmt.Fprintln(w)
			}
			report, err := proc.Inspect(path)
			printReport(w, path, report, err)
		}
		return nil
	},
}

func printReport(w io.Writer, path string, report processor.ScanReport, err error) {
	fmt.Fprintf(w, "%s %s\n", scanFileStyle.Render(path), scanDimStyle.Render("("+report.Kind.String()+")"))
	if err != nil {
		fmt.Fprintf(w, "  %s %s\n", scanBulletStyle.Render("-"), scanDimStyle.Render(err.Error()))
		return
	}
	if len(report.Details) == 0 {
		fmt.Fprintf(w, "  %s %s\n", scanBulletStyle.Render("-"), scanDimStyle.Render("none"))
		return
	}
	for _, detail := range report.Details {
		if len(detail.Values) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", scanCategoryStyle.Render(detail.Category+":"))
		for _, value := range detail.Values {
			fmt.Fprintf(w, "    %s %s\n", scanBulletStyle.Render("-"), scanValueStyle.Render(value))
		}
	}
	for _, insight := range report.Insights {
		fmt.Fprintf(w, "  %s %s\n", scanInsightStyle.Render(insight.Kind+":"), scanValueStyle.Render(insight.Message))
	}
}

var (
	scanFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	scanValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	scanDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanInsightStyle  = lipgloss.NewStyle().Foreground(tui.ColorWarn)
)

func init() {
	rootCmd.AddCommand(scanCmd)
}
