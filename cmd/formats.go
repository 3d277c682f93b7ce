package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"metascrub/internal/tui"
	"metascrub/pkg/filekind"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the file types that can be cleaned",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var rows []tui.SummaryRow
		for _, entry := range filekind.Supported() {
			rows = append(rows, tui.SummaryRow{
				Label: entry.Kind.String(),
				Value: strings.Join(entry.Extensions, " "),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.RenderSummary(rows))
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
