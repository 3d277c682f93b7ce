package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"metascrub/internal/logging"
	"metascrub/internal/placement"
	"metascrub/internal/processor"
	"metascrub/internal/tui"
)

var (
	cleanOutputDir   string
	cleanSaveAs      string
	cleanLossless    bool
	cleanPreserveICC bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [flags] <path>...",
	Short: "Write metadata-free copies of files and folders",
	Long: `Write a cleaned copy of every supported file named on the command line.
Folders are walked recursively. Each cleaned copy is written next to its
original as <name>_clean<ext>, then moved to --output or --save-as if given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cleanSaveAs != "" && cleanOutputDir != "" {
			return errors.New("--save-as cannot be used with --output")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("lossless") {
			cfg.Image.Lossless = cleanLossless
		}
		if cmd.Flags().Changed("preserve-icc") {
			cfg.Image.PreserveICC = cleanPreserveICC
		}

		files, err := placement.Collect(args, cleanOutputDir)
		if err != nil {
			return err
		}
		if cleanSaveAs != "" {
			if len(args) != 1 || len(files) != 1 || files[0] != args[0] {
				return placement.ErrSaveAsNeedsOneFile
			}
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), tui.DimStyle.Render("No files found."))
			return nil
		}

		logger, err := logging.Open(cfg.Logging.Path)
		if err != nil {
			return err
		}
		defer logger.Close()

		proc := processor.New(logger, processorOptions(cfg))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		started := time.Now()
		summary, results := runWithProgress(ctx, stop, proc, files, cfg.TUI.Enabled, cmd.ErrOrStderr())

		final := make(map[string]string, len(results))
		placer := placement.New(logger, cfg.Placement.Overwrite)
		switch {
		case cleanSaveAs != "":
			if len(results) == 1 && results[0].Produced() {
				out := placer.SaveAs(results[0].Output, cleanSaveAs)
				if out.Err != nil {
					return fmt.Errorf("saving %s: %w", cleanSaveAs, out.Err)
				}
				final[out.From] = out.To
			}
		case cleanOutputDir != "":
			var outputs []string
			for _, res := range results {
				if res.Produced() {
					outputs = append(outputs, res.Output)
				}
			}
			for _, out := range placer.MoveInto(outputs, cleanOutputDir) {
				if out.Err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), tui.ErrorStyle.Render(fmt.Sprintf("cannot move %s: %v", out.From, out.Err)))
					continue
				}
				if out.Overwrote {
					fmt.Fprintln(cmd.ErrOrStderr(), tui.WarnStyle.Render("overwrote "+out.To))
				}
				final[out.From] = out.To
			}
		}

		w := cmd.OutOrStdout()
		printResults(w, results, final)
		fmt.Fprintln(w, tui.RenderSummary(tui.SummaryRows(summary, time.Since(started))))
		if summary.MissingTool {
			fmt.Fprintln(w, tui.WarnStyle.Render("Some videos were not cleaned: install ffmpeg or set video.ffmpeg_path."))
		}
		fmt.Fprintln(w, tui.DimStyle.Render("Log: "+logPathForDisplay(logger)))
		return nil
	},
}

// runWithProgress runs the processor while either the live view or a plain
// notice printer drains progress updates.
func runWithProgress(ctx context.Context, cancel func(), proc *processor.Processor, files []string, useTUI bool, errOut io.Writer) (processor.Summary, []processor.Result) {
	updates := make(chan processor.ProgressUpdate, 64)
	uiDone := make(chan struct{})

	if useTUI {
		program := tea.NewProgram(tui.NewModel(updates, cancel))
		go func() {
			if _, err := program.Run(); err != nil {
				// keep draining so the processor never blocks
				for range updates {
				}
			}
			close(uiDone)
		}()
	} else {
		go func() {
			for u := range updates {
				if u.Notice != "" {
					fmt.Fprintln(errOut, tui.WarnStyle.Render("! "+u.Notice))
				}
			}
			close(uiDone)
		}()
	}

	summary, results := proc.Run(ctx, files, updates)
	close(updates)
	<-uiDone
	return summary, results
}

func printResults(w io.Writer, results []processor.Result, final map[string]string) {
	for _, res := range results {
		switch {
		case res.Produced():
			dest := res.Output
			if moved, ok := final[res.Output]; ok {
				dest = moved
			}
			fmt.Fprintf(w, "%s %s -> %s\n", tui.SuccessStyle.Render("✓"), res.Path, dest)
		case res.ErrorKind() == processor.UnsupportedFormat:
			fmt.Fprintf(w, "%s %s %s\n", tui.DimStyle.Render("-"), res.Path, tui.DimStyle.Render("(unsupported)"))
		default:
			fmt.Fprintf(w, "%s %s: %s\n", tui.ErrorStyle.Render("✗"), res.Path, res.Reason())
		}
	}
}

func logPathForDisplay(l *logging.Logger) string {
	if p := l.Path(); p != "" {
		return p
	}
	return logging.DefaultPath()
}

func init() {
	cleanCmd.Flags().StringVarP(&cleanOutputDir, "output", "o", "", "move cleaned copies into this folder")
	cleanCmd.Flags().StringVar(&cleanSaveAs, "save-as", "", "save the cleaned copy of a single file under this name")
	cleanCmd.Flags().BoolVar(&cleanLossless, "lossless", false, "rewrite image containers instead of re-encoding pixels")
	cleanCmd.Flags().BoolVar(&cleanPreserveICC, "preserve-icc", false, "keep ICC colour profiles in lossless image mode")

	rootCmd.AddCommand(cleanCmd)
}
