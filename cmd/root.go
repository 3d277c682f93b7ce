package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"metascrub/internal/config"
	"metascrub/internal/processor"
)

var (
	configPath string
	logFile    string
	noTUI      bool
)

var rootCmd = &cobra.Command{
	Use:   "metascrub",
	Short: "metascrub - strip identifying metadata from photos, documents and videos",
	Long: `metascrub writes cleaned copies of images, PDFs, Office documents and videos
with author names, GPS positions, device details and similar metadata removed.
Originals are never modified; every attempt is recorded in an append-only log.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/metascrub/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append log entries to this file instead of the configured one")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "print plain output instead of the live progress view")
}

// loadConfig reads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logFile != "" {
		cfg.Logging.Path = logFile
	}
	if noTUI {
		cfg.TUI.Enabled = false
	}
	return cfg, nil
}

func processorOptions(cfg *config.Config) processor.Options {
	return processor.Options{
		JPEGQuality:  cfg.Image.JPEGQuality,
		Lossless:     cfg.Image.Lossless,
		PreserveICC:  cfg.Image.PreserveICC,
		FFmpegPath:   cfg.Video.FFmpegPath,
		FFprobePath:  cfg.Video.FFprobePath,
		VideoTimeout: cfg.Video.Timeout,
	}
}
