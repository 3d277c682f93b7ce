package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// Overwrite policies applied when a moved output collides with an existing
// file at the destination.
const (
	OverwriteWarn   = "warn"
	OverwriteSkip   = "skip"
	OverwriteAlways = "overwrite"
)

// Defaults.
const (
	DefaultJPEGQuality  = 95
	DefaultFFmpegPath   = "ffmpeg"
	DefaultFFprobePath  = "ffprobe"
	DefaultVideoTimeout = 10 * time.Minute
)

// ImageConfig configures the raster image handler.
type ImageConfig struct {
	JPEGQuality int  `mapstructure:"jpeg_quality"`
	Lossless    bool `mapstructure:"lossless"`
	PreserveICC bool `mapstructure:"preserve_icc"`
}

// VideoConfig configures the external transcoder.
type VideoConfig struct {
	FFmpegPath  string        `mapstructure:"ffmpeg_path"`
	FFprobePath string        `mapstructure:"ffprobe_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Config represents the application configuration.
type Config struct {
	Logging struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"logging"`
	Image     ImageConfig `mapstructure:"image"`
	Video     VideoConfig `mapstructure:"video"`
	Placement struct {
		Overwrite string `mapstructure:"overwrite"`
	} `mapstructure:"placement"`
	TUI struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"tui"`
}

// Dir returns the directory searched for config.yaml.
func Dir() string {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "metascrub")
	}
	return filepath.Join(xdg.ConfigHome, "metascrub")
}

// Load reads configuration from file and environment.
// When path is empty, config.yaml is looked up in Dir(); a missing file is
// not an error. Environment variables are prefixed with METASCRUB_
// (e.g. METASCRUB_VIDEO_TIMEOUT=30s).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	v.SetEnvPrefix("METASCRUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.path", "") // empty means logging.DefaultPath
	v.SetDefault("image.jpeg_quality", DefaultJPEGQuality)
	v.SetDefault("image.lossless", false)
	v.SetDefault("image.preserve_icc", false)
	v.SetDefault("video.ffmpeg_path", DefaultFFmpegPath)
	v.SetDefault("video.ffprobe_path", DefaultFFprobePath)
	v.SetDefault("video.timeout", DefaultVideoTimeout)
	v.SetDefault("placement.overwrite", OverwriteWarn)
	v.SetDefault("tui.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("image.jpeg_quality must be between 1 and 100, got %d", c.Image.JPEGQuality)
	}
	if c.Video.Timeout < 0 {
		return fmt.Errorf("video.timeout must not be negative, got %s", c.Video.Timeout)
	}
	if strings.TrimSpace(c.Video.FFmpegPath) == "" {
		return errors.New("video.ffmpeg_path must not be empty")
	}
	switch c.Placement.Overwrite {
	case OverwriteWarn, OverwriteSkip, OverwriteAlways:
	default:
		return fmt.Errorf("placement.overwrite must be one of %q, %q, %q; got %q",
			OverwriteWarn, OverwriteSkip, OverwriteAlways, c.Placement.Overwrite)
	}
	return nil
}
