package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/config"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
	"github.com/MeKo-Tech/codescan/internal/version"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "codescan",
	Short: "Find and decode QR codes and barcodes in images",
	Long: `codescan locates and decodes QR codes and barcodes in images. When a first
decode attempt fails it retries over four rotations and a fixed series of
preprocessing transforms (grayscale, upscaling, contrast, sharpening,
thresholding, inversion) and reports which combination succeeded.

Examples:
  codescan scan ticket.jpg
  codescan decode event.json
  codescan batch photos/ --recursive --format csv
  codescan serve --port 8080`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is search in ., $HOME, $HOME/.config/codescan, /etc/codescan)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("primary", true, "enable the primary multi-format decoder")
	pf.Bool("secondary", true, "enable the secondary QR decoder")
	pf.Bool("try-harder", true, "let decoders spend more time per image")
	pf.Int64("max-pixels", codec.DefaultMaxPixels, "largest image (width*height) decoded or produced by upscaling")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("backends.primary", pf.Lookup("primary"))
	_ = viper.BindPFlag("backends.secondary", pf.Lookup("secondary"))
	_ = viper.BindPFlag("backends.try_harder", pf.Lookup("try-harder"))
	_ = viper.BindPFlag("search.max_pixels", pf.Lookup("max-pixels"))
}

// GetConfig loads the configuration once flags are parsed. Flag values bound
// into viper take precedence over files and the environment.
func GetConfig() (*config.Config, error) {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch strings.ToLower(cfg.LogLevel) {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	// Logs go to stderr so command output stays machine readable.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// buildPipeline probes the configured backends.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	p, err := pipeline.NewBuilder().WithConfig(cfg.Pipeline()).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build decode pipeline: %w", err)
	}
	return p, nil
}
