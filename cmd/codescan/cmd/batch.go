package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/codescan/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Scan many images in parallel",
	Long: `Batch discovers images and PDFs in the given files and directories and scans
them concurrently. Results can be written as text, JSON, CSV or YAML.

Examples:
  codescan batch scans/
  codescan batch scans/ --recursive --workers 8
  codescan batch scans/ --include "*.jpg" --exclude "*_thumb*"
  codescan batch scans/ --format csv --output results.csv --stats`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	f := batchCmd.Flags()
	f.IntP("workers", "w", 0, "number of parallel workers (default from config)")
	f.BoolP("recursive", "r", false, "process directories recursively")
	f.StringSlice("include", nil, "include file patterns (glob)")
	f.StringSlice("exclude", nil, "exclude file patterns (glob)")
	f.Bool("continue-on-error", true, "keep going when a file fails")
	f.StringP("format", "f", outputFormatText, "output format (text, json, csv, yaml)")
	f.StringP("output", "o", "", "output file (default: stdout)")
	f.String("pages", "", "PDF page range, e.g. 1-3,5")
	f.Bool("stats", false, "print processing statistics")
	f.BoolP("quiet", "q", false, "suppress informational messages")
	f.Bool("progress", false, "show a progress bar on stderr")

	_ = viper.BindPFlag("batch.workers", f.Lookup("workers"))
	_ = viper.BindPFlag("batch.recursive", f.Lookup("recursive"))
	_ = viper.BindPFlag("batch.include", f.Lookup("include"))
	_ = viper.BindPFlag("batch.exclude", f.Lookup("exclude"))
	_ = viper.BindPFlag("batch.continue_on_error", f.Lookup("continue-on-error"))
	_ = viper.BindPFlag("batch.pages", f.Lookup("pages"))
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File, _ = cmd.Flags().GetString("output")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	bc := batch.Config{
		Workers:         cfg.Batch.Workers,
		ContinueOnError: cfg.Batch.ContinueOnError,
		Recursive:       cfg.Batch.Recursive,
		IncludePatterns: cfg.Batch.Include,
		ExcludePatterns: cfg.Batch.Exclude,
		PageRange:       cfg.Batch.PageRange,
		Format:          cfg.Output.Format,
		OutputFile:      cfg.Output.File,
	}
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")
	bc.ShowStats, _ = cmd.Flags().GetBool("stats")
	if showProgress, _ := cmd.Flags().GetBool("progress"); showProgress && !bc.Quiet {
		bc.Progress = batch.NewConsoleProgress(cmd.ErrOrStderr(), 40)
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	res, err := batch.Run(cmd.Context(), p, args, bc)
	if err != nil {
		return err
	}
	if !bc.Quiet {
		slog.Info("batch finished", "files", len(res.Files), "images", len(res.Items), "duration", res.Duration)
	}

	out := cmd.OutOrStdout()
	if err := res.Save(out, bc.Format, bc.OutputFile, bc.Quiet); err != nil {
		return err
	}
	if bc.ShowStats {
		res.PrintStats(out)
	}
	return nil
}
