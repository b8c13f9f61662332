package cmd

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/batch"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image files or PDFs...]",
	Short: "Find codes in one or more image files",
	Long: `Scan searches each file for QR codes and barcodes and prints what was found
together with the transform that produced the match. PDFs are scanned per
embedded image.

Examples:
  codescan scan ticket.jpg
  codescan scan receipt.png label.webp --format json
  codescan scan invoice.pdf --pages 1-2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json, csv, yaml)")
	scanCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	scanCmd.Flags().String("pages", "", "PDF page range, e.g. 1-3,5")
}

func runScan(cmd *cobra.Command, args []string) error {
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
	if cmd.Flags().Changed("pages") {
		cfg.Batch.PageRange, _ = cmd.Flags().GetString("pages")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	res := &batch.Result{Workers: 1}
	var failures int
	for _, path := range args {
		items, err := batch.ScanFile(cmd.Context(), p, path, cfg.Batch.PageRange)
		if err != nil {
			slog.Error("scan failed", "file", path, "error", err)
			items = []batch.Item{{File: path, Error: err.Error()}}
			failures++
		}
		res.Files = append(res.Files, path)
		res.Items = append(res.Items, items...)
	}
	res.Duration = time.Since(start)

	if err := res.Save(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.File, false); err != nil {
		return err
	}
	if failures == len(args) {
		return errors.New("no file could be scanned")
	}
	if failures > 0 {
		slog.Warn("some files failed", "failed", failures, "total", len(args))
	}
	return nil
}
