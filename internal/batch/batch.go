// Package batch scans many image and PDF files in parallel.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrNoFiles is returned when discovery finds nothing to scan.
var ErrNoFiles = errors.New("no image files found")

// Result holds the result of a batch run.
type Result struct {
	Items    []Item
	Files    []string
	Duration time.Duration
	Workers  int
}

// Run discovers files under paths and scans them with up to cfg.Workers
// goroutines. Items are returned in discovery order. Unless
// cfg.ContinueOnError is set the first file error aborts the run.
func Run(ctx context.Context, dec Decoder, paths []string, cfg Config) (*Result, error) {
	files, err := DiscoverFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	start := time.Now()
	perFile := make([][]Item, len(files))
	progress := newSyncProgress(cfg.Progress, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			items, err := ScanFile(gctx, dec, path, cfg.PageRange)
			if err == nil {
				perFile[i] = items
				progress.fileDone(path, nil)
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			slog.Warn("failed to scan file", "file", path, "error", err)
			progress.fileDone(path, err)
			if !cfg.ContinueOnError {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			perFile[i] = []Item{{File: path, Error: err.Error()}}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Files: files, Duration: time.Since(start), Workers: workers}
	progress.finish(res.Duration)
	for _, items := range perFile {
		res.Items = append(res.Items, items...)
	}
	return res, nil
}
