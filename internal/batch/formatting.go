package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format renders the items as text, json, csv or yaml.
func (r *Result) Format(format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(r)
	case "csv":
		return formatCSV(r.Items)
	case "yaml":
		return formatYAML(r)
	case "", "text":
		return formatText(r.Items), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

type document struct {
	Items []Item `json:"items" yaml:"items"`
	Stats Stats  `json:"stats" yaml:"stats"`
}

func formatJSON(r *Result) (string, error) {
	bts, err := json.MarshalIndent(document{Items: r.Items, Stats: r.Stats()}, "", "  ")
	return string(bts), err
}

func formatYAML(r *Result) (string, error) {
	bts, err := yaml.Marshal(document{Items: r.Items, Stats: r.Stats()})
	return string(bts), err
}

func formatCSV(items []Item) (string, error) {
	var out strings.Builder
	w := csv.NewWriter(&out)
	if err := w.Write([]string{"file", "page", "index", "found", "transform", "attempts", "type", "data", "error"}); err != nil {
		return "", err
	}
	for _, it := range items {
		base := []string{it.File, strconv.Itoa(it.Page), strconv.Itoa(it.Index), strconv.FormatBool(it.Found), it.Transform, strconv.Itoa(it.Attempts)}
		if len(it.Results) == 0 {
			if err := w.Write(append(base, "", "", it.Error)); err != nil {
				return "", err
			}
			continue
		}
		for _, m := range it.Results {
			if err := w.Write(append(append([]string(nil), base...), m.Type, m.Data, it.Error)); err != nil {
				return "", err
			}
		}
	}
	w.Flush()
	return out.String(), w.Error()
}

func formatText(items []Item) string {
	var out strings.Builder
	for i, it := range items {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString("# " + it.File)
		if it.Page > 0 {
			fmt.Fprintf(&out, " (page %d, image %d)", it.Page, it.Index+1)
		}
		out.WriteString("\n")
		switch {
		case it.Failed():
			fmt.Fprintf(&out, "  error: %s\n", it.Error)
		case !it.Found:
			fmt.Fprintf(&out, "  not found after %d attempts\n", it.Attempts)
		default:
			fmt.Fprintf(&out, "  found with %s\n", it.Transform)
			for j, m := range it.Results {
				fmt.Fprintf(&out, "  #%d %s: %s\n", j+1, m.Type, m.Data)
			}
		}
	}
	return out.String()
}

// Save writes the formatted result to outputFile, or to w when empty.
func (r *Result) Save(w io.Writer, format, outputFile string, quiet bool) error {
	output, err := r.Format(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile == "" {
		_, err := fmt.Fprint(w, output)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if !quiet {
		_, _ = fmt.Fprintf(w, "Results written to %s\n", outputFile)
	}
	return nil
}

// Stats summarizes a batch run.
type Stats struct {
	Files    int           `json:"files" yaml:"files"`
	Images   int           `json:"images" yaml:"images"`
	Found    int           `json:"found" yaml:"found"`
	NotFound int           `json:"not_found" yaml:"not_found"`
	Failed   int           `json:"failed" yaml:"failed"`
	Workers  int           `json:"workers" yaml:"workers"`
	Duration time.Duration `json:"duration_ns" yaml:"duration"`
}

// Stats counts the items by outcome.
func (r *Result) Stats() Stats {
	s := Stats{Files: len(r.Files), Workers: r.Workers, Duration: r.Duration}
	for _, it := range r.Items {
		switch {
		case it.Failed():
			s.Failed++
			continue
		case it.Found:
			s.Found++
		default:
			s.NotFound++
		}
		s.Images++
	}
	return s
}

// PrintStats prints processing statistics.
func (r *Result) PrintStats(w io.Writer) {
	s := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Files: %d\n", s.Files)
	_, _ = fmt.Fprintf(w, "  Images searched: %d\n", s.Images)
	_, _ = fmt.Fprintf(w, "  Found: %d\n", s.Found)
	_, _ = fmt.Fprintf(w, "  Not found: %d\n", s.NotFound)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", s.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", s.Duration.Round(time.Millisecond))
}
