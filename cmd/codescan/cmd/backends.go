package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/search"
	"github.com/MeKo-Tech/codescan/internal/transform"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show which decoders are available",
	Long: `Backends probes the configured decoders and prints whether each one could
be brought up, followed by the search order used for every image.`,
	Args: cobra.NoArgs,
	RunE: runBackends,
}

func init() {
	rootCmd.AddCommand(backendsCmd)
	backendsCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
}

type backendsReport struct {
	Backends   []barcode.Status `json:"backends"`
	Angles     []int            `json:"angles"`
	Transforms []string         `json:"transforms"`
}

func runBackends(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	avail := barcode.Probe(cfg.Pipeline().Backends)
	report := backendsReport{
		Backends:   avail.Statuses(),
		Angles:     search.Angles,
		Transforms: transform.Names(),
	}

	out := cmd.OutOrStdout()
	switch format {
	case outputFormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case outputFormatText:
		for _, s := range report.Backends {
			state := "available"
			if !s.Available {
				state = "unavailable"
				if s.Reason != "" {
					state += ": " + s.Reason
				}
			}
			_, _ = fmt.Fprintf(out, "%-10s %-10s %s\n", s.Role, s.Name, state)
		}
		_, _ = fmt.Fprintf(out, "angles: %v\n", report.Angles)
		_, _ = fmt.Fprintf(out, "transforms: %s\n", strings.Join(report.Transforms, ", "))
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
