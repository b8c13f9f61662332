package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/codescan/internal/lambda"
	"github.com/MeKo-Tech/codescan/internal/pipeline"
)

var errNoData = errors.New("no data provided")

var decodeCmd = &cobra.Command{
	Use:   "decode [request file]",
	Short: "Run one request through the invocation handler",
	Long: `Decode reads a request from a file, or from stdin when no file or "-" is
given, and runs it through the same handler the Lambda function uses.

By default the input is treated like an HTTP request body: a JSON object is
forwarded as a JSON body and anything else as a base64 encoded image. With
--event the input must be a complete invocation event such as an API Gateway
proxy request.

Examples:
  base64 -w0 qr.png | codescan decode
  codescan decode request.json --raw
  codescan decode --event testdata/events/proxy_base64.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().Bool("event", false, "treat input as a full invocation event")
	decodeCmd.Flags().Bool("raw", false, "print only the response body")
}

func runDecode(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	data, err := readDecodeInput(cmd, args)
	if err != nil {
		return err
	}

	asEvent, _ := cmd.Flags().GetBool("event")
	event, err := decodeEvent(data, asEvent)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	resp, err := lambda.NewHandler(p).Handle(cmd.Context(), event)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		_, _ = fmt.Fprintln(out, resp.Body)
	} else {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode response: %w", err)
		}
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

func readDecodeInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	return data, nil
}

// decodeEvent builds the invocation event for data.
func decodeEvent(data []byte, asEvent bool) (any, error) {
	if !asEvent {
		event, ok := pipeline.EventFromBody(data)
		if !ok {
			return nil, errNoData
		}
		return event, nil
	}

	var event any
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	if event == nil {
		return nil, errNoData
	}
	return event, nil
}
