package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/codescan/internal/testutil"
)

const fixtureContent = "https://example.com/codescan/fixture"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		generateImages = flag.Bool("images", true, "Generate QR code images")
		generateEvents = flag.Bool("events", true, "Generate request payload fixtures")
		content        = flag.String("content", fixtureContent, "Text encoded in the QR codes")
		size           = flag.Int("size", testutil.DefaultQRSize, "QR code edge length in pixels")
		help           = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate QR code images and request payloads under testdata/.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root, err := testutil.GetProjectRoot()
	if err != nil {
		slog.Error("Failed to find project root", "error", err)
		os.Exit(1)
	}

	qr, err := testutil.RenderQR(*content, *size)
	if err != nil {
		slog.Error("Failed to render QR code", "error", err)
		os.Exit(1)
	}

	if *generateImages {
		if err := writeImages(filepath.Join(root, "testdata", "images"), qr); err != nil {
			slog.Error("Failed to generate images", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated QR code images")
	}

	if *generateEvents {
		if err := writeEvents(filepath.Join(root, "testdata", "events"), qr); err != nil {
			slog.Error("Failed to generate events", "error", err)
			os.Exit(1)
		}
		slog.Info("Generated request payloads")
	}
}

// writeImages stores the QR code at every search angle plus images that
// exercise the preprocessing transforms.
func writeImages(dir string, qr *image.Gray) error {
	if err := testutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create images directory: %w", err)
	}

	images := map[string]image.Image{
		"qr_low_contrast.png": testutil.LowContrast(qr, 100, 150),
		"blank.png":           testutil.Blank(qr.Bounds().Dx(), qr.Bounds().Dy(), color.White),
	}
	for _, angle := range []int{0, 90, 180, 270} {
		images[fmt.Sprintf("qr_rot%d.png", angle)] = testutil.RotateCCW(qr, angle)
	}

	for name, img := range images {
		data, err := encodePNG(img)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

// writeEvents stores one request payload per accepted shape.
func writeEvents(dir string, qr *image.Gray) error {
	if err := testutil.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create events directory: %w", err)
	}

	data, err := encodePNG(qr)
	if err != nil {
		return err
	}
	b64 := base64.StdEncoding.EncodeToString(data)

	inner, err := json.Marshal(map[string]string{"image": b64})
	if err != nil {
		return err
	}
	outer, err := json.Marshal(map[string]string{"body": string(inner)})
	if err != nil {
		return err
	}

	events := map[string]any{
		"proxy_base64.json":   map[string]any{"isBase64Encoded": true, "body": b64},
		"json_body.json":      map[string]any{"body": string(inner)},
		"double_wrapped.json": map[string]any{"body": string(outer)},
		"flat.json":           map[string]any{"image": b64},
		"data_uri.json":       map[string]any{"img": "data:image/png;base64," + b64},
	}
	for name, ev := range events {
		out, err := json.MarshalIndent(ev, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), out, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
