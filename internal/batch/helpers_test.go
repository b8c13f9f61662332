package batch

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/response"
	"github.com/MeKo-Tech/codescan/internal/search"
	"github.com/MeKo-Tech/codescan/internal/testutil"
)

// widthDecoder reports a match for images exactly foundWidth pixels wide.
type widthDecoder struct {
	foundWidth int
}

func (d widthDecoder) ProcessImage(ctx context.Context, img image.Image) (response.Envelope, search.Outcome) {
	if err := ctx.Err(); err != nil {
		return response.Envelope{}, search.Outcome{Err: err}
	}
	if img.Bounds().Dx() != d.foundWidth {
		return response.NoMatch(), search.Outcome{Attempts: 36}
	}
	matches := []barcode.Match{{Type: "QRCODE", Data: "batch"}}
	out := search.Outcome{Found: true, Attempt: search.Attempt{Angle: 90, Transform: "gray"}, Matches: matches, Attempts: 11}
	return response.FromOutcome(out), out
}

func writePNG(t *testing.T, dir, name string, width int) string {
	t.Helper()
	return testutil.WriteFile(t, dir, name, testutil.EncodePNG(t, testutil.Blank(width, 10, color.White)))
}
