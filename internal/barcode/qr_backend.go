//go:build !barcode_noqr

package barcode

import (
	"context"
	"fmt"
	"image"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// qrType is the tag attached to every match of the secondary backend.
const qrType = "QRCODE"

// NewQR returns the secondary QR backend. It binarizes with a global
// histogram instead of the primary's local thresholds, so it reads some
// evenly lit symbols the primary misses.
func NewQR(opts Options) (Backend, error) {
	return &qrBackend{opts: opts}, nil
}

type qrBackend struct {
	opts Options
}

func (b *qrBackend) Name() string { return NameQR }

func (b *qrBackend) Decode(_ context.Context, img image.Image) ([]Match, error) {
	source := gozxing.NewLuminanceSourceFromImage(img)
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewGlobalHistgramBinarizer(source))
	if err != nil {
		return nil, fmt.Errorf("qr bitmap: %w", err)
	}

	hints := make(map[gozxing.DecodeHintType]interface{})
	if b.opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	r, err := decodeWith(qrcode.NewQRCodeReader(), bitmap, hints)
	if err != nil {
		if readerMiss(err) {
			return nil, nil
		}
		return nil, err
	}
	return qrMatches([]*gozxing.Result{r}), nil
}

// qrMatches converts reader results, dropping symbols that decoded to no text.
func qrMatches(results []*gozxing.Result) []Match {
	out := make([]Match, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		text := r.GetText()
		if text == "" && len(r.GetRawBytes()) > 0 {
			text = DecodeText(r.GetRawBytes())
		}
		if text == "" {
			continue
		}
		out = append(out, Match{Type: qrType, Data: normalizeText(text)})
	}
	return out
}
