//go:build !barcode_nogozxing

package barcode

import (
	"context"
	"fmt"
	"image"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/aztec"
	"github.com/makiuchi-d/gozxing/datamatrix"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/oned/rss"
)

// NewGozxing returns the primary multi-format backend.
func NewGozxing(opts Options) (Backend, error) {
	return &gozxingBackend{opts: opts}, nil
}

type gozxingBackend struct {
	opts Options
}

func (b *gozxingBackend) Name() string { return NameGozxing }

// singleReaders lists the non-QR readers in the order they are tried.
// Readers hold per-call state, so a fresh set is built for every decode.
func singleReaders(hints map[gozxing.DecodeHintType]interface{}) []gozxing.Reader {
	return []gozxing.Reader{
		datamatrix.NewDataMatrixReader(),
		aztec.NewAztecReader(),
		oned.NewMultiFormatUPCEANReader(hints),
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		oned.NewCode93Reader(),
		oned.NewITFReader(),
		oned.NewCodaBarReader(),
		rss.NewRSS14Reader(),
	}
}

func (b *gozxingBackend) Decode(ctx context.Context, img image.Image) ([]Match, error) {
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("gozxing bitmap: %w", err)
	}

	hints := make(map[gozxing.DecodeHintType]interface{})
	if b.opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	var out []Match
	seen := make(map[Match]struct{})
	add := func(r *gozxing.Result) {
		if r == nil || r.GetText() == "" {
			return
		}
		m := Match{
			Type: r.GetBarcodeFormat().String(),
			Data: normalizeText(r.GetText()),
		}
		if _, dup := seen[m]; dup {
			return
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}

	qrs, err := decodeQRMultiple(bitmap, hints)
	if err != nil && !readerMiss(err) {
		return nil, err
	}
	for _, r := range qrs {
		add(r)
	}

	for _, reader := range singleReaders(hints) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := decodeWith(reader, bitmap, hints)
		if err != nil {
			if readerMiss(err) {
				continue
			}
			return nil, err
		}
		add(r)
	}
	return out, nil
}

func decodeQRMultiple(bitmap *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) (results []*gozxing.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("qr multi reader panic: %v", r)
		}
	}()
	return multiqr.NewQRCodeMultiReader().DecodeMultiple(bitmap, hints)
}
