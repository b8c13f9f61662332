package testutil

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// DefaultQRSize is the edge length of generated QR fixtures.
const DefaultQRSize = 240

// RenderQR renders content as a QR code with a quiet zone on a white canvas.
func RenderQR(content string, size int) (*image.Gray, error) {
	matrix, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, size, size,
		map[gozxing.EncodeHintType]interface{}{
			gozxing.EncodeHintType_ERROR_CORRECTION: "M",
			gozxing.EncodeHintType_MARGIN:           4,
		})
	if err != nil {
		return nil, err
	}
	return matrixToGray(matrix, 0), nil
}

// matrixToGray copies matrix onto a white canvas with border pixels on every side.
func matrixToGray(matrix *gozxing.BitMatrix, border int) *image.Gray {
	b := matrix.Bounds()
	img := image.NewGray(image.Rect(0, 0, b.Dx()+2*border, b.Dy()+2*border))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, b.Add(image.Pt(border, border)), matrix, b.Min, draw.Src)
	return img
}

// LinearBarcode renders content as a 1D symbol of the given format with a
// white border around it. Only CODE_128 and EAN_13 are supported.
func LinearBarcode(t *testing.T, format gozxing.BarcodeFormat, content string, w, h int) *image.Gray {
	t.Helper()

	var writer gozxing.Writer
	switch format {
	case gozxing.BarcodeFormat_CODE_128:
		writer = oned.NewCode128Writer()
	case gozxing.BarcodeFormat_EAN_13:
		writer = oned.NewEAN13Writer()
	default:
		t.Fatalf("unsupported linear format %v", format)
	}

	matrix, err := writer.Encode(content, format, w, h, nil)
	require.NoError(t, err, "encode %v fixture", format)

	return matrixToGray(matrix, 20)
}

// RotateCCW rotates img counter-clockwise by angle degrees. Right angles are exact.
func RotateCCW(img image.Image, angle int) image.Image {
	switch ((angle % 360) + 360) % 360 {
	case 0:
		return img
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return imaging.Rotate(img, float64(angle), color.White)
	}
}

// QRCode is RenderQR for tests.
func QRCode(t *testing.T, content string, size int) *image.Gray {
	t.Helper()

	img, err := RenderQR(content, size)
	require.NoError(t, err, "encode QR fixture")
	return img
}

// RotatedQRCode renders content and rotates the result counter-clockwise by angle degrees.
func RotatedQRCode(t *testing.T, content string, size, angle int) image.Image {
	t.Helper()

	return RotateCCW(QRCode(t, content, size), angle)
}

// Blank returns a uniform image that contains no symbol.
func Blank(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// LowContrast squeezes every pixel of img into the [lo, hi] gray range.
func LowContrast(img image.Image, lo, hi uint8) *image.NRGBA {
	span := float64(hi) - float64(lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		scale := func(v uint8) uint8 { return lo + uint8(float64(v)/255*span) }
		return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
	})
}

// EncodePNG encodes img as PNG.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// EncodeJPEG encodes img as a high-quality JPEG.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// Base64PNG returns img as base64-encoded PNG text.
func Base64PNG(t *testing.T, img image.Image) string {
	t.Helper()

	return base64.StdEncoding.EncodeToString(EncodePNG(t, img))
}
