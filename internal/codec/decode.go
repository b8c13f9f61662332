package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels mirrors the decompression-bomb limit of common image libraries.
const DefaultMaxPixels = 89_478_485

// MaxPixels bounds the pixel count of decoded images and of resize results
// for the functions that take no explicit limit.
var MaxPixels int64 = DefaultMaxPixels

// limitOr returns limit, or MaxPixels when limit is not positive.
func limitOr(limit int64) int64 {
	if limit > 0 {
		return limit
	}
	return MaxPixels
}

var errEmptyData = errors.New("empty image data")

// SupportedExtensions lists the file extensions LoadFile accepts.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Image is a decoded image with the metadata callers report back.
type Image struct {
	image.Image
	Width  int
	Height int
	// Mode is the color mode name: "RGB", "RGBA", "L", "P", "CMYK" or "YCbCr".
	Mode string
	// Format is the container format reported by the decoder, e.g. "png".
	Format string
}

// Decode decodes an encoded image in any registered container format.
func Decode(data []byte) (*Image, error) { return DecodeLimited(data, 0) }

// DecodeLimited is Decode with an explicit pixel limit. A limit <= 0 uses MaxPixels.
func DecodeLimited(data []byte, limit int64) (*Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Op: "decode", Err: errEmptyData}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Op: "decode", Err: err}
	}
	if int64(cfg.Width)*int64(cfg.Height) > limitOr(limit) {
		return nil, &DecodeError{
			Op:  "decode",
			Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height),
		}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Op: "decode", Err: err}
	}
	return wrap(img, format), nil
}

func wrap(img image.Image, format string) *Image {
	b := img.Bounds()
	return &Image{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Mode:   ModeOf(img),
		Format: format,
	}
}

// ModeOf names the color mode of img.
func ModeOf(img image.Image) string {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.CMYKModel:
		return "CMYK"
	case color.YCbCrModel:
		return "YCbCr"
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	}
	if _, ok := img.(*image.Paletted); ok {
		return "P"
	}
	return "RGB"
}

// IsSupported reports whether path has an extension LoadFile can decode.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// LoadFile reads and decodes an image file.
func LoadFile(path string) (*Image, error) {
	if path == "" {
		return nil, &DecodeError{Op: "load", Err: errors.New("empty path")}
	}
	if !IsSupported(path) {
		return nil, &DecodeError{Op: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, &DecodeError{Op: "load", Err: err}
	}
	return Decode(data)
}
