package barcode

import (
	"context"
	"errors"
	"image"
)

// Backend names.
const (
	NameGozxing = "gozxing"
	NameQR      = "qr"
)

// ErrNoBackend is returned by constructors of backends that were compiled out.
var ErrNoBackend = errors.New("barcode: decoder backend not linked into this build")

// Match is one decoded symbol.
type Match struct {
	// Type is the symbology tag reported by the backend, e.g. "QR_CODE" or "EAN_13".
	Type string `json:"type" yaml:"type"`
	// Data is the decoded payload as text.
	Data string `json:"data" yaml:"data"`
}

// Options controls backend decoding behavior.
type Options struct {
	// TryHarder enables more exhaustive search (slower but more robust).
	TryHarder bool
}

// Backend decodes every symbol it can find in an image.
// An empty slice with a nil error means nothing was found.
type Backend interface {
	Name() string
	Decode(ctx context.Context, img image.Image) ([]Match, error)
}
