//go:build barcode_nogozxing

package barcode

// NewGozxing reports that the gozxing backend was compiled out.
func NewGozxing(Options) (Backend, error) { return nil, ErrNoBackend }
