//go:build barcode_noqr

package barcode

// NewQR reports that the secondary QR backend was compiled out.
func NewQR(Options) (Backend, error) { return nil, ErrNoBackend }
