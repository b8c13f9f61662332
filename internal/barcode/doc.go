// Package barcode wraps third-party symbology decoders behind a small
// Backend interface.
//
// Two backends are linked by default:
//
//   - gozxing: the primary multi-format reader (QR, Data Matrix, Aztec
//     and the common 1D symbologies).
//   - qr: a secondary QR-only reader used when the primary finds nothing.
//
// Either backend can be compiled out with a build tag:
//
//	go build -tags=barcode_nogozxing ./...
//	go build -tags=barcode_noqr ./...
//
// A compiled-out backend's constructor returns ErrNoBackend and Probe
// reports it as unavailable.
package barcode
