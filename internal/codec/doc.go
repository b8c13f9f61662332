// Package codec turns request bytes into images and provides the pixel
// operations the transform catalog is composed from.
//
// Every operation returns a new image; inputs are never modified. Operations
// follow the Pillow conventions the decoders were tuned against: rotation is
// counter-clockwise with canvas expansion, contrast and sharpness blend the
// image with a degenerate copy, and point operations compare with a strict
// greater-than.
package codec
