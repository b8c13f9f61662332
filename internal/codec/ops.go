package codec

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

var errNilImage = errors.New("input image is nil")

// smoothKernel is the 3x3 smoothing filter Pillow uses as the degenerate
// image for sharpness enhancement.
var smoothKernel = [9]float64{1, 1, 1, 1, 5, 1, 1, 1, 1}

// Rotate rotates img counter-clockwise by angle degrees, expanding the canvas
// so no content is cropped. Right angles are exact; other angles fill the
// uncovered area with black.
func Rotate(img image.Image, angle int) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "rotate", Err: errNilImage}
	}
	switch ((angle % 360) + 360) % 360 {
	case 0:
		return img, nil
	case 90:
		return sameMode(img, imaging.Rotate90(img)), nil
	case 180:
		return sameMode(img, imaging.Rotate180(img)), nil
	case 270:
		return sameMode(img, imaging.Rotate270(img)), nil
	default:
		return sameMode(img, imaging.Rotate(img, float64(angle), color.Black)), nil
	}
}

// Grayscale converts img to 8-bit luminance using ITU-R 601-2 weights.
// Alpha is discarded.
func Grayscale(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "grayscale", Err: errNilImage}
	}
	if g, ok := img.(*image.Gray); ok {
		return g, nil
	}
	return toGray(imaging.Grayscale(img)), nil
}

// Resize scales img to w x h with bicubic (Catmull-Rom) resampling.
func Resize(img image.Image, w, h int) (image.Image, error) { return ResizeLimited(img, w, h, 0) }

// ResizeLimited is Resize with an explicit pixel limit. A limit <= 0 uses MaxPixels.
func ResizeLimited(img image.Image, w, h int, limit int64) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "resize", Err: errNilImage}
	}
	if w <= 0 || h <= 0 {
		return nil, &OpError{Op: "resize", Err: fmt.Errorf("invalid target size %dx%d", w, h)}
	}
	if int64(w)*int64(h) > limitOr(limit) {
		return nil, &OpError{Op: "resize", Err: fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)}
	}
	return sameMode(img, imaging.Resize(img, w, h, imaging.CatmullRom)), nil
}

// Scale resizes img by an integer factor on both axes.
func Scale(img image.Image, factor int) (image.Image, error) { return ScaleLimited(img, factor, 0) }

// ScaleLimited is Scale with an explicit pixel limit.
func ScaleLimited(img image.Image, factor int, limit int64) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "resize", Err: errNilImage}
	}
	b := img.Bounds()
	return ResizeLimited(img, b.Dx()*factor, b.Dy()*factor, limit)
}

// ScaleContrast blends img with a uniform image of its mean luminance.
// A factor of 1 returns an equivalent image; larger factors push every
// channel away from the mean.
func ScaleContrast(img image.Image, factor float64) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "contrast", Err: errNilImage}
	}
	mean := float64(meanLuminance(img))
	out := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: blend(mean, float64(c.R), factor),
			G: blend(mean, float64(c.G), factor),
			B: blend(mean, float64(c.B), factor),
			A: c.A,
		}
	})
	return sameMode(img, out), nil
}

// ScaleSharpness blends img with its 3x3 smoothed version. A factor of 2
// doubles the difference between each pixel and its neighbourhood.
func ScaleSharpness(img image.Image, factor float64) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "sharpness", Err: errNilImage}
	}
	// blend(smooth, img, f) = f*img + (1-f)*smooth, folded into one kernel.
	var kernel [9]float64
	for i, k := range smoothKernel {
		kernel[i] = (1 - factor) * k / 13
	}
	kernel[4] += factor
	return sameMode(img, imaging.Convolve3x3(img, kernel, nil)), nil
}

// Threshold maps every channel above cut to 255 and everything else to 0.
func Threshold(img image.Image, cut uint8) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "threshold", Err: errNilImage}
	}
	point := func(v uint8) uint8 {
		if v > cut {
			return 255
		}
		return 0
	}
	out := imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: point(c.R), G: point(c.G), B: point(c.B), A: c.A}
	})
	return sameMode(img, out), nil
}

// Invert negates every color channel.
func Invert(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, &OpError{Op: "invert", Err: errNilImage}
	}
	return sameMode(img, imaging.Invert(img)), nil
}

// blend computes in1 + alpha*(in2-in1) clipped to a byte, truncated toward zero.
func blend(in1, in2, alpha float64) uint8 {
	v := in1 + alpha*(in2-in1)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// meanLuminance returns the rounded mean of the grayscale version of img.
func meanLuminance(img image.Image) uint8 {
	g, _ := Grayscale(img)
	gray := g.(*image.Gray)
	b := gray.Bounds()
	if b.Empty() {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := gray.PixOffset(b.Min.X, y)
		row := gray.Pix[i : i+b.Dx()]
		for _, v := range row {
			sum += uint64(v)
		}
	}
	n := uint64(b.Dx()) * uint64(b.Dy())
	return uint8((sum + n/2) / n)
}

// sameMode converts an imaging result back to 8-bit gray when the source was gray,
// so grayscale pipelines stay single-channel.
func sameMode(src image.Image, dst *image.NRGBA) image.Image {
	if _, ok := src.(*image.Gray); ok {
		return toGray(dst)
	}
	return dst
}

// toGray copies the red channel of an NRGBA image whose channels are equal.
func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		si := y * src.Stride
		di := y * dst.Stride
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[di+x] = src.Pix[si+x*4]
		}
	}
	return dst
}
