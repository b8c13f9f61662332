package transform

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/codec"
)

func TestNames_Order(t *testing.T) {
	assert.Equal(t, []string{
		"orig",
		"gray",
		"gray_resize_x2",
		"gray_resize_x3",
		"contrast_x2",
		"sharp_x2",
		"contrast_gray_thresh",
		"binary",
		"invert",
	}, Names())
}

func TestCatalog_IsACopy(t *testing.T) {
	c := Catalog()
	c[0].Name = "changed"
	assert.Equal(t, "orig", Names()[0])
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("binary")
	require.True(t, ok)
	assert.Equal(t, "binary", s.Name)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func gradientNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := range 8 {
		for x := range 16 {
			v := uint8(x * 16)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestCatalog_Shapes(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		mode string
	}{
		{"orig", 16, 8, "RGBA"},
		{"gray", 16, 8, "L"},
		{"gray_resize_x2", 32, 16, "L"},
		{"gray_resize_x3", 48, 24, "L"},
		{"contrast_x2", 16, 8, "L"},
		{"sharp_x2", 16, 8, "RGBA"},
		{"contrast_gray_thresh", 16, 8, "L"},
		{"binary", 16, 8, "L"},
		{"invert", 16, 8, "L"},
	}

	src := gradientNRGBA()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := Lookup(tt.name)
			require.True(t, ok)
			out, err := s.Apply(src)
			require.NoError(t, err)
			assert.Equal(t, tt.w, out.Bounds().Dx())
			assert.Equal(t, tt.h, out.Bounds().Dy())
			assert.Equal(t, tt.mode, codec.ModeOf(out))
		})
	}
}

func TestCatalog_PointTransforms(t *testing.T) {
	src := gradientNRGBA()

	bin, _ := Lookup("binary")
	out, err := bin.Apply(src)
	require.NoError(t, err)
	g := out.(*image.Gray)
	assert.Equal(t, uint8(0), g.GrayAt(8, 0).Y, "128 is not above the cut")
	assert.Equal(t, uint8(255), g.GrayAt(9, 0).Y)

	inv, _ := Lookup("invert")
	out, err = inv.Apply(src)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), out.(*image.Gray).GrayAt(0, 0).Y)

	ct, _ := Lookup("contrast_gray_thresh")
	out, err = ct.Apply(src)
	require.NoError(t, err)
	for _, v := range out.(*image.Gray).Pix {
		assert.Contains(t, []uint8{0, 255}, v)
	}
}

func TestCatalog_TransformsArePure(t *testing.T) {
	src := gradientNRGBA()
	before := append([]uint8(nil), src.Pix...)
	for _, s := range Catalog() {
		_, err := s.Apply(src)
		require.NoError(t, err, s.Name)
	}
	assert.Equal(t, before, src.Pix)
}

func TestCatalog_ResizeOverflowIsAnError(t *testing.T) {
	prev := codec.MaxPixels
	codec.MaxPixels = 16 * 8 * 3
	t.Cleanup(func() { codec.MaxPixels = prev })

	s, _ := Lookup("gray_resize_x2")
	_, err := s.Apply(gradientNRGBA())
	assert.ErrorIs(t, err, codec.ErrTooLarge)
}

func TestCatalogWithLimit_IgnoresGlobalLimit(t *testing.T) {
	limited := CatalogWithLimit(16 * 8 * 3)
	require.Len(t, limited, len(Catalog()))

	for _, spec := range limited {
		_, err := spec.Apply(gradientNRGBA())
		switch spec.Name {
		case "gray_resize_x2", "gray_resize_x3":
			assert.ErrorIs(t, err, codec.ErrTooLarge, spec.Name)
		default:
			assert.NoError(t, err, spec.Name)
		}
	}

	s, _ := Lookup("gray_resize_x3")
	_, err := s.Apply(gradientNRGBA())
	assert.NoError(t, err, "the default catalog keeps the package limit")
}
