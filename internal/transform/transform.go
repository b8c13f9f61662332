// Package transform defines the fixed, ordered catalog of preprocessing
// steps tried on every rotation of an image.
package transform

import (
	"image"

	"github.com/MeKo-Tech/codescan/internal/codec"
)

// Spec is a named pure image transform.
type Spec struct {
	Name  string
	Apply func(image.Image) (image.Image, error)
}

var catalog = build(0)

// Catalog order is part of the result contract: the first transform that
// decodes wins, and its name is reported back.
func build(maxPixels int64) []Spec {
	return []Spec{
		{Name: "orig", Apply: identity},
		{Name: "gray", Apply: codec.Grayscale},
		{Name: "gray_resize_x2", Apply: grayScaled(2, maxPixels)},
		{Name: "gray_resize_x3", Apply: grayScaled(3, maxPixels)},
		{Name: "contrast_x2", Apply: contrast},
		{Name: "sharp_x2", Apply: sharpen},
		{Name: "contrast_gray_thresh", Apply: contrastThreshold},
		{Name: "binary", Apply: binary},
		{Name: "invert", Apply: invert},
	}
}

// Catalog returns the transforms in search order. The slice is a copy.
// Upscaling honors codec.MaxPixels.
func Catalog() []Spec {
	return append([]Spec(nil), catalog...)
}

// CatalogWithLimit returns the catalog with upscaling bounded by maxPixels
// instead of codec.MaxPixels.
func CatalogWithLimit(maxPixels int64) []Spec {
	return build(maxPixels)
}

// Names returns the transform names in search order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the transform with the given name.
func Lookup(name string) (Spec, bool) {
	for _, s := range catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

func identity(img image.Image) (image.Image, error) { return img, nil }

func grayScaled(factor int, maxPixels int64) func(image.Image) (image.Image, error) {
	return func(img image.Image) (image.Image, error) {
		g, err := codec.Grayscale(img)
		if err != nil {
			return nil, err
		}
		return codec.ScaleLimited(g, factor, maxPixels)
	}
}

func contrast(img image.Image) (image.Image, error) {
	g, err := codec.Grayscale(img)
	if err != nil {
		return nil, err
	}
	return codec.ScaleContrast(g, 2.0)
}

func sharpen(img image.Image) (image.Image, error) {
	return codec.ScaleSharpness(img, 2.0)
}

func contrastThreshold(img image.Image) (image.Image, error) {
	c, err := contrast(img)
	if err != nil {
		return nil, err
	}
	return codec.Threshold(c, 120)
}

func binary(img image.Image) (image.Image, error) {
	g, err := codec.Grayscale(img)
	if err != nil {
		return nil, err
	}
	return codec.Threshold(g, 128)
}

func invert(img image.Image) (image.Image, error) {
	g, err := codec.Grayscale(img)
	if err != nil {
		return nil, err
	}
	return codec.Invert(g)
}
