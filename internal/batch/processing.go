package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/codescan/internal/barcode"
	"github.com/MeKo-Tech/codescan/internal/codec"
	"github.com/MeKo-Tech/codescan/internal/pdf"
	"github.com/MeKo-Tech/codescan/internal/response"
	"github.com/MeKo-Tech/codescan/internal/search"
)

// Decoder searches one decoded image. *pipeline.Pipeline implements it.
type Decoder interface {
	ProcessImage(ctx context.Context, img image.Image) (response.Envelope, search.Outcome)
}

// errNoImages is reported for PDFs without embedded raster images.
var errNoImages = errors.New("pdf contains no images")

// Item is the result for one image. PDF pages yield one item per embedded
// image; Page is zero for plain image files.
type Item struct {
	File      string          `json:"file" yaml:"file"`
	Page      int             `json:"page,omitempty" yaml:"page,omitempty"`
	Index     int             `json:"index,omitempty" yaml:"index,omitempty"`
	Found     bool            `json:"found" yaml:"found"`
	Transform string          `json:"transform,omitempty" yaml:"transform,omitempty"`
	Attempts  int             `json:"attempts" yaml:"attempts"`
	Results   []barcode.Match `json:"results,omitempty" yaml:"results,omitempty"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the item could not be searched.
func (it Item) Failed() bool { return it.Error != "" }

// ScanFile decodes path, an image or a PDF, and searches every image in it.
func ScanFile(ctx context.Context, dec Decoder, path, pageRange string) ([]Item, error) {
	if pdf.IsPDF(path) {
		return scanPDF(ctx, dec, path, pageRange)
	}

	img, err := codec.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	slog.Debug("scanning image", "file", path, "width", img.Width, "height", img.Height, "mode", img.Mode)

	it, err := scanImage(ctx, dec, img.Image)
	if err != nil {
		return nil, err
	}
	it.File = path
	return []Item{it}, nil
}

func scanPDF(ctx context.Context, dec Decoder, path, pageRange string) ([]Item, error) {
	images, err := pdf.ExtractImages(path, pageRange)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errNoImages)
	}

	items := make([]Item, 0, len(images))
	for _, pi := range images {
		it, err := scanImage(ctx, dec, pi.Image.Image)
		if err != nil {
			return nil, err
		}
		it.File = path
		it.Page = pi.Page
		it.Index = pi.Index
		items = append(items, it)
	}
	return items, nil
}

func scanImage(ctx context.Context, dec Decoder, img image.Image) (Item, error) {
	env, out := dec.ProcessImage(ctx, img)
	if out.Err != nil {
		return Item{}, out.Err
	}
	it := Item{Found: env.Found, Attempts: out.Attempts}
	if env.Found {
		it.Transform = env.Transform
		it.Results = env.Results
	}
	return it, nil
}
