// Package pdf pulls embedded raster images out of PDF documents so they can
// be searched for barcodes like any other image file.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/MeKo-Tech/codescan/internal/codec"
)

// PageImage is one image extracted from a PDF page.
type PageImage struct {
	Page  int
	Index int
	Name  string
	Image *codec.Image
}

// IsPDF reports whether path carries a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// ExtractImages extracts every embedded image from the PDF at path, ordered by
// page and then by extraction order. An empty pageRange selects all pages.
func ExtractImages(path, pageRange string) ([]PageImage, error) {
	pages, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "codescan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var selected []string
	for _, p := range pages {
		selected = append(selected, strconv.Itoa(p))
	}

	if err := api.ExtractImagesFile(path, tempDir, selected, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	images, err := collectExtractedImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	return images, nil
}

// collectExtractedImages loads the images pdfcpu wrote into dir. Files whose
// name carries no page number or that fail to decode are skipped.
func collectExtractedImages(dir string) ([]PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []PageImage
	perPage := make(map[int]int)
	for _, name := range names {
		page, err := parsePageFromFilename(name)
		if err != nil {
			continue
		}
		img, err := codec.LoadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		out = append(out, PageImage{Page: page, Index: perPage[page], Name: name, Image: img})
		perPage[page]++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out, nil
}

// parsePageFromFilename reads the page number from an extracted image name.
// Both "page_<n>_..." and pdfcpu's "<base>_<n>_<object>.<ext>" layouts are
// understood.
func parsePageFromFilename(filename string) (int, error) {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if rest, ok := strings.CutPrefix(stem, "page_"); ok {
		head, _, _ := strings.Cut(rest, "_")
		n, err := strconv.Atoi(head)
		if err != nil || n < 1 {
			return 0, errors.New("invalid page number")
		}
		return n, nil
	}

	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return 0, errors.New("not a page image")
	}
	n, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil || n < 1 {
		return 0, errors.New("invalid page number")
	}
	return n, nil
}

// ParsePageRange parses selections like "1-5" or "1,3,5". Empty means all pages.
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pages = append(pages, tokenPages...)
	}
	return pages, nil
}

func parseRangeToken(part string) ([]int, error) {
	if lo, hi, ok := strings.Cut(part, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", lo)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", hi)
		}
		if start < 1 {
			return nil, fmt.Errorf("page numbers start at 1, got %d", start)
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if page < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", page)
	}
	return []int{page}, nil
}
