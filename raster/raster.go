// Package raster decomposes PDFs into page images. The page count comes from
// a cheap metadata probe so the page ceiling can be enforced before any
// rendering work happens; rasterization itself is lazy and per page, letting
// the consumer free each raster as soon as its recognition pass is done.
package raster

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/textlift/textlift/document"
)

// PageLimit is the default page-count ceiling, overridable per request with
// the force flag.
const PageLimit = 10

// Rasterization resolution per mode. Accurate trades raster detail and
// runtime for recognition quality.
const (
	DPIFast     = 200
	DPIAccurate = 300
)

// LimitError reports a PDF over the page ceiling without the force override.
type LimitError struct {
	Pages int
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("PDF has %d pages, limit is %d; set force_processing to override", e.Pages, e.Limit)
}

// Page is one rasterized PDF page. Indexes are 1-based and delivered in
// natural page order.
type Page struct {
	Index int
	Image image.Image
}

// DPIFor returns the rasterization resolution for a processing mode.
func DPIFor(mode document.Mode) float64 {
	if mode == document.ModeAccurate {
		return DPIAccurate
	}
	return DPIFast
}

// PageCount probes the PDF's page count without rasterizing anything.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("probe page count: %w", err)
	}
	return n, nil
}

// CheckLimit enforces the page ceiling. It returns *LimitError when pages
// exceeds limit and force is unset; a non-positive limit falls back to
// PageLimit.
func CheckLimit(pages, limit int, force bool) error {
	if limit <= 0 {
		limit = PageLimit
	}
	if pages > limit && !force {
		return &LimitError{Pages: pages, Limit: limit}
	}
	return nil
}

// Document is an open PDF ready for page rendering. Close releases the
// underlying renderer.
type Document struct {
	doc *fitz.Document
	dpi float64
}

// Open prepares a PDF for rasterization at the resolution implied by mode.
func Open(path string, mode document.Mode) (*Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return &Document{doc: doc, dpi: DPIFor(mode)}, nil
}

// Pages returns the number of pages in the open document.
func (d *Document) Pages() int { return d.doc.NumPage() }

// Render rasterizes the page with the given 1-based index.
func (d *Document) Render(index int) (Page, error) {
	if index < 1 || index > d.Pages() {
		return Page{}, fmt.Errorf("page %d out of range [1, %d]", index, d.Pages())
	}
	img, err := d.doc.ImageDPI(index-1, d.dpi)
	if err != nil {
		return Page{}, fmt.Errorf("rasterize page %d: %w", index, err)
	}
	return Page{Index: index, Image: img}, nil
}

// Close releases renderer resources.
func (d *Document) Close() error { return d.doc.Close() }
