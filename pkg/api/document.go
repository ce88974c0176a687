// Package api opens PDF documents and rasterizes their pages.
// Page numbers are 1-based throughout.
package api

import (
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"folio/pkg/raster"
)

// ErrPageRange is returned for page numbers outside the document.
var ErrPageRange = errors.New("page out of range")

// Document represents an opened PDF document.
type Document struct {
	doc *fitz.Document

	// Cached info
	pageCount int
	info      *DocumentInfo
}

// DocumentInfo contains document metadata.
type DocumentInfo struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string
	ModDate      string
}

// OpenBytes opens a PDF from a byte slice.
func OpenBytes(data []byte) (*Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	d := &Document{
		doc:       doc,
		pageCount: doc.NumPage(),
	}
	if d.pageCount <= 0 {
		doc.Close()
		return nil, errors.New("failed to parse PDF: document has no pages")
	}

	d.parseInfo()
	return d, nil
}

// parseInfo extracts document metadata.
func (d *Document) parseInfo() {
	meta := d.doc.Metadata()
	d.info = &DocumentInfo{
		Title:        meta["title"],
		Author:       meta["author"],
		Subject:      meta["subject"],
		Keywords:     meta["keywords"],
		Creator:      meta["creator"],
		Producer:     meta["producer"],
		CreationDate: meta["creationDate"],
		ModDate:      meta["modDate"],
	}
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.pageCount
}

// Info returns document metadata.
func (d *Document) Info() *DocumentInfo {
	return d.info
}

// Page returns the page with the given 1-based number.
func (d *Document) Page(number int) (*Page, error) {
	if number < 1 || number > d.pageCount {
		return nil, fmt.Errorf("page %d (1-%d): %w", number, d.pageCount, ErrPageRange)
	}

	bounds, err := d.doc.Bound(number - 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get page bounds: %w", err)
	}
	return newPage(d, number, bounds), nil
}

// RenderWithOptions renders a page with custom options. The result is an
// *image.RGBA unless trimming cropped it.
func (d *Document) RenderWithOptions(number int, opts RenderOptions) (image.Image, error) {
	if number < 1 || number > d.pageCount {
		return nil, fmt.Errorf("page %d (1-%d): %w", number, d.pageCount, ErrPageRange)
	}

	img, err := d.doc.ImageDPI(number-1, opts.EffectiveDPI())
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", number, err)
	}
	if opts.TrimWhite {
		return raster.TrimWhite(img, opts.TrimTolerance), nil
	}
	return img, nil
}

// Close releases resources associated with the document.
func (d *Document) Close() error {
	return d.doc.Close()
}
