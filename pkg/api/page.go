package api

import (
	"image"

	"folio/pkg/raster"
)

// Page represents a single page in a PDF document.
type Page struct {
	doc    *Document
	number int
	size   PageSize
}

// PageSize contains page dimensions.
type PageSize struct {
	Width  float64 // Width in points (1/72 inch)
	Height float64 // Height in points
}

// PageSizeA4 is assumed for pages whose bounds cannot be read.
var PageSizeA4 = PageSize{595.28, 841.89}

// newPage creates a new Page object from its bounds in points.
func newPage(doc *Document, number int, bounds image.Rectangle) *Page {
	p := &Page{
		doc:    doc,
		number: number,
		size:   PageSizeA4,
	}
	if !bounds.Empty() {
		p.size = PageSize{
			Width:  float64(bounds.Dx()),
			Height: float64(bounds.Dy()),
		}
	}
	return p
}

// Number returns the 1-based page number.
func (p *Page) Number() int {
	return p.number
}

// Size returns the page dimensions in points.
func (p *Page) Size() PageSize {
	return p.size
}

// Width returns the page width in points.
func (p *Page) Width() float64 {
	return p.size.Width
}

// Height returns the page height in points.
func (p *Page) Height() float64 {
	return p.size.Height
}

// AspectRatio returns the height/width ratio, the factor the viewer lays
// pages out with (1.414 for A-series paper).
func (p *Page) AspectRatio() float64 {
	if p.size.Width == 0 {
		return 1
	}
	return p.size.Height / p.size.Width
}

// IsLandscape returns true if width > height.
func (p *Page) IsLandscape() bool {
	return p.size.Width > p.size.Height
}

// RenderWithOptions renders the page with custom options.
func (p *Page) RenderWithOptions(opts RenderOptions) (image.Image, error) {
	return p.doc.RenderWithOptions(p.number, opts)
}

// SizeInPixels returns the page size in pixels for the given options.
func (p *Page) SizeInPixels(opts RenderOptions) (width, height int) {
	return raster.PixelSize(p.size.Width, p.size.Height, opts.EffectiveDPI())
}
