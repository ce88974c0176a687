package api

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"folio/pkg/raster"
)

// ReferenceDPI is the density of one viewport unit: a page rendered at
// Scale 1 has one pixel per unit.
const ReferenceDPI = 96

// RenderOptions configures rendering behavior.
type RenderOptions struct {
	// DPI sets the base resolution (dots per inch).
	// Default: ReferenceDPI
	DPI float64

	// Scale is the render quality multiplier applied on top of DPI.
	// Doubling it quadruples the bitmap's memory.
	// Default: 1.0
	Scale float64

	// TrimWhite crops near-white margins around the page content.
	// Default: false
	TrimWhite bool

	// TrimTolerance is the channel value below which a pixel is ink.
	// Default: raster.DefaultTrimTolerance
	TrimTolerance uint8
}

// DefaultRenderOptions returns render options with sensible defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		DPI:           ReferenceDPI,
		Scale:         1.0,
		TrimTolerance: raster.DefaultTrimTolerance,
	}
}

// Option is a functional option for configuring RenderOptions.
type Option func(*RenderOptions)

// DPI sets the base resolution.
func DPI(dpi float64) Option {
	return func(o *RenderOptions) {
		o.DPI = dpi
	}
}

// Scale sets the quality multiplier.
func Scale(scale float64) Option {
	return func(o *RenderOptions) {
		o.Scale = scale
	}
}

// Trim enables white margin trimming.
func Trim() Option {
	return func(o *RenderOptions) {
		o.TrimWhite = true
	}
}

// NewRenderOptions creates options from functional options.
func NewRenderOptions(opts ...Option) RenderOptions {
	o := DefaultRenderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Apply applies functional options to existing options.
func (o *RenderOptions) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// EffectiveDPI returns the final DPI after applying scale.
func (o *RenderOptions) EffectiveDPI() float64 {
	dpi, scale := o.DPI, o.Scale
	if dpi <= 0 {
		dpi = ReferenceDPI
	}
	if scale <= 0 {
		scale = 1
	}
	return dpi * scale
}

// ExportOptions configures saving rendered pages.
type ExportOptions struct {
	// Format specifies the output format: "png" or "jpeg"
	Format string

	// Quality for JPEG (1-100)
	Quality int
}

// DefaultExportOptions returns default export options.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format:  "png",
		Quality: 90,
	}
}

// PNG returns export options for PNG format.
func PNG() ExportOptions {
	return ExportOptions{Format: "png"}
}

// JPEG returns export options for JPEG format with quality.
func JPEG(quality int) ExportOptions {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return ExportOptions{
		Format:  "jpeg",
		Quality: quality,
	}
}

// Encode writes img to w in the format selected by opts.
func Encode(w io.Writer, img image.Image, opts ExportOptions) error {
	switch strings.ToLower(opts.Format) {
	case "", "png":
		return png.Encode(w, img)
	case "jpeg", "jpg":
		q := opts.Quality
		if q == 0 {
			q = DefaultExportOptions().Quality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	}
	return fmt.Errorf("unsupported export format %q", opts.Format)
}
