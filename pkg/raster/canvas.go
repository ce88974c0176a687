// Package raster provides the bitmap helpers used around page
// rasterization: placeholders for pages that failed to render, white
// margin trimming for covers and thumbnail downscaling.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// PlaceholderColor is the neutral fill of a page that could not be drawn.
var PlaceholderColor = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}

// Placeholder creates a neutral page-sized bitmap. Non-positive dimensions
// are raised to one pixel.
func Placeholder(width, height int) *image.NRGBA {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return imaging.New(width, height, PlaceholderColor)
}

// PixelSize returns the bitmap size of a page of the given size in points
// rendered at dpi.
func PixelSize(widthPt, heightPt, dpi float64) (width, height int) {
	width = int(math.Ceil(widthPt * dpi / 72))
	height = int(math.Ceil(heightPt * dpi / 72))
	return
}

// Bytes returns the memory held by an RGBA bitmap of the given size.
func Bytes(width, height int) int64 {
	return int64(width) * int64(height) * 4
}

// Thumbnail scales img down to width pixels, keeping the aspect ratio.
// Images already narrower than width are returned unchanged.
func Thumbnail(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DefaultTrimTolerance is the channel value below which a pixel counts as
// ink when trimming white margins.
const DefaultTrimTolerance = 245

// TrimWhite crops the near-white margins around the ink of img, leaving a
// padding of 1% of the smaller side. A page with no ink is returned as is.
func TrimWhite(img image.Image, tolerance uint8) image.Image {
	b := img.Bounds()
	left, top := b.Max.X, b.Max.Y
	right, bottom := b.Min.X-1, b.Min.Y-1

	limit := uint32(tolerance) * 0x101
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			if min3(r, g, bl) >= limit {
				continue
			}
			if x < left {
				left = x
			}
			if x > right {
				right = x
			}
			if y < top {
				top = y
			}
			if y > bottom {
				bottom = y
			}
		}
	}
	if right < left || bottom < top {
		return img
	}

	pad := int(math.Round(math.Min(float64(b.Dx()), float64(b.Dy())) * 0.01))
	crop := image.Rect(left-pad, top-pad, right+pad+1, bottom+pad+1).Intersect(b)
	if crop == b {
		return img
	}
	return imaging.Crop(img, crop)
}

func min3(a, b, c uint32) uint32 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
