package api

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveDPI(t *testing.T) {
	tests := []struct {
		name string
		opts RenderOptions
		want float64
	}{
		{"defaults", DefaultRenderOptions(), 96},
		{"scaled", NewRenderOptions(Scale(2.5)), 240},
		{"print", NewRenderOptions(DPI(300), Scale(2)), 600},
		{"zero values", RenderOptions{}, 96},
		{"negative scale", RenderOptions{DPI: 72, Scale: -1}, 72},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.opts.EffectiveDPI(), 1e-9)
		})
	}
}

func TestApplyTrim(t *testing.T) {
	opts := NewRenderOptions(Scale(2))
	require.False(t, opts.TrimWhite)
	opts.Apply(Trim())
	assert.True(t, opts.TrimWhite)
	assert.Equal(t, 2.0, opts.Scale)
}

func TestJPEGQualityIsClamped(t *testing.T) {
	assert.Equal(t, 1, JPEG(-5).Quality)
	assert.Equal(t, 100, JPEG(150).Quality)
	assert.Equal(t, "jpeg", JPEG(80).Format)
}

func TestEncode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, PNG()))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	buf.Reset()
	require.NoError(t, Encode(&buf, img, ExportOptions{Format: "JPG"}))
	decoded, err = jpeg.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	assert.ErrorContains(t, Encode(&buf, img, ExportOptions{Format: "tiff"}), `unsupported export format "tiff"`)
}
