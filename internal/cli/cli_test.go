package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/logging"
	"folio/pkg/api"
	"folio/pkg/source"
	"folio/pkg/spread"
)

func TestParseRenderArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want renderArgs
	}{
		{
			name: "defaults",
			args: []string{"book.pdf"},
			want: renderArgs{location: "book.pdf", output: "output.png", page: 1, scale: 1, export: api.DefaultExportOptions()},
		},
		{
			name: "all options",
			args: []string{"https://example.com/a.pdf", "-o", "out/p3.png", "-p", "3", "-scale", "2.5", "-trim"},
			want: renderArgs{location: "https://example.com/a.pdf", output: "out/p3.png", page: 3, scale: 2.5, trim: true, export: api.DefaultExportOptions()},
		},
		{
			name: "jpeg from extension",
			args: []string{"book.pdf", "-o", "cover.JPG"},
			want: renderArgs{location: "book.pdf", output: "cover.JPG", page: 1, scale: 1, export: api.JPEG(90)},
		},
		{
			name: "explicit format wins",
			args: []string{"book.pdf", "-o", "cover.jpg", "-format", "png"},
			want: renderArgs{location: "book.pdf", output: "cover.jpg", page: 1, scale: 1, export: api.PNG()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRenderArgs(tt.args)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(renderArgs{})); diff != "" {
				t.Errorf("parseRenderArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRenderArgsErrors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"-o", "x.png"},
		{"book.pdf", "-p"},
		{"book.pdf", "-p", "0"},
		{"book.pdf", "-p", "two"},
		{"book.pdf", "-scale", "-1"},
		{"book.pdf", "-format", "gif"},
		{"book.pdf", "-dpi", "300"},
	} {
		_, err := parseRenderArgs(args)
		assert.ErrorIs(t, err, ErrUsage, "args %q", args)
	}
}

func TestWriteSpreads(t *testing.T) {
	var buf bytes.Buffer
	writeSpreads(&buf, 5, spread.Double)
	assert.Equal(t, "5 pages, double layout, 3 spreads\n"+
		"   0: 1 / 5\n"+
		"   1: 2-3 / 5\n"+
		"   2: 4-5 / 5\n", buf.String())

	buf.Reset()
	writeSpreads(&buf, 2, spread.Single)
	assert.Equal(t, "2 pages, single layout, 2 spreads\n"+
		"   0: 1 / 2\n"+
		"   1: 2 / 2\n", buf.String())
}

func newTestRunner(fetch source.FetcherFunc) (*Runner, *bytes.Buffer) {
	var out bytes.Buffer
	r := NewRunner(&out, logging.Discard())
	r.Fetcher = fetch
	return r, &out
}

func TestRunUsage(t *testing.T) {
	r, _ := newTestRunner(nil)
	ctx := context.Background()

	assert.ErrorIs(t, r.Run(ctx, nil), ErrUsage)
	assert.ErrorIs(t, r.Run(ctx, []string{"stream"}), ErrUsage)
	assert.ErrorIs(t, r.Run(ctx, []string{"info"}), ErrUsage)
	assert.ErrorIs(t, r.Run(ctx, []string{"spreads"}), ErrUsage)
	assert.ErrorIs(t, r.Run(ctx, []string{"spreads", "a.pdf", "b.pdf"}), ErrUsage)
	assert.ErrorIs(t, r.Run(ctx, []string{"spreads", "a.pdf", "-wide"}), ErrUsage)
}

func TestRunFetchFailure(t *testing.T) {
	refused := errors.New("connection refused")
	r, out := newTestRunner(func(_ context.Context, location string) ([]byte, error) {
		assert.Equal(t, "https://example.com/Annual%20Report.pdf", location)
		return nil, refused
	})

	err := r.Run(context.Background(), []string{"info", "https://example.com/Annual%20Report.pdf"})
	require.ErrorIs(t, err, refused)
	var le *source.LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "could not open Annual Report.pdf: connection refused", err.Error())
	assert.Empty(t, out.String())
}
