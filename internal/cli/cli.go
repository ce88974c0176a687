// Package cli implements the document commands shared by the folio binaries.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"folio/internal/logging"
	"folio/pkg/api"
	"folio/pkg/source"
	"folio/pkg/spread"
)

// ErrUsage is returned when a command is called with bad arguments.
var ErrUsage = errors.New("usage")

// Runner executes commands against documents given by path or URL.
type Runner struct {
	Out     io.Writer
	Fetcher source.Fetcher
	Log     *slog.Logger
}

// NewRunner returns a Runner printing to out.
func NewRunner(out io.Writer, logger *slog.Logger) *Runner {
	return &Runner{
		Out:     out,
		Fetcher: source.DefaultFetcher{},
		Log:     logging.Component(logger, "cli"),
	}
}

// Run dispatches the command named by args[0].
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", ErrUsage)
	}
	switch args[0] {
	case "info":
		return r.Info(ctx, args[1:])
	case "render":
		return r.Render(ctx, args[1:])
	case "spreads":
		return r.Spreads(ctx, args[1:])
	}
	return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
}

func (r *Runner) open(ctx context.Context, location string) (*api.Document, error) {
	data, err := r.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, &source.LoadError{URL: location, Err: err}
	}
	doc, err := api.OpenBytes(data)
	if err != nil {
		return nil, &source.LoadError{URL: location, Err: err}
	}
	r.Log.Debug("document opened", "url", location, "pages", doc.PageCount())
	return doc, nil
}

// Info prints document metadata and the size of the first page.
func (r *Runner) Info(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: info <file.pdf|url>", ErrUsage)
	}
	doc, err := r.open(ctx, args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	w := r.Out
	fmt.Fprintf(w, "File: %s\n", source.DisplayName(args[0], ""))
	fmt.Fprintln(w, "────────────────────────────────────────")
	fmt.Fprintf(w, "Pages: %d\n", doc.PageCount())

	info := doc.Info()
	for _, f := range []struct{ label, value string }{
		{"Title", info.Title},
		{"Author", info.Author},
		{"Subject", info.Subject},
		{"Creator", info.Creator},
		{"Producer", info.Producer},
		{"Created", info.CreationDate},
		{"Modified", info.ModDate},
	} {
		if f.value != "" {
			fmt.Fprintf(w, "%s: %s\n", f.label, f.value)
		}
	}

	page, err := doc.Page(1)
	if err != nil {
		return err
	}
	size := page.Size()
	fmt.Fprintln(w, "\nFirst Page:")
	fmt.Fprintf(w, "  Size: %.2f × %.2f points (%.2f × %.2f inches)\n",
		size.Width, size.Height, size.Width/72, size.Height/72)
	orientation := "portrait"
	if page.IsLandscape() {
		orientation = "landscape"
	}
	fmt.Fprintf(w, "  Aspect: %.3f (%s)\n", page.AspectRatio(), orientation)
	pw, ph := page.SizeInPixels(api.DefaultRenderOptions())
	fmt.Fprintf(w, "  Pixels at scale 1: %d × %d\n", pw, ph)
	return nil
}

type renderArgs struct {
	location string
	output   string
	page     int
	scale    float64
	trim     bool
	export   api.ExportOptions
}

func parseRenderArgs(args []string) (renderArgs, error) {
	usage := fmt.Errorf("%w: render <file.pdf|url> [-o out.png] [-p page] [-scale n] [-format png|jpeg] [-trim]", ErrUsage)
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return renderArgs{}, usage
	}
	ra := renderArgs{
		location: args[0],
		output:   "output.png",
		page:     1,
		scale:    1,
		export:   api.DefaultExportOptions(),
	}
	formatSet := false

	value := func(i int) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%w: %s needs a value", ErrUsage, args[i])
		}
		return args[i+1], nil
	}
	for i := 1; i < len(args); i++ {
		switch args[i] {
		case "-o":
			v, err := value(i)
			if err != nil {
				return ra, err
			}
			ra.output = v
			i++
		case "-p":
			v, err := value(i)
			if err != nil {
				return ra, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return ra, fmt.Errorf("%w: -p must be a page number from 1, got %q", ErrUsage, v)
			}
			ra.page = n
			i++
		case "-scale":
			v, err := value(i)
			if err != nil {
				return ra, err
			}
			s, err := strconv.ParseFloat(v, 64)
			if err != nil || s <= 0 {
				return ra, fmt.Errorf("%w: -scale must be positive, got %q", ErrUsage, v)
			}
			ra.scale = s
			i++
		case "-format":
			v, err := value(i)
			if err != nil {
				return ra, err
			}
			switch strings.ToLower(v) {
			case "png":
				ra.export = api.PNG()
			case "jpeg", "jpg":
				ra.export = api.JPEG(api.DefaultExportOptions().Quality)
			default:
				return ra, fmt.Errorf("%w: unknown format %q", ErrUsage, v)
			}
			formatSet = true
			i++
		case "-trim":
			ra.trim = true
		default:
			return ra, fmt.Errorf("%w: unknown option %q", ErrUsage, args[i])
		}
	}

	if !formatSet {
		switch strings.ToLower(filepath.Ext(ra.output)) {
		case ".jpg", ".jpeg":
			ra.export = api.JPEG(api.DefaultExportOptions().Quality)
		}
	}
	return ra, nil
}

// Render rasterizes one page to an image file.
func (r *Runner) Render(ctx context.Context, args []string) error {
	ra, err := parseRenderArgs(args)
	if err != nil {
		return err
	}
	doc, err := r.open(ctx, ra.location)
	if err != nil {
		return err
	}
	defer doc.Close()

	opts := api.NewRenderOptions(api.Scale(ra.scale))
	if ra.trim {
		opts.Apply(api.Trim())
	}
	page, err := doc.Page(ra.page)
	if err != nil {
		return err
	}
	pw, ph := page.SizeInPixels(opts)
	fmt.Fprintf(r.Out, "Rendering page %d at %.0f DPI (%dx%d)...\n", ra.page, opts.EffectiveDPI(), pw, ph)
	img, err := page.RenderWithOptions(opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(ra.output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(ra.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := api.Encode(f, img, ra.export); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", ra.export.Format, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	b := img.Bounds()
	fmt.Fprintf(r.Out, "Saved %s (%dx%d pixels)\n", ra.output, b.Dx(), b.Dy())
	return nil
}

// Spreads prints how the viewer groups the document's pages.
func (r *Runner) Spreads(ctx context.Context, args []string) error {
	var location string
	mode := spread.Double
	for _, a := range args {
		switch {
		case a == "-narrow":
			mode = spread.Single
		case strings.HasPrefix(a, "-"):
			return fmt.Errorf("%w: unknown option %q", ErrUsage, a)
		case location == "":
			location = a
		default:
			return fmt.Errorf("%w: spreads <file.pdf|url> [-narrow]", ErrUsage)
		}
	}
	if location == "" {
		return fmt.Errorf("%w: spreads <file.pdf|url> [-narrow]", ErrUsage)
	}

	doc, err := r.open(ctx, location)
	if err != nil {
		return err
	}
	total := doc.PageCount()
	doc.Close()

	writeSpreads(r.Out, total, mode)
	return nil
}

func writeSpreads(w io.Writer, total int, mode spread.Mode) {
	p := spread.New(total, mode)
	fmt.Fprintf(w, "%d pages, %s layout, %d spreads\n", total, mode, p.MaxIndex()+1)
	for {
		fmt.Fprintf(w, "%4d: %s\n", p.Index(), p.Label())
		if !p.Next() {
			return
		}
	}
}
