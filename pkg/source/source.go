// Package source loads a document from a URL and rasterizes its pages
// asynchronously. Bitmaps are cached per (page, scale) in a bounded LRU and
// concurrent requests for the same key share a single render.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"

	"folio/pkg/api"
	"folio/pkg/raster"
)

// State is the lifecycle of a Source.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "idle"
}

// ErrNotReady is returned for raster requests while no document is loaded.
var ErrNotReady = errors.New("document not ready")

// LoadError is the terminal failure of loading a URL.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not open %s: %v", DisplayName(e.URL, ""), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Document is a parsed document able to rasterize its pages. Pages are
// 1-based; scale multiplies the reference resolution.
type Document interface {
	PageCount() int
	Render(page int, scale float64) (image.Image, error)
	Close() error
}

// Opener parses raw document bytes.
type Opener func(data []byte) (Document, error)

// Result is the outcome of one raster request.
type Result struct {
	Page  int
	Scale float64
	Image image.Image
	Err   error
}

// Options configures a Source.
type Options struct {
	Fetcher Fetcher
	Open    Opener
	Logger  *slog.Logger

	// CacheEntries bounds the number of cached bitmaps.
	CacheEntries int
	// Workers bounds concurrent rasterizations.
	Workers int
	// TrimCovers crops white margins off the first and last page.
	TrimCovers    bool
	TrimTolerance uint8
}

// DefaultOptions returns options that fetch over http or from disk and
// rasterize with MuPDF.
func DefaultOptions() Options {
	return Options{
		Fetcher:       DefaultFetcher{},
		Open:          OpenPDF(api.ReferenceDPI),
		Logger:        slog.Default(),
		CacheEntries:  24,
		Workers:       2,
		TrimTolerance: raster.DefaultTrimTolerance,
	}
}

// handle guards a document against being closed mid-render.
type handle struct {
	mu     sync.RWMutex
	doc    Document
	closed bool
}

func (h *handle) render(page int, scale float64) (image.Image, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil, ErrNotReady
	}
	return h.doc.Render(page, scale)
}

func (h *handle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		h.doc.Close()
	}
}

// Source is safe for concurrent use. Callbacks never run on the caller's
// goroutine.
type Source struct {
	opts Options
	log  *slog.Logger
	sem  *semaphore.Weighted

	mu       sync.Mutex
	state    State
	url      string
	err      error
	pages    int
	doc      *handle
	gen      uint64
	cancel   context.CancelFunc
	cache    *lru.Cache[Key, image.Image]
	inflight map[Key]*flight
}

// New creates an idle Source. Zero fields of opts fall back to
// DefaultOptions.
func New(opts Options) *Source {
	def := DefaultOptions()
	if opts.Fetcher == nil {
		opts.Fetcher = def.Fetcher
	}
	if opts.Open == nil {
		opts.Open = def.Open
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = def.CacheEntries
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.TrimTolerance == 0 {
		opts.TrimTolerance = def.TrimTolerance
	}
	return &Source{
		opts:     opts,
		log:      opts.Logger.With("component", "source"),
		sem:      semaphore.NewWeighted(int64(opts.Workers)),
		cache:    newCache(opts.CacheEntries),
		inflight: make(map[Key]*flight),
	}
}

// Load replaces the current document with the one at location. onDone, if
// not nil, receives the page count or a *LoadError. A Load superseded by a
// later one is abandoned and its onDone never called.
func (s *Source) Load(ctx context.Context, location string, onDone func(pages int, err error)) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	old := s.doc
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.state = Loading
	s.url = location
	s.err = nil
	s.pages = 0
	s.doc = nil
	s.cache.Purge()
	s.inflight = make(map[Key]*flight)
	s.mu.Unlock()

	if old != nil {
		go old.close()
	}

	s.log.Info("loading document", "url", location)
	go s.load(ctx, gen, location, onDone)
}

func (s *Source) load(ctx context.Context, gen uint64, location string, onDone func(int, error)) {
	start := time.Now()
	doc, err := s.open(ctx, location)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if doc != nil {
			doc.Close()
		}
		return
	}
	pages := 0
	if err != nil {
		err = &LoadError{URL: location, Err: err}
		s.state = Failed
		s.err = err
	} else {
		pages = doc.PageCount()
		s.state = Ready
		s.pages = pages
		s.doc = &handle{doc: doc}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error("document failed to load", "url", location, "error", err)
	} else {
		s.log.Info("document loaded", "url", location, "pages", pages, "duration", time.Since(start))
	}
	if onDone != nil {
		onDone(pages, err)
	}
}

func (s *Source) open(ctx context.Context, location string) (Document, error) {
	data, err := s.opts.Fetcher.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.opts.Open(data)
}

// State returns the lifecycle state.
func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the load error, nil unless the state is Failed.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PageCount returns the number of pages, zero until Ready.
func (s *Source) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

// Title returns the metadata title of the current document, or "" when it
// has none or the document does not carry metadata.
func (s *Source) Title() string {
	s.mu.Lock()
	h := s.doc
	s.mu.Unlock()
	if h == nil {
		return ""
	}
	if t, ok := h.doc.(titled); ok {
		return strings.TrimSpace(t.Title())
	}
	return ""
}

type titled interface {
	Title() string
}

// URL returns the location of the current document.
func (s *Source) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Raster requests page at scale and calls cb with the result on another
// goroutine. Stale requests are not cancelled; results for a document that
// has since been replaced are dropped.
func (s *Source) Raster(page int, scale float64, cb func(Result)) {
	s.request(page, scale, cb, true)
}

// Preview is Raster without caching the result, for short-lived bitmaps
// such as thumbnails that must not evict the pages on screen. A bitmap
// already cached is still reused.
func (s *Source) Preview(page int, scale float64, cb func(Result)) {
	s.request(page, scale, cb, false)
}

func (s *Source) request(page int, scale float64, cb func(Result), store bool) {
	k := Key{Page: page, Scale: scale}

	s.mu.Lock()
	if s.state != Ready {
		s.mu.Unlock()
		go cb(Result{Page: page, Scale: scale, Err: ErrNotReady})
		return
	}
	if page < 1 || page > s.pages {
		s.mu.Unlock()
		go cb(Result{Page: page, Scale: scale, Err: fmt.Errorf("page %d: %w", page, api.ErrPageRange)})
		return
	}
	if img, ok := s.cache.Get(k); ok {
		s.mu.Unlock()
		go cb(Result{Page: page, Scale: scale, Image: img})
		return
	}
	if f, busy := s.inflight[k]; busy {
		f.waiters = append(f.waiters, cb)
		f.store = f.store || store
		s.mu.Unlock()
		return
	}
	s.inflight[k] = &flight{waiters: []func(Result){cb}, store: store}
	gen, doc := s.gen, s.doc
	trim := s.opts.TrimCovers && (page == 1 || page == s.pages)
	s.mu.Unlock()

	go s.rasterize(gen, doc, k, trim)
}

func (s *Source) rasterize(gen uint64, doc *handle, k Key, trim bool) {
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return
	}
	img, err := doc.render(k.Page, k.Scale)
	s.sem.Release(1)

	if err == nil && trim {
		img = raster.TrimWhite(img, s.opts.TrimTolerance)
	}
	if err != nil && !errors.Is(err, ErrNotReady) {
		s.log.Warn("page failed to render", "page", k.Page, "scale", k.Scale, "error", err)
	} else if err == nil {
		b := img.Bounds()
		s.log.Debug("page rendered", "page", k.Page, "scale", k.Scale, "bytes", raster.Bytes(b.Dx(), b.Dy()))
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	f := s.inflight[k]
	delete(s.inflight, k)
	if err == nil && f != nil && f.store {
		s.cache.Add(k, img)
	}
	s.mu.Unlock()

	if f == nil {
		return
	}
	res := Result{Page: k.Page, Scale: k.Scale, Image: img, Err: err}
	for _, cb := range f.waiters {
		cb(res)
	}
}

// Close releases the current document. The Source returns to Idle.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	old := s.doc
	s.gen++
	s.state = Idle
	s.url = ""
	s.err = nil
	s.pages = 0
	s.doc = nil
	s.cache.Purge()
	s.inflight = make(map[Key]*flight)
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
	return nil
}

// pdfDocument adapts an api.Document to Document.
type pdfDocument struct {
	doc *api.Document
	dpi float64
}

// OpenPDF returns an Opener rendering pages at dpi times the requested
// scale.
func OpenPDF(dpi float64) Opener {
	return func(data []byte) (Document, error) {
		doc, err := api.OpenBytes(data)
		if err != nil {
			return nil, err
		}
		return &pdfDocument{doc: doc, dpi: dpi}, nil
	}
}

func (d *pdfDocument) PageCount() int { return d.doc.PageCount() }

func (d *pdfDocument) Render(page int, scale float64) (image.Image, error) {
	return d.doc.RenderWithOptions(page, api.NewRenderOptions(api.DPI(d.dpi), api.Scale(scale)))
}

func (d *pdfDocument) Title() string { return d.doc.Info().Title }

func (d *pdfDocument) Close() error { return d.doc.Close() }
