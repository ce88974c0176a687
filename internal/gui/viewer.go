package gui

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/benbjohnson/clock"

	"folio/internal/config"
	"folio/internal/debounce"
	"folio/internal/logging"
	"folio/pkg/buffer"
	"folio/pkg/source"
	"folio/pkg/spread"
	"folio/pkg/zoom"
)

// Rasterizer loads documents and renders their pages asynchronously.
// Callbacks must not run on the calling goroutine.
type Rasterizer interface {
	Load(ctx context.Context, location string, onDone func(pages int, err error))
	Raster(page int, scale float64, cb func(source.Result))
	// Preview renders like Raster without keeping the bitmap in the shared
	// page cache.
	Preview(page int, scale float64, cb func(source.Result))
}

// titler is implemented by sources that know the document's metadata title.
type titler interface {
	Title() string
}

// Fullscreener is the part of a window that toggles fullscreen.
type Fullscreener interface {
	FullScreen() bool
	SetFullScreen(bool)
}

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	Config config.Config
	Logger *slog.Logger
	// Clock drives the quality and fullscreen delays. Nil means real time.
	Clock clock.Clock
	// Window receives fullscreen requests. Nil always simulates fullscreen.
	Window Fullscreener
}

// Viewer is the book widget: it shows the current spread of a document,
// pans and zooms it, and overlays the navigation controls.
//
// All state is guarded by mu. Fyne objects are only touched with mu
// released, except the canvas images positioned during layout.
type Viewer struct {
	widget.BaseWidget

	cfg    config.Config
	log    *slog.Logger
	src    Rasterizer
	win    Fullscreener
	layout bookLayout
	step   float64

	chrome *chrome
	thumbs *thumbGrid
	status *canvas.Text

	// OnOpen is called by the open button.
	OnOpen func()
	// OnFullscreen reports fullscreen changes; simulated is true when the
	// window could not go fullscreen and the viewer fills it instead.
	OnFullscreen func(on, simulated bool)

	mu         sync.Mutex
	after      []func()
	name       string
	state      source.State
	loadErr    error
	pager      *spread.Pager
	engine     *zoom.Engine
	quality    *zoom.Quality
	slots      [2]*pageSlot
	size       fyne.Size
	measured   bool
	zoomKey    bool
	uiVisible  bool
	overlay    bool
	fullscreen bool
	simulated  bool
	// fsFrom is the viewport size when fullscreen was last requested.
	fsFrom     fyne.Size
	resetTask  *debounce.Task
}

// NewViewer creates a viewer rendering through src.
func NewViewer(src Rasterizer, opts ViewerOptions) *Viewer {
	cfg := opts.Config
	v := &Viewer{
		cfg:       cfg,
		log:       logging.Component(opts.Logger, "viewer"),
		src:       src,
		win:       opts.Window,
		layout:    newBookLayout(cfg.Viewer),
		step:      cfg.Zoom.ButtonStep,
		pager:     spread.New(0, spread.Double),
		uiVisible: true,
	}
	v.engine = zoom.NewEngine(zoom.Limits{
		Min:              1,
		Max:              cfg.Zoom.Max,
		Snap:             cfg.Zoom.Snap,
		Margin:           cfg.Zoom.Margin,
		Damping:          cfg.Zoom.Damping,
		WheelSensitivity: cfg.Zoom.WheelSensitivity,
	})
	v.quality = zoom.NewQuality(zoom.QualityConfig{
		DevicePixelRatio: cfg.Quality.DevicePixelRatio,
		ConstrainedCap:   cfg.Quality.ConstrainedCap,
		WideFactor:       cfg.Quality.WideFactor,
		Headroom:         cfg.Quality.Headroom,
		SettleDelay:      cfg.Quality.SettleDelay.Duration,
	}, opts.Clock, v.levelChanged)
	v.resetTask = debounce.NewTask(opts.Clock, cfg.Fullscreen.ResetDelay.Duration, v.settleFullscreen)
	for i := range v.slots {
		v.slots[i] = newPageSlot(v.render, v.swapped)
	}

	v.status = canvas.NewText("", theme.ForegroundColor())
	v.status.Alignment = fyne.TextAlignCenter

	v.chrome = newChrome(cfg.Viewer.UIFade.Duration)
	v.chrome.OnOpen = func() {
		if v.OnOpen != nil {
			v.OnOpen()
		}
	}
	v.chrome.OnPrev = v.Prev
	v.chrome.OnNext = v.Next
	v.chrome.OnZoomIn = v.ZoomIn
	v.chrome.OnZoomOut = v.ZoomOut
	v.chrome.OnGrid = v.ShowThumbnails
	v.chrome.OnFullscreen = v.ToggleFullscreen
	v.chrome.OnToggleUI = v.ToggleUI

	v.thumbs = newThumbGrid(src, cfg.Render.ThumbnailWidth, cfg.Viewer.PageAspect)
	v.thumbs.OnSelect = func(page int) {
		v.JumpTo(page)
		v.HideThumbnails()
	}
	v.thumbs.OnClose = v.HideThumbnails

	v.ExtendBaseWidget(v)
	v.sync()
	return v
}

// do runs fn with the state locked, then the hooks fn queued, then
// refreshes the widgets.
func (v *Viewer) do(fn func()) {
	v.mu.Lock()
	fn()
	after := v.after
	v.after = nil
	v.mu.Unlock()

	for _, f := range after {
		f()
	}
	v.sync()
}

// sync pushes the current state into the widgets.
func (v *Viewer) sync() {
	v.mu.Lock()
	s := chromeState{
		name:       v.name,
		label:      v.pager.Label(),
		zoom:       v.engine.Transform().Scale,
		ready:      v.state == source.Ready,
		atStart:    v.pager.AtStart(),
		atEnd:      v.pager.AtEnd(),
		uiVisible:  v.uiVisible,
		fullscreen: v.fullscreen,
	}
	overlay := v.overlay
	status := ""
	switch v.state {
	case source.Loading:
		status = "Loading…"
	case source.Failed:
		status = v.loadErr.Error()
	}
	v.mu.Unlock()

	v.chrome.apply(s)
	setShown(v.thumbs.root, overlay)
	if v.status.Text != status {
		v.status.Text = status
		v.status.Refresh()
	}
	v.Refresh()
}

// Load opens the document at location. name is shown in the header; when
// empty it is derived from the location.
func (v *Viewer) Load(location, name string) {
	v.do(func() {
		v.name = source.DisplayName(location, name)
		v.state = source.Loading
		v.loadErr = nil
		v.overlay = false
		v.pager.SetTotal(0)
		v.engine.Reset()
		for _, s := range v.slots {
			s.reset()
		}
		v.quality.Reset()
		v.updateContent()
		v.after = append(v.after, func() { v.thumbs.reset(0) })
	})

	v.src.Load(context.Background(), location, func(pages int, err error) {
		v.do(func() {
			if err != nil {
				v.state = source.Failed
				v.loadErr = err
				return
			}
			v.state = source.Ready
			if v.name == source.FallbackName && strings.TrimSpace(name) == "" {
				if t, ok := v.src.(titler); ok && t.Title() != "" {
					v.name = t.Title()
				}
			}
			v.pager.SetTotal(pages)
			v.requestPages(buffer.Still)
			v.after = append(v.after, func() { v.thumbs.reset(pages) })
		})
	})
}

// Name returns the display name of the document.
func (v *Viewer) Name() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.name
}

// State returns the load state of the document.
func (v *Viewer) State() source.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Err returns the load error, if loading failed.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadErr
}

// render is the buffer's RenderFunc. Completions re-enter under the lock.
func (v *Viewer) render(t buffer.Target, done func(image.Image, error)) {
	v.src.Raster(t.Page, t.Scale, func(r source.Result) {
		v.do(func() {
			if errors.Is(r.Err, source.ErrNotReady) {
				return
			}
			done(r.Image, r.Err)
		})
	})
}

// swapped is called under the lock when a slot promotes a new bitmap.
func (v *Viewer) swapped(s *pageSlot, tr buffer.Transition) {
	gen := s.swapped(tr, v.cfg.Transition.Offset)
	d := v.cfg.Transition.Duration.Duration
	if d <= 0 {
		s.settle(gen, 1)
		return
	}
	v.after = append(v.after, func() {
		anim := fyne.NewAnimation(d, func(p float32) {
			v.mu.Lock()
			ok := s.settle(gen, p)
			v.mu.Unlock()
			if ok {
				v.Refresh()
			}
		})
		anim.Curve = fyne.AnimationEaseOut

		v.mu.Lock()
		prev := s.anim
		s.anim = anim
		v.mu.Unlock()
		if prev != nil {
			prev.Stop()
		}
		anim.Start()
	})
}

// levelChanged runs on whichever goroutine changed the quality level, which
// may hold the lock, so the re-request is deferred.
func (v *Viewer) levelChanged(level float64) {
	v.log.Debug("render quality changed", "level", level)
	go v.do(func() { v.requestPages(buffer.Still) })
}

// requestPages points the slots at the current spread and quality level.
func (v *Viewer) requestPages(dir buffer.Direction) {
	if v.state != source.Ready {
		return
	}
	pages := v.pager.Pages()
	level := v.quality.Level()
	for i, s := range v.slots {
		s.visible = i < len(pages)
		if s.visible {
			s.buf.Request(buffer.Target{Page: pages[i], Scale: level}, dir)
		}
	}
	v.updateContent()
}

// updateContent tells the engine how large the spread is at rest.
func (v *Viewer) updateContent() {
	n := 0
	if v.state == source.Ready {
		n = len(v.pager.Pages())
	}
	_, _, content := v.layout.place(v.size, v.pager.Mode(), n)
	v.engine.SetContent(toSize(content))
}

// navigate applies step to the pager; a change resets the view and renders
// the new spread.
func (v *Viewer) navigate(step func(p *spread.Pager) bool) {
	v.do(func() {
		if v.state != source.Ready {
			return
		}
		before := v.pager.Index()
		if !step(v.pager) {
			return
		}
		dir := buffer.Forward
		if v.pager.Index() < before {
			dir = buffer.Backward
		}
		v.engine.Reset()
		v.quality.Reset()
		v.requestPages(dir)
	})
}

// Next shows the next spread.
func (v *Viewer) Next() { v.navigate((*spread.Pager).Next) }

// Prev shows the previous spread.
func (v *Viewer) Prev() { v.navigate((*spread.Pager).Prev) }

// First shows the cover.
func (v *Viewer) First() { v.navigate((*spread.Pager).First) }

// Last shows the final spread.
func (v *Viewer) Last() { v.navigate((*spread.Pager).Last) }

// JumpTo shows the spread containing page.
func (v *Viewer) JumpTo(page int) {
	v.navigate(func(p *spread.Pager) bool { return p.JumpTo(page) })
}

// Spread returns the spread index and the pages on screen.
func (v *Viewer) Spread() (int, []int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != source.Ready {
		return 0, nil
	}
	return v.pager.Index(), v.pager.Pages()
}

// Transform returns the current view transform.
func (v *Viewer) Transform() zoom.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.engine.Transform()
}

// zoomTo applies a zoom step and lets the quality policy observe it.
func (v *Viewer) zoomTo(apply func(e *zoom.Engine) (zoom.Transform, bool)) {
	v.do(func() {
		if v.state != source.Ready || v.overlay {
			return
		}
		if t, ok := apply(v.engine); ok {
			v.quality.Observe(t.Scale)
		}
	})
}

// ZoomIn zooms in by one button step around the centre.
func (v *Viewer) ZoomIn() {
	v.zoomTo(func(e *zoom.Engine) (zoom.Transform, bool) { return e.ZoomBy(v.step) })
}

// ZoomOut zooms out by one button step around the centre.
func (v *Viewer) ZoomOut() {
	v.zoomTo(func(e *zoom.Engine) (zoom.Transform, bool) { return e.ZoomBy(-v.step) })
}

// SetZoomModifier records whether the zoom modifier key is held. Wheel
// input only zooms while it is.
func (v *Viewer) SetZoomModifier(held bool) {
	v.mu.Lock()
	v.zoomKey = held
	v.mu.Unlock()
}

// Scrolled zooms around the pointer while the zoom modifier is held.
func (v *Viewer) Scrolled(ev *fyne.ScrollEvent) {
	v.mu.Lock()
	zoomKey := v.zoomKey
	v.mu.Unlock()
	if !zoomKey {
		return
	}
	v.zoomTo(func(e *zoom.Engine) (zoom.Transform, bool) {
		return e.Wheel(toPoint(ev.Position), float64(ev.Scrolled.DY))
	})
}

// Dragged pans the zoomed spread.
func (v *Viewer) Dragged(ev *fyne.DragEvent) {
	v.do(func() {
		if v.overlay || v.state != source.Ready {
			return
		}
		if !v.engine.Dragging() && !v.engine.BeginDrag() {
			return
		}
		v.engine.DragBy(zoom.Point{X: float64(ev.Dragged.DX), Y: float64(ev.Dragged.DY)})
	})
}

// DragEnd snaps the pan back inside the bounds.
func (v *Viewer) DragEnd() {
	v.do(func() {
		if v.engine.Dragging() {
			v.engine.EndDrag()
		}
	})
}

// ToggleUI shows or hides the controls.
func (v *Viewer) ToggleUI() {
	v.do(func() { v.uiVisible = !v.uiVisible })
}

// UIVisible reports whether the controls are shown.
func (v *Viewer) UIVisible() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.uiVisible
}

// ShowThumbnails opens the page grid.
func (v *Viewer) ShowThumbnails() {
	v.do(func() {
		if v.state == source.Ready {
			v.overlay = true
		}
	})
}

// HideThumbnails closes the page grid and drops its bitmaps.
func (v *Viewer) HideThumbnails() {
	v.do(func() {
		v.overlay = false
		v.after = append(v.after, v.thumbs.clear)
	})
}

// ThumbnailsShown reports whether the page grid is open.
func (v *Viewer) ThumbnailsShown() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.overlay
}

// ToggleFullscreen enters or leaves fullscreen. The view is reset once the
// layout has had time to settle.
func (v *Viewer) ToggleFullscreen() {
	v.do(func() {
		on := !v.fullscreen
		v.fullscreen = on
		v.after = append(v.after, func() { v.applyFullscreen(on) })
	})
}

func (v *Viewer) applyFullscreen(on bool) {
	simulated := on
	if v.win != nil {
		v.win.SetFullScreen(on)
		// a desktop window reports the requested state at once; a refusal
		// by the window manager is only caught by settleFullscreen
		simulated = on && !v.win.FullScreen()
	}
	if simulated {
		v.log.Info("window fullscreen unavailable, filling the window instead")
	}

	v.mu.Lock()
	v.simulated = simulated
	v.fsFrom = v.size
	v.mu.Unlock()

	if v.OnFullscreen != nil {
		v.OnFullscreen(on, simulated)
	}
	v.resetTask.Arm()
}

// settleFullscreen runs once the layout has settled after a fullscreen
// change. It resets the view, and treats a window that claimed fullscreen
// without the viewport resizing as simulated.
func (v *Viewer) settleFullscreen() {
	refused := false
	v.do(func() {
		v.resetView()
		if v.fullscreen && !v.simulated && v.size == v.fsFrom {
			v.simulated = true
			refused = true
		}
	})
	if !refused {
		return
	}
	v.log.Info("window did not resize for fullscreen, filling the window instead")
	if v.OnFullscreen != nil {
		v.OnFullscreen(true, true)
	}
}

// Fullscreen reports whether the viewer is fullscreen, and whether that
// is simulated.
func (v *Viewer) Fullscreen() (on, simulated bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fullscreen, v.simulated
}

func (v *Viewer) resetView() {
	v.engine.Reset()
	v.quality.Reset()
}

func (v *Viewer) escape() {
	v.mu.Lock()
	overlay, fullscreen := v.overlay, v.fullscreen
	v.mu.Unlock()

	switch {
	case overlay:
		v.HideThumbnails()
	case fullscreen:
		v.ToggleFullscreen()
	}
}

// TypedKey handles the keyboard shortcuts. The fullscreen key also matches
// by physical key, for layouts whose F position produces no Latin name.
func (v *Viewer) TypedKey(ev *fyne.KeyEvent) {
	if isFullscreenKey(ev) {
		v.ToggleFullscreen()
		return
	}
	switch ev.Name {
	case fyne.KeyLeft:
		v.Prev()
	case fyne.KeyRight:
		v.Next()
	case fyne.KeyHome:
		v.First()
	case fyne.KeyEnd:
		v.Last()
	case fyne.KeyEscape:
		v.escape()
	case fyne.KeyPlus, fyne.KeyEqual:
		v.ZoomIn()
	case fyne.KeyMinus:
		v.ZoomOut()
	}
}

// KeyDown and KeyUp track the zoom modifier; wire them to a desktop.Canvas.
func (v *Viewer) KeyDown(ev *fyne.KeyEvent) {
	if isZoomModifier(ev.Name) {
		v.SetZoomModifier(true)
	}
}

func (v *Viewer) KeyUp(ev *fyne.KeyEvent) {
	if isZoomModifier(ev.Name) {
		v.SetZoomModifier(false)
	}
}

// FocusLost forgets the zoom modifier, whose release the viewer never sees
// once the window is in the background.
func (v *Viewer) FocusLost() {
	v.SetZoomModifier(false)
}

// Resize measures the viewport. Crossing the breakpoint switches between
// single pages and spreads; the measurement alone never renders anything.
func (v *Viewer) Resize(size fyne.Size) {
	ratio := v.cfg.Quality.DevicePixelRatio
	if ratio == 0 {
		if app := fyne.CurrentApp(); app != nil {
			if c := app.Driver().CanvasForObject(v); c != nil {
				ratio = float64(c.Scale())
			}
		}
	}
	v.BaseWidget.Resize(size)
	v.do(func() { v.measure(size, ratio) })
}

func (v *Viewer) measure(size fyne.Size, ratio float64) {
	v.size = size
	v.engine.SetViewport(toSize(size))
	if size.Width <= 0 || size.Height <= 0 {
		v.updateContent()
		return
	}

	mode := spread.ModeFor(size.Width, v.cfg.Viewer.Breakpoint)
	if !v.measured {
		v.measured = true
		// controls start hidden on narrow screens
		v.uiVisible = mode == spread.Double
	}
	v.quality.SetConstrained(mode == spread.Single)
	if ratio > 0 {
		v.quality.SetDevicePixelRatio(ratio)
	}

	if v.pager.SetMode(mode) {
		v.engine.Reset()
		v.requestPages(buffer.Still)
		return
	}
	v.updateContent()
}

// CreateRenderer creates the renderer for this widget.
func (v *Viewer) CreateRenderer() fyne.WidgetRenderer {
	r := &viewerRenderer{viewer: v}
	for _, s := range v.slots {
		r.objects = append(r.objects, s.objects()...)
	}
	r.objects = append(r.objects, v.status, v.chrome.Container(), v.thumbs.root)
	return r
}

// viewerRenderer renders the viewer.
type viewerRenderer struct {
	viewer  *Viewer
	objects []fyne.CanvasObject
}

func (r *viewerRenderer) Layout(size fyne.Size) {
	v := r.viewer

	v.mu.Lock()
	n := 0
	if v.state == source.Ready {
		n = len(v.pager.Pages())
	}
	pos, page, _ := v.layout.place(size, v.pager.Mode(), n)
	t := v.engine.Transform()
	place := func(p fyne.Position, s fyne.Size, dx float32) (fyne.Position, fyne.Size) {
		return project(p, s, size, t, dx)
	}
	for i, s := range v.slots {
		if i < len(pos) {
			s.layout(s.visible, pos[i], page, place)
		} else {
			s.layout(false, fyne.Position{}, fyne.Size{}, place)
		}
	}
	v.mu.Unlock()

	v.status.Move(fyne.NewPos(0, size.Height/2-v.status.MinSize().Height/2))
	v.status.Resize(fyne.NewSize(size.Width, v.status.MinSize().Height))
	v.chrome.Container().Resize(size)
	v.thumbs.root.Resize(size)
}

func (r *viewerRenderer) MinSize() fyne.Size {
	return fyne.NewSize(200, 200)
}

func (r *viewerRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *viewerRenderer) Refresh() {
	r.Layout(r.viewer.Size())
	for _, o := range r.objects {
		o.Refresh()
	}
}

func (r *viewerRenderer) Destroy() {}
