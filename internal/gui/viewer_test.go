package gui

import (
	"context"
	"errors"
	"image"
	"math"
	"runtime"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/internal/config"
	"folio/internal/logging"
	"folio/pkg/buffer"
	"folio/pkg/source"
	"folio/pkg/spread"
)

type fakeDoc struct{ pages int }

func (d fakeDoc) PageCount() int { return d.pages }

func (d fakeDoc) Render(page int, scale float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, int(60*scale), int(85*scale))), nil
}

func (d fakeDoc) Close() error { return nil }

type fakeWindow struct {
	refuse bool
	full   bool
}

func (w *fakeWindow) FullScreen() bool { return w.full }

func (w *fakeWindow) SetFullScreen(on bool) {
	if !w.refuse {
		w.full = on
	}
}

type harness struct {
	viewer *Viewer
	clock  *clock.Mock
	window *fakeWindow
}

func newHarness(t *testing.T, size fyne.Size, pages int, fetchErr error) *harness {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	cfg := config.Default()
	cfg.Transition.Duration = config.Duration{}
	cfg.Viewer.UIFade = config.Duration{}

	src := source.New(source.Options{
		Fetcher: source.FetcherFunc(func(context.Context, string) ([]byte, error) {
			return nil, fetchErr
		}),
		Open:   func([]byte) (source.Document, error) { return fakeDoc{pages: pages}, nil },
		Logger: logging.Discard(),
	})
	h := &harness{clock: clock.NewMock(), window: &fakeWindow{}}
	h.viewer = NewViewer(src, ViewerOptions{
		Config: cfg,
		Logger: logging.Discard(),
		Clock:  h.clock,
		Window: h.window,
	})
	h.viewer.Resize(size)
	h.viewer.Load("https://example.com/press/Look%20Book.pdf", "")
	return h
}

func newReadyHarness(t *testing.T, size fyne.Size, pages int) *harness {
	t.Helper()
	h := newHarness(t, size, pages, nil)
	require.Eventually(t, func() bool { return h.viewer.State() == source.Ready }, 5*time.Second, 5*time.Millisecond)
	h.waitShown(t, 1)
	return h
}

// shown returns the pages whose bitmaps are on screen.
func (h *harness) shown() []int {
	v := h.viewer
	v.mu.Lock()
	defer v.mu.Unlock()
	var pages []int
	for _, s := range v.slots {
		if vis := s.buf.Visible(); s.visible && vis.Ready {
			pages = append(pages, vis.Target.Page)
		}
	}
	return pages
}

func (h *harness) waitShown(t *testing.T, pages ...int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(pages, h.shown())
	}, 5*time.Second, 5*time.Millisecond, "waiting for pages %v", pages)
}

func (h *harness) visibleScale(i int) float64 {
	v := h.viewer
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.slots[i].buf.Visible().Target.Scale
}

func wheel(v *Viewer, at fyne.Position, dy float32) {
	v.Scrolled(&fyne.ScrollEvent{PointEvent: fyne.PointEvent{Position: at}, Scrolled: fyne.NewDelta(0, dy)})
}

var wide = fyne.NewSize(1200, 900)

func TestViewerShowsCoverThenSpreads(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	assert.Equal(t, "Look Book.pdf", v.Name())
	idx, pages := v.Spread()
	assert.Equal(t, 0, idx)
	assert.Equal(t, []int{1}, pages)

	v.Next()
	idx, pages = v.Spread()
	assert.Equal(t, 1, idx)
	assert.Equal(t, []int{2, 3}, pages)
	h.waitShown(t, 2, 3)
	assert.Equal(t, "2-3 / 5", v.chrome.pageLabel.Text)
}

func TestViewerNavigationSaturates(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	v.Prev()
	idx, _ := v.Spread()
	assert.Equal(t, 0, idx)

	v.Last()
	v.Next()
	idx, pages := v.Spread()
	assert.Equal(t, 2, idx)
	assert.Equal(t, []int{4, 5}, pages)
	assert.True(t, v.chrome.sidePrev.Visible())
	assert.False(t, v.chrome.sideNext.Visible(), "next arrow hides on the last spread")
}

func TestViewerWheelZoomNeedsModifier(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	centre := fyne.NewPos(600, 450)

	wheel(v, centre, 10)
	assert.True(t, v.Transform().IsIdentity())

	v.SetZoomModifier(true)
	wheel(v, centre, 10)
	assert.InDelta(t, 1.2, v.Transform().Scale, 1e-9)
	assert.Equal(t, "120%", v.chrome.zoomLabel.Text)

	v.KeyUp(&fyne.KeyEvent{Name: desktop.KeyControlLeft})
	wheel(v, centre, 10)
	assert.InDelta(t, 1.2, v.Transform().Scale, 1e-9)
}

// Zooming in with the pointer beside the cover keeps the cover on screen.
func TestViewerWheelZoomBesideContent(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	v.SetZoomModifier(true)

	for i := 0; i < 10; i++ {
		wheel(v, fyne.NewPos(1150, 450), 10)
	}

	v.mu.Lock()
	tr, bounds := v.engine.Transform(), v.engine.Bounds()
	v.mu.Unlock()
	assert.Equal(t, 4.0, tr.Scale)
	assert.LessOrEqual(t, math.Abs(tr.Translation.X), bounds.X+1e-9)
	assert.LessOrEqual(t, math.Abs(tr.Translation.Y), bounds.Y+1e-9)
}

func TestViewerFocusLossReleasesModifier(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	centre := fyne.NewPos(600, 450)

	v.KeyDown(&fyne.KeyEvent{Name: desktop.KeyControlLeft})
	v.FocusLost()
	wheel(v, centre, 10)
	assert.True(t, v.Transform().IsIdentity(), "the release happened in another window")
}

func TestViewerPageChangeResetsZoom(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	v.ZoomIn()
	assert.Equal(t, 1.5, v.Transform().Scale)
	v.Next()
	assert.True(t, v.Transform().IsIdentity())
}

func TestViewerThumbnailsBlockZoom(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	v.SetZoomModifier(true)

	v.ShowThumbnails()
	require.True(t, v.ThumbnailsShown())
	wheel(v, fyne.NewPos(600, 450), 10)
	assert.True(t, v.Transform().IsIdentity())

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	assert.False(t, v.ThumbnailsShown())
}

func TestViewerThumbnailSelectJumps(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	v.ShowThumbnails()
	v.thumbs.OnSelect(4)
	idx, pages := v.Spread()
	assert.Equal(t, 2, idx)
	assert.Equal(t, []int{4, 5}, pages)
	assert.False(t, v.ThumbnailsShown())
}

func TestViewerHideThumbnailsDropsBitmaps(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	v.ShowThumbnails()
	show(v.thumbs, 1, 5)
	require.Eventually(t, func() bool { return v.thumbs.rendered() == 5 }, 5*time.Second, 5*time.Millisecond)

	v.HideThumbnails()
	assert.Zero(t, v.thumbs.rendered())
}

func TestViewerDragClampsOnRelease(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	v.Next()
	h.waitShown(t, 2, 3)

	v.ZoomIn()
	v.ZoomIn()
	require.Equal(t, 2.0, v.Transform().Scale)

	_, _, content := v.layout.place(wide, spread.Double, 2)
	maxX := (float64(content.Width)*2-float64(wide.Width))/2 + v.cfg.Zoom.Margin

	v.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(2000, 0)})
	assert.Greater(t, v.Transform().Translation.X, maxX, "overshoot while dragging")
	v.DragEnd()
	assert.InDelta(t, maxX, v.Transform().Translation.X, 0.01)
}

func TestViewerDragIgnoredAtRest(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	v.Dragged(&fyne.DragEvent{Dragged: fyne.NewDelta(200, 0)})
	v.DragEnd()
	assert.True(t, v.Transform().IsIdentity())
}

func TestViewerEscalatesQualityAfterSettling(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	require.Equal(t, 2.0, h.visibleScale(0))

	for i := 0; i < 4; i++ {
		v.ZoomIn()
	}
	require.Equal(t, 3.0, v.Transform().Scale)
	assert.Equal(t, 2.0, h.visibleScale(0), "no re-render before the zoom settles")

	h.clock.Add(600 * time.Millisecond)
	require.Eventually(t, func() bool {
		return h.visibleScale(0) > 3.5
	}, 5*time.Second, 5*time.Millisecond)
	assert.InDelta(t, 3.6, h.visibleScale(0), 1e-9)
	assert.Equal(t, 3.0, v.Transform().Scale, "re-rendering does not move the view")
}

func TestViewerFullscreen(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	v.ZoomIn()
	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyF})
	on, simulated := v.Fullscreen()
	assert.True(t, on)
	assert.False(t, simulated)
	assert.True(t, h.window.full)

	assert.False(t, v.Transform().IsIdentity(), "reset waits for the layout to settle")
	v.Resize(fyne.NewSize(1920, 1080))
	h.clock.Add(150 * time.Millisecond)
	require.Eventually(t, func() bool { return v.Transform().IsIdentity() }, time.Second, 5*time.Millisecond)
	_, simulated = v.Fullscreen()
	assert.False(t, simulated, "the viewport grew")

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	on, _ = v.Fullscreen()
	assert.False(t, on)
	assert.False(t, h.window.full)
}

func TestViewerFullscreenFallback(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	h.window.refuse = true

	var got []bool
	h.viewer.OnFullscreen = func(on, simulated bool) { got = append(got, on, simulated) }
	h.viewer.ToggleFullscreen()

	on, simulated := h.viewer.Fullscreen()
	assert.True(t, on)
	assert.True(t, simulated)
	assert.Equal(t, []bool{true, true}, got)
}

func TestViewerFullscreenRefusedWithoutResize(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	reports := make(chan [2]bool, 4)
	v.OnFullscreen = func(on, simulated bool) { reports <- [2]bool{on, simulated} }
	v.ToggleFullscreen()
	assert.Equal(t, [2]bool{true, false}, <-reports, "the window accepted the request")

	h.clock.Add(150 * time.Millisecond)
	select {
	case got := <-reports:
		assert.Equal(t, [2]bool{true, true}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no report once the layout settled")
	}
	on, simulated := v.Fullscreen()
	assert.True(t, on)
	assert.True(t, simulated)
}

func TestViewerFullscreenKeyByPosition(t *testing.T) {
	code, ok := scanCodeF[runtime.GOOS]
	if !ok {
		t.Skipf("no scan code for the F key on %s", runtime.GOOS)
	}
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	// a Cyrillic layout sends the F position without a key name
	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyUnknown, Physical: fyne.HardwareKey{ScanCode: code}})
	on, _ := v.Fullscreen()
	assert.True(t, on)

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyU, Physical: fyne.HardwareKey{ScanCode: code}})
	on, _ = v.Fullscreen()
	assert.True(t, on, "a named key at the F position is that key")

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyF, Physical: fyne.HardwareKey{ScanCode: code + 1}})
	on, _ = v.Fullscreen()
	assert.False(t, on)
}

func TestViewerKeyboardNavigation(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyRight})
	idx, _ := v.Spread()
	assert.Equal(t, 1, idx)

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEnd})
	idx, _ = v.Spread()
	assert.Equal(t, 2, idx)

	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	v.TypedKey(&fyne.KeyEvent{Name: fyne.KeyHome})
	idx, _ = v.Spread()
	assert.Equal(t, 0, idx)
}

func TestViewerNarrowShowsSinglePages(t *testing.T) {
	h := newReadyHarness(t, fyne.NewSize(600, 900), 5)
	v := h.viewer

	assert.False(t, v.UIVisible(), "controls start hidden on narrow screens")
	v.Next()
	_, pages := v.Spread()
	assert.Equal(t, []int{2}, pages)
	h.waitShown(t, 2)
	// constrained screens render at a fixed, capped level
	assert.Equal(t, 1.0, h.visibleScale(0))

	v.ToggleUI()
	assert.True(t, v.UIVisible())
}

func TestViewerResizeAcrossBreakpoint(t *testing.T) {
	h := newReadyHarness(t, fyne.NewSize(600, 900), 5)
	v := h.viewer
	v.Last()
	idx, _ := v.Spread()
	require.Equal(t, 4, idx)

	v.Resize(wide)
	idx, pages := v.Spread()
	assert.Equal(t, 2, idx, "index is clamped to the spread count")
	assert.Equal(t, []int{4, 5}, pages)
	h.waitShown(t, 4, 5)
}

func TestViewerLoadFailure(t *testing.T) {
	h := newHarness(t, wide, 5, errors.New("404 Not Found"))
	v := h.viewer
	require.Eventually(t, func() bool { return v.State() == source.Failed }, 5*time.Second, 5*time.Millisecond)

	assert.ErrorContains(t, v.Err(), "Look Book.pdf")
	assert.Equal(t, v.Err().Error(), v.status.Text)

	v.Next()
	v.ZoomIn()
	idx, pages := v.Spread()
	assert.Zero(t, idx)
	assert.Nil(t, pages)
	assert.True(t, v.Transform().IsIdentity())
}

func TestViewerReloadResetsState(t *testing.T) {
	h := newReadyHarness(t, wide, 5)
	v := h.viewer
	v.Last()

	v.Load("file:///tmp/other.pdf", "Other")
	assert.Equal(t, "Other", v.Name())
	require.Eventually(t, func() bool { return v.State() == source.Ready }, 5*time.Second, 5*time.Millisecond)
	idx, _ := v.Spread()
	assert.Zero(t, idx)
	h.waitShown(t, 1)
}

func TestSlotPlaceholderOnError(t *testing.T) {
	s := newPageSlot(func(t buffer.Target, done func(image.Image, error)) {
		done(nil, errors.New("boom"))
	}, func(s *pageSlot, tr buffer.Transition) { s.settle(s.swapped(tr, 50), 1) })

	s.buf.Request(buffer.Target{Page: 1, Scale: 1}, buffer.Forward)
	img := s.images[s.buf.Active()].Image
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 10, 14), img.Bounds())
}

func TestSlotEnterOffset(t *testing.T) {
	var tr buffer.Transition
	s := newPageSlot(func(t buffer.Target, done func(image.Image, error)) {
		done(image.NewRGBA(image.Rect(0, 0, 1, 1)), nil)
	}, func(s *pageSlot, got buffer.Transition) { tr = got; s.swapped(got, 50) })

	s.buf.Request(buffer.Target{Page: 2, Scale: 1}, buffer.Forward)
	assert.Equal(t, float32(50), s.enter)
	assert.Equal(t, float32(0), s.progress)
	assert.True(t, tr.PageChange)

	s.buf.Request(buffer.Target{Page: 2, Scale: 2}, buffer.Still)
	assert.Equal(t, float32(0), s.enter, "resolution changes cross-fade in place")
}

type titledDoc struct {
	fakeDoc
	title string
}

func (d titledDoc) Title() string { return d.title }

func TestViewerFallsBackToDocumentTitle(t *testing.T) {
	a := test.NewApp()
	t.Cleanup(a.Quit)

	src := source.New(source.Options{
		Fetcher: source.FetcherFunc(func(context.Context, string) ([]byte, error) { return nil, nil }),
		Open: func([]byte) (source.Document, error) {
			return titledDoc{fakeDoc: fakeDoc{pages: 3}, title: "Winter Lookbook"}, nil
		},
		Logger: logging.Discard(),
	})
	cfg := config.Default()
	cfg.Transition.Duration = config.Duration{}
	v := NewViewer(src, ViewerOptions{Config: cfg, Logger: logging.Discard(), Clock: clock.NewMock()})
	v.Resize(wide)

	v.Load("https://example.com/", "")
	require.Eventually(t, func() bool { return v.State() == source.Ready }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "example.com", v.Name(), "a name derived from the URL is kept")

	v.Load("", "")
	require.Eventually(t, func() bool { return v.Name() == "Winter Lookbook" }, 5*time.Second, 5*time.Millisecond)
}
