package gui

import (
	"fyne.io/fyne/v2"

	"folio/internal/config"
	"folio/pkg/spread"
	"folio/pkg/zoom"
)

// bookLayout places the pages of a spread inside the viewport at rest.
// Every page gets the same box, so the cover does not change size when the
// book opens into two-page spreads.
type bookLayout struct {
	aspect  float32
	gutter  float32
	padding float32
}

func newBookLayout(c config.Viewer) bookLayout {
	return bookLayout{aspect: c.PageAspect, gutter: c.Gutter, padding: c.Padding}
}

// pageSize returns the box of one page. An unmeasured viewport yields a
// zero size.
func (l bookLayout) pageSize(view fyne.Size, mode spread.Mode) fyne.Size {
	availW := view.Width - 2*l.padding
	availH := view.Height - 2*l.padding
	cols := float32(1)
	if mode == spread.Double {
		cols = 2
		availW -= l.gutter
	}
	if availW <= 0 || availH <= 0 || l.aspect <= 0 {
		return fyne.Size{}
	}

	w := availW / cols
	if maxW := availH / l.aspect; maxW < w {
		w = maxW
	}
	return fyne.NewSize(w, w*l.aspect)
}

// place returns the top-left corner of each of n pages, centred as a group
// in the viewport, the page box and the size of the whole group.
func (l bookLayout) place(view fyne.Size, mode spread.Mode, n int) ([]fyne.Position, fyne.Size, fyne.Size) {
	page := l.pageSize(view, mode)
	if n <= 0 || page.Width <= 0 {
		return nil, page, fyne.Size{}
	}

	content := fyne.NewSize(float32(n)*page.Width+float32(n-1)*l.gutter, page.Height)
	x := (view.Width - content.Width) / 2
	y := (view.Height - content.Height) / 2

	pos := make([]fyne.Position, n)
	for i := range pos {
		pos[i] = fyne.NewPos(x+float32(i)*(page.Width+l.gutter), y)
	}
	return pos, page, content
}

// project maps a box laid out at rest through t, scaling about the
// viewport centre, then shifts it horizontally by dx.
func project(pos fyne.Position, size fyne.Size, view fyne.Size, t zoom.Transform, dx float32) (fyne.Position, fyne.Size) {
	s := float32(t.Scale)
	cx, cy := view.Width/2, view.Height/2
	return fyne.NewPos(
			cx+float32(t.Translation.X)+(pos.X-cx)*s+dx,
			cy+float32(t.Translation.Y)+(pos.Y-cy)*s,
		),
		fyne.NewSize(size.Width*s, size.Height*s)
}

func toSize(s fyne.Size) zoom.Size {
	return zoom.Size{W: float64(s.Width), H: float64(s.Height)}
}

func toPoint(p fyne.Position) zoom.Point {
	return zoom.Point{X: float64(p.X), Y: float64(p.Y)}
}
