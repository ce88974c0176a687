package gui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"folio/pkg/buffer"
	"folio/pkg/raster"
)

// pageSlot shows one page position of the book. It owns a double buffer
// and one canvas.Image per buffer slot, and animates the swap between them.
// All fields are guarded by the owning Viewer's mutex.
type pageSlot struct {
	buf     *buffer.Buffer
	images  [2]*canvas.Image
	visible bool

	from     buffer.SlotID
	enter    float32
	progress float32
	gen      int
	anim     *fyne.Animation
}

func newPageSlot(render buffer.RenderFunc, onSwap func(*pageSlot, buffer.Transition)) *pageSlot {
	s := &pageSlot{progress: 1}
	for i := range s.images {
		img := canvas.NewImageFromImage(nil)
		img.FillMode = canvas.ImageFillContain
		img.ScaleMode = canvas.ImageScaleSmooth
		img.Hide()
		s.images[i] = img
	}
	s.buf = buffer.New(render, func(tr buffer.Transition) {
		onSwap(s, tr)
	})
	return s
}

// slotImage returns what a buffer slot displays: its bitmap, or a neutral
// placeholder when the page failed to render.
func slotImage(sl buffer.Slot) image.Image {
	if sl.Err != nil || sl.Image == nil {
		return raster.Placeholder(10, 14)
	}
	return sl.Image
}

// swapped starts a transition from tr.From to tr.To and returns its
// generation.
func (s *pageSlot) swapped(tr buffer.Transition, offset float32) int {
	s.images[tr.To].Image = slotImage(s.buf.Slot(tr.To))
	s.from = tr.From
	s.enter = tr.EnterOffset(offset)
	s.progress = 0
	s.gen++
	return s.gen
}

// settle records animation progress. At the end the outgoing bitmap is
// dropped so only one stays materialized per slot.
func (s *pageSlot) settle(gen int, p float32) bool {
	if gen != s.gen {
		return false
	}
	s.progress = p
	if p >= 1 {
		s.progress = 1
		s.buf.ReleaseStandby()
		if s.buf.Active() != s.from {
			s.images[s.from].Image = nil
		}
	}
	return true
}

// reset drops both bitmaps, e.g. for a new document.
func (s *pageSlot) reset() {
	s.buf.Reset()
	s.gen++
	s.progress = 1
	for _, img := range s.images {
		img.Image = nil
	}
}

// layout positions the images for the box at pos/size (at rest), using
// place to apply the view transform and a horizontal offset.
func (s *pageSlot) layout(show bool, pos fyne.Position, size fyne.Size, place func(fyne.Position, fyne.Size, float32) (fyne.Position, fyne.Size)) {
	active := s.buf.Active()
	in, out := s.images[active], s.images[active.Other()]

	if !show || in.Image == nil {
		in.Hide()
		out.Hide()
		return
	}

	p, sz := place(pos, size, s.enter*(1-s.progress))
	in.Move(p)
	in.Resize(sz)
	in.Translucency = float64(1 - s.progress)
	in.Show()

	if s.progress >= 1 || out.Image == nil || s.from == active {
		out.Hide()
		return
	}
	p, sz = place(pos, size, -s.enter*s.progress)
	out.Move(p)
	out.Resize(sz)
	out.Translucency = float64(s.progress)
	out.Show()
}

func (s *pageSlot) objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{s.images[0], s.images[1]}
}
