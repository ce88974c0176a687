package gui

import (
	"image"
	"image/color"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	lru "github.com/hashicorp/golang-lru/v2"

	"folio/pkg/raster"
	"folio/pkg/source"
)

// thumbScale is the raster multiplier thumbnails are rendered at before
// being scaled down to the grid width.
const thumbScale = 0.5

// thumbCacheSize bounds the thumbnails kept while the grid is open, a few
// screens of cells.
const thumbCacheSize = 48

// thumbGrid is the overlay of page thumbnails. Cells are rendered when the
// grid first shows them, each independently, outside the page cache. Only
// the most recently shown thumbnails are kept, and none once the grid
// closes.
type thumbGrid struct {
	src    Rasterizer
	width  int
	aspect float32

	OnSelect func(page int)
	OnClose  func()

	grid *widget.GridWrap
	root *fyne.Container

	mu        sync.Mutex
	total     int
	gen       uint64
	images    *lru.Cache[int, image.Image]
	requested map[int]bool
}

func newThumbGrid(src Rasterizer, width int, aspect float32) *thumbGrid {
	images, err := lru.New[int, image.Image](thumbCacheSize)
	if err != nil {
		panic(err)
	}
	t := &thumbGrid{
		src:       src,
		width:     width,
		aspect:    aspect,
		images:    images,
		requested: make(map[int]bool),
	}
	t.build()
	return t
}

func (t *thumbGrid) build() {
	cell := fyne.NewSize(float32(t.width), float32(t.width)*t.aspect)

	t.grid = widget.NewGridWrap(
		t.length,
		func() fyne.CanvasObject {
			img := canvas.NewImageFromImage(nil)
			img.FillMode = canvas.ImageFillContain
			img.SetMinSize(cell)
			label := widget.NewLabel("")
			label.Alignment = fyne.TextAlignCenter
			return container.NewBorder(nil, label, nil, nil, img)
		},
		t.update,
	)
	t.grid.OnSelected = func(id widget.GridWrapItemID) {
		t.grid.UnselectAll()
		if t.OnSelect != nil {
			t.OnSelect(id + 1)
		}
	}

	closeBtn := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
		if t.OnClose != nil {
			t.OnClose()
		}
	})
	bg := canvas.NewRectangle(color.NRGBA{A: 0xe6})
	t.root = container.NewStack(bg, container.NewBorder(
		container.NewHBox(widget.NewLabel("Pages"), layout.NewSpacer(), closeBtn),
		nil, nil, nil,
		t.grid,
	))
	t.root.Hide()
}

func (t *thumbGrid) length() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *thumbGrid) update(id widget.GridWrapItemID, obj fyne.CanvasObject) {
	page := id + 1
	border := obj.(*fyne.Container)
	var img *canvas.Image
	var label *widget.Label
	for _, o := range border.Objects {
		switch o := o.(type) {
		case *canvas.Image:
			img = o
		case *widget.Label:
			label = o
		}
	}
	label.SetText(strconv.Itoa(page))

	t.mu.Lock()
	thumb, ok := t.images.Get(page)
	start := !ok && !t.requested[page]
	if start {
		t.requested[page] = true
	}
	gen := t.gen
	t.mu.Unlock()

	img.Image = thumb
	img.Refresh()
	if start {
		t.src.Preview(page, thumbScale, func(r source.Result) { t.loaded(gen, r) })
	}
}

func (t *thumbGrid) loaded(gen uint64, r source.Result) {
	img := r.Image
	if r.Err != nil || img == nil {
		img = raster.Placeholder(t.width, int(float32(t.width)*t.aspect))
	} else {
		img = raster.Thumbnail(img, t.width)
	}

	t.mu.Lock()
	if gen != t.gen {
		// the grid was cleared while rendering
		t.mu.Unlock()
		return
	}
	delete(t.requested, r.Page)
	t.images.Add(r.Page, img)
	t.mu.Unlock()
	t.grid.Refresh()
}

// reset empties the grid for a document of total pages.
func (t *thumbGrid) reset(total int) {
	t.mu.Lock()
	t.total = total
	t.clearLocked()
	t.mu.Unlock()
	t.grid.Refresh()
}

// clear drops every thumbnail; cells render again when next shown.
func (t *thumbGrid) clear() {
	t.mu.Lock()
	t.clearLocked()
	t.mu.Unlock()
}

func (t *thumbGrid) clearLocked() {
	t.gen++
	t.images.Purge()
	t.requested = make(map[int]bool)
}

// rendered returns the number of thumbnails ready.
func (t *thumbGrid) rendered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.images.Len()
}
