package gui

import (
	"image/color"
	"strconv"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// chromeState is the part of the viewer state the controls display.
type chromeState struct {
	name       string
	label      string
	zoom       float64
	ready      bool
	atStart    bool
	atEnd      bool
	uiVisible  bool
	fullscreen bool
}

// chrome holds the header, footer and side arrows drawn over the book.
type chrome struct {
	container *fyne.Container

	// Callbacks
	OnOpen       func()
	OnPrev       func()
	OnNext       func()
	OnZoomIn     func()
	OnZoomOut    func()
	OnGrid       func()
	OnFullscreen func()
	OnToggleUI   func()

	// Components
	header     *fyne.Container
	footer     *fyne.Container
	nameLabel  *widget.Label
	pageLabel  *widget.Label
	zoomLabel  *widget.Label
	prevBtn    *widget.Button
	nextBtn    *widget.Button
	sidePrev   *widget.Button
	sideNext   *widget.Button
	gridBtn    *widget.Button
	zoomInBtn  *widget.Button
	zoomOutBtn *widget.Button
	fullBtn    *widget.Button
	uiBtn      *widget.Button
	headerBar  *canvas.Rectangle
	footerBar  *canvas.Rectangle

	// fadeTime is how long the header and footer take to fade.
	fadeTime time.Duration
	// animate starts a fade.
	animate func(*fyne.Animation)

	mu    sync.Mutex
	shown bool
	alpha float32
	fade  *fyne.Animation
}

// barAlpha is the opacity of the header and footer backdrops when shown.
const barAlpha = 0xb3

func newChrome(fadeTime time.Duration) *chrome {
	c := &chrome{
		fadeTime: fadeTime,
		animate:  (*fyne.Animation).Start,
		shown:    true,
		alpha:    barAlpha,
	}
	c.build()
	return c
}

func call(fn *func()) func() {
	return func() {
		if *fn != nil {
			(*fn)()
		}
	}
}

func (c *chrome) build() {
	openBtn := widget.NewButtonWithIcon("", theme.FolderOpenIcon(), call(&c.OnOpen))

	c.nameLabel = widget.NewLabel("")
	c.nameLabel.TextStyle = fyne.TextStyle{Bold: true}

	c.pageLabel = widget.NewLabel("")
	c.pageLabel.Alignment = fyne.TextAlignCenter

	c.gridBtn = widget.NewButtonWithIcon("", theme.GridIcon(), call(&c.OnGrid))
	c.fullBtn = widget.NewButtonWithIcon("", theme.ViewFullScreenIcon(), call(&c.OnFullscreen))
	c.uiBtn = widget.NewButtonWithIcon("", theme.VisibilityOffIcon(), call(&c.OnToggleUI))

	c.header = container.NewBorder(nil, nil,
		openBtn,
		container.NewHBox(c.pageLabel, c.gridBtn, c.fullBtn),
		c.nameLabel,
	)

	c.prevBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), call(&c.OnPrev))
	c.nextBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), call(&c.OnNext))
	c.zoomOutBtn = widget.NewButtonWithIcon("", theme.ZoomOutIcon(), call(&c.OnZoomOut))
	c.zoomInBtn = widget.NewButtonWithIcon("", theme.ZoomInIcon(), call(&c.OnZoomIn))
	c.zoomLabel = widget.NewLabel("100%")

	c.footer = container.NewHBox(
		layout.NewSpacer(),
		c.prevBtn,
		widget.NewSeparator(),
		c.zoomOutBtn,
		c.zoomLabel,
		c.zoomInBtn,
		widget.NewSeparator(),
		c.nextBtn,
		layout.NewSpacer(),
	)

	c.sidePrev = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), call(&c.OnPrev))
	c.sideNext = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), call(&c.OnNext))
	c.sidePrev.Importance = widget.LowImportance
	c.sideNext.Importance = widget.LowImportance

	c.headerBar = canvas.NewRectangle(barColor(barAlpha))
	c.footerBar = canvas.NewRectangle(barColor(barAlpha))

	// the visibility toggle stays on screen so hidden chrome can come back
	top := container.NewBorder(nil, nil, nil, c.uiBtn, container.NewStack(c.headerBar, c.header))
	c.container = container.NewBorder(
		container.NewPadded(top),
		container.NewPadded(container.NewStack(c.footerBar, c.footer)),
		container.NewVBox(layout.NewSpacer(), c.sidePrev, layout.NewSpacer()),
		container.NewVBox(layout.NewSpacer(), c.sideNext, layout.NewSpacer()),
	)
}

// Container returns the chrome container.
func (c *chrome) Container() *fyne.Container {
	return c.container
}

// apply updates every control from s.
func (c *chrome) apply(s chromeState) {
	c.nameLabel.SetText(s.name)
	c.pageLabel.SetText(s.label)
	c.zoomLabel.SetText(strconv.Itoa(int(s.zoom*100+0.5)) + "%")

	setEnabled(c.prevBtn, s.ready && !s.atStart)
	setEnabled(c.nextBtn, s.ready && !s.atEnd)
	setEnabled(c.gridBtn, s.ready)
	setEnabled(c.zoomInBtn, s.ready)
	setEnabled(c.zoomOutBtn, s.ready)

	if s.fullscreen {
		c.fullBtn.SetIcon(theme.ViewRestoreIcon())
	} else {
		c.fullBtn.SetIcon(theme.ViewFullScreenIcon())
	}
	if s.uiVisible {
		c.uiBtn.SetIcon(theme.VisibilityOffIcon())
	} else {
		c.uiBtn.SetIcon(theme.VisibilityIcon())
	}

	c.fadeTo(s.uiVisible)
	// side arrows disappear at the ends of the book
	setShown(c.sidePrev, s.uiVisible && s.ready && !s.atStart)
	setShown(c.sideNext, s.uiVisible && s.ready && !s.atEnd)
}

// fadeTo fades the header and footer in or out. Controls appear as the
// fade in starts and disappear once the fade out completes.
func (c *chrome) fadeTo(on bool) {
	c.mu.Lock()
	if on == c.shown {
		c.mu.Unlock()
		return
	}
	c.shown = on
	prev := c.fade
	c.fade = nil
	from := c.alpha
	c.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}

	var to float32
	if on {
		to = barAlpha
		setShown(c.header, true)
		setShown(c.footer, true)
		setShown(c.headerBar, true)
		setShown(c.footerBar, true)
	}
	step := func(p float32) {
		c.mu.Lock()
		if c.shown != on {
			c.mu.Unlock()
			return
		}
		c.alpha = from + (to-from)*p
		fill := barColor(c.alpha)
		c.mu.Unlock()

		c.headerBar.FillColor = fill
		c.footerBar.FillColor = fill
		c.headerBar.Refresh()
		c.footerBar.Refresh()
		if p >= 1 && !on {
			setShown(c.header, false)
			setShown(c.footer, false)
			setShown(c.headerBar, false)
			setShown(c.footerBar, false)
		}
	}
	if c.fadeTime <= 0 {
		step(1)
		return
	}

	anim := fyne.NewAnimation(c.fadeTime, step)
	anim.Curve = fyne.AnimationEaseInOut
	c.mu.Lock()
	c.fade = anim
	c.mu.Unlock()
	c.animate(anim)
}

func barColor(alpha float32) color.Color {
	return color.NRGBA{A: uint8(alpha)}
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func setShown(o fyne.CanvasObject, on bool) {
	if on == o.Visible() {
		return
	}
	if on {
		o.Show()
	} else {
		o.Hide()
	}
}
