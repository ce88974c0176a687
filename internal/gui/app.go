// Package gui provides the native desktop document viewer using Fyne.
package gui

import (
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"

	"folio/internal/config"
	"folio/internal/logging"
	"folio/internal/session"
	"folio/pkg/source"
)

// introDuration is how long the viewer takes to fade in on a first visit.
const introDuration = 800 * time.Millisecond

// App represents the viewer application.
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	cfg        config.Config
	log        *slog.Logger
	visits     session.Visits

	source *source.Source
	viewer *Viewer
	intro  *canvas.Rectangle
}

// NewApp creates a new viewer application.
func NewApp(cfg config.Config, logger *slog.Logger, visits session.Visits) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		fyneApp: app.NewWithID("dev.folio.viewer"),
		cfg:     cfg,
		log:     logger,
		visits:  visits,
	}

	a.mainWindow = a.fyneApp.NewWindow("Folio")
	a.mainWindow.Resize(fyne.NewSize(1200, 800))

	a.source = source.New(source.Options{
		Fetcher:       source.DefaultFetcher{},
		Open:          source.OpenPDF(cfg.Render.ReferenceDPI),
		Logger:        logger,
		CacheEntries:  cfg.Render.CacheEntries,
		Workers:       cfg.Render.Workers,
		TrimCovers:    cfg.Render.TrimCovers,
		TrimTolerance: source.DefaultOptions().TrimTolerance,
	})
	a.viewer = NewViewer(a.source, ViewerOptions{
		Config: cfg,
		Logger: logger,
		Window: a.mainWindow,
	})
	return a
}

// Run starts the application and asks for a document.
func (a *App) Run() {
	a.buildUI()
	a.mainWindow.Show()
	a.openFile()
	a.fyneApp.Run()
	a.source.Close()
}

// RunWithURL starts the application with a document already loading.
func (a *App) RunWithURL(location, name string) {
	a.buildUI()
	a.load(location, name)
	a.mainWindow.ShowAndRun()
	a.source.Close()
}

// buildUI constructs the user interface.
func (a *App) buildUI() {
	a.viewer.OnOpen = a.openFile
	a.viewer.OnFullscreen = func(on, simulated bool) {
		logging.Component(a.log, "app").Debug("fullscreen changed", "on", on, "simulated", simulated)
	}

	a.intro = canvas.NewRectangle(theme.BackgroundColor())
	a.intro.Hide()
	a.mainWindow.SetContent(container.NewStack(a.viewer, a.intro))

	// Set up keyboard shortcuts
	c := a.mainWindow.Canvas()
	c.SetOnTypedKey(a.viewer.TypedKey)
	if dc, ok := c.(desktop.Canvas); ok {
		dc.SetOnKeyDown(a.viewer.KeyDown)
		dc.SetOnKeyUp(a.viewer.KeyUp)
	}
	// a modifier released while another window has focus is never seen
	a.fyneApp.Lifecycle().SetOnExitedForeground(a.viewer.FocusLost)

	if session.FirstVisit(a.visits) {
		a.playIntro()
	}
}

// playIntro fades the viewer in from the background colour.
func (a *App) playIntro() {
	start := theme.BackgroundColor()
	r, g, b, _ := start.RGBA()
	end := color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}

	a.intro.FillColor = start
	a.intro.Show()
	anim := canvas.NewColorRGBAAnimation(start, end, introDuration, func(c color.Color) {
		a.intro.FillColor = c
		a.intro.Refresh()
		if _, _, _, alpha := c.RGBA(); alpha == 0 {
			a.intro.Hide()
		}
	})
	anim.Curve = fyne.AnimationEaseOut
	anim.Start()
}

// openFile shows a file dialog and loads the selected PDF.
func (a *App) openFile() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if reader == nil {
			return // Cancelled
		}
		defer reader.Close()

		a.load(reader.URI().String(), reader.URI().Name())
	}, a.mainWindow)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	d.Show()
}

// load starts loading a document and titles the window after it.
func (a *App) load(location, name string) {
	a.viewer.Load(location, name)
	a.mainWindow.SetTitle("Folio - " + a.viewer.Name())
}
