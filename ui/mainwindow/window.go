// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"cell-annotator/internal/app"
	"cell-annotator/internal/imaging"
	"cell-annotator/ui/canvas"
	"cell-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *app.Session
	prefs   *prefs.Prefs
	canvas  *canvas.AnnotationCanvas

	statusBar *widget.Label
	fileLabel *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, session *app.Session, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Cell Annotator")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()

	win.Resize(fyne.NewSize(1200, 800))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.New(mw.session)
	mw.canvas.SetOpacity(mw.prefs.FloatWithFallback(prefs.KeyOverlayOpacity, 0.5))

	mw.statusBar = widget.NewLabel("Mask Count: 0")
	mw.fileLabel = widget.NewLabel("No image loaded")

	opacity := widget.NewSlider(0, 1)
	opacity.Step = 0.05
	opacity.Value = mw.canvas.Opacity()
	opacity.OnChanged = func(v float64) {
		mw.canvas.SetOpacity(v)
		mw.prefs.SetFloat(prefs.KeyOverlayOpacity, v)
		if err := mw.prefs.Save(); err != nil {
			log.Printf("Could not save preferences: %v", err)
		}
	}

	channels := widget.NewSelect([]string{"RGB", "Red", "Green", "Blue"}, func(sel string) {
		switch sel {
		case "Red":
			mw.canvas.SetChannel(0)
		case "Green":
			mw.canvas.SetChannel(1)
		case "Blue":
			mw.canvas.SetChannel(2)
		default:
			mw.canvas.SetChannel(-1)
		}
		mw.prefs.SetString(prefs.KeyChannel, sel)
		if err := mw.prefs.Save(); err != nil {
			log.Printf("Could not save preferences: %v", err)
		}
	})
	if sel := mw.prefs.String(prefs.KeyChannel); sel != "" {
		channels.SetSelected(sel)
	} else {
		channels.SetSelected("RGB")
	}

	toolbar := container.NewHBox(
		widget.NewButton("Open...", mw.onOpenImage),
		widget.NewButton("< Prev", mw.onPrevImage),
		widget.NewButton("Next >", mw.onNextImage),
		widget.NewButton("Undo", mw.onUndo),
		widget.NewSeparator(),
		widget.NewButton("-", mw.canvas.ZoomOut),
		widget.NewButton("+", mw.canvas.ZoomIn),
		widget.NewButton("Fit", mw.canvas.FitToWindow),
		widget.NewButton("1:1", mw.canvas.ActualSize),
		widget.NewSeparator(),
		widget.NewLabel("Channel:"),
		channels,
		widget.NewLabel("Opacity:"),
		opacity,
	)

	status := container.NewBorder(nil, nil, mw.fileLabel, mw.statusBar)

	content := container.NewBorder(
		toolbar,                     // top
		container.NewPadded(status), // bottom
		nil,                         // left
		nil,                         // right
		mw.canvas,                   // center
	)

	mw.SetContent(content)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Next Image", mw.onNextImage),
		fyne.NewMenuItem("Previous Image", mw.onPrevImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItem("Actual Size", mw.canvas.ActualSize),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu))
}

// setupShortcuts wires keyboard shortcuts: arrows for navigation, Ctrl+Z
// for undo.
func (mw *MainWindow) setupShortcuts() {
	mw.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyZ,
		Modifier: fyne.KeyModifierControl,
	}, func(fyne.Shortcut) {
		mw.onUndo()
	})

	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyRight:
			mw.onNextImage()
		case fyne.KeyLeft:
			mw.onPrevImage()
		}
	})
}

// setupEventHandlers subscribes to session events for status updates.
func (mw *MainWindow) setupEventHandlers() {
	mw.session.On(app.EventImageLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			files, index := mw.session.Files()
			mw.fileLabel.SetText(fmt.Sprintf("%s (%d/%d)",
				filepath.Base(path), index+1, len(files)))
		}
		mw.updateStatus()
	})
	mw.session.On(app.EventMaskChanged, func(interface{}) {
		mw.updateStatus()
	})
}

func (mw *MainWindow) updateStatus() {
	mw.statusBar.SetText(fmt.Sprintf("Mask Count: %d", mw.session.InstanceCount()))
}

// OpenImage loads an image path into the session, reporting failures in a
// dialog instead of aborting.
func (mw *MainWindow) OpenImage(path string) {
	if err := mw.session.OpenImage(path); err != nil {
		log.Printf("Could not open %s: %v", path, err)
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.prefs.SetString(prefs.KeyLastDirectory, filepath.Dir(path))
	if err := mw.prefs.Save(); err != nil {
		log.Printf("Could not save preferences: %v", err)
	}
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		mw.OpenImage(reader.URI().Path())
	}, mw.Window)

	fd.SetFilter(storage.NewExtensionFileFilter(imaging.SupportedFormats))

	if lastDir := mw.prefs.String(prefs.KeyLastDirectory); lastDir != "" {
		if uri, err := storage.ListerForURI(storage.NewFileURI(lastDir)); err == nil {
			fd.SetLocation(uri)
		}
	}

	fd.Show()
}

func (mw *MainWindow) onNextImage() {
	if err := mw.session.NextImage(); err != nil && err != app.ErrNoImage {
		log.Printf("Next image: %v", err)
	}
}

func (mw *MainWindow) onPrevImage() {
	if err := mw.session.PrevImage(); err != nil && err != app.ErrNoImage {
		log.Printf("Previous image: %v", err)
	}
}

func (mw *MainWindow) onUndo() {
	if !mw.session.Undo() {
		log.Printf("Nothing to undo")
	}
}
