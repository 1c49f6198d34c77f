// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"depthlens/internal/app"
	"depthlens/internal/asset"
	dlimage "depthlens/internal/image"
	"depthlens/internal/version"
	"depthlens/internal/viewer"
	"depthlens/ui/canvas"
	"depthlens/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeyLastCatalog = "lastCatalog"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	viewer *viewer.Viewer
	loader asset.Loader

	lensView  *canvas.LensView
	views     []*canvas.ViewportView
	strip     *panels.SceneStrip
	statusBar *widget.Label

	// Toolbar items that follow viewer state
	zoomLabel  *widget.Label
	sceneLabel *widget.Label
	prevBtn    *widget.Button
	nextBtn    *widget.Button

	catalogPath string
	logger      zerolog.Logger
}

// New creates the main window for v. catalogPath is the config file the
// scenes came from; it is used by Reload Catalog.
func New(fyneApp fyne.App, v *viewer.Viewer, loader asset.Loader, catalogPath string) *MainWindow {
	win := fyneApp.NewWindow("DepthLens")

	mw := &MainWindow{
		Window:      win,
		app:         fyneApp,
		viewer:      v,
		loader:      loader,
		catalogPath: catalogPath,
		logger:      log.With().Str("module", "mainwindow").Logger(),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.lensView = canvas.NewLensView(mw.viewer)

	grid := container.New(canvas.NewGridLayout(mw.viewer.Config.GridGap))
	for _, vp := range mw.viewer.Magnifier.Viewports() {
		view := canvas.NewViewportView(vp)
		mw.views = append(mw.views, view)
		grid.Add(view)
	}

	mw.strip = panels.NewSceneStrip(mw.viewer, mw.loader)
	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	// Primary on the left, comparisons on the right
	compare := container.NewGridWithColumns(2, mw.lensView, grid)

	bottom := container.NewVBox(
		mw.strip.Container(),
		container.NewPadded(mw.statusBar),
	)

	content := container.NewBorder(
		toolbar, // top
		bottom,  // bottom
		nil,     // left
		nil,     // right
		compare, // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1200, 720))
}

// createToolbar creates the toolbar with navigation and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.prevBtn = widget.NewButton("Previous", mw.viewer.Previous)
	mw.nextBtn = widget.NewButton("Next", mw.viewer.Next)
	mw.prevBtn.Disable()
	mw.nextBtn.Disable()

	mw.sceneLabel = widget.NewLabel("")
	mw.zoomLabel = widget.NewLabel(mw.viewer.Magnifier.ZoomText())

	zoomOutBtn := widget.NewButton("-", func() { mw.viewer.Key('-') })
	zoomInBtn := widget.NewButton("+", func() { mw.viewer.Key('+') })

	return container.NewHBox(
		mw.prevBtn,
		mw.nextBtn,
		mw.sceneLabel,
		widget.NewSeparator(),
		zoomOutBtn,
		zoomInBtn,
		mw.zoomLabel,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Catalog...", mw.onOpenCatalog),
		fyne.NewMenuItem("Reload Catalog", mw.onReloadCatalog),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Load Comparison Folder...", mw.onLoadComparisons),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.viewer.Key('+') }),
		fyne.NewMenuItem("Zoom Out", func() { mw.viewer.Key('-') }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Previous Scene", mw.viewer.Previous),
		fyne.NewMenuItem("Next Scene", mw.viewer.Next),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

// setupKeys routes zoom runes to the magnifier and arrows to navigation.
func (mw *MainWindow) setupKeys() {
	mw.Canvas().SetOnTypedRune(func(r rune) {
		mw.viewer.Key(r)
	})
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft, fyne.KeyPageUp:
			mw.viewer.Previous()
		case fyne.KeyRight, fyne.KeyPageDown:
			mw.viewer.Next()
		}
	})
}

// setupEventHandlers registers for viewer events. Handlers run on the
// viewer's loop, so reading controller state here is safe.
func (mw *MainWindow) setupEventHandlers() {
	events := mw.viewer.Events

	events.On(app.EventZoomChanged, func(data interface{}) {
		mw.zoomLabel.SetText(data.(app.ZoomChange).Text)
	})

	events.On(app.EventSceneChanged, func(data interface{}) {
		sc := data.(app.SceneChange)
		mw.sceneLabel.SetText(sc.Name)
		mw.SetTitle("DepthLens - " + sc.Name)
		for i, view := range mw.views {
			label := ""
			if i < len(sc.Labels) {
				label = sc.Labels[i]
			}
			view.SetLabel(label)
		}
		mw.lensView.SetPrimary(mw.viewer.Scenes.Primary())
		mw.refreshViews()
	})

	events.On(app.EventAssetReady, func(data interface{}) {
		ev := data.(app.AssetEvent)
		if ev.Slot < 0 {
			mw.lensView.SetPrimary(mw.viewer.Scenes.Primary())
		}
		mw.refreshViews()
	})

	events.On(app.EventAssetFailed, func(data interface{}) {
		ev := data.(app.AssetEvent)
		mw.updateStatus(fmt.Sprintf("Failed to load %s: %v", ev.URL, ev.Err))
	})

	events.On(app.EventLensMoved, func(interface{}) {
		mw.refreshViews()
	})

	events.On(app.EventNavChanged, func(data interface{}) {
		nav := data.(app.NavState)
		setEnabled(mw.prevBtn, nav.CanPrevious)
		setEnabled(mw.nextBtn, nav.CanNext)
		if nav.Count > 0 && nav.Index >= 0 {
			mw.updateStatus(fmt.Sprintf("Scene %d of %d", nav.Index+1, nav.Count))
		}
	})

	events.On(app.EventCatalogReloaded, func(data interface{}) {
		mw.updateStatus(fmt.Sprintf("Catalog reloaded: %d scenes", data.(int)))
	})
}

func (mw *MainWindow) refreshViews() {
	for _, view := range mw.views {
		view.Refresh()
	}
}

func setEnabled(b *widget.Button, enabled bool) {
	if enabled {
		b.Enable()
	} else {
		b.Disable()
	}
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

func (mw *MainWindow) onOpenCatalog() {
	dlg := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		mw.saveLastDir(path)
		mw.app.Preferences().SetString(prefKeyLastCatalog, path)
		mw.catalogPath = path
		mw.logger.Info().Str("path", path).Msg("opening catalog")
		mw.viewer.ReloadCatalog(path)
	}, mw.Window)
	dlg.SetFilter(storage.NewExtensionFileFilter([]string{".yaml", ".yml", ".json"}))
	if dir := mw.getLastDir(); dir != nil {
		dlg.SetLocation(dir)
	}
	dlg.Show()
}

func (mw *MainWindow) onReloadCatalog() {
	if mw.catalogPath == "" {
		mw.updateStatus("No catalog file to reload")
		return
	}
	mw.viewer.ReloadCatalog(mw.catalogPath)
}

// onLoadComparisons replaces the current scene's comparison images with
// the supported images in a folder, in name order.
func (mw *MainWindow) onLoadComparisons() {
	dlg := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		urls, err := comparisonFiles(dir.Path())
		if err != nil {
			mw.logger.Warn().Err(err).Msg("comparison folder rejected")
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastDir, dir.Path())
		mw.viewer.Reload(urls)
	}, mw.Window)
	if dir := mw.getLastDir(); dir != nil {
		dlg.SetLocation(dir)
	}
	dlg.Show()
}

func comparisonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read comparison folder: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !dlimage.IsSupportedFormat(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported images in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About DepthLens",
		version.String()+"\n\n"+
			"Compare depth estimates side by side under a shared magnifier.",
		mw.Window)
}
