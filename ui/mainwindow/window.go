// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"light-table/internal/app"
	"light-table/internal/catalog"
	"light-table/internal/scene"
	"light-table/internal/version"
	"light-table/pkg/geometry"
	"light-table/ui/canvas"
	"light-table/ui/panels"
	"light-table/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const sessionExt = ".lighttable"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	settings  *prefs.Store
	canvas    *canvas.CompareCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	canvasArea   *fyne.Container
	split        *container.Split
	splitOffset  float64
	panelVisible bool
	zoomPct      int

	// Menu items that need state tracking
	snapItem  *fyne.MenuItem
	gridItem  *fyne.MenuItem
	panelItem *fyne.MenuItem

	lastSaved prefs.Settings
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, settings *prefs.Store) *MainWindow {
	win := fyneApp.NewWindow("Light Table")

	mw := &MainWindow{
		Window:       win,
		app:          fyneApp,
		state:        state,
		settings:     settings,
		panelVisible: true,
		zoomPct:      100,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	saved := settings.Get()
	mw.Resize(fyne.NewSize(saved.WindowWidth, saved.WindowHeight))
	mw.SetCloseIntercept(mw.onQuit)
	mw.Canvas().Focus(mw.canvas)

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	saved := mw.settings.Get()

	mw.canvas = canvas.NewCompareCanvas(mw.state.Scene, mw.state.Loader)
	mw.canvas.SetSnapEnabled(saved.SnapEnabled)
	mw.canvas.SetGridVisible(saved.GridVisible)

	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	// Canvas area with toolbar on top
	mw.canvasArea = container.NewBorder(
		toolbar, // top
		nil,     // bottom
		nil,     // left
		nil,     // right
		mw.canvas,
	)

	mw.splitOffset = saved.SplitOffset
	mw.SetContent(mw.buildContent())
}

// buildContent lays out the window. The split is rebuilt on every panel
// toggle because a hidden leading pane would still hold its minimum
// width inside a live split.
func (mw *MainWindow) buildContent() fyne.CanvasObject {
	var center fyne.CanvasObject
	if mw.panelVisible {
		split := container.NewHSplit(
			mw.sidePanel.Container(),
			mw.canvasArea,
		)
		split.SetOffset(mw.splitOffset)
		mw.split = split
		center = split
	} else {
		mw.split = nil
		center = mw.canvasArea
	}

	return container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		center,
	)
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", mw.canvas.FitAll)
	actualBtn := widget.NewButton("1:1", mw.canvas.ActualSize)

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	// File menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Session", mw.onNewSession),
		fyne.NewMenuItem("Open Arrangement...", mw.onOpenArrangement),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Add Image...", mw.onAddImage),
		fyne.NewMenuItem("Add Folder...", mw.onAddFolder),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Arrangement", mw.onSaveArrangement),
		fyne.NewMenuItem("Save Arrangement As...", mw.onSaveArrangementAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", mw.onQuit),
	)

	mw.snapItem = fyne.NewMenuItem(toggleLabel("Snap to Edges", mw.canvas.SnapEnabled()), mw.onToggleSnap)
	mw.gridItem = fyne.NewMenuItem(toggleLabel("Show Grid", mw.canvas.GridVisible()), mw.onToggleGrid)

	// Edit menu
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Select All", mw.onSelectAll),
		fyne.NewMenuItem("Clear Selection", mw.onClearSelection),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Remove Selected", mw.onRemoveSelected),
		fyne.NewMenuItemSeparator(),
		mw.snapItem,
		mw.gridItem,
	)

	mw.panelItem = fyne.NewMenuItem(toggleLabel("Side Panel", mw.panelVisible), mw.onTogglePanel)

	// View menu
	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Actual Size", mw.canvas.ActualSize),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Fit All", mw.canvas.FitAll),
		fyne.NewMenuItem("View Selected", mw.canvas.ViewSelection),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Layout", mw.onResetLayout),
		fyne.NewMenuItemSeparator(),
		mw.panelItem,
	)

	// Help menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// toggleLabel prefixes a checkmark so menu items can show an on/off state.
func toggleLabel(name string, on bool) string {
	if on {
		return "✓ " + name
	}
	return "  " + name
}

// setupEventHandlers registers for application, scene, and canvas events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventSessionLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Light Table - " + filepath.Base(path))
			mw.settings.Update(func(s *prefs.Settings) { s.LastSession = path })
			mw.updateStatus("Arrangement loaded: " + path)
		}
		mw.fitSoon()
	})

	mw.state.On(app.EventSessionSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Light Table - " + filepath.Base(path))
			mw.settings.Update(func(s *prefs.Settings) { s.LastSession = path })
			mw.updateStatus("Arrangement saved: " + path)
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventImagesAdded, func(data interface{}) {
		mw.canvas.FitAll()
		if n, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("Added %d image(s)", n))
		}
	})

	mw.state.On(app.EventSurfaceLoaded, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.Scene.On(scene.EventItemsChanged, func(interface{}) {
		mw.refreshStatus()
	})
	mw.state.Scene.On(scene.EventSelectionChanged, func(interface{}) {
		mw.refreshStatus()
	})

	mw.canvas.OnViewChange(func(view geometry.ViewTransform) {
		mw.zoomPct = int(math.Round(view.Scale * 100))
		mw.refreshStatus()
	})

	mw.canvas.OnSnapChange(func(enabled bool) {
		mw.snapItem.Label = toggleLabel("Snap to Edges", enabled)
		mw.settings.Update(func(s *prefs.Settings) { s.SnapEnabled = enabled })
	})

	mw.canvas.OnAnnotate(func(itemID string, xPercent, yPercent float64) {
		entry := widget.NewEntry()
		entry.SetPlaceHolder("What's notable here?")
		items := []*widget.FormItem{widget.NewFormItem("Note", entry)}
		dialog.ShowForm("Add Note", "Add", "Cancel", items, func(ok bool) {
			if !ok {
				return
			}
			if _, err := mw.state.Scene.AddAnnotation(itemID, xPercent, yPercent, entry.Text); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}, mw.Window)
	})

	// Escape backs out of the current selection first; a second press
	// asks to leave.
	mw.canvas.OnClose(func() {
		if len(mw.state.Scene.Selection()) > 0 {
			mw.state.Scene.ClearSelection()
			return
		}
		mw.onQuit()
	})
}

// refreshStatus rebuilds the standing status line.
func (mw *MainWindow) refreshStatus() {
	mw.statusBar.SetText(fmt.Sprintf("Zoom: %d%%  |  %d image(s)  |  %d selected",
		mw.zoomPct, mw.state.Scene.Len(), len(mw.state.Scene.Selection())))
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.settings.Get().LastImageDir
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	dir := filepath.Dir(filePath)
	mw.settings.Update(func(s *prefs.Settings) { s.LastImageDir = dir })
}

// RestoreLastSession reopens the arrangement from the previous run, if
// it is still on disk.
func (mw *MainWindow) RestoreLastSession() {
	path := mw.settings.Get().LastSession
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if _, err := mw.state.LoadSession(path); err != nil {
		slog.Warn("could not restore last arrangement", "path", path, "error", err)
	}
}

// fitSoon frames the scene once the canvas has a real size. A session
// restored at startup lands before the first layout pass, when the
// viewport is still zero.
func (mw *MainWindow) fitSoon() {
	go func() {
		time.Sleep(200 * time.Millisecond)
		mw.canvas.FitAll()
	}()
}

// SavePreferences writes the window geometry and canvas toggles to disk.
func (mw *MainWindow) SavePreferences() {
	current := mw.currentSettings()
	mw.settings.Update(func(s *prefs.Settings) { *s = current })
	if err := mw.settings.Save(); err != nil {
		slog.Warn("could not save preferences", "error", err)
	}
	mw.lastSaved = current
}

// SavePreferencesIfChanged saves only when something moved since the
// last save, so the periodic autosave does not touch the disk while idle.
func (mw *MainWindow) SavePreferencesIfChanged() {
	if mw.currentSettings() == mw.lastSaved {
		return
	}
	mw.SavePreferences()
}

// currentSettings folds the live window geometry and canvas toggles into
// the stored settings.
func (mw *MainWindow) currentSettings() prefs.Settings {
	if mw.split != nil {
		mw.splitOffset = mw.split.Offset
	}
	size := mw.Canvas().Size()

	s := mw.settings.Get()
	s.WindowWidth = size.Width
	s.WindowHeight = size.Height
	s.SplitOffset = mw.splitOffset
	s.SnapEnabled = mw.canvas.SnapEnabled()
	s.GridVisible = mw.canvas.GridVisible()
	return s
}

// Menu action handlers

func (mw *MainWindow) onNewSession() {
	start := func() {
		mw.state.Clear()
		mw.SetTitle("Light Table")
		mw.updateStatus("New session")
	}
	if !mw.state.Modified {
		start()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The arrangement has unsaved changes.\nDiscard them and start fresh?",
		func(ok bool) {
			if ok {
				start()
			}
		}, mw.Window)
}

func (mw *MainWindow) onOpenArrangement() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		skipped, err := mw.state.LoadSession(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if skipped > 0 {
			dialog.ShowInformation("Missing Images",
				fmt.Sprintf("%d item(s) could not be restored because\ntheir image files are missing.", skipped),
				mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{sessionExt}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if _, err := mw.state.AddImages([]string{path}); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(catalog.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAddFolder() {
	fd := dialog.NewFolderOpen(func(list fyne.ListableURI, err error) {
		if err != nil || list == nil {
			return
		}
		dir := list.Path()
		mw.settings.Update(func(s *prefs.Settings) { s.LastImageDir = dir })

		children, err := list.List()
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		var paths []string
		for _, child := range children {
			p := child.Path()
			if catalog.IsSupportedFormat(filepath.Ext(p)) {
				paths = append(paths, p)
			}
		}
		sort.Strings(paths)

		if len(paths) == 0 {
			dialog.ShowInformation("No Images",
				"That folder contains no supported image files.", mw.Window)
			return
		}
		if _, err := mw.state.AddImages(paths); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveArrangement() {
	if mw.state.SessionPath == "" {
		mw.onSaveArrangementAs()
		return
	}
	if err := mw.state.SaveSession(mw.state.SessionPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveArrangementAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != sessionExt {
			path += sessionExt
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveSession(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("compare" + sessionExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onQuit() {
	mw.SavePreferences()
	if !mw.state.Modified {
		mw.app.Quit()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"The arrangement has unsaved changes.\nQuit anyway?",
		func(quit bool) {
			if quit {
				mw.app.Quit()
			}
		}, mw.Window)
}

func (mw *MainWindow) onSelectAll() {
	mw.state.Scene.SetSelection(mw.state.Scene.ZOrder())
}

func (mw *MainWindow) onClearSelection() {
	mw.state.Scene.ClearSelection()
}

func (mw *MainWindow) onRemoveSelected() {
	ids := mw.state.Scene.Selection()
	if len(ids) == 0 {
		return
	}
	dialog.ShowConfirm("Remove Images",
		fmt.Sprintf("Remove %d image(s) from the canvas?\nThe files on disk are not touched.", len(ids)),
		func(ok bool) {
			if ok {
				mw.state.RemoveItems(ids)
			}
		}, mw.Window)
}

func (mw *MainWindow) onToggleSnap() {
	// The label tracks the change through OnSnapChange.
	mw.canvas.SetSnapEnabled(!mw.canvas.SnapEnabled())
}

func (mw *MainWindow) onToggleGrid() {
	on := !mw.canvas.GridVisible()
	mw.canvas.SetGridVisible(on)
	mw.gridItem.Label = toggleLabel("Show Grid", on)
	mw.settings.Update(func(s *prefs.Settings) { s.GridVisible = on })
}

func (mw *MainWindow) onResetLayout() {
	if mw.state.Scene.Len() == 0 {
		return
	}
	dialog.ShowConfirm("Reset Layout",
		"Re-pack all images and discard manual placement?",
		func(ok bool) {
			if !ok {
				return
			}
			mw.state.Scene.ResetAll()
			mw.canvas.FitAll()
		}, mw.Window)
}

func (mw *MainWindow) onTogglePanel() {
	if mw.split != nil {
		mw.splitOffset = mw.split.Offset
	}
	mw.panelVisible = !mw.panelVisible
	mw.panelItem.Label = toggleLabel("Side Panel", mw.panelVisible)
	mw.SetContent(mw.buildContent())
	mw.Canvas().Focus(mw.canvas)
	mw.canvas.FitAll()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Light Table",
		fmt.Sprintf("Light Table v%s\n\n"+
			"A spatial canvas for comparing images\n"+
			"side by side at any zoom.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
