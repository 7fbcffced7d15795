// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"path/filepath"

	"light-table/internal/app"
	"light-table/internal/scene"
	"light-table/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SidePanel lists the images on the canvas and hosts the arrange and
// annotation controls.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.CompareCanvas
	window    fyne.Window
	container fyne.CanvasObject

	itemList *widget.List
	itemIDs  []string // row -> item id, front-most first

	detailCard     *widget.Card
	placementLabel *widget.Label

	noteList     *widget.List
	noteIDs      []string // row -> annotation id, oldest first
	noteEntry    *widget.Entry
	selectedNote int

	// Guards against event feedback while the panel updates its own widgets.
	syncingList bool
	settingNote bool
}

// NewSidePanel creates the side panel.
func NewSidePanel(state *app.State, cvs *canvas.CompareCanvas) *SidePanel {
	sp := &SidePanel{
		state:        state,
		canvas:       cvs,
		selectedNote: -1,
	}

	// Image list, front-most first.
	sp.itemList = widget.NewList(
		func() int {
			return len(sp.itemIDs)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("image name")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id >= len(sp.itemIDs) {
				return
			}
			if it, ok := state.Scene.Item(sp.itemIDs[id]); ok {
				label.SetText(fmt.Sprintf("%s  %dx%d",
					filepath.Base(it.SourcePath), it.NaturalWidth, it.NaturalHeight))
			}
		},
	)
	sp.itemList.OnSelected = func(row widget.ListItemID) {
		if sp.syncingList || int(row) >= len(sp.itemIDs) {
			return
		}
		id := sp.itemIDs[row]
		// Clicking a row that is already part of a multi-selection keeps the
		// group; the canvas is where selections collapse.
		if !state.Scene.IsSelected(id) {
			state.Scene.SetSelection([]string{id})
		}
		sp.canvas.ViewItem(id)
	}

	listScroll := container.NewVScroll(sp.itemList)
	listScroll.SetMinSize(fyne.NewSize(0, 200))

	// Stacking and alignment controls act on the current selection.
	stackRow := container.NewHBox(
		widget.NewButton("Front", func() { sp.reorderPrimary(scene.ReorderTop) }),
		widget.NewButton("Up", func() { sp.reorderPrimary(scene.ReorderUp) }),
		widget.NewButton("Down", func() { sp.reorderPrimary(scene.ReorderDown) }),
		widget.NewButton("Back", func() { sp.reorderPrimary(scene.ReorderBottom) }),
	)
	alignRowH := container.NewHBox(
		widget.NewButton("Left", func() { state.Scene.AlignSelection(scene.AlignLeft) }),
		widget.NewButton("H Ctr", func() { state.Scene.AlignSelection(scene.AlignCenterX) }),
		widget.NewButton("Right", func() { state.Scene.AlignSelection(scene.AlignRight) }),
	)
	alignRowV := container.NewHBox(
		widget.NewButton("Top", func() { state.Scene.AlignSelection(scene.AlignTop) }),
		widget.NewButton("V Ctr", func() { state.Scene.AlignSelection(scene.AlignCenterY) }),
		widget.NewButton("Bottom", func() { state.Scene.AlignSelection(scene.AlignBottom) }),
	)
	resetBtn := widget.NewButton("Reset Placement", func() { sp.resetSelected() })
	removeBtn := widget.NewButton("Remove", func() { sp.removeSelected() })

	// Detail card for the primary selected item.
	sp.placementLabel = widget.NewLabel("")
	sp.placementLabel.Wrapping = fyne.TextWrapWord
	sp.detailCard = widget.NewCard("No Selection", "", sp.placementLabel)

	// Annotation list and editor for the primary selected item.
	sp.noteList = widget.NewList(
		func() int {
			return len(sp.noteIDs)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("note")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if id >= len(sp.noteIDs) {
				return
			}
			text := sp.noteText(sp.noteIDs[id])
			if text == "" {
				text = "(empty)"
			}
			label.SetText(fmt.Sprintf("%d. %s", id+1, text))
		},
	)
	sp.noteList.OnSelected = func(row widget.ListItemID) {
		if int(row) >= len(sp.noteIDs) {
			return
		}
		sp.selectedNote = int(row)
		sp.settingNote = true
		sp.noteEntry.SetText(sp.noteText(sp.noteIDs[row]))
		sp.settingNote = false
	}
	sp.noteList.OnUnselected = func(widget.ListItemID) {
		sp.selectedNote = -1
	}

	sp.noteEntry = widget.NewEntry()
	sp.noteEntry.SetPlaceHolder("Note text")
	sp.noteEntry.OnChanged = func(text string) {
		if sp.settingNote || sp.selectedNote < 0 || sp.selectedNote >= len(sp.noteIDs) {
			return
		}
		state.Scene.UpdateAnnotation(sp.noteIDs[sp.selectedNote], text)
	}

	noteScroll := container.NewVScroll(sp.noteList)
	noteScroll.SetMinSize(fyne.NewSize(0, 120))

	addNoteBtn := widget.NewButton("Add Note", func() { sp.addNote() })
	deleteNoteBtn := widget.NewButton("Delete Note", func() { sp.deleteNote() })

	// Layout
	sp.container = container.NewVScroll(container.NewVBox(
		widget.NewCard("Images", "", listScroll),
		widget.NewCard("Arrange", "", container.NewVBox(
			stackRow,
			alignRowH,
			alignRowV,
			container.NewHBox(resetBtn, removeBtn),
		)),
		sp.detailCard,
		widget.NewCard("Notes", "", container.NewVBox(
			noteScroll,
			sp.noteEntry,
			container.NewHBox(addNoteBtn, deleteNoteBtn),
		)),
	))

	// Register for events
	state.Scene.On(scene.EventItemsChanged, func(interface{}) {
		sp.refreshItems()
		sp.refreshDetail()
		sp.refreshNotes()
	})
	state.Scene.On(scene.EventSelectionChanged, func(interface{}) {
		sp.syncListSelection()
		sp.refreshDetail()
		sp.refreshNotes()
	})
	state.Scene.On(scene.EventTransformChanged, func(interface{}) {
		sp.refreshDetail()
	})
	state.Scene.On(scene.EventSceneReset, func(interface{}) {
		sp.refreshDetail()
	})
	state.Scene.On(scene.EventZOrderChanged, func(interface{}) {
		sp.refreshItems()
	})
	state.Scene.On(scene.EventAnnotationsChanged, func(interface{}) {
		sp.refreshNotes()
	})
	state.On(app.EventSurfaceLoaded, func(interface{}) {
		sp.refreshDetail()
	})

	sp.refreshItems()
	sp.refreshDetail()
	sp.refreshNotes()

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.window = w
}

// primarySelection returns the anchor item of the selection, or "".
func (sp *SidePanel) primarySelection() string {
	sel := sp.state.Scene.Selection()
	if len(sel) == 0 {
		return ""
	}
	return sel[len(sel)-1]
}

func (sp *SidePanel) reorderPrimary(mode scene.ReorderMode) {
	if id := sp.primarySelection(); id != "" {
		sp.state.Scene.Reorder(id, mode)
	}
}

func (sp *SidePanel) resetSelected() {
	for _, id := range sp.state.Scene.Selection() {
		sp.state.Scene.ResetItem(id)
	}
}

func (sp *SidePanel) removeSelected() {
	sel := sp.state.Scene.Selection()
	if len(sel) == 0 {
		return
	}
	if sp.window == nil {
		sp.state.RemoveItems(sel)
		return
	}
	dialog.ShowConfirm("Remove Images",
		fmt.Sprintf("Remove %d image(s) from the canvas?\nThe files on disk are not touched.", len(sel)),
		func(confirmed bool) {
			if confirmed {
				sp.state.RemoveItems(sel)
			}
		},
		sp.window)
}

func (sp *SidePanel) addNote() {
	primary := sp.primarySelection()
	if primary == "" {
		return
	}
	if _, err := sp.state.Scene.AddAnnotation(primary, 50, 50, ""); err != nil {
		return
	}
	// The annotation event has already rebuilt noteIDs; the new note is last.
	if n := len(sp.noteIDs); n > 0 {
		sp.noteList.Select(n - 1)
	}
}

func (sp *SidePanel) deleteNote() {
	if sp.selectedNote < 0 || sp.selectedNote >= len(sp.noteIDs) {
		return
	}
	id := sp.noteIDs[sp.selectedNote]
	sp.selectedNote = -1
	sp.noteList.UnselectAll()
	sp.settingNote = true
	sp.noteEntry.SetText("")
	sp.settingNote = false
	sp.state.Scene.RemoveAnnotation(id)
}

// noteText looks up an annotation's text by id.
func (sp *SidePanel) noteText(id string) string {
	for _, a := range sp.state.Scene.AnnotationsFor(sp.primarySelection()) {
		if a.ID == id {
			return a.Text
		}
	}
	return ""
}

// refreshItems rebuilds the row mapping from the z-order, front-most first.
func (sp *SidePanel) refreshItems() {
	order := sp.state.Scene.ZOrder()
	sp.itemIDs = sp.itemIDs[:0]
	for i := len(order) - 1; i >= 0; i-- {
		sp.itemIDs = append(sp.itemIDs, order[i])
	}
	sp.itemList.Refresh()
	sp.syncListSelection()
}

// syncListSelection mirrors the scene's primary selection into the list.
func (sp *SidePanel) syncListSelection() {
	primary := sp.primarySelection()
	sp.syncingList = true
	if primary == "" {
		sp.itemList.UnselectAll()
	} else {
		for row, id := range sp.itemIDs {
			if id == primary {
				sp.itemList.Select(row)
				break
			}
		}
	}
	sp.syncingList = false
}

func (sp *SidePanel) refreshDetail() {
	primary := sp.primarySelection()
	if primary == "" {
		sp.detailCard.SetTitle("No Selection")
		sp.detailCard.SetSubTitle("")
		sp.placementLabel.SetText("")
		return
	}
	it, ok := sp.state.Scene.Item(primary)
	if !ok {
		return
	}
	t, _ := sp.state.Scene.Transform(primary)

	sp.detailCard.SetTitle(filepath.Base(it.SourcePath))
	sp.detailCard.SetSubTitle(fmt.Sprintf("%d x %d px", it.NaturalWidth, it.NaturalHeight))

	placement := "packed"
	if it.Override != nil {
		placement = "manual"
	}
	pixels := "loading"
	if _, ok := sp.state.Loader.Surface(primary); ok {
		pixels = "loaded"
	} else if sp.state.Loader.Failed(primary) {
		pixels = "failed to load"
	}
	sp.placementLabel.SetText(fmt.Sprintf(
		"Placement: %s\nPixels: %s\nPosition: %.0f, %.0f\nSize: %.0f x %.0f\nRotation: %.1f°",
		placement, pixels, t.X, t.Y, t.Width, t.Height, t.Rotation))
}

func (sp *SidePanel) refreshNotes() {
	primary := sp.primarySelection()
	sp.noteIDs = sp.noteIDs[:0]
	for _, a := range sp.state.Scene.AnnotationsFor(primary) {
		sp.noteIDs = append(sp.noteIDs, a.ID)
	}
	if sp.selectedNote >= len(sp.noteIDs) {
		sp.selectedNote = -1
		sp.noteList.UnselectAll()
		sp.settingNote = true
		sp.noteEntry.SetText("")
		sp.settingNote = false
	}
	sp.noteList.Refresh()
}
