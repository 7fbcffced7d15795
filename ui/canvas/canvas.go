// Package canvas provides the infinite workspace widget: pan, zoom,
// selection, and direct manipulation of the images placed on it.
package canvas

import (
	"math"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"light-table/internal/catalog"
	"light-table/internal/scene"
	"light-table/pkg/geometry"
)

const (
	zoomStep = 1.25

	// Interaction distances, in logical pixels.
	dragThresholdPx   = 3
	handleSizePx      = 8
	handleHitSlopPx   = 4
	rotateHandleGapPx = 22
	snapTolerancePx   = 8

	// Wheel zoom: one notch of scroll delta maps through exp so repeated
	// notches compose multiplicatively.
	wheelZoomRate = 0.005
	maxWheelStep  = 1.5

	wheelAnimDuration = 120 * time.Millisecond
	viewAnimDuration  = 300 * time.Millisecond
	fitMargin         = 0.95

	lowResCutoff       = 0.2
	baseGridSpacing    = 100.0
	minGridSpacingPx   = 15.0
	annotationRadiusPx = 5
)

// SurfaceProvider supplies decoded pixel data for catalog ids. Request is
// asynchronous; the canvas paints a placeholder until the surface shows up
// and a scene event triggers the next frame.
type SurfaceProvider interface {
	Surface(id string) (*catalog.Surface, bool)
	Request(id string)
}

// mode is the interaction state the pointer is in.
type mode int

const (
	modeIdle mode = iota
	modePending
	modePanning
	modeMarqueeing
	modeDraggingItem
	modeDraggingGroup
	modeResizing
	modeRotating
)

// gesture tracks one press-drag-release cycle. It is reset by Tapped,
// TappedSecondary, and DragEnd; MouseUp leaves it alone because the driver
// delivers MouseUp before the tap events that still need to read it.
type gesture struct {
	mode     mode
	button   desktop.MouseButton
	modifier fyne.KeyModifier
	start    fyne.Position
	current  fyne.Position

	targetID    string
	wasSelected bool
	toggled     bool

	handle       handleKind
	handleTarget string

	grabWorld  geometry.Point2D
	startT     geometry.ItemTransform
	startGroup geometry.Rect
	startAngle float64
	lastAngle  float64
}

// CompareCanvas displays the scene and routes pointer input into it.
type CompareCanvas struct {
	widget.BaseWidget

	scene    *scene.Scene
	surfaces SurfaceProvider

	raster *fynecanvas.Raster

	gesture gesture

	snapEnabled bool
	showGrid    bool

	// Single animation slot; a new view animation supersedes the
	// running one.
	anim       *fyne.Animation
	animating  bool
	animTarget geometry.ViewTransform

	onClose      func()
	onViewChange func(geometry.ViewTransform)
	onAnnotate   func(itemID string, xPercent, yPercent float64)
	onSnapChange func(enabled bool)
}

var (
	_ fyne.Widget            = (*CompareCanvas)(nil)
	_ fyne.Tappable          = (*CompareCanvas)(nil)
	_ fyne.SecondaryTappable = (*CompareCanvas)(nil)
	_ fyne.Draggable         = (*CompareCanvas)(nil)
	_ fyne.Scrollable        = (*CompareCanvas)(nil)
	_ fyne.Focusable         = (*CompareCanvas)(nil)
	_ desktop.Mouseable      = (*CompareCanvas)(nil)
)

// NewCompareCanvas creates the workspace widget over a scene. The canvas
// subscribes to scene events and repaints itself; surfaces come from the
// provider on demand.
func NewCompareCanvas(s *scene.Scene, surfaces SurfaceProvider) *CompareCanvas {
	cc := &CompareCanvas{
		scene:       s,
		surfaces:    surfaces,
		snapEnabled: true,
		showGrid:    true,
	}
	cc.raster = fynecanvas.NewRaster(cc.draw)
	cc.raster.ScaleMode = fynecanvas.ImageScalePixels
	cc.raster.SetMinSize(fyne.NewSize(400, 300))
	cc.ExtendBaseWidget(cc)

	repaint := func(interface{}) { cc.Refresh() }
	s.On(scene.EventItemsChanged, repaint)
	s.On(scene.EventTransformChanged, repaint)
	s.On(scene.EventSelectionChanged, repaint)
	s.On(scene.EventZOrderChanged, repaint)
	s.On(scene.EventAnnotationsChanged, repaint)
	s.On(scene.EventViewChanged, func(data interface{}) {
		if v, ok := data.(geometry.ViewTransform); ok && cc.onViewChange != nil {
			cc.onViewChange(v)
		}
		cc.Refresh()
	})
	s.On(scene.EventSceneReset, func(interface{}) {
		cc.FitAll()
		cc.Refresh()
	})
	return cc
}

// CreateRenderer implements fyne.Widget.
func (cc *CompareCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}

// Refresh redraws the canvas.
func (cc *CompareCanvas) Refresh() {
	cc.raster.Refresh()
	cc.BaseWidget.Refresh()
}

// OnClose sets the callback invoked when the user presses Escape.
func (cc *CompareCanvas) OnClose(cb func()) {
	cc.onClose = cb
}

// OnViewChange sets the callback invoked whenever the view transform moves.
func (cc *CompareCanvas) OnViewChange(cb func(geometry.ViewTransform)) {
	cc.onViewChange = cb
}

// OnAnnotate sets the callback invoked when the user asks to annotate a
// point on an item. The position is in percent of the item's extent.
func (cc *CompareCanvas) OnAnnotate(cb func(itemID string, xPercent, yPercent float64)) {
	cc.onAnnotate = cb
}

// OnSnapChange sets the callback invoked when snapping is toggled.
func (cc *CompareCanvas) OnSnapChange(cb func(enabled bool)) {
	cc.onSnapChange = cb
}

// SnapEnabled reports whether drag snapping is active.
func (cc *CompareCanvas) SnapEnabled() bool {
	return cc.snapEnabled
}

// SetSnapEnabled turns drag snapping on or off.
func (cc *CompareCanvas) SetSnapEnabled(on bool) {
	if cc.snapEnabled == on {
		return
	}
	cc.snapEnabled = on
	if cc.onSnapChange != nil {
		cc.onSnapChange(on)
	}
}

// GridVisible reports whether the dot grid is drawn.
func (cc *CompareCanvas) GridVisible() bool {
	return cc.showGrid
}

// SetGridVisible turns the dot grid on or off.
func (cc *CompareCanvas) SetGridVisible(on bool) {
	if cc.showGrid == on {
		return
	}
	cc.showGrid = on
	cc.Refresh()
}

func (cc *CompareCanvas) screenToWorld(p fyne.Position) geometry.Point2D {
	return cc.scene.View().ScreenToWorld(geometry.NewPoint2D(float64(p.X), float64(p.Y)))
}

// MouseDown starts a gesture. What the press landed on (handle, item, or
// empty space) decides what a following drag will do; selection updates
// that belong to a plain click wait for Tapped.
func (cc *CompareCanvas) MouseDown(ev *desktop.MouseEvent) {
	cc.stopAnimation()
	cc.pressAt(ev.Position, ev.Button, ev.Modifier)
}

// MouseUp intentionally leaves the gesture in place: the driver fires it
// before Tapped and DragEnd, which consume the gesture themselves.
func (cc *CompareCanvas) MouseUp(*desktop.MouseEvent) {}

func (cc *CompareCanvas) pressAt(pos fyne.Position, button desktop.MouseButton, mod fyne.KeyModifier) {
	cc.gesture = gesture{
		mode:     modePending,
		button:   button,
		modifier: mod,
		start:    pos,
		current:  pos,
	}
	if button == desktop.MouseButtonSecondary {
		return
	}

	world := cc.screenToWorld(pos)
	if kind, target, ok := cc.handleAt(pos); ok {
		cc.beginHandleGesture(kind, target, world)
		return
	}
	if id, ok := cc.scene.ItemAt(world); ok {
		g := &cc.gesture
		g.targetID = id
		g.grabWorld = world
		g.wasSelected = cc.scene.IsSelected(id)
		cc.pressOnItem(id, mod)
		if t, ok := cc.scene.Transform(id); ok {
			g.startT = t
		}
	}
}

// pressOnItem applies the selection change a press implies. Ctrl toggles
// membership immediately; a plain press replaces the selection unless the
// item is already part of it, in which case the selection is kept alive for
// a group drag and only collapsed if the press turns out to be a click.
func (cc *CompareCanvas) pressOnItem(id string, mod fyne.KeyModifier) {
	if mod&fyne.KeyModifierShortcutDefault != 0 {
		cc.gesture.toggled = true
		sel := cc.scene.Selection()
		if cc.scene.IsSelected(id) {
			next := make([]string, 0, len(sel))
			for _, s := range sel {
				if s != id {
					next = append(next, s)
				}
			}
			cc.scene.SetSelection(next)
		} else {
			cc.scene.SetSelection(append(sel, id))
		}
		return
	}
	if !cc.scene.IsSelected(id) {
		cc.scene.SetSelection([]string{id})
	}
}

// handleAt returns the manipulation handle under the pointer, if any. A
// single selection exposes the item's handles; a multi-selection exposes
// the group box's handles.
func (cc *CompareCanvas) handleAt(pos fyne.Position) (handleKind, string, bool) {
	sel := cc.scene.Selection()
	view := cc.scene.View()
	p := geometry.NewPoint2D(float64(pos.X), float64(pos.Y))
	switch {
	case len(sel) == 1:
		t, ok := cc.scene.Transform(sel[0])
		if !ok {
			return handleNone, "", false
		}
		if k, hit := hitHandle(handleLayout(t, view), p); hit {
			return k, sel[0], true
		}
	case len(sel) > 1:
		gt := boxTransform(cc.scene.GroupBounds())
		if k, hit := hitHandle(handleLayout(gt, view), p); hit {
			return k, scene.GroupID, true
		}
	}
	return handleNone, "", false
}

func (cc *CompareCanvas) beginHandleGesture(kind handleKind, target string, world geometry.Point2D) {
	g := &cc.gesture
	g.handle = kind
	g.handleTarget = target
	g.grabWorld = world
	if target == scene.GroupID {
		g.startGroup = cc.scene.GroupBounds()
		g.startAngle = pointerAngle(world, g.startGroup.Center())
	} else if t, ok := cc.scene.Transform(target); ok {
		g.startT = t
		g.startAngle = pointerAngle(world, t.Center())
	}
	g.lastAngle = g.startAngle
}

// Dragged advances the active gesture. The press stays pending until the
// pointer clears the drag threshold, so twitchy clicks do not move items.
func (cc *CompareCanvas) Dragged(ev *fyne.DragEvent) {
	g := &cc.gesture
	if g.mode == modeIdle {
		// Drag delivered without a press; reconstruct one at the
		// drag origin.
		start := fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
		cc.pressAt(start, desktop.MouseButtonPrimary, 0)
	}
	g.current = ev.Position

	if g.mode == modePending {
		dx := float64(ev.Position.X - g.start.X)
		dy := float64(ev.Position.Y - g.start.Y)
		if math.Hypot(dx, dy) < dragThresholdPx {
			return
		}
		cc.activateDrag()
	}

	switch g.mode {
	case modePanning:
		cc.panBy(ev.Dragged.DX, ev.Dragged.DY)
	case modeMarqueeing:
		cc.Refresh()
	case modeDraggingItem:
		cc.dragItem(ev.Position)
	case modeDraggingGroup:
		cc.dragGroup(ev.Position)
	case modeResizing:
		cc.dragResize(ev.Position)
	case modeRotating:
		cc.dragRotate(ev.Position)
	}
}

// activateDrag picks the drag mode from what the press landed on.
func (cc *CompareCanvas) activateDrag() {
	g := &cc.gesture
	if g.button == desktop.MouseButtonSecondary {
		g.mode = modePanning
		return
	}
	switch {
	case g.handle == handleRotate:
		g.mode = modeRotating
	case g.handle != handleNone:
		g.mode = modeResizing
	case g.targetID != "" && cc.scene.IsSelected(g.targetID):
		if len(cc.scene.Selection()) > 1 {
			g.mode = modeDraggingGroup
			g.startGroup = cc.scene.GroupBounds()
		} else {
			g.mode = modeDraggingItem
		}
	default:
		g.mode = modeMarqueeing
	}
}

// DragEnd commits marquee selection, re-derives the group box after a
// transform gesture, and returns to idle.
func (cc *CompareCanvas) DragEnd() {
	g := cc.gesture
	cc.gesture = gesture{}

	switch g.mode {
	case modeMarqueeing:
		a := cc.screenToWorld(g.start)
		b := cc.screenToWorld(g.current)
		ids := cc.scene.ItemsInRect(geometry.RectFromPoints(a, b))
		cc.scene.SetSelection(ids)
	case modeDraggingItem, modeDraggingGroup, modeResizing, modeRotating:
		cc.scene.RecomputeGroupBounds()
	}
	cc.Refresh()
}

// Tapped resolves a press that never became a drag.
func (cc *CompareCanvas) Tapped(ev *fyne.PointEvent) {
	g := cc.gesture
	cc.gesture = gesture{}

	switch g.mode {
	case modePending:
		if g.handle != handleNone || g.toggled {
			return
		}
		if g.targetID != "" {
			// Collapse a kept multi-selection to the clicked item.
			if g.wasSelected && len(cc.scene.Selection()) > 1 {
				cc.scene.SetSelection([]string{g.targetID})
			}
			return
		}
		cc.scene.ClearSelection()
	case modeIdle:
		// Tap without a preceding press: resolve it directly.
		world := cc.screenToWorld(ev.Position)
		if id, ok := cc.scene.ItemAt(world); ok {
			cc.scene.SetSelection([]string{id})
		} else {
			cc.scene.ClearSelection()
		}
	}
}

// TappedSecondary opens the item context menu.
func (cc *CompareCanvas) TappedSecondary(ev *fyne.PointEvent) {
	cc.gesture = gesture{}
	world := cc.screenToWorld(ev.Position)
	id, ok := cc.scene.ItemAt(world)
	if !ok {
		return
	}
	if !cc.scene.IsSelected(id) {
		cc.scene.SetSelection([]string{id})
	}
	cc.showContextMenu(id, world, ev.AbsolutePosition)
}

func (cc *CompareCanvas) showContextMenu(id string, world geometry.Point2D, absPos fyne.Position) {
	driverCanvas := fyne.CurrentApp().Driver().CanvasForObject(cc)
	if driverCanvas == nil {
		return
	}
	menu := fyne.NewMenu("",
		fyne.NewMenuItem("Bring to Front", func() { cc.scene.Reorder(id, scene.ReorderTop) }),
		fyne.NewMenuItem("Move Up", func() { cc.scene.Reorder(id, scene.ReorderUp) }),
		fyne.NewMenuItem("Move Down", func() { cc.scene.Reorder(id, scene.ReorderDown) }),
		fyne.NewMenuItem("Send to Back", func() { cc.scene.Reorder(id, scene.ReorderBottom) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Annotate Here...", func() { cc.annotateAt(id, world) }),
		fyne.NewMenuItem("View Image", func() { cc.ViewItem(id) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset Placement", func() { cc.scene.ResetItem(id) }),
		fyne.NewMenuItem("Remove", func() { cc.scene.RemoveItems([]string{id}) }),
	)
	widget.ShowPopUpMenuAtPosition(menu, driverCanvas, absPos)
}

// annotateAt converts a world point into the item's percent coordinates and
// hands it to the annotate callback, or drops a bare marker when no
// callback is set.
func (cc *CompareCanvas) annotateAt(id string, world geometry.Point2D) {
	t, ok := cc.scene.Transform(id)
	if !ok {
		return
	}
	local := geometry.RotatePoint(world, t.Center(), -t.Rotation)
	xp := clamp((local.X-t.X)/t.Width*100, 0, 100)
	yp := clamp((local.Y-t.Y)/t.Height*100, 0, 100)
	if cc.onAnnotate != nil {
		cc.onAnnotate(id, xp, yp)
		return
	}
	cc.scene.AddAnnotation(id, xp, yp, "")
}

// Scrolled zooms about the cursor. Repeated wheel events retarget the
// running animation instead of stacking, so fast scrolling stays pinned to
// the cursor without drift.
func (cc *CompareCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY == 0 {
		return
	}
	factor := math.Exp(float64(ev.Scrolled.DY) * wheelZoomRate)
	factor = clamp(factor, 1/maxWheelStep, maxWheelStep)

	base := cc.currentTarget()
	cursor := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	target := base.ZoomAt(cursor, base.Scale*factor)
	cc.animateView(target, wheelAnimDuration, fyne.AnimationEaseOut)
}

// TypedKey implements fyne.Focusable.
func (cc *CompareCanvas) TypedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyEscape:
		if cc.onClose != nil {
			cc.onClose()
		}
	case fyne.KeyS:
		cc.SetSnapEnabled(!cc.snapEnabled)
	}
}

// TypedRune implements fyne.Focusable.
func (cc *CompareCanvas) TypedRune(rune) {}

// FocusGained implements fyne.Focusable.
func (cc *CompareCanvas) FocusGained() {}

// FocusLost implements fyne.Focusable.
func (cc *CompareCanvas) FocusLost() {}

func (cc *CompareCanvas) panBy(dx, dy float32) {
	v := cc.scene.View()
	v.X += float64(dx)
	v.Y += float64(dy)
	cc.scene.SetView(v)
}

func (cc *CompareCanvas) dragItem(pos fyne.Position) {
	g := &cc.gesture
	world := cc.screenToWorld(pos)

	moved := g.startT
	moved.X += world.X - g.grabWorld.X
	moved.Y += world.Y - g.grabWorld.Y

	if cc.snapEnabled {
		s := cc.snapAgainstUnselected(moved.AABB())
		if s.SnappedX {
			moved.X += s.DX
		}
		if s.SnappedY {
			moved.Y += s.DY
		}
	}
	x, y := moved.X, moved.Y
	cc.scene.UpdateItemTransform(g.targetID, scene.TransformPatch{X: &x, Y: &y})
}

func (cc *CompareCanvas) dragGroup(pos fyne.Position) {
	g := &cc.gesture
	world := cc.screenToWorld(pos)
	x := g.startGroup.X + (world.X - g.grabWorld.X)
	y := g.startGroup.Y + (world.Y - g.grabWorld.Y)

	if cc.snapEnabled {
		moved := geometry.NewRect(x, y, g.startGroup.Width, g.startGroup.Height)
		s := cc.snapAgainstUnselected(moved)
		if s.SnappedX {
			x += s.DX
		}
		if s.SnappedY {
			y += s.DY
		}
	}
	cc.scene.UpdateItemTransform(scene.GroupID, scene.TransformPatch{X: &x, Y: &y})
}

func (cc *CompareCanvas) dragResize(pos fyne.Position) {
	g := &cc.gesture
	world := cc.screenToWorld(pos)
	if g.handleTarget == scene.GroupID {
		box := resizeBox(g.startGroup, g.handle, world)
		x, y, w, h := box.X, box.Y, box.Width, box.Height
		cc.scene.UpdateItemTransform(scene.GroupID, scene.TransformPatch{X: &x, Y: &y, Width: &w, Height: &h})
		return
	}
	out := resizeTransform(g.startT, g.handle, world)
	x, y, w, h := out.X, out.Y, out.Width, out.Height
	cc.scene.UpdateItemTransform(g.handleTarget, scene.TransformPatch{X: &x, Y: &y, Width: &w, Height: &h})
}

func (cc *CompareCanvas) dragRotate(pos fyne.Position) {
	g := &cc.gesture
	world := cc.screenToWorld(pos)
	if g.handleTarget == scene.GroupID {
		// The scene expects rotation as a per-event delta and damps it.
		center := cc.scene.GroupBounds().Center()
		angle := pointerAngle(world, center)
		delta := angleDiff(angle, g.lastAngle)
		g.lastAngle = angle
		if delta == 0 {
			return
		}
		cc.scene.UpdateItemTransform(scene.GroupID, scene.TransformPatch{Rotation: &delta})
		return
	}
	rot := g.startT.Rotation + angleDiff(pointerAngle(world, g.startT.Center()), g.startAngle)
	cc.scene.UpdateItemTransform(g.handleTarget, scene.TransformPatch{Rotation: &rot})
}

// snapAgainstUnselected computes the snap nudge for a moving rect against
// every unselected item. Selected items travel with the drag and would snap
// to themselves.
func (cc *CompareCanvas) snapAgainstUnselected(moving geometry.Rect) snapDelta {
	v := cc.scene.View()
	if v.Scale <= 0 {
		return snapDelta{}
	}
	var others []geometry.Rect
	for _, id := range cc.scene.ZOrder() {
		if cc.scene.IsSelected(id) {
			continue
		}
		if t, ok := cc.scene.Transform(id); ok {
			others = append(others, t.AABB())
		}
	}
	return computeSnap(moving, others, snapTolerancePx/v.Scale)
}
