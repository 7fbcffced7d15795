package canvas

import (
	"math"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"light-table/internal/catalog"
	"light-table/internal/scene"
	"light-table/pkg/geometry"
)

const eps = 1e-6

type stubSurfaces struct {
	surfaces map[string]*catalog.Surface
	requests []string
}

func (s *stubSurfaces) Surface(id string) (*catalog.Surface, bool) {
	surf, ok := s.surfaces[id]
	return surf, ok
}

func (s *stubSurfaces) Request(id string) {
	s.requests = append(s.requests, id)
}

func newTestCanvas(t *testing.T) (*CompareCanvas, *scene.Scene) {
	t.Helper()
	test.NewApp()
	s := scene.NewScene()
	cc := NewCompareCanvas(s, &stubSurfaces{surfaces: map[string]*catalog.Surface{}})
	cc.Resize(fyne.NewSize(800, 600))
	return cc, s
}

func placeItem(t *testing.T, s *scene.Scene, id string, x, y, w, h float64) {
	t.Helper()
	s.AddItem(scene.Item{
		ID:            id,
		SourcePath:    id + ".png",
		NaturalWidth:  int(w),
		NaturalHeight: int(h),
		Override:      &geometry.ItemTransform{X: x, Y: y, Width: w, Height: h},
	})
}

func press(cc *CompareCanvas, pos fyne.Position) {
	cc.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: pos},
		Button:     desktop.MouseButtonPrimary,
	})
}

func drag(cc *CompareCanvas, from, to fyne.Position) {
	cc.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: to},
		Dragged:    fyne.Delta{DX: to.X - from.X, DY: to.Y - from.Y},
	})
}

func tap(cc *CompareCanvas, pos fyne.Position) {
	press(cc, pos)
	cc.Tapped(&fyne.PointEvent{Position: pos})
}

func wantSelection(t *testing.T, s *scene.Scene, want ...string) {
	t.Helper()
	got := s.Selection()
	if len(got) != len(want) {
		t.Fatalf("selection = %v, want %v", got, want)
	}
	have := make(map[string]bool, len(got))
	for _, id := range got {
		have[id] = true
	}
	for _, id := range want {
		if !have[id] {
			t.Fatalf("selection = %v, want %v", got, want)
		}
	}
}

func wantTransform(t *testing.T, s *scene.Scene, id string, x, y, w, h, rot float64) {
	t.Helper()
	tr, ok := s.Transform(id)
	if !ok {
		t.Fatalf("transform for %q missing", id)
	}
	if math.Abs(tr.X-x) > eps || math.Abs(tr.Y-y) > eps ||
		math.Abs(tr.Width-w) > eps || math.Abs(tr.Height-h) > eps ||
		math.Abs(tr.Rotation-rot) > eps {
		t.Fatalf("transform = %+v, want {%v %v %v %v rot %v}", tr, x, y, w, h, rot)
	}
}

func TestTapSelectsTopmostItem(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)
	placeItem(t, s, "b", 50, 50, 100, 100)

	tap(cc, fyne.NewPos(80, 80))

	wantSelection(t, s, "b")
}

func TestTapEmptySpaceClearsSelection(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)
	s.SetSelection([]string{"a"})

	tap(cc, fyne.NewPos(500, 500))

	wantSelection(t, s)
}

func TestCtrlClickTogglesSelection(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)
	placeItem(t, s, "b", 200, 10, 100, 100)

	tap(cc, fyne.NewPos(50, 50))
	wantSelection(t, s, "a")

	ctrlTap := func(pos fyne.Position) {
		cc.MouseDown(&desktop.MouseEvent{
			PointEvent: fyne.PointEvent{Position: pos},
			Button:     desktop.MouseButtonPrimary,
			Modifier:   fyne.KeyModifierShortcutDefault,
		})
		cc.Tapped(&fyne.PointEvent{Position: pos})
	}

	ctrlTap(fyne.NewPos(250, 50))
	wantSelection(t, s, "a", "b")

	ctrlTap(fyne.NewPos(50, 50))
	wantSelection(t, s, "b")
}

func TestPlainClickCollapsesMultiSelection(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)
	placeItem(t, s, "b", 200, 10, 100, 100)
	s.SetSelection([]string{"a", "b"})

	tap(cc, fyne.NewPos(50, 50))

	wantSelection(t, s, "a")
}

func TestMarqueeSelectsOverlappedItems(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 50, 50)
	placeItem(t, s, "b", 100, 10, 50, 50)
	placeItem(t, s, "c", 300, 300, 50, 50)

	start := fyne.NewPos(0, 0)
	press(cc, start)
	drag(cc, start, fyne.NewPos(200, 100))
	cc.DragEnd()

	wantSelection(t, s, "a", "b")
}

func TestDragMovesItem(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)

	start := fyne.NewPos(50, 50)
	press(cc, start)
	drag(cc, start, fyne.NewPos(70, 65))
	cc.DragEnd()

	wantTransform(t, s, "a", 30, 25, 100, 100, 0)
}

func TestDragBelowThresholdDoesNotMove(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)

	start := fyne.NewPos(50, 50)
	press(cc, start)
	drag(cc, start, fyne.NewPos(51.5, 51.5))
	cc.DragEnd()

	wantTransform(t, s, "a", 10, 10, 100, 100, 0)
}

func TestSecondaryDragPansView(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)

	start := fyne.NewPos(100, 100)
	cc.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: start},
		Button:     desktop.MouseButtonSecondary,
	})
	drag(cc, start, fyne.NewPos(140, 130))
	cc.DragEnd()

	v := s.View()
	if math.Abs(v.X-40) > eps || math.Abs(v.Y-30) > eps || math.Abs(v.Scale-1) > eps {
		t.Fatalf("view = %+v, want {40 30 1}", v)
	}
	wantTransform(t, s, "a", 10, 10, 100, 100, 0)
}

func TestGroupDragMovesSelectionRigidly(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 100, 100)
	placeItem(t, s, "b", 200, 0, 100, 100)
	s.SetSelection([]string{"a", "b"})

	start := fyne.NewPos(50, 50)
	press(cc, start)
	drag(cc, start, fyne.NewPos(80, 90))
	cc.DragEnd()

	wantTransform(t, s, "a", 30, 40, 100, 100, 0)
	wantTransform(t, s, "b", 230, 40, 100, 100, 0)
	wantSelection(t, s, "a", "b")
}

func TestGroupResizeScalesAboutPinnedCorner(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 100, 100)
	placeItem(t, s, "b", 200, 0, 100, 100)
	s.SetSelection([]string{"a", "b"})

	start := fyne.NewPos(300, 100) // SE handle of the group box
	press(cc, start)
	drag(cc, start, fyne.NewPos(600, 200))
	cc.DragEnd()

	// The requested doubling is damped to the per-event scale cap.
	wantTransform(t, s, "a", 0, 0, 115, 115, 0)
	wantTransform(t, s, "b", 230, 0, 115, 115, 0)
}

func TestGroupRotateDampsToPolicyCap(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 100, 100)
	placeItem(t, s, "b", 200, 0, 100, 100)
	s.SetSelection([]string{"a", "b"})

	start := fyne.NewPos(150, -rotateHandleGapPx) // rotate handle of the group box
	press(cc, start)
	drag(cc, start, fyne.NewPos(222, 50))
	cc.DragEnd()

	// A 90 degree swing in one event is damped to the 30 degree cap.
	center := geometry.NewPoint2D(150, 50)
	wantA := geometry.RotatePoint(geometry.NewPoint2D(50, 50), center, 30)
	tr, ok := s.Transform("a")
	if !ok {
		t.Fatal("transform missing")
	}
	if math.Abs(tr.Rotation-30) > eps {
		t.Fatalf("rotation = %v, want 30", tr.Rotation)
	}
	if math.Abs(tr.X-(wantA.X-50)) > eps || math.Abs(tr.Y-(wantA.Y-50)) > eps {
		t.Fatalf("center moved to (%v, %v), want (%v, %v)", tr.X+50, tr.Y+50, wantA.X, wantA.Y)
	}
}

func TestDragSnapsToNeighborEdge(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 100, 100)
	placeItem(t, s, "b", 205, 0, 100, 100)
	s.SetSelection([]string{"a"})

	start := fyne.NewPos(50, 50)
	press(cc, start)
	drag(cc, start, fyne.NewPos(153, 50))
	cc.DragEnd()

	// Right edge lands at 203, within tolerance of b's left edge at 205.
	wantTransform(t, s, "a", 105, 0, 100, 100, 0)
}

func TestSnapDisabledDragsFreely(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 100, 100)
	placeItem(t, s, "b", 205, 0, 100, 100)
	s.SetSelection([]string{"a"})
	cc.SetSnapEnabled(false)

	start := fyne.NewPos(50, 50)
	press(cc, start)
	drag(cc, start, fyne.NewPos(153, 50))
	cc.DragEnd()

	wantTransform(t, s, "a", 103, 0, 100, 100, 0)
}

func TestResizeHandleDragResizesItem(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)
	s.SetSelection([]string{"a"})

	start := fyne.NewPos(110, 110) // SE corner handle
	press(cc, start)
	drag(cc, start, fyne.NewPos(140, 150))
	cc.DragEnd()

	wantTransform(t, s, "a", 10, 10, 130, 140, 0)
}

func TestResizeOppositeCornerStaysPinned(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)
	s.SetSelection([]string{"a"})

	start := fyne.NewPos(10, 10) // NW corner handle
	press(cc, start)
	drag(cc, start, fyne.NewPos(40, 30))
	cc.DragEnd()

	wantTransform(t, s, "a", 40, 30, 70, 80, 0)
}

func TestRotateHandleDragRotatesItem(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 100, 100, 100, 100)
	s.SetSelection([]string{"a"})

	start := fyne.NewPos(150, 100-rotateHandleGapPx)
	press(cc, start)
	drag(cc, start, fyne.NewPos(222, 150))
	cc.DragEnd()

	tr, ok := s.Transform("a")
	if !ok {
		t.Fatal("transform missing")
	}
	if math.Abs(tr.Rotation-90) > eps {
		t.Fatalf("rotation = %v, want 90", tr.Rotation)
	}
	if math.Abs(tr.X-100) > eps || math.Abs(tr.Width-100) > eps {
		t.Fatalf("rotation changed position or size: %+v", tr)
	}
}

func TestWheelZoomKeepsCursorPinned(t *testing.T) {
	cc, _ := newTestCanvas(t)
	cursor := fyne.NewPos(400, 300)
	anchor := geometry.NewPoint2D(400, 300)

	scroll := &fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: cursor},
		Scrolled:   fyne.Delta{DY: 120},
	}
	cc.Scrolled(scroll)

	t1 := cc.animTarget
	if math.Abs(t1.Scale-maxWheelStep) > eps {
		t.Fatalf("first target scale = %v, want %v", t1.Scale, maxWheelStep)
	}
	w1 := t1.ScreenToWorld(anchor)
	if math.Abs(w1.X-400) > eps || math.Abs(w1.Y-300) > eps {
		t.Fatalf("cursor world point drifted to %+v", w1)
	}

	// A second notch composes against the previous target, not the view
	// the animation happens to be passing through.
	cc.Scrolled(scroll)
	t2 := cc.animTarget
	if math.Abs(t2.Scale-maxWheelStep*maxWheelStep) > eps {
		t.Fatalf("second target scale = %v, want %v", t2.Scale, maxWheelStep*maxWheelStep)
	}
	w2 := t2.ScreenToWorld(anchor)
	if math.Abs(w2.X-400) > eps || math.Abs(w2.Y-300) > eps {
		t.Fatalf("cursor world point drifted to %+v", w2)
	}
}

func TestEscapeInvokesCloseCallback(t *testing.T) {
	cc, _ := newTestCanvas(t)
	closed := false
	cc.OnClose(func() { closed = true })

	cc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})

	if !closed {
		t.Fatal("close callback not invoked")
	}
}

func TestKeySTogglesSnapping(t *testing.T) {
	cc, _ := newTestCanvas(t)
	var states []bool
	cc.OnSnapChange(func(on bool) { states = append(states, on) })

	if !cc.SnapEnabled() {
		t.Fatal("snapping should start enabled")
	}
	cc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyS})
	if cc.SnapEnabled() {
		t.Fatal("snapping still enabled after toggle")
	}
	cc.TypedKey(&fyne.KeyEvent{Name: fyne.KeyS})
	if !cc.SnapEnabled() {
		t.Fatal("snapping not restored after second toggle")
	}
	if len(states) != 2 || states[0] || !states[1] {
		t.Fatalf("snap callback states = %v, want [false true]", states)
	}
}

func TestSecondaryTapSelectsItem(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 10, 10, 100, 100)

	cc.TappedSecondary(&fyne.PointEvent{Position: fyne.NewPos(50, 50)})

	wantSelection(t, s, "a")
}

func TestAnnotateAtComputesPercentCoordinates(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 200, 100)

	var gotID string
	var gotX, gotY float64
	cc.OnAnnotate(func(id string, xp, yp float64) {
		gotID, gotX, gotY = id, xp, yp
	})

	cc.annotateAt("a", geometry.NewPoint2D(50, 25))

	if gotID != "a" || math.Abs(gotX-25) > eps || math.Abs(gotY-25) > eps {
		t.Fatalf("annotate = %q (%v, %v), want a (25, 25)", gotID, gotX, gotY)
	}
}

func TestAnnotateAtRespectsRotation(t *testing.T) {
	cc, s := newTestCanvas(t)
	s.AddItem(scene.Item{
		ID:            "a",
		SourcePath:    "a.png",
		NaturalWidth:  200,
		NaturalHeight: 100,
		Override:      &geometry.ItemTransform{X: 0, Y: 0, Width: 200, Height: 100, Rotation: 90},
	})

	var gotX, gotY float64
	cc.OnAnnotate(func(_ string, xp, yp float64) { gotX, gotY = xp, yp })

	// World point (75, 100) is the rotated image of local (150, 75).
	cc.annotateAt("a", geometry.NewPoint2D(75, 100))

	if math.Abs(gotX-75) > eps || math.Abs(gotY-75) > eps {
		t.Fatalf("annotate percent = (%v, %v), want (75, 75)", gotX, gotY)
	}
}

func TestAnnotateWithoutCallbackAddsMarker(t *testing.T) {
	cc, s := newTestCanvas(t)
	placeItem(t, s, "a", 0, 0, 200, 100)

	cc.annotateAt("a", geometry.NewPoint2D(100, 50))

	notes := s.AnnotationsFor("a")
	if len(notes) != 1 {
		t.Fatalf("got %d annotations, want 1", len(notes))
	}
	if math.Abs(notes[0].XPercent-50) > eps || math.Abs(notes[0].YPercent-50) > eps {
		t.Fatalf("marker at (%v, %v), want (50, 50)", notes[0].XPercent, notes[0].YPercent)
	}
}
