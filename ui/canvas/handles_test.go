package canvas

import (
	"math"
	"testing"

	"light-table/pkg/geometry"
)

func findHandle(t *testing.T, layout []handlePoint, kind handleKind) geometry.Point2D {
	t.Helper()
	for _, hp := range layout {
		if hp.kind == kind {
			return hp.pos
		}
	}
	t.Fatalf("handle %d not in layout", kind)
	return geometry.Point2D{}
}

func wantPoint(t *testing.T, got geometry.Point2D, x, y float64) {
	t.Helper()
	if math.Abs(got.X-x) > eps || math.Abs(got.Y-y) > eps {
		t.Fatalf("point = %+v, want (%v, %v)", got, x, y)
	}
}

func TestHandleLayoutUnrotated(t *testing.T) {
	tr := geometry.ItemTransform{X: 10, Y: 10, Width: 100, Height: 100}
	view := geometry.ViewTransform{Scale: 1}
	layout := handleLayout(tr, view)

	if len(layout) != 9 {
		t.Fatalf("got %d handles, want 9", len(layout))
	}
	wantPoint(t, findHandle(t, layout, handleNW), 10, 10)
	wantPoint(t, findHandle(t, layout, handleN), 60, 10)
	wantPoint(t, findHandle(t, layout, handleNE), 110, 10)
	wantPoint(t, findHandle(t, layout, handleE), 110, 60)
	wantPoint(t, findHandle(t, layout, handleSE), 110, 110)
	wantPoint(t, findHandle(t, layout, handleS), 60, 110)
	wantPoint(t, findHandle(t, layout, handleSW), 10, 110)
	wantPoint(t, findHandle(t, layout, handleW), 10, 60)
	wantPoint(t, findHandle(t, layout, handleRotate), 60, 10-rotateHandleGapPx)
}

func TestHandleLayoutAppliesView(t *testing.T) {
	tr := geometry.ItemTransform{X: 10, Y: 10, Width: 100, Height: 100}
	view := geometry.ViewTransform{X: 5, Y: 7, Scale: 2}
	layout := handleLayout(tr, view)

	wantPoint(t, findHandle(t, layout, handleNW), 25, 27)
	wantPoint(t, findHandle(t, layout, handleSE), 225, 227)
	// The rotate gap stays constant on screen regardless of zoom.
	wantPoint(t, findHandle(t, layout, handleRotate), 125, 27-rotateHandleGapPx)
}

func TestHandleLayoutFollowsRotation(t *testing.T) {
	tr := geometry.ItemTransform{X: 100, Y: 100, Width: 100, Height: 100, Rotation: 90}
	view := geometry.ViewTransform{Scale: 1}
	layout := handleLayout(tr, view)

	// Top-left corner rotates to the top-right of the box.
	wantPoint(t, findHandle(t, layout, handleNW), 200, 100)
	wantPoint(t, findHandle(t, layout, handleNE), 200, 200)
	// The rotated top edge midpoint is the box's right edge midpoint, and
	// the rotate handle extends beyond it away from the center.
	wantPoint(t, findHandle(t, layout, handleN), 200, 150)
	wantPoint(t, findHandle(t, layout, handleRotate), 200+rotateHandleGapPx, 150)
}

func TestHitHandlePicksNearest(t *testing.T) {
	tr := geometry.ItemTransform{X: 0, Y: 0, Width: 20, Height: 20}
	view := geometry.ViewTransform{Scale: 1}
	layout := handleLayout(tr, view)

	kind, ok := hitHandle(layout, geometry.NewPoint2D(21, 1))
	if !ok || kind != handleNE {
		t.Fatalf("hit = %v (%v), want handleNE", kind, ok)
	}

	// Equidistant-ish press near the corner still resolves to one handle.
	kind, ok = hitHandle(layout, geometry.NewPoint2D(19, 19))
	if !ok || kind != handleSE {
		t.Fatalf("hit = %v (%v), want handleSE", kind, ok)
	}
}

func TestHitHandleMissesOutsideRadius(t *testing.T) {
	tr := geometry.ItemTransform{X: 0, Y: 0, Width: 100, Height: 100}
	view := geometry.ViewTransform{Scale: 1}
	layout := handleLayout(tr, view)

	if kind, ok := hitHandle(layout, geometry.NewPoint2D(50, 50)); ok {
		t.Fatalf("center press hit handle %v", kind)
	}
	if kind, ok := hitHandle(layout, geometry.NewPoint2D(120, 120)); ok {
		t.Fatalf("far press hit handle %v", kind)
	}
}

func TestBoxTransformWrapsRect(t *testing.T) {
	r := geometry.NewRect(5, 6, 70, 80)
	tr := boxTransform(r)
	if tr.X != 5 || tr.Y != 6 || tr.Width != 70 || tr.Height != 80 || tr.Rotation != 0 {
		t.Fatalf("boxTransform = %+v", tr)
	}
}
