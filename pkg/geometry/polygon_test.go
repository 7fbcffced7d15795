package geometry

import (
	"math"
	"testing"
)

func rectPolygon(x, y, w, h float64) []Point2D {
	return []Point2D{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

func TestIntersectPolygonsIdentical(t *testing.T) {
	sq := rectPolygon(0, 0, 4, 4)
	got := IntersectPolygons(sq, sq)
	if got == nil {
		t.Fatal("square clipped by itself vanished")
	}
	if a := shoelaceArea(got); math.Abs(a-16) > eps {
		t.Errorf("intersection area = %v, want 16", a)
	}
}

func TestIntersectPolygonsPartialOverlap(t *testing.T) {
	a := rectPolygon(0, 0, 2, 2)
	b := rectPolygon(1, 1, 2, 2)
	got := IntersectPolygons(a, b)
	if got == nil {
		t.Fatal("overlapping squares gave no intersection")
	}
	if area := shoelaceArea(got); math.Abs(area-1) > eps {
		t.Errorf("intersection area = %v, want 1", area)
	}
}

func TestIntersectPolygonsVertexTouchIsDegenerate(t *testing.T) {
	a := rectPolygon(0, 0, 10, 10)
	b := rectPolygon(10, 10, 5, 5)
	if got := IntersectPolygons(a, b); got != nil {
		t.Errorf("corner-touching squares intersected: %+v", got)
	}
}

func TestIntersectPolygonsDisjoint(t *testing.T) {
	a := rectPolygon(0, 0, 2, 2)
	b := rectPolygon(10, 10, 2, 2)
	if got := IntersectPolygons(a, b); got != nil {
		t.Errorf("disjoint squares intersected: %+v", got)
	}
}

func TestIntersectPolygonsSharedEdgeIsDegenerate(t *testing.T) {
	a := rectPolygon(0, 0, 10, 10)
	b := rectPolygon(10, 0, 10, 10)
	if got := IntersectPolygons(a, b); got != nil {
		t.Errorf("edge-sharing squares intersected: %+v", got)
	}
}

func TestOverlapsUnrotated(t *testing.T) {
	a := ItemTransform{X: 0, Y: 0, Width: 10, Height: 10}
	if !a.Overlaps(ItemTransform{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Error("overlapping squares reported disjoint")
	}
	if a.Overlaps(ItemTransform{X: 10, Y: 0, Width: 10, Height: 10}) {
		t.Error("edge-touching squares reported overlapping")
	}
	if a.Overlaps(ItemTransform{X: 30, Y: 0, Width: 10, Height: 10}) {
		t.Error("distant squares reported overlapping")
	}
}

func TestOverlapsRotatedNearMiss(t *testing.T) {
	// A square rotated 45 degrees occupies a diamond; its bounding box
	// corners are empty space. A small square parked in that corner
	// region must not count as overlapping.
	diamond := ItemTransform{X: 0, Y: 0, Width: 100, Height: 100, Rotation: 45}
	corner := ItemTransform{X: -15, Y: -15, Width: 20, Height: 20}

	if !diamond.AABB().Intersects(corner.AABB()) {
		t.Fatal("test setup broken: bounding boxes should intersect")
	}
	if diamond.Overlaps(corner) {
		t.Error("bounding-box-only contact reported as overlap")
	}
}

func TestOverlapsRotatedHit(t *testing.T) {
	diamond := ItemTransform{X: 0, Y: 0, Width: 100, Height: 100, Rotation: 45}
	inside := ItemTransform{X: 5, Y: 5, Width: 20, Height: 20}
	if !diamond.Overlaps(inside) {
		t.Error("square reaching into the diamond reported disjoint")
	}
}

func TestOverlapsRectRespectsRotation(t *testing.T) {
	diamond := ItemTransform{X: 0, Y: 0, Width: 100, Height: 100, Rotation: 45}

	if diamond.OverlapsRect(Rect{X: -15, Y: -15, Width: 20, Height: 20}) {
		t.Error("marquee in the empty bounding-box corner selected the item")
	}
	if !diamond.OverlapsRect(Rect{X: 40, Y: -25, Width: 20, Height: 20}) {
		t.Error("marquee crossing the top vertex missed the item")
	}
	if !diamond.OverlapsRect(Rect{X: 45, Y: 45, Width: 10, Height: 10}) {
		t.Error("marquee fully inside the item missed it")
	}
}

func TestOverlapsRectUnrotatedFastPath(t *testing.T) {
	it := ItemTransform{X: 0, Y: 0, Width: 10, Height: 10}
	if !it.OverlapsRect(Rect{X: 5, Y: 5, Width: 10, Height: 10}) {
		t.Error("overlapping rect missed")
	}
	if it.OverlapsRect(Rect{X: 10, Y: 0, Width: 5, Height: 5}) {
		t.Error("edge-touching rect reported overlapping")
	}
}
