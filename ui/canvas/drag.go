package canvas

import (
	"math"

	"light-table/internal/scene"
	"light-table/pkg/geometry"
)

func movesWest(h handleKind) bool {
	return h == handleNW || h == handleW || h == handleSW
}

func movesEast(h handleKind) bool {
	return h == handleNE || h == handleE || h == handleSE
}

func movesNorth(h handleKind) bool {
	return h == handleNW || h == handleN || h == handleNE
}

func movesSouth(h handleKind) bool {
	return h == handleSW || h == handleS || h == handleSE
}

// resizeBox returns the rect that results from dragging the given handle to
// p. Edges the handle does not control stay fixed; a crossed edge stops at
// the minimum size instead of inverting.
func resizeBox(r geometry.Rect, h handleKind, p geometry.Point2D) geometry.Rect {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	if movesWest(h) {
		x0 = math.Min(p.X, x1-scene.MinItemSize)
	}
	if movesEast(h) {
		x1 = math.Max(p.X, x0+scene.MinItemSize)
	}
	if movesNorth(h) {
		y0 = math.Min(p.Y, y1-scene.MinItemSize)
	}
	if movesSouth(h) {
		y1 = math.Max(p.Y, y0+scene.MinItemSize)
	}
	return geometry.NewRect(x0, y0, x1-x0, y1-y0)
}

// anchorPoint returns the point of the rect that a resize from the given
// handle must leave in place: the opposite corner, or the opposite edge
// midpoint for edge handles.
func anchorPoint(r geometry.Rect, h handleKind) geometry.Point2D {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height
	cx, cy := r.X+r.Width/2, r.Y+r.Height/2
	switch h {
	case handleNW:
		return geometry.NewPoint2D(x1, y1)
	case handleN:
		return geometry.NewPoint2D(cx, y1)
	case handleNE:
		return geometry.NewPoint2D(x0, y1)
	case handleE:
		return geometry.NewPoint2D(x0, cy)
	case handleSE:
		return geometry.NewPoint2D(x0, y0)
	case handleS:
		return geometry.NewPoint2D(cx, y0)
	case handleSW:
		return geometry.NewPoint2D(x1, y0)
	case handleW:
		return geometry.NewPoint2D(x1, cy)
	}
	return geometry.NewPoint2D(cx, cy)
}

// resizeTransform resizes a possibly rotated item so the dragged handle
// tracks the pointer while the anchor opposite it stays fixed on screen.
// The pointer is rotated into the item's local frame, the unrotated box is
// resized there, and the result is shifted so the anchor's rotated position
// is unchanged. Rotating about the new center would otherwise swing the
// whole item as its center moves.
func resizeTransform(t geometry.ItemTransform, h handleKind, p geometry.Point2D) geometry.ItemTransform {
	c0 := t.Center()
	local := geometry.RotatePoint(p, c0, -t.Rotation)
	box := resizeBox(t.Bounds(), h, local)

	out := t
	out.X, out.Y = box.X, box.Y
	out.Width, out.Height = box.Width, box.Height

	if t.Rotation != 0 {
		anchor := anchorPoint(t.Bounds(), h)
		want := geometry.RotatePoint(anchor, c0, t.Rotation)
		got := geometry.RotatePoint(anchor, out.Center(), t.Rotation)
		out.X += want.X - got.X
		out.Y += want.Y - got.Y
	}
	return out
}

// pointerAngle returns the angle of p about center, in degrees.
func pointerAngle(p, center geometry.Point2D) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
}

// angleDiff returns a-b wrapped into (-180, 180].
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	}
	if d <= -180 {
		d += 360
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
