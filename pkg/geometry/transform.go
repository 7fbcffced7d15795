package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// View scale limits. The render loop and all zoom gestures clamp to this
// range.
const (
	MinScale = 0.04
	MaxScale = 20.0
)

// RotatePoint rotates p about pivot by angleDeg degrees. Positive angles
// rotate clockwise in screen coordinates (y grows downward).
func RotatePoint(p, pivot Point2D, angleDeg float64) Point2D {
	if angleDeg == 0 {
		return p
	}
	v := r2.Rotate(r2.Vec{X: p.X, Y: p.Y}, angleDeg*math.Pi/180, r2.Vec{X: pivot.X, Y: pivot.Y})
	return Point2D{X: v.X, Y: v.Y}
}

// ItemTransform is the world-space placement of one canvas item: the top-left
// corner of its unrotated box, its size, and its rotation about the box
// center. Rotation is stored in degrees to match the persisted document
// format.
type ItemTransform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Bounds returns the unrotated world-space box.
func (t ItemTransform) Bounds() Rect {
	return Rect{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

// Center returns the rotation pivot, the center of the unrotated box.
func (t ItemTransform) Center() Point2D {
	return Point2D{X: t.X + t.Width/2, Y: t.Y + t.Height/2}
}

// Corners returns the four rotated world-space corners in top-left,
// top-right, bottom-right, bottom-left order.
func (t ItemTransform) Corners() [4]Point2D {
	corners := [4]Point2D{
		{X: t.X, Y: t.Y},
		{X: t.X + t.Width, Y: t.Y},
		{X: t.X + t.Width, Y: t.Y + t.Height},
		{X: t.X, Y: t.Y + t.Height},
	}
	if t.Rotation == 0 {
		return corners
	}
	pivot := t.Center()
	for i, p := range corners {
		corners[i] = RotatePoint(p, pivot, t.Rotation)
	}
	return corners
}

// AABB returns the axis-aligned bounding box of the rotated item.
// Width and Height must be positive.
func (t ItemTransform) AABB() Rect {
	corners := t.Corners()
	return BoundingBox(corners[:])
}

// ContainsPoint reports whether a world-space point lies inside the rotated
// item. The query point is rotated back into the item's local frame and
// tested against the unrotated box.
func (t ItemTransform) ContainsPoint(p Point2D) bool {
	if t.Rotation != 0 {
		p = RotatePoint(p, t.Center(), -t.Rotation)
	}
	return t.Bounds().Contains(p)
}

// ViewTransform maps world space to screen space:
// screen = world*Scale + (X, Y).
type ViewTransform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Scale float64 `json:"scale"`
}

// ClampScale limits a zoom factor to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}

// WorldToScreen maps a world-space point to screen space.
func (v ViewTransform) WorldToScreen(p Point2D) Point2D {
	return Point2D{X: p.X*v.Scale + v.X, Y: p.Y*v.Scale + v.Y}
}

// ScreenToWorld maps a screen-space point back to world space.
func (v ViewTransform) ScreenToWorld(p Point2D) Point2D {
	return Point2D{X: (p.X - v.X) / v.Scale, Y: (p.Y - v.Y) / v.Scale}
}

// ZoomAt returns the view rescaled to newScale (clamped) with the world point
// under the given screen point kept fixed:
// newTranslate = cursor - (cursor - oldTranslate) * newScale/oldScale.
func (v ViewTransform) ZoomAt(cursor Point2D, newScale float64) ViewTransform {
	newScale = ClampScale(newScale)
	k := newScale / v.Scale
	return ViewTransform{
		X:     cursor.X - (cursor.X-v.X)*k,
		Y:     cursor.Y - (cursor.Y-v.Y)*k,
		Scale: newScale,
	}
}
