package canvas

import (
	"math"

	"light-table/pkg/geometry"
)

// handleKind identifies one of the eight resize handles or the rotate
// handle on a selection outline.
type handleKind int

const (
	handleNone handleKind = iota
	handleNW
	handleN
	handleNE
	handleE
	handleSE
	handleS
	handleSW
	handleW
	handleRotate
)

// handlePoint is a handle's screen position.
type handlePoint struct {
	kind handleKind
	pos  geometry.Point2D
}

// boxTransform views an axis-aligned rect as an unrotated item transform,
// so the group box can share the single-item handle layout.
func boxTransform(r geometry.Rect) geometry.ItemTransform {
	return geometry.ItemTransform{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// handleLayout returns the screen positions of the resize handles and the
// rotate handle for a transform under the given view. Corners follow the
// item's rotation; the rotate handle sits outside the top edge midpoint,
// pushed away from the center so it clears the outline at any angle.
func handleLayout(t geometry.ItemTransform, view geometry.ViewTransform) []handlePoint {
	corners := t.Corners() // TL, TR, BR, BL
	var s [4]geometry.Point2D
	for i, c := range corners {
		s[i] = view.WorldToScreen(c)
	}
	mid := func(a, b geometry.Point2D) geometry.Point2D {
		return geometry.NewPoint2D((a.X+b.X)/2, (a.Y+b.Y)/2)
	}
	topMid := mid(s[0], s[1])
	center := view.WorldToScreen(t.Center())

	rotate := geometry.NewPoint2D(topMid.X, topMid.Y-rotateHandleGapPx)
	dx := topMid.X - center.X
	dy := topMid.Y - center.Y
	if dist := math.Hypot(dx, dy); dist > 1e-9 {
		rotate = geometry.NewPoint2D(
			topMid.X+dx/dist*rotateHandleGapPx,
			topMid.Y+dy/dist*rotateHandleGapPx,
		)
	}

	return []handlePoint{
		{handleNW, s[0]},
		{handleN, topMid},
		{handleNE, s[1]},
		{handleE, mid(s[1], s[2])},
		{handleSE, s[2]},
		{handleS, mid(s[2], s[3])},
		{handleSW, s[3]},
		{handleW, mid(s[3], s[0])},
		{handleRotate, rotate},
	}
}

// hitHandle returns the handle nearest to p within the hit radius.
func hitHandle(layout []handlePoint, p geometry.Point2D) (handleKind, bool) {
	const radius = float64(handleSizePx)/2 + handleHitSlopPx
	best := handleNone
	bestDist := math.Inf(1)
	for _, hp := range layout {
		d := hp.pos.Distance(p)
		if d <= radius && d < bestDist {
			best = hp.kind
			bestDist = d
		}
	}
	return best, best != handleNone
}
