package geometry

import "math"

// Overlaps reports whether two items' rotated footprints intersect.
// Axis-aligned boxes reject most pairs cheaply; only pairs with a
// rotation in play pay for the polygon clip. Footprints that merely
// share an edge do not overlap.
func (t ItemTransform) Overlaps(o ItemTransform) bool {
	if !t.AABB().Intersects(o.AABB()) {
		return false
	}
	if t.Rotation == 0 && o.Rotation == 0 {
		return true
	}
	a, b := t.Corners(), o.Corners()
	return IntersectPolygons(a[:], b[:]) != nil
}

// OverlapsRect reports whether the item's rotated footprint intersects
// an axis-aligned rectangle.
func (t ItemTransform) OverlapsRect(r Rect) bool {
	if t.Rotation == 0 {
		return t.Bounds().Intersects(r)
	}
	if !t.AABB().Intersects(r) {
		return false
	}
	corners := t.Corners()
	clip := [4]Point2D{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
	return IntersectPolygons(corners[:], clip[:]) != nil
}

// IntersectPolygons computes the intersection of two convex polygons using
// the Sutherland-Hodgman algorithm. Both inputs must be convex and follow
// the top-left, top-right, bottom-right, bottom-left corner order used by
// ItemTransform.Corners; rotation preserves that winding. Returns nil if
// the intersection is empty or degenerate.
func IntersectPolygons(subject, clip []Point2D) []Point2D {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	output := make([]Point2D, len(subject))
	copy(output, subject)

	// Clip against each edge of the clip polygon
	for i := 0; i < len(clip); i++ {
		if len(output) == 0 {
			return nil
		}

		edgeStart := clip[i]
		edgeEnd := clip[(i+1)%len(clip)]
		output = clipPolygonByEdge(output, edgeStart, edgeEnd)
	}

	// Shared edges and touching vertices survive the clip as collinear
	// point runs; only a real area counts as an intersection.
	if len(output) < 3 || shoelaceArea(output) < minPolygonArea {
		return nil
	}

	return output
}

// minPolygonArea is the area below which a clip result counts as degenerate.
const minPolygonArea = 1e-9

// shoelaceArea returns the unsigned area of the polygon.
func shoelaceArea(poly []Point2D) float64 {
	sum := 0.0
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(sum) / 2
}

// clipPolygonByEdge clips a polygon against a single edge using
// the Sutherland-Hodgman algorithm.
func clipPolygonByEdge(polygon []Point2D, edgeStart, edgeEnd Point2D) []Point2D {
	var clipped []Point2D

	for i := 0; i < len(polygon); i++ {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]

		currentInside := isInsideEdge(current, edgeStart, edgeEnd)
		nextInside := isInsideEdge(next, edgeStart, edgeEnd)

		if currentInside {
			clipped = append(clipped, current)
			if !nextInside {
				// Exiting: add intersection point
				if intersection, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
					clipped = append(clipped, intersection)
				}
			}
		} else if nextInside {
			// Entering: add intersection point
			if intersection, ok := lineIntersection(current, next, edgeStart, edgeEnd); ok {
				clipped = append(clipped, intersection)
			}
		}
	}

	return clipped
}

// isInsideEdge reports whether p lies on the inner side of the directed
// edge. With the Corners winding in Y-down world space, interiors land
// on the non-negative side.
func isInsideEdge(p, edgeStart, edgeEnd Point2D) bool {
	return (edgeEnd.X-edgeStart.X)*(p.Y-edgeStart.Y)-
		(edgeEnd.Y-edgeStart.Y)*(p.X-edgeStart.X) >= 0
}

// lineIntersection computes the intersection point of line segment p1-p2
// with line segment e1-e2. Returns the point and true if they intersect.
func lineIntersection(p1, p2, e1, e2 Point2D) (Point2D, bool) {
	x1, y1 := p1.X, p1.Y
	x2, y2 := p2.X, p2.Y
	x3, y3 := e1.X, e1.Y
	x4, y4 := e2.X, e2.Y

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if math.Abs(denom) < 1e-10 {
		// Lines are parallel
		return Point2D{}, false
	}

	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom

	return Point2D{
		X: x1 + t*(x2-x1),
		Y: y1 + t*(y2-y1),
	}, true
}
