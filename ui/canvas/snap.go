package canvas

import (
	"math"

	"light-table/pkg/geometry"
)

// snapDelta is the nudge that aligns a moving rect with its nearest
// neighbors. Axes snap independently.
type snapDelta struct {
	DX, DY             float64
	SnappedX, SnappedY bool
}

// computeSnap compares the moving rect's left, center, and right (and top,
// middle, bottom) against the same stations of every candidate rect and
// returns the smallest nudge within the threshold on each axis. Threshold
// is in world units, so the assist range stays constant on screen across
// zoom levels.
func computeSnap(moving geometry.Rect, others []geometry.Rect, threshold float64) snapDelta {
	if threshold <= 0 || len(others) == 0 {
		return snapDelta{}
	}
	movingX := [3]float64{moving.X, moving.X + moving.Width/2, moving.X + moving.Width}
	movingY := [3]float64{moving.Y, moving.Y + moving.Height/2, moving.Y + moving.Height}

	var best snapDelta
	bestX := threshold
	bestY := threshold
	for _, o := range others {
		otherX := [3]float64{o.X, o.X + o.Width/2, o.X + o.Width}
		otherY := [3]float64{o.Y, o.Y + o.Height/2, o.Y + o.Height}
		for _, mx := range movingX {
			for _, ox := range otherX {
				if d := math.Abs(ox - mx); d < bestX {
					bestX = d
					best.DX = ox - mx
					best.SnappedX = true
				}
			}
		}
		for _, my := range movingY {
			for _, oy := range otherY {
				if d := math.Abs(oy - my); d < bestY {
					bestY = d
					best.DY = oy - my
					best.SnappedY = true
				}
			}
		}
	}
	return best
}
