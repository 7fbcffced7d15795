// Package packing seeds default, non-overlapping positions for a set of
// images before any manual transform exists.
package packing

import (
	"math"
	"sort"

	"light-table/pkg/geometry"
)

// DefaultGap is the spacing kept between footprints when the packer is not
// configured otherwise, in world units.
const DefaultGap = 40.0

// Item is one image to place: its catalog id and natural pixel size.
type Item struct {
	ID     string
	Width  float64
	Height float64
}

func (it Item) area() float64 {
	return it.Width * it.Height
}

// Layout is the result of a packing run.
type Layout struct {
	// Rects maps each input id to its placed footprint.
	Rects map[string]geometry.Rect
	// Bounds is the bounding box of the whole cluster.
	Bounds geometry.Rect
}

// Size returns the overall size of the packed cluster.
func (l Layout) Size() geometry.Size {
	return geometry.NewSize(l.Bounds.Width, l.Bounds.Height)
}

// Normalize returns the layout translated so the cluster's top-left corner
// sits at (0, 0). This is the default world origin before any manual
// transform exists.
func (l Layout) Normalize() Layout {
	dx, dy := -l.Bounds.X, -l.Bounds.Y
	rects := make(map[string]geometry.Rect, len(l.Rects))
	for id, r := range l.Rects {
		rects[id] = r.Translate(dx, dy)
	}
	return Layout{Rects: rects, Bounds: l.Bounds.Translate(dx, dy)}
}

// Packer computes a one-shot placement of images of known size into a
// compact, roughly circular cluster around the origin. Placement is greedy:
// items are taken largest-area first, the first is centered at the origin,
// and each later item lands on the free candidate slot closest to the
// origin. The packer holds no state between runs; re-run it only when the
// participating item set changes.
type Packer struct {
	// Gap is the minimum empty space kept between any two footprints.
	Gap float64
}

// NewPacker returns a Packer with the default gap.
func NewPacker() *Packer {
	return &Packer{Gap: DefaultGap}
}

type placement struct {
	id   string
	rect geometry.Rect
}

// Pack places every item without overlap. Non-positive dimensions are
// floored to 1 so the result never carries a degenerate footprint. The
// returned cluster is centered at the origin; call Normalize to move its
// top-left corner to (0, 0).
func (p *Packer) Pack(items []Item) Layout {
	if len(items) == 0 {
		return Layout{Rects: map[string]geometry.Rect{}}
	}

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].area() > sorted[j].area()
	})

	placed := make([]placement, 0, len(sorted))
	for i, it := range sorted {
		w := math.Max(it.Width, 1)
		h := math.Max(it.Height, 1)
		var rect geometry.Rect
		if i == 0 {
			rect = geometry.NewRect(-w/2, -h/2, w, h)
		} else {
			rect = p.bestSlot(placed, w, h)
		}
		placed = append(placed, placement{id: it.ID, rect: rect})
	}

	rects := make(map[string]geometry.Rect, len(placed))
	bounds := placed[0].rect
	for _, pl := range placed {
		rects[pl.id] = pl.rect
		bounds = bounds.Union(pl.rect)
	}
	return Layout{Rects: rects, Bounds: bounds}
}

// bestSlot picks the free candidate slot whose center is nearest the origin.
// Ties keep the earliest candidate, so results are deterministic.
func (p *Packer) bestSlot(placed []placement, w, h float64) geometry.Rect {
	var best geometry.Rect
	bestDist := math.Inf(1)
	origin := geometry.Point2D{}

	for _, pl := range placed {
		for _, cand := range p.anchors(pl.rect, w, h) {
			if p.collides(cand, placed) {
				continue
			}
			if d := cand.Center().Distance(origin); d < bestDist {
				bestDist = d
				best = cand
			}
		}
	}

	if math.IsInf(bestDist, 1) {
		// Every anchor was blocked. Park the item right of the whole
		// cluster so packing always makes progress.
		b := placed[0].rect
		for _, pl := range placed[1:] {
			b = b.Union(pl.rect)
		}
		return geometry.NewRect(b.X+b.Width+p.Gap, b.Center().Y-h/2, w, h)
	}
	return best
}

// anchors returns the candidate slots around one existing footprint for a
// w x h newcomer: side-centered right/left/above/below plus the four
// diagonal corners.
func (p *Packer) anchors(r geometry.Rect, w, h float64) [8]geometry.Rect {
	g := p.Gap
	cx := r.X + r.Width/2 - w/2
	cy := r.Y + r.Height/2 - h/2
	right := r.X + r.Width + g
	left := r.X - g - w
	above := r.Y - g - h
	below := r.Y + r.Height + g
	return [8]geometry.Rect{
		{X: right, Y: cy, Width: w, Height: h},
		{X: left, Y: cy, Width: w, Height: h},
		{X: cx, Y: above, Width: w, Height: h},
		{X: cx, Y: below, Width: w, Height: h},
		{X: right, Y: above, Width: w, Height: h},
		{X: right, Y: below, Width: w, Height: h},
		{X: left, Y: above, Width: w, Height: h},
		{X: left, Y: below, Width: w, Height: h},
	}
}

// collides reports whether a candidate footprint comes closer than Gap to
// any placed footprint. Both sides grow by half the gap; exact touching at
// the full gap distance is allowed.
func (p *Packer) collides(cand geometry.Rect, placed []placement) bool {
	margin := p.Gap / 2
	grown := cand.Expand(margin)
	for _, pl := range placed {
		if grown.Intersects(pl.rect.Expand(margin)) {
			return true
		}
	}
	return false
}
