package scene

import (
	"math"

	"light-table/pkg/geometry"
)

// GroupID is the pseudo-target accepted by UpdateItemTransform when more
// than one item is selected. A patch against it describes the requested
// group bounding box; X/Y/Width/Height are absolute, Rotation is this
// event's delta in degrees.
const GroupID = "group"

// MinItemSize is the smallest width or height an item transform may reach,
// in world units.
const MinItemSize = 1.0

// edgeEpsilon is the world-space tolerance below which a requested group
// edge counts as unmoved, and therefore stays pinned through the event.
const edgeEpsilon = 1e-6

// TransformPatch holds the transform fields an update overwrites. Nil
// fields keep their current value.
type TransformPatch struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	Rotation *float64
}

// GroupPolicy bounds how far a single gesture event may transform a
// multi-item selection. Pointer deltas arrive faster than the group box
// settles, so uncapped events can feed back into runaway growth.
type GroupPolicy struct {
	// MinScale and MaxScale bound the per-event scale factor.
	MinScale float64
	MaxScale float64
	// MaxRotation bounds the per-event rotation in degrees, either
	// direction.
	MaxRotation float64
	// MaxTranslationFactor caps per-event translation at this fraction of
	// max(group width, group height).
	MaxTranslationFactor float64
}

// DefaultGroupPolicy returns the stock damping band.
func DefaultGroupPolicy() GroupPolicy {
	return GroupPolicy{
		MinScale:             0.85,
		MaxScale:             1.15,
		MaxRotation:          30,
		MaxTranslationFactor: 0.5,
	}
}

// UpdateItemTransform merges the patch into the item's transform, creating
// a manual override if the item still follows its packed default.
//
// When the target is GroupID and more than one item is selected, the patch
// instead describes the requested group bounding box. The implied change is
// decomposed into scale, rotation, and translation once, clamped per the
// group policy, and re-applied to every selected item about the group's
// pre-update center, so the whole selection transforms rigidly. A requested
// edge that did not move stays visually pinned.
func (s *Scene) UpdateItemTransform(id string, patch TransformPatch) {
	s.mu.Lock()
	var changed []string
	if id == GroupID && len(s.selection) > 1 {
		changed = s.applyGroupPatchLocked(patch)
	} else if it, ok := s.itemsByID[id]; ok {
		s.applyItemPatchLocked(it, patch)
		changed = []string{id}
	}
	s.mu.Unlock()

	if len(changed) > 0 {
		s.Emit(EventTransformChanged, changed)
	}
}

func (s *Scene) applyItemPatchLocked(it *Item, patch TransformPatch) {
	t := s.transformLocked(it)
	if patch.X != nil {
		t.X = *patch.X
	}
	if patch.Y != nil {
		t.Y = *patch.Y
	}
	if patch.Width != nil {
		t.Width = math.Max(*patch.Width, MinItemSize)
	}
	if patch.Height != nil {
		t.Height = math.Max(*patch.Height, MinItemSize)
	}
	if patch.Rotation != nil {
		t.Rotation = normalizeAngle(*patch.Rotation)
	}
	it.Override = &t
}

func (s *Scene) applyGroupPatchLocked(patch TransformPatch) []string {
	g0 := s.groupBounds
	if g0.Width <= 0 || g0.Height <= 0 {
		return nil
	}

	// Requested box, defaulting to the current one.
	g1 := g0
	if patch.X != nil {
		g1.X = *patch.X
	}
	if patch.Y != nil {
		g1.Y = *patch.Y
	}
	if patch.Width != nil {
		g1.Width = *patch.Width
	}
	if patch.Height != nil {
		g1.Height = *patch.Height
	}
	var rot float64
	if patch.Rotation != nil {
		rot = *patch.Rotation
	}

	d := decomposeGroupChange(g0, g1, rot, s.Policy)
	center := g0.Center()

	for _, id := range s.selection {
		it := s.itemsByID[id]
		t := s.transformLocked(it)

		// Scale the item center about the pivot, rotate about the group
		// center, then translate.
		c := t.Center()
		c = geometry.Point2D{
			X: d.pivot.X + (c.X-d.pivot.X)*d.scaleX,
			Y: d.pivot.Y + (c.Y-d.pivot.Y)*d.scaleY,
		}
		c = geometry.RotatePoint(c, center, d.rotation)
		c = c.Add(d.translation)

		t.Width = math.Max(t.Width*d.scaleX, MinItemSize)
		t.Height = math.Max(t.Height*d.scaleY, MinItemSize)
		t.Rotation = normalizeAngle(t.Rotation + d.rotation)
		t.X = c.X - t.Width/2
		t.Y = c.Y - t.Height/2
		it.Override = &t
	}

	// Carry the group box along rigidly. It is re-derived from the item
	// bounds only when the gesture ends, so the box a rotating gesture
	// works against never grows under its own output.
	s.groupBounds = geometry.Rect{
		X:      d.pivot.X + (g0.X-d.pivot.X)*d.scaleX + d.translation.X,
		Y:      d.pivot.Y + (g0.Y-d.pivot.Y)*d.scaleY + d.translation.Y,
		Width:  g0.Width * d.scaleX,
		Height: g0.Height * d.scaleY,
	}

	ids := make([]string, len(s.selection))
	copy(ids, s.selection)
	return ids
}

// groupDelta is one event's clamped rigid change.
type groupDelta struct {
	scaleX, scaleY float64
	rotation       float64
	translation    geometry.Point2D
	pivot          geometry.Point2D
}

func decomposeGroupChange(g0, g1 geometry.Rect, rotation float64, policy GroupPolicy) groupDelta {
	d := groupDelta{
		scaleX:   clampFloat(g1.Width/g0.Width, policy.MinScale, policy.MaxScale),
		scaleY:   clampFloat(g1.Height/g0.Height, policy.MinScale, policy.MaxScale),
		rotation: clampFloat(rotation, -policy.MaxRotation, policy.MaxRotation),
	}

	// An edge whose requested position barely moved is the one the user is
	// dragging away from; scaling about it keeps it pinned.
	leftFixed := math.Abs(g1.X-g0.X) < edgeEpsilon
	rightFixed := math.Abs((g1.X+g1.Width)-(g0.X+g0.Width)) < edgeEpsilon
	topFixed := math.Abs(g1.Y-g0.Y) < edgeEpsilon
	bottomFixed := math.Abs((g1.Y+g1.Height)-(g0.Y+g0.Height)) < edgeEpsilon

	c0 := g0.Center()
	switch {
	case leftFixed && !rightFixed:
		d.pivot.X = g0.X
	case rightFixed && !leftFixed:
		d.pivot.X = g0.X + g0.Width
	default:
		d.pivot.X = c0.X
	}
	switch {
	case topFixed && !bottomFixed:
		d.pivot.Y = g0.Y
	case bottomFixed && !topFixed:
		d.pivot.Y = g0.Y + g0.Height
	default:
		d.pivot.Y = c0.Y
	}

	// Translation covers whatever the pivot scaling did not: zero on an
	// axis with a pinned edge, the center delta otherwise. Keeping it zero
	// on pinned axes holds the pin even when the scale factor was clamped.
	var t geometry.Point2D
	if !leftFixed && !rightFixed {
		scaledCx := d.pivot.X + (c0.X-d.pivot.X)*d.scaleX
		t.X = g1.Center().X - scaledCx
	}
	if !topFixed && !bottomFixed {
		scaledCy := d.pivot.Y + (c0.Y-d.pivot.Y)*d.scaleY
		t.Y = g1.Center().Y - scaledCy
	}

	maxT := policy.MaxTranslationFactor * math.Max(g0.Width, g0.Height)
	if norm := math.Hypot(t.X, t.Y); norm > maxT && norm > 0 {
		k := maxT / norm
		t.X *= k
		t.Y *= k
	}
	d.translation = t
	return d
}

// normalizeAngle keeps rotation within (-360, 360), the range the rotation
// math is specified for.
func normalizeAngle(a float64) float64 {
	return math.Mod(a, 360)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
