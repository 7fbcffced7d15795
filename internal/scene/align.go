package scene

// AlignEdge selects which edge or center line AlignSelection lines up.
type AlignEdge int

const (
	AlignLeft AlignEdge = iota
	AlignRight
	AlignTop
	AlignBottom
	// AlignCenterX lines up horizontal centers, AlignCenterY vertical ones.
	AlignCenterX
	AlignCenterY
)

// AlignSelection translates every selected item so its rotated bounding box
// lines up with the primary (last-selected) item's corresponding edge or
// center line. The primary item does not move. Needs at least two selected
// items; otherwise a no-op.
func (s *Scene) AlignSelection(edge AlignEdge) {
	s.mu.Lock()
	if len(s.selection) < 2 {
		s.mu.Unlock()
		return
	}
	primary := s.selection[len(s.selection)-1]
	ref := s.transformLocked(s.itemsByID[primary]).AABB()

	var changed []string
	for _, id := range s.selection[:len(s.selection)-1] {
		it := s.itemsByID[id]
		t := s.transformLocked(it)
		box := t.AABB()

		var dx, dy float64
		switch edge {
		case AlignLeft:
			dx = ref.X - box.X
		case AlignRight:
			dx = (ref.X + ref.Width) - (box.X + box.Width)
		case AlignTop:
			dy = ref.Y - box.Y
		case AlignBottom:
			dy = (ref.Y + ref.Height) - (box.Y + box.Height)
		case AlignCenterX:
			dx = ref.Center().X - box.Center().X
		case AlignCenterY:
			dy = ref.Center().Y - box.Center().Y
		}
		if dx == 0 && dy == 0 {
			continue
		}
		t.X += dx
		t.Y += dy
		it.Override = &t
		changed = append(changed, id)
	}
	if len(changed) > 0 {
		s.groupBounds = s.computeGroupBoundsLocked()
	}
	s.mu.Unlock()

	if len(changed) > 0 {
		s.Emit(EventTransformChanged, changed)
	}
}
