package scene

// ReorderMode selects how Reorder moves an item through the z-order.
type ReorderMode int

const (
	// ReorderTop lands the item immediately above the topmost item it
	// overlaps, or at the very top if it overlaps nothing above it.
	ReorderTop ReorderMode = iota
	// ReorderBottom lands the item immediately below the lowest item it
	// overlaps, or at the very bottom.
	ReorderBottom
	// ReorderUp lands the item immediately above the nearest overlapping
	// item above it, or swaps with its upper neighbor.
	ReorderUp
	// ReorderDown lands the item immediately below the nearest overlapping
	// item below it, or swaps with its lower neighbor.
	ReorderDown
)

// Reorder moves one item through the z-order relative to the items its
// rotated footprint actually overlaps, so "bring to front" only jumps
// over items it covers and the relative order of non-overlapping items is
// preserved. With a multi-selection active only the given item moves; the
// rest of the selection stays put.
func (s *Scene) Reorder(id string, mode ReorderMode) {
	s.mu.Lock()
	idx := indexOf(s.zOrder, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}

	target := s.transformLocked(s.itemsByID[id])
	overlapsAt := func(k int) bool {
		return target.Overlaps(s.transformLocked(s.itemsByID[s.zOrder[k]]))
	}

	// insertAt is the index in the order-without-target slice.
	insertAt := -1
	switch mode {
	case ReorderTop:
		for k := idx + 1; k < len(s.zOrder); k++ {
			if overlapsAt(k) {
				insertAt = k // neighbor shifts to k-1 after removal
			}
		}
		if insertAt < 0 {
			insertAt = len(s.zOrder) - 1
		}
	case ReorderUp:
		for k := idx + 1; k < len(s.zOrder); k++ {
			if overlapsAt(k) {
				insertAt = k
				break
			}
		}
		if insertAt < 0 {
			if idx == len(s.zOrder)-1 {
				s.mu.Unlock()
				return
			}
			insertAt = idx + 1
		}
	case ReorderBottom:
		for k := idx - 1; k >= 0; k-- {
			if overlapsAt(k) {
				insertAt = k
			}
		}
		if insertAt < 0 {
			insertAt = 0
		}
	case ReorderDown:
		for k := idx - 1; k >= 0; k-- {
			if overlapsAt(k) {
				insertAt = k
				break
			}
		}
		if insertAt < 0 {
			if idx == 0 {
				s.mu.Unlock()
				return
			}
			insertAt = idx - 1
		}
	default:
		s.mu.Unlock()
		return
	}

	order := append(s.zOrder[:idx:idx], s.zOrder[idx+1:]...)
	if insertAt > len(order) {
		insertAt = len(order)
	}
	order = append(order, "")
	copy(order[insertAt+1:], order[insertAt:])
	order[insertAt] = id

	changed := !equalStrings(order, s.zOrder)
	s.zOrder = order
	s.mu.Unlock()

	if changed {
		s.Emit(EventZOrderChanged, id)
	}
}
