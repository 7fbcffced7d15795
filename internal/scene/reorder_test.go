package scene

import (
	"testing"
)

// overlapScene builds three items where a overlaps b but neither overlaps c.
// Z-order is the insertion order [a b c].
func overlapScene(t *testing.T) *Scene {
	t.Helper()
	s := NewScene()
	addSquare(s, "a", 100)
	addSquare(s, "b", 100)
	addSquare(s, "c", 100)
	setTransform(s, "a", 0, 0, 100, 100, 0)
	setTransform(s, "b", 50, 50, 100, 100, 0)
	setTransform(s, "c", 1000, 1000, 100, 100, 0)
	return s
}

func wantOrder(t *testing.T, s *Scene, want ...string) {
	t.Helper()
	got := s.ZOrder()
	if len(got) != len(want) {
		t.Fatalf("ZOrder() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ZOrder() = %v, want %v", got, want)
		}
	}
}

func TestReorderTopLandsJustAboveOverlappedItem(t *testing.T) {
	s := overlapScene(t)

	// a overlaps only b, so "top" must land a directly above b without
	// jumping over the unrelated c.
	s.Reorder("a", ReorderTop)
	wantOrder(t, s, "b", "a", "c")
}

func TestReorderTopAboveHighestOverlapped(t *testing.T) {
	s := overlapScene(t)
	// Move c over the others so a overlaps both.
	setTransform(s, "c", 25, 25, 100, 100, 0)

	s.Reorder("a", ReorderTop)
	wantOrder(t, s, "b", "c", "a")
}

func TestReorderTopWithoutOverlapGoesAbsoluteTop(t *testing.T) {
	s := NewScene()
	addSquare(s, "a", 100)
	addSquare(s, "b", 100)
	addSquare(s, "c", 100)
	setTransform(s, "a", 0, 0, 100, 100, 0)
	setTransform(s, "b", 500, 0, 100, 100, 0)
	setTransform(s, "c", 1000, 0, 100, 100, 0)

	s.Reorder("a", ReorderTop)
	wantOrder(t, s, "b", "c", "a")
}

func TestReorderBottomLandsJustBelowOverlappedItem(t *testing.T) {
	s := overlapScene(t)

	s.Reorder("b", ReorderBottom)
	wantOrder(t, s, "b", "a", "c")
}

func TestReorderBottomWithoutOverlapGoesAbsoluteBottom(t *testing.T) {
	s := NewScene()
	addSquare(s, "a", 100)
	addSquare(s, "b", 100)
	addSquare(s, "c", 100)
	setTransform(s, "a", 0, 0, 100, 100, 0)
	setTransform(s, "b", 500, 0, 100, 100, 0)
	setTransform(s, "c", 1000, 0, 100, 100, 0)

	s.Reorder("c", ReorderBottom)
	wantOrder(t, s, "c", "a", "b")
}

func TestReorderUpSwapsWhenNothingOverlaps(t *testing.T) {
	s := NewScene()
	addSquare(s, "a", 100)
	addSquare(s, "b", 100)
	setTransform(s, "a", 0, 0, 100, 100, 0)
	setTransform(s, "b", 500, 0, 100, 100, 0)

	s.Reorder("a", ReorderUp)
	wantOrder(t, s, "b", "a")
}

func TestReorderUpStopsAtNearestOverlap(t *testing.T) {
	s := overlapScene(t)
	// Stack c over a as well; a's nearest overlap above is b.
	setTransform(s, "c", 10, 10, 100, 100, 0)

	s.Reorder("a", ReorderUp)
	wantOrder(t, s, "b", "a", "c")
}

func TestReorderDownStopsAtNearestOverlap(t *testing.T) {
	s := overlapScene(t)

	s.Reorder("b", ReorderDown)
	wantOrder(t, s, "b", "a", "c")
}

func TestReorderSeesThroughRotatedBoundingBoxes(t *testing.T) {
	// b's 45-degree footprint leaves its bounding-box corner empty, and a
	// sits in that corner. Only c genuinely overlaps a, so "up" must carry
	// a past b and land it above c.
	s := NewScene()
	addSquare(s, "a", 100)
	addSquare(s, "b", 100)
	addSquare(s, "c", 100)
	setTransform(s, "a", -15, -15, 20, 20, 0)
	setTransform(s, "b", 0, 0, 100, 100, 45)
	setTransform(s, "c", -10, -10, 20, 20, 0)

	s.Reorder("a", ReorderUp)
	wantOrder(t, s, "b", "c", "a")
}

func TestReorderAtEdgesIsNoop(t *testing.T) {
	s := NewScene()
	addSquare(s, "a", 100)
	addSquare(s, "b", 100)
	setTransform(s, "a", 0, 0, 100, 100, 0)
	setTransform(s, "b", 500, 0, 100, 100, 0)

	fired := 0
	s.On(EventZOrderChanged, func(interface{}) { fired++ })

	s.Reorder("b", ReorderUp)   // already on top, nothing overlaps
	s.Reorder("a", ReorderDown) // already at bottom
	if fired != 0 {
		t.Errorf("EventZOrderChanged fired %d times for edge no-ops", fired)
	}
	wantOrder(t, s, "a", "b")
}

func TestReorderUnknownIgnored(t *testing.T) {
	s := NewScene()
	addSquare(s, "a", 100)
	s.Reorder("ghost", ReorderTop)
	wantOrder(t, s, "a")
}

func TestReorderMovesOnlyTargetItem(t *testing.T) {
	s := overlapScene(t)
	s.SetSelection([]string{"a", "b"})

	// Even with a multi-selection, reorder touches just the named item.
	s.Reorder("a", ReorderTop)
	wantOrder(t, s, "b", "a", "c")
	sel := s.Selection()
	if len(sel) != 2 || sel[0] != "a" || sel[1] != "b" {
		t.Errorf("selection disturbed by reorder: %v", sel)
	}
}
