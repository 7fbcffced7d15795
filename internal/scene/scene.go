// Package scene holds the authoritative state of the comparison canvas:
// items, manual transforms, z-order, selection, annotations, and the view
// transform. All mutation goes through this package.
package scene

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"light-table/internal/packing"
	"light-table/pkg/geometry"
)

// Item is one image participating in the comparison. Natural dimensions are
// the intrinsic pixel size of the source; they double as the item's default
// world-space footprint.
type Item struct {
	ID            string
	SourcePath    string
	NaturalWidth  int
	NaturalHeight int

	// Override is the manual transform. Nil means the packed default
	// placement applies.
	Override *geometry.ItemTransform
}

// Annotation is a point note pinned to an item. Its position is a percentage
// of the owning item's unrotated box, so it tracks the item through every
// transform.
type Annotation struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"imageId"`
	XPercent  float64   `json:"xPercent"`
	YPercent  float64   `json:"yPercent"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventType identifies different scene events.
type EventType int

const (
	EventItemsChanged EventType = iota
	EventTransformChanged
	EventSelectionChanged
	EventZOrderChanged
	EventAnnotationsChanged
	EventViewChanged
	EventSceneReset
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Scene is the scene model. Zero value is not usable; call NewScene.
type Scene struct {
	mu sync.RWMutex

	itemsByID   map[string]*Item
	zOrder      []string
	selection   []string
	annotations []Annotation
	view        geometry.ViewTransform
	groupBounds geometry.Rect

	// packed holds the default placements for items without an override.
	// It is recomputed only when the item set changes.
	packed packing.Layout

	// Packer seeds default placements. Policy bounds group gestures.
	// Configure both before the scene is in use.
	Packer *packing.Packer
	Policy GroupPolicy

	listeners map[EventType][]EventListener
}

// NewScene creates an empty scene with default packing and group policy.
func NewScene() *Scene {
	return &Scene{
		itemsByID: make(map[string]*Item),
		view:      geometry.ViewTransform{Scale: 1},
		packed:    packing.Layout{Rects: map[string]geometry.Rect{}},
		Packer:    packing.NewPacker(),
		Policy:    DefaultGroupPolicy(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *Scene) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Scene) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Len returns the number of items in the scene.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.itemsByID)
}

// Item returns a copy of the item with the given id.
func (s *Scene) Item(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.itemsByID[id]
	if !ok {
		return Item{}, false
	}
	return copyItem(it), true
}

func copyItem(it *Item) Item {
	cp := *it
	if it.Override != nil {
		o := *it.Override
		cp.Override = &o
	}
	return cp
}

// ZOrder returns the item ids back to front.
func (s *Scene) ZOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.zOrder))
	copy(out, s.zOrder)
	return out
}

// Selection returns the selected ids in recency order; the last entry is the
// primary item.
func (s *Scene) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}

// IsSelected reports whether the id is part of the current selection.
func (s *Scene) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.selection, id) >= 0
}

// GroupBounds returns the axis-aligned box covering the rotated bounds of
// all selected items. It is a derived value, refreshed when the selection
// changes and on RecomputeGroupBounds, not continuously during a drag.
func (s *Scene) GroupBounds() geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupBounds
}

// View returns the current view transform.
func (s *Scene) View() geometry.ViewTransform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetView replaces the view transform. The scale is clamped to the
// supported zoom range.
func (s *Scene) SetView(v geometry.ViewTransform) {
	v.Scale = geometry.ClampScale(v.Scale)
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	s.Emit(EventViewChanged, v)
}

// Transform returns the item's effective transform: the manual override when
// present, otherwise the packed default placement.
func (s *Scene) Transform(id string) (geometry.ItemTransform, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.itemsByID[id]
	if !ok {
		return geometry.ItemTransform{}, false
	}
	return s.transformLocked(it), true
}

func (s *Scene) transformLocked(it *Item) geometry.ItemTransform {
	if it.Override != nil {
		return *it.Override
	}
	if r, ok := s.packed.Rects[it.ID]; ok {
		return geometry.ItemTransform{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return geometry.ItemTransform{Width: float64(it.NaturalWidth), Height: float64(it.NaturalHeight)}
}

// ContentBounds returns the union of every item's rotated bounding box.
// ok is false for an empty scene.
func (s *Scene) ContentBounds() (bounds geometry.Rect, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, id := range s.zOrder {
		aabb := s.transformLocked(s.itemsByID[id]).AABB()
		if i == 0 {
			bounds = aabb
		} else {
			bounds = bounds.Union(aabb)
		}
	}
	return bounds, len(s.zOrder) > 0
}

// ItemAt returns the topmost item containing the world-space point.
func (s *Scene) ItemAt(p geometry.Point2D) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.zOrder) - 1; i >= 0; i-- {
		id := s.zOrder[i]
		if s.transformLocked(s.itemsByID[id]).ContainsPoint(p) {
			return id, true
		}
	}
	return "", false
}

// ItemsInRect returns, back to front, every item whose rotated footprint
// overlaps the world-space rectangle. Marquee selection is built on this.
func (s *Scene) ItemsInRect(r geometry.Rect) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.zOrder {
		if s.transformLocked(s.itemsByID[id]).OverlapsRect(r) {
			out = append(out, id)
		}
	}
	return out
}

// AddItem adds an item to the comparison set and appends it to the z-order.
// Adding an id that is already present is a no-op. Default placements are
// repacked for the new item set.
func (s *Scene) AddItem(item Item) {
	s.mu.Lock()
	if _, exists := s.itemsByID[item.ID]; exists {
		s.mu.Unlock()
		return
	}
	stored := copyItem(&item)
	s.itemsByID[item.ID] = &stored
	s.zOrder = append(s.zOrder, item.ID)
	s.repackLocked()
	s.mu.Unlock()

	s.Emit(EventItemsChanged, item.ID)
}

// RemoveItems removes the given items, splicing them out of the z-order and
// selection and cascading removal of their annotations.
func (s *Scene) RemoveItems(ids []string) {
	s.mu.Lock()
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.itemsByID[id]; ok {
			delete(s.itemsByID, id)
			removed[id] = true
		}
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return
	}

	s.zOrder = splice(s.zOrder, removed)

	selectionChanged := false
	if filtered := splice(s.selection, removed); len(filtered) != len(s.selection) {
		s.selection = filtered
		selectionChanged = true
	}

	annotationsChanged := false
	kept := s.annotations[:0]
	for _, a := range s.annotations {
		if removed[a.ItemID] {
			annotationsChanged = true
			continue
		}
		kept = append(kept, a)
	}
	s.annotations = kept

	s.repackLocked()
	s.groupBounds = s.computeGroupBoundsLocked()
	s.mu.Unlock()

	s.Emit(EventItemsChanged, ids)
	if selectionChanged {
		s.Emit(EventSelectionChanged, nil)
	}
	if annotationsChanged {
		s.Emit(EventAnnotationsChanged, nil)
	}
}

// SetSelection replaces the selection with the given ids, in the given
// order, anchor (primary) last. Unknown and duplicate ids are dropped.
// Toggle and range semantics belong to the caller.
func (s *Scene) SetSelection(ids []string) {
	s.mu.Lock()
	next := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := s.itemsByID[id]; !ok {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	if equalStrings(s.selection, next) {
		s.mu.Unlock()
		return
	}
	s.selection = next
	s.groupBounds = s.computeGroupBoundsLocked()
	s.mu.Unlock()

	s.Emit(EventSelectionChanged, next)
}

// ClearSelection empties the selection.
func (s *Scene) ClearSelection() {
	s.SetSelection(nil)
}

// RecomputeGroupBounds refreshes the derived group box from the current item
// transforms. The interaction layer calls this when a drag gesture ends;
// mid-drag the box is carried along rigidly instead, so rotated items do not
// feed an ever-growing box back into the gesture math.
func (s *Scene) RecomputeGroupBounds() {
	s.mu.Lock()
	s.groupBounds = s.computeGroupBoundsLocked()
	b := s.groupBounds
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, b)
}

func (s *Scene) computeGroupBoundsLocked() geometry.Rect {
	var bounds geometry.Rect
	for i, id := range s.selection {
		aabb := s.transformLocked(s.itemsByID[id]).AABB()
		if i == 0 {
			bounds = aabb
		} else {
			bounds = bounds.Union(aabb)
		}
	}
	return bounds
}

// Annotations returns a copy of all annotations.
func (s *Scene) Annotations() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// AnnotationsFor returns the annotations attached to one item.
func (s *Scene) AnnotationsFor(itemID string) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Annotation
	for _, a := range s.annotations {
		if a.ItemID == itemID {
			out = append(out, a)
		}
	}
	return out
}

// AddAnnotation pins a note to an item at a position given as percentages of
// the item's unrotated box.
func (s *Scene) AddAnnotation(itemID string, xPercent, yPercent float64, text string) (Annotation, error) {
	s.mu.Lock()
	if _, ok := s.itemsByID[itemID]; !ok {
		s.mu.Unlock()
		return Annotation{}, fmt.Errorf("annotate: unknown item %q", itemID)
	}
	a := Annotation{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		XPercent:  clampPercent(xPercent),
		YPercent:  clampPercent(yPercent),
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.annotations = append(s.annotations, a)
	s.mu.Unlock()

	s.Emit(EventAnnotationsChanged, a.ID)
	return a, nil
}

// UpdateAnnotation replaces the text of an annotation. Unknown ids no-op.
func (s *Scene) UpdateAnnotation(id, text string) {
	s.mu.Lock()
	changed := false
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations[i].Text = text
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.Emit(EventAnnotationsChanged, id)
	}
}

// RemoveAnnotation deletes an annotation. Unknown ids no-op.
func (s *Scene) RemoveAnnotation(id string) {
	s.mu.Lock()
	changed := false
	for i := range s.annotations {
		if s.annotations[i].ID == id {
			s.annotations = append(s.annotations[:i], s.annotations[i+1:]...)
			changed = true
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.Emit(EventAnnotationsChanged, id)
	}
}

// RestoreAnnotations replaces the annotation list wholesale, keeping the ids
// and timestamps of a saved arrangement. Annotations pointing at unknown
// items are dropped.
func (s *Scene) RestoreAnnotations(list []Annotation) {
	s.mu.Lock()
	next := make([]Annotation, 0, len(list))
	for _, a := range list {
		if _, ok := s.itemsByID[a.ItemID]; !ok {
			continue
		}
		a.XPercent = clampPercent(a.XPercent)
		a.YPercent = clampPercent(a.YPercent)
		next = append(next, a)
	}
	s.annotations = next
	s.mu.Unlock()

	s.Emit(EventAnnotationsChanged, nil)
}

// ResetItem drops the item's manual transform, reverting it to the packed
// default placement.
func (s *Scene) ResetItem(id string) {
	s.mu.Lock()
	it, ok := s.itemsByID[id]
	if !ok || it.Override == nil {
		s.mu.Unlock()
		return
	}
	it.Override = nil
	s.groupBounds = s.computeGroupBoundsLocked()
	s.mu.Unlock()

	s.Emit(EventTransformChanged, id)
}

// ResetAll drops every manual transform. Listeners are expected to follow up
// by fitting the view to the restored default layout.
func (s *Scene) ResetAll() {
	s.mu.Lock()
	for _, it := range s.itemsByID {
		it.Override = nil
	}
	s.groupBounds = s.computeGroupBoundsLocked()
	s.mu.Unlock()

	s.Emit(EventSceneReset, nil)
}

// repackLocked refreshes the default placements from the natural sizes of
// the current item set.
func (s *Scene) repackLocked() {
	inputs := make([]packing.Item, 0, len(s.zOrder))
	for _, id := range s.zOrder {
		it := s.itemsByID[id]
		inputs = append(inputs, packing.Item{
			ID:     it.ID,
			Width:  float64(it.NaturalWidth),
			Height: float64(it.NaturalHeight),
		})
	}
	s.packed = s.Packer.Pack(inputs).Normalize()
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

// splice returns the list without the ids present in the drop set.
func splice(list []string, drop map[string]bool) []string {
	out := list[:0]
	for _, id := range list {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
