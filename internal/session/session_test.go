package session

import (
	"errors"
	"math"
	"strings"
	"testing"

	"light-table/internal/catalog"
	"light-table/internal/scene"
	"light-table/pkg/geometry"
)

// memCatalog is a fixed in-memory catalog for codec tests.
type memCatalog map[string]catalog.Entry

func (m memCatalog) Entry(id string) (catalog.Entry, bool) {
	e, ok := m[id]
	return e, ok
}

func (m memCatalog) add(id string, w, h int) {
	m[id] = catalog.Entry{ID: id, Path: "/images/" + id + ".png", Width: w, Height: h}
}

func sceneWith(cat memCatalog, ids ...string) *scene.Scene {
	s := scene.NewScene()
	for _, id := range ids {
		e := cat[id]
		s.AddItem(scene.Item{
			ID:            e.ID,
			SourcePath:    e.Path,
			NaturalWidth:  e.Width,
			NaturalHeight: e.Height,
		})
	}
	return s
}

func transformsClose(a, b geometry.ItemTransform) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.Width-b.Width) < eps && math.Abs(a.Height-b.Height) < eps &&
		math.Abs(a.Rotation-b.Rotation) < eps
}

func TestRoundTripPreservesArrangement(t *testing.T) {
	cat := memCatalog{}
	cat.add("a", 1000, 750)
	cat.add("b", 500, 500)
	src := sceneWith(cat, "a", "b")

	rot := 15.0
	src.UpdateItemTransform("a", scene.TransformPatch{
		X: ptr(120.0), Y: ptr(-40.0), Width: ptr(640.0), Height: ptr(480.0), Rotation: &rot,
	})
	src.Reorder("a", scene.ReorderTop)
	ann, err := src.AddAnnotation("b", 25, 75, "check the seam here")
	if err != nil {
		t.Fatal(err)
	}

	data, err := Encode(Snapshot(src))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	dst := scene.NewScene()
	if skipped := Restore(doc, cat, dst); skipped != 0 {
		t.Fatalf("Restore skipped %d items, want 0", skipped)
	}

	wantOrder := src.ZOrder()
	gotOrder := dst.ZOrder()
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("z-order = %v, want %v", gotOrder, wantOrder)
	}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("z-order = %v, want %v", gotOrder, wantOrder)
		}
	}

	srcT, _ := src.Transform("a")
	dstT, ok := dst.Transform("a")
	if !ok || !transformsClose(srcT, dstT) {
		t.Errorf("transform for a = %+v, want %+v", dstT, srcT)
	}

	// Item b had no manual transform; it must restore to a packed default,
	// not a frozen copy of the old placement.
	itemB, _ := dst.Item("b")
	if itemB.Override != nil {
		t.Errorf("item without manual transform restored with override %+v", itemB.Override)
	}

	anns := dst.Annotations()
	if len(anns) != 1 {
		t.Fatalf("restored %d annotations, want 1", len(anns))
	}
	got := anns[0]
	if got.ID != ann.ID || got.Text != ann.Text || got.ItemID != "b" {
		t.Errorf("annotation = %+v, want id/text/item of %+v", got, ann)
	}
	if math.Abs(got.XPercent-25) > 1e-9 || math.Abs(got.YPercent-75) > 1e-9 {
		t.Errorf("annotation position = (%v, %v), want (25, 75)", got.XPercent, got.YPercent)
	}
	if !got.CreatedAt.Equal(ann.CreatedAt) {
		t.Errorf("annotation timestamp = %v, want %v", got.CreatedAt, ann.CreatedAt)
	}
}

func TestRestoreSkipsUnknownItems(t *testing.T) {
	full := memCatalog{}
	full.add("a", 100, 100)
	full.add("b", 100, 100)
	full.add("c", 100, 100)
	src := sceneWith(full, "a", "b", "c")
	if _, err := src.AddAnnotation("b", 50, 50, "gone soon"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.AddAnnotation("c", 10, 10, "survives"); err != nil {
		t.Fatal(err)
	}
	doc := Snapshot(src)

	// The catalog forgot item b.
	partial := memCatalog{}
	partial.add("a", 100, 100)
	partial.add("c", 100, 100)

	dst := scene.NewScene()
	if skipped := Restore(doc, partial, dst); skipped != 1 {
		t.Errorf("Restore skipped %d items, want 1", skipped)
	}

	order := dst.ZOrder()
	if len(order) != 2 || order[0] != "a" || order[1] != "c" {
		t.Errorf("z-order = %v, want [a c]", order)
	}
	anns := dst.Annotations()
	if len(anns) != 1 || anns[0].ItemID != "c" {
		t.Errorf("annotations = %+v, want only the one on c", anns)
	}
}

func TestRestoreAppendsItemsMissingFromZOrder(t *testing.T) {
	cat := memCatalog{}
	cat.add("a", 100, 100)
	cat.add("b", 100, 100)
	src := sceneWith(cat, "a", "b")
	doc := Snapshot(src)
	// A hand-edited document can lose z-order entries.
	doc.ZOrder = []string{"b"}

	dst := scene.NewScene()
	Restore(doc, cat, dst)

	order := dst.ZOrder()
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Errorf("z-order = %v, want [b a]", order)
	}
}

func TestRestoreReplacesExistingScene(t *testing.T) {
	cat := memCatalog{}
	cat.add("a", 100, 100)
	cat.add("b", 100, 100)

	dst := sceneWith(cat, "a")
	dst.SetSelection([]string{"a"})

	src := sceneWith(cat, "b")
	Restore(Snapshot(src), cat, dst)

	order := dst.ZOrder()
	if len(order) != 1 || order[0] != "b" {
		t.Errorf("z-order = %v, want [b]", order)
	}
	if len(dst.Selection()) != 0 {
		t.Error("selection survived a restore")
	}
}

func TestDecodeVersionHandling(t *testing.T) {
	if _, err := Decode([]byte(`{"version": 99, "items": []}`)); !errors.Is(err, ErrVersion) {
		t.Errorf("future version error = %v, want ErrVersion", err)
	}

	doc, err := Decode([]byte(`{"items": [], "zOrder": []}`))
	if err != nil {
		t.Fatalf("versionless document rejected: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("versionless document read as version %d, want 1", doc.Version)
	}

	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Error("malformed document accepted")
	}
}

func TestEncodeUsesCamelCaseKeys(t *testing.T) {
	cat := memCatalog{}
	cat.add("a", 100, 80)
	src := sceneWith(cat, "a")
	src.UpdateItemTransform("a", scene.TransformPatch{X: ptr(5.0)})
	if _, err := src.AddAnnotation("a", 1, 2, "note"); err != nil {
		t.Fatal(err)
	}

	data, err := Encode(Snapshot(src))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"zOrder"`, `"imageId"`, `"xPercent"`, `"createdAt"`, `"rotation"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded document missing %s key:\n%s", key, data)
		}
	}
}

func ptr(v float64) *float64 { return &v }
