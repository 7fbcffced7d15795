package catalog

import (
	"fmt"
	"image"
	"testing"
)

func testSurface() *Surface {
	return NewSurface(image.NewRGBA(image.Rect(0, 0, 8, 8)))
}

func wantKeys(t *testing.T, c *LRUCache, want ...string) {
	t.Helper()
	got := c.Keys()
	if len(got) != len(want) {
		t.Fatalf("cache keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cache keys = %v, want %v", got, want)
		}
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2)
	c.Set("a", testSurface())
	c.Set("b", testSurface())
	c.Set("c", testSurface())

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry survived past capacity")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("entry b evicted early")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("entry c evicted early")
	}
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	c := NewLRUCache(2)
	c.Set("a", testSurface())
	c.Set("b", testSurface())
	c.Get("a")
	c.Set("c", testSurface())
	wantKeys(t, c, "c", "a")

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry evicted")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry survived")
	}
}

func TestCacheSetExistingKeyReplaces(t *testing.T) {
	c := NewLRUCache(2)
	first := testSurface()
	second := testSurface()
	c.Set("a", first)
	c.Set("b", testSurface())
	c.Set("a", second)

	got, ok := c.Get("a")
	if !ok || got != second {
		t.Error("Set on existing key did not replace the surface")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d after replace, want 2", c.Len())
	}
	wantKeys(t, c, "a", "b")
}

func TestCacheEvictionHook(t *testing.T) {
	c := NewLRUCache(1)
	var evicted []string
	c.OnEvict = func(key string, s *Surface) {
		if s == nil {
			t.Error("eviction hook got nil surface")
		}
		evicted = append(evicted, key)
	}

	c.Set("a", testSurface())
	c.Set("b", testSurface())
	c.Remove("b")

	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("evicted = %v, want [a]; explicit Remove must not fire the hook", evicted)
	}
}

func TestCacheRemove(t *testing.T) {
	c := NewLRUCache(4)
	c.Set("a", testSurface())
	c.Set("b", testSurface())
	c.Remove("a")
	c.Remove("missing")

	if _, ok := c.Get("a"); ok {
		t.Error("removed entry still present")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	wantKeys(t, c, "b")
}

func TestCacheCapacityFloor(t *testing.T) {
	c := NewLRUCache(0)
	c.Set("a", testSurface())
	if _, ok := c.Get("a"); !ok {
		t.Error("zero-capacity cache should still hold one entry")
	}
}

func TestCacheChurn(t *testing.T) {
	c := NewLRUCache(8)
	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), testSurface())
	}
	if c.Len() != 8 {
		t.Fatalf("Len = %d, want 8", c.Len())
	}
	// The survivors are exactly the eight most recent inserts.
	for i := 92; i < 100; i++ {
		if _, ok := c.Get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("recent key k%d missing", i)
		}
	}
}
