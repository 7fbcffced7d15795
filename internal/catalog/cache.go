package catalog

import "sync"

// DefaultCacheCapacity bounds how many decoded surfaces the default cache
// keeps before evicting the least recently used one.
const DefaultCacheCapacity = 64

// SurfaceCache stores decoded surfaces keyed by catalog id. The canvas
// treats the cache as a collaborator, so a host can share one cache between
// canvases or substitute its own policy.
type SurfaceCache interface {
	Get(key string) (*Surface, bool)
	Set(key string, s *Surface)
	Remove(key string)
}

// LRUCache is the default SurfaceCache: a map plus an intrusive recency
// list. Get and Set refresh recency; Set past capacity evicts from the cold
// end.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry
	head     *cacheEntry // most recently used
	tail     *cacheEntry // least recently used

	// OnEvict observes capacity evictions. Explicit Remove calls do not
	// trigger it. May be nil.
	OnEvict func(key string, s *Surface)
}

type cacheEntry struct {
	key     string
	surface *Surface
	prev    *cacheEntry
	next    *cacheEntry
}

// NewLRUCache creates a cache holding at most capacity surfaces. Capacities
// below one are raised to one.
func NewLRUCache(capacity int) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry),
	}
}

// Get returns the surface for key and marks it most recently used.
func (c *LRUCache) Get(key string) (*Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.surface, true
}

// Set stores the surface under key, evicting cold entries past capacity.
func (c *LRUCache) Set(key string, s *Surface) {
	var evicted []*cacheEntry

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.surface = s
		c.moveToFront(e)
		c.mu.Unlock()
		return
	}
	e := &cacheEntry{key: key, surface: s}
	c.entries[key] = e
	c.pushFront(e)
	for len(c.entries) > c.capacity {
		cold := c.tail
		c.unlink(cold)
		delete(c.entries, cold.key)
		evicted = append(evicted, cold)
	}
	hook := c.OnEvict
	c.mu.Unlock()

	if hook != nil {
		for _, e := range evicted {
			hook(e.key, e.surface)
		}
	}
}

// Remove drops the entry for key, if present.
func (c *LRUCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.unlink(e)
	delete(c.entries, key)
}

// Len returns the number of cached surfaces.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the cached keys from most to least recently used.
func (c *LRUCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for e := c.head; e != nil; e = e.next {
		out = append(out, e.key)
	}
	return out
}

func (c *LRUCache) pushFront(e *cacheEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRUCache) moveToFront(e *cacheEntry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *LRUCache) unlink(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}
