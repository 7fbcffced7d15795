package catalog

import (
	"fmt"
	"image"
	stddraw "image/draw"
	"log/slog"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"

	// Register image format handlers.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// lowDivisor is the edge divisor of the pre-scaled variant. The renderer
// samples Low instead of Full once the view zooms far out, where full-res
// sampling wastes time on pixels that collapse into one.
const lowDivisor = 4

// Surface holds the decoded pixels for one catalog entry plus a
// quarter-resolution variant for far-out zoom levels.
type Surface struct {
	Full *image.RGBA
	Low  *image.RGBA
}

// NewSurface wraps decoded pixels, converting them to RGBA and building the
// quarter-resolution variant.
func NewSurface(img image.Image) *Surface {
	full := toRGBA(img)
	return &Surface{Full: full, Low: scaleDown(full, lowDivisor)}
}

// LoadSurface decodes the image file at path and pre-scales its low-res
// variant.
func LoadSurface(path string) (*Surface, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewSurface(img), nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	stddraw.Draw(rgba, rgba.Bounds(), img, b.Min, stddraw.Src)
	return rgba
}

func scaleDown(src *image.RGBA, divisor int) *image.RGBA {
	b := src.Bounds()
	w := b.Dx() / divisor
	h := b.Dy() / divisor
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

// Loader fetches pixel surfaces for catalog entries in the background, one
// goroutine per distinct id. Results land in the cache before OnDone fires;
// the receiver must re-check that the id still matters before touching any
// scene or UI state, because loads are never cancelled, only ignored.
type Loader struct {
	catalog Catalog
	cache   SurfaceCache

	// OnDone is invoked from the loading goroutine once a load finishes,
	// successfully or not. May be nil.
	OnDone func(id string, err error)

	// loadFn decodes one path. Swapped out in tests.
	loadFn func(path string) (*Surface, error)

	mu      sync.Mutex
	pending map[string]bool
	failed  map[string]bool
}

// NewLoader creates a loader resolving entries through cat and storing
// surfaces in cache.
func NewLoader(cat Catalog, cache SurfaceCache) *Loader {
	return &Loader{
		catalog: cat,
		cache:   cache,
		loadFn:  LoadSurface,
		pending: make(map[string]bool),
		failed:  make(map[string]bool),
	}
}

// Surface returns the cached surface for the id, if present.
func (l *Loader) Surface(id string) (*Surface, bool) {
	return l.cache.Get(id)
}

// Failed reports whether the most recent load attempt for the id failed.
func (l *Loader) Failed(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failed[id]
}

// Request queues a background load for the id. Requests for ids that are
// cached, in flight, or already failed are no-ops, so the renderer may call
// this opportunistically on every paint.
func (l *Loader) Request(id string) {
	l.mu.Lock()
	if l.pending[id] || l.failed[id] {
		l.mu.Unlock()
		return
	}
	if _, ok := l.cache.Get(id); ok {
		l.mu.Unlock()
		return
	}
	entry, ok := l.catalog.Entry(id)
	if !ok {
		l.failed[id] = true
		l.mu.Unlock()
		slog.Warn("surface requested for unknown catalog id", "id", id)
		return
	}
	l.pending[id] = true
	l.mu.Unlock()

	go l.load(entry)
}

// Forget drops the cached surface and load bookkeeping for the id, allowing
// a later Request to retry. A load still in flight will land in the cache
// anyway and age out; its OnDone receiver is expected to ignore it.
func (l *Loader) Forget(id string) {
	l.mu.Lock()
	delete(l.pending, id)
	delete(l.failed, id)
	l.mu.Unlock()
	l.cache.Remove(id)
}

func (l *Loader) load(e Entry) {
	surf, err := l.loadFn(e.Path)

	l.mu.Lock()
	delete(l.pending, e.ID)
	if err != nil {
		l.failed[e.ID] = true
	}
	done := l.OnDone
	l.mu.Unlock()

	if err != nil {
		slog.Warn("image load failed", "id", e.ID, "path", e.Path, "error", err)
	} else {
		l.cache.Set(e.ID, surf)
	}
	if done != nil {
		done(e.ID, err)
	}
}
