// Package app wires the application-level collaborators together: the scene
// model, the image catalog, the background surface loader, and session
// persistence.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"light-table/internal/catalog"
	"light-table/internal/scene"
	"light-table/internal/session"
)

// State holds the application state: the scene being arranged, the catalog
// of known images, and the path of the session it was loaded from.
type State struct {
	mu sync.RWMutex

	Scene   *scene.Scene
	Catalog *catalog.DirCatalog
	Cache   *catalog.LRUCache
	Loader  *catalog.Loader

	// SessionPath is the file the arrangement was last saved to or loaded
	// from. Empty for an unsaved session.
	SessionPath string
	Modified    bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventSessionLoaded EventType = iota
	EventSessionSaved
	EventImagesAdded
	EventSurfaceLoaded
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates the application state with an empty scene and catalog.
func NewState() *State {
	s := &State{
		Scene:     scene.NewScene(),
		Catalog:   catalog.NewDirCatalog(),
		Cache:     catalog.NewLRUCache(catalog.DefaultCacheCapacity),
		listeners: make(map[EventType][]EventListener),
	}
	s.Loader = catalog.NewLoader(s.Catalog, s.Cache)
	s.Loader.OnDone = s.surfaceLoaded

	// Scene mutations dirty the session. View and selection changes are
	// transient and never saved, so they stay clean.
	dirty := func(interface{}) { s.SetModified(true) }
	s.Scene.On(scene.EventItemsChanged, dirty)
	s.Scene.On(scene.EventTransformChanged, dirty)
	s.Scene.On(scene.EventZOrderChanged, dirty)
	s.Scene.On(scene.EventAnnotationsChanged, dirty)
	s.Scene.On(scene.EventSceneReset, dirty)

	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// AddImages registers the files with the catalog, places them in the scene,
// and queues their surface loads. Unreadable files are skipped; the scene
// grows by whatever could be added. Returns the number of items added and
// the first error encountered, if any.
func (s *State) AddImages(paths []string) (int, error) {
	var (
		added    int
		failed   int
		firstErr error
	)
	for _, path := range paths {
		e, err := s.Catalog.AddFile(path)
		if err != nil {
			slog.Warn("skipping unreadable image", "path", path, "error", err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, ok := s.Scene.Item(e.ID); ok {
			// Already on the canvas. Make sure its pixels are coming.
			s.Loader.Request(e.ID)
			continue
		}
		s.Scene.AddItem(scene.Item{
			ID:            e.ID,
			SourcePath:    e.Path,
			NaturalWidth:  e.Width,
			NaturalHeight: e.Height,
		})
		s.Loader.Request(e.ID)
		added++
	}

	if added > 0 {
		s.Emit(EventImagesAdded, added)
	}
	if firstErr != nil {
		return added, fmt.Errorf("failed to add %d of %d images: %w", failed, len(paths), firstErr)
	}
	return added, nil
}

// RemoveItems drops the items from the scene and releases their cached
// surfaces.
func (s *State) RemoveItems(ids []string) {
	s.Scene.RemoveItems(ids)
	for _, id := range ids {
		s.Loader.Forget(id)
	}
}

// Clear empties the scene and starts a fresh unsaved session.
func (s *State) Clear() {
	if ids := s.Scene.ZOrder(); len(ids) > 0 {
		s.RemoveItems(ids)
	}
	s.Scene.ClearSelection()

	s.mu.Lock()
	s.SessionPath = ""
	s.Modified = false
	s.mu.Unlock()
}

// LoadSession replaces the scene with the arrangement stored at path.
// Referenced images are re-registered by path; files that have moved or
// become unreadable are skipped, and the skip count is returned.
func (s *State) LoadSession(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read arrangement: %w", err)
	}
	doc, err := session.Decode(data)
	if err != nil {
		return 0, err
	}

	// Replace the current scene only once the file has decoded; a corrupt
	// file must not cost the user their arrangement.
	if ids := s.Scene.ZOrder(); len(ids) > 0 {
		s.RemoveItems(ids)
	}

	// Restore resolves items through the catalog, so register the document's
	// paths first. Unreadable files stay unregistered and Restore drops them.
	for _, pi := range doc.Items {
		if _, ok := s.Catalog.Entry(pi.ID); ok {
			continue
		}
		if _, err := s.Catalog.AddFile(pi.Path); err != nil {
			slog.Warn("arrangement image unreadable", "path", pi.Path, "error", err)
		}
	}

	skipped := session.Restore(doc, s.Catalog, s.Scene)
	for _, id := range s.Scene.ZOrder() {
		s.Loader.Request(id)
	}

	s.mu.Lock()
	s.SessionPath = path
	s.Modified = false
	s.mu.Unlock()

	slog.Info("arrangement loaded", "path", path, "items", s.Scene.Len(), "skipped", skipped)
	s.Emit(EventSessionLoaded, path)
	return skipped, nil
}

// SaveSession writes the current arrangement to path.
func (s *State) SaveSession(path string) error {
	doc := session.Snapshot(s.Scene)
	data, err := session.Encode(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write arrangement: %w", err)
	}

	s.mu.Lock()
	s.SessionPath = path
	s.Modified = false
	s.mu.Unlock()

	slog.Info("arrangement saved", "path", path, "items", len(doc.Items))
	s.Emit(EventSessionSaved, path)
	return nil
}

// surfaceLoaded runs on the loader goroutine when a background load
// finishes. The item may have been removed while the load was in flight;
// stale arrivals stay in the cache and age out, so they are simply ignored.
func (s *State) surfaceLoaded(id string, err error) {
	if err != nil {
		return
	}
	if _, ok := s.Scene.Item(id); !ok {
		return
	}
	s.Emit(EventSurfaceLoaded, id)
}
