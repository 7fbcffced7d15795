// Package catalog resolves item ids to image files and keeps decoded pixel
// surfaces ready for the canvas. Entry lookup is synchronous and cheap;
// surface loading runs in the background and lands in a bounded cache.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Entry describes one image known to the catalog. Width and Height are the
// intrinsic pixel dimensions read from the file header.
type Entry struct {
	ID     string
	Path   string
	Width  int
	Height int
}

// Catalog resolves item ids. The canvas only ever asks for entries by id;
// browsing and enumeration belong to the host application.
type Catalog interface {
	Entry(id string) (Entry, bool)
}

// DirCatalog is the file-backed Catalog used by the host application. Ids
// derive from the absolute file path, so the same file resolves to the same
// id across runs and saved arrangements stay loadable.
type DirCatalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewDirCatalog creates an empty file-backed catalog.
func NewDirCatalog() *DirCatalog {
	return &DirCatalog{entries: make(map[string]Entry)}
}

// AddFile probes the image header at path and registers the file. Adding a
// path that is already registered returns the existing entry.
func (c *DirCatalog) AddFile(path string) (Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to resolve image path: %w", err)
	}

	id := PathID(abs)
	c.mu.RLock()
	existing, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return existing, nil
	}

	f, err := os.Open(abs)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read image header: %w", err)
	}

	e := Entry{ID: id, Path: abs, Width: cfg.Width, Height: cfg.Height}
	c.mu.Lock()
	c.entries[id] = e
	c.mu.Unlock()
	return e, nil
}

// Entry implements Catalog.
func (c *DirCatalog) Entry(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return e, ok
}

// Entries returns every registered entry, sorted by path.
func (c *DirCatalog) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of registered entries.
func (c *DirCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// PathID returns the stable catalog id for a file path.
func PathID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:8])
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given file extension is supported.
func IsSupportedFormat(ext string) bool {
	ext = strings.ToLower(ext)
	for _, format := range SupportedFormats() {
		if format == ext {
			return true
		}
	}
	return false
}
