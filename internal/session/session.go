// Package session persists canvas arrangements as versioned JSON documents.
// The codec works on in-memory bytes only; file dialogs and disk IO belong
// to the host window.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"light-table/internal/catalog"
	"light-table/internal/scene"
	"light-table/pkg/geometry"
)

// Version is the current document format version.
const Version = 1

// ErrVersion reports a document written by a newer release.
var ErrVersion = errors.New("unsupported arrangement version")

// Document is the serialized form of an arrangement.
type Document struct {
	Version     int                `json:"version"`
	Items       []PlacedItem       `json:"items"`
	ZOrder      []string           `json:"zOrder"`
	Annotations []scene.Annotation `json:"annotations,omitempty"`
}

// PlacedItem records one item's identity and manual transform. A nil
// Transform means the item sits at its packed default placement.
type PlacedItem struct {
	ID        string                  `json:"id"`
	Path      string                  `json:"path"`
	Transform *geometry.ItemTransform `json:"transform,omitempty"`
}

// Snapshot captures the scene as a document, items listed in z-order.
func Snapshot(s *scene.Scene) Document {
	ids := s.ZOrder()
	doc := Document{
		Version:     Version,
		Items:       make([]PlacedItem, 0, len(ids)),
		ZOrder:      ids,
		Annotations: s.Annotations(),
	}
	for _, id := range ids {
		it, ok := s.Item(id)
		if !ok {
			continue
		}
		doc.Items = append(doc.Items, PlacedItem{
			ID:        it.ID,
			Path:      it.SourcePath,
			Transform: it.Override,
		})
	}
	return doc
}

// Encode renders the document as indented JSON.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode arrangement: %w", err)
	}
	return data, nil
}

// Decode parses a document and checks its version. Version 0 is read as 1,
// since early documents predate the field. Versions newer than this build
// understands fail with ErrVersion.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse arrangement: %w", err)
	}
	if doc.Version == 0 {
		doc.Version = 1
	}
	if doc.Version > Version {
		return Document{}, fmt.Errorf("%w: %d", ErrVersion, doc.Version)
	}
	return doc, nil
}

// Restore replaces the scene contents with the document's arrangement.
// Items the catalog no longer resolves are skipped; their z-order entries
// and annotations drop with them. Restore never fails outright, a partial
// document just yields a smaller scene. It returns the number of items
// skipped.
func Restore(doc Document, cat catalog.Catalog, s *scene.Scene) int {
	if existing := s.ZOrder(); len(existing) > 0 {
		s.RemoveItems(existing)
	}
	s.ClearSelection()

	placed := make(map[string]scene.Item, len(doc.Items))
	skipped := 0
	for _, pi := range doc.Items {
		e, ok := cat.Entry(pi.ID)
		if !ok {
			slog.Warn("arrangement references unknown image, skipping",
				"id", pi.ID, "path", pi.Path)
			skipped++
			continue
		}
		var override *geometry.ItemTransform
		if pi.Transform != nil {
			o := *pi.Transform
			override = &o
		}
		placed[pi.ID] = scene.Item{
			ID:            e.ID,
			SourcePath:    e.Path,
			NaturalWidth:  e.Width,
			NaturalHeight: e.Height,
			Override:      override,
		}
	}

	// Add in z-order so the scene rebuilds the stacking directly. Entries
	// for skipped or unknown ids are filtered; surviving items the z-order
	// forgot are appended on top.
	added := make(map[string]bool, len(placed))
	for _, id := range doc.ZOrder {
		it, ok := placed[id]
		if !ok || added[id] {
			continue
		}
		s.AddItem(it)
		added[id] = true
	}
	for _, pi := range doc.Items {
		it, ok := placed[pi.ID]
		if !ok || added[pi.ID] {
			continue
		}
		s.AddItem(it)
		added[pi.ID] = true
	}

	s.RestoreAnnotations(doc.Annotations)
	return skipped
}
