// Package project persists page-builder documents: a versioned JSON file
// format, a SQLite autosave store, and a file watcher for live reload.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pagecraft/internal/canvas"
	"pagecraft/internal/codegen"
)

// FormatVersion is the on-disk document version this build reads and writes.
const FormatVersion = 1

var (
	// ErrMalformedProject wraps any parse or structural failure in a project
	// file. The canvas store a caller loads into is never touched on failure.
	ErrMalformedProject = errors.New("malformed project file")

	// ErrUnsupportedVersion reports a document written by an incompatible
	// format version.
	ErrUnsupportedVersion = errors.New("unsupported project version")
)

// Document is the root of the persisted project format.
type Document struct {
	Version    int               `json:"version"`
	Pages      []PageConfig      `json:"pages"`
	Assets     []Asset           `json:"assets,omitempty"`
	Settings   Settings          `json:"settings"`
	ExportedAt time.Time         `json:"exportedAt"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// PageConfig is one page of the project: routing and data-fetching config plus
// the flattened component tree.
type PageConfig struct {
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	Path         string               `json:"path"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
	DataFetching codegen.DataFetching `json:"dataFetching,omitempty"`
	Components   []canvas.Instance    `json:"components"`
	Viewport     *canvas.Viewport     `json:"viewport,omitempty"`
	Grid         *canvas.GridSettings `json:"grid,omitempty"`
}

// Asset is a project-level static asset reference.
type Asset struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"`
}

// Settings holds project-wide generation defaults.
type Settings struct {
	SiteName  string `json:"siteName,omitempty"`
	OutputDir string `json:"outputDir,omitempty"`
	Theme     string `json:"theme,omitempty"`
}

// Load reads and validates a project file. Every failure is wrapped in
// ErrMalformedProject except a version mismatch, which returns
// ErrUnsupportedVersion so callers can offer migration instead of repair.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	return Parse(data)
}

// Parse decodes a project document from raw JSON bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProject, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, doc.Version, FormatVersion)
	}
	seen := make(map[string]bool, len(doc.Pages))
	for i := range doc.Pages {
		p := &doc.Pages[i]
		if p.Path == "" {
			return nil, fmt.Errorf("%w: page %d has no path", ErrMalformedProject, i)
		}
		if seen[p.Path] {
			return nil, fmt.Errorf("%w: duplicate page path %q", ErrMalformedProject, p.Path)
		}
		seen[p.Path] = true
		if _, err := p.BuildSnapshot(); err != nil {
			return nil, fmt.Errorf("%w: page %q: %v", ErrMalformedProject, p.Path, err)
		}
	}
	return &doc, nil
}

// Save writes the document atomically: marshal, write a sibling temp file,
// rename into place. ExportedAt is stamped on the copy that is written, the
// caller's document is not mutated.
func Save(path string, doc *Document) error {
	out := *doc
	out.Version = FormatVersion
	out.ExportedAt = time.Now().UTC()

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pagecraft-*.json")
	if err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write project: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

// BuildSnapshot reconstructs a canvas snapshot from the flattened component
// list, verifying parent/child pointer consistency as it goes.
func (p *PageConfig) BuildSnapshot() (canvas.Snapshot, error) {
	snap := canvas.Snapshot{Components: make(map[string]*canvas.Instance, len(p.Components))}

	for i := range p.Components {
		inst := p.Components[i].Clone()
		if inst.ID == "" {
			return canvas.Snapshot{}, fmt.Errorf("component %d has no id", i)
		}
		if _, dup := snap.Components[inst.ID]; dup {
			return canvas.Snapshot{}, fmt.Errorf("duplicate component id %s", inst.ID)
		}
		snap.Components[inst.ID] = inst
	}

	for id, inst := range snap.Components {
		if inst.ParentID == "" {
			continue
		}
		parent, ok := snap.Components[inst.ParentID]
		if !ok {
			return canvas.Snapshot{}, fmt.Errorf("component %s references missing parent %s", id, inst.ParentID)
		}
		found := false
		for _, child := range parent.ChildIDs {
			if child == id {
				found = true
				break
			}
		}
		if !found {
			return canvas.Snapshot{}, fmt.Errorf("component %s not listed in parent %s children", id, inst.ParentID)
		}
	}
	for _, inst := range snap.Components {
		for _, child := range inst.ChildIDs {
			c, ok := snap.Components[child]
			if !ok {
				return canvas.Snapshot{}, fmt.Errorf("component %s lists missing child %s", inst.ID, child)
			}
			if c.ParentID != inst.ID {
				return canvas.Snapshot{}, fmt.Errorf("child %s of %s points at parent %q", child, inst.ID, c.ParentID)
			}
		}
	}

	// Roots in the order the flattened list presents them.
	for i := range p.Components {
		if p.Components[i].ParentID == "" {
			snap.RootIDs = append(snap.RootIDs, p.Components[i].ID)
		}
	}

	// Every component must be reachable from a root. Pointer-consistent
	// parent/child cycles have no root, so this also rejects cyclic documents
	// instead of silently dropping their components at generation time.
	visited := make(map[string]bool, len(snap.Components))
	var walk func(id string)
	walk = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, child := range snap.Components[id].ChildIDs {
			walk(child)
		}
	}
	for _, rootID := range snap.RootIDs {
		walk(rootID)
	}
	if len(visited) != len(snap.Components) {
		for i := range p.Components {
			if !visited[p.Components[i].ID] {
				return canvas.Snapshot{}, fmt.Errorf("component %s is not reachable from any root", p.Components[i].ID)
			}
		}
	}
	return snap, nil
}

// PageFromSnapshot flattens a live snapshot into a PageConfig, pre-order so
// parents always precede their children in the serialized list.
func PageFromSnapshot(page codegen.Page, snap canvas.Snapshot) PageConfig {
	pc := PageConfig{
		Title:        page.Title,
		Description:  page.Description,
		Path:         page.Path,
		Metadata:     page.Metadata,
		DataFetching: page.DataFetching,
	}
	var walk func(id string)
	walk = func(id string) {
		inst, ok := snap.Components[id]
		if !ok {
			return
		}
		pc.Components = append(pc.Components, *inst.Clone())
		for _, child := range inst.ChildIDs {
			walk(child)
		}
	}
	for _, rootID := range snap.RootIDs {
		walk(rootID)
	}
	return pc
}

// Page converts the routing and data-fetching config into the codegen input.
func (p *PageConfig) Page() codegen.Page {
	return codegen.Page{
		Title:        p.Title,
		Description:  p.Description,
		Path:         p.Path,
		Metadata:     p.Metadata,
		DataFetching: p.DataFetching,
	}
}

// LoadIntoStore replaces the store's tree with the page's components. On any
// validation failure the store is left exactly as it was.
func LoadIntoStore(s *canvas.Store, p *PageConfig) error {
	snap, err := p.BuildSnapshot()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProject, err)
	}

	prev := s.Snapshot()
	s.Restore(snap)
	if err := s.CheckIntegrity(); err != nil {
		s.Restore(prev)
		return fmt.Errorf("%w: %v", ErrMalformedProject, err)
	}
	if p.Viewport != nil {
		s.SetViewport(*p.Viewport)
	}
	if p.Grid != nil {
		s.SetGrid(*p.Grid)
	}
	return nil
}
