// Package registry holds the static catalog of component kinds available to the
// page builder: capability flags, default properties, containment rules, and the
// JSX templates the code generator expands. The catalog is loaded once and
// treated as read-only configuration by every other engine component.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Kind identifies a component kind in the catalog (e.g. "Box", "Text").
type Kind string

// PropType describes how a property value should be edited and serialized.
type PropType string

const (
	PropString PropType = "string"
	PropNumber PropType = "number"
	PropBool   PropType = "bool"
	PropColor  PropType = "color"
	PropSelect PropType = "select"
	PropURL    PropType = "url"
)

// PropSpec describes one editable property of a component kind.
type PropSpec struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Type     PropType `yaml:"type"`
	Default  any      `yaml:"default"`
	Options  []string `yaml:"options,omitempty"` // for PropSelect
	Required bool     `yaml:"required,omitempty"`
}

// Capabilities are the behavioral flags of a component kind.
type Capabilities struct {
	IsContainer bool `yaml:"is_container"`
	IsDraggable bool `yaml:"is_draggable"`
	IsResizable bool `yaml:"is_resizable"`
}

// Constraints bound what a container kind may hold.
// MaxChildren == 0 means unlimited.
type Constraints struct {
	AllowedChildKinds []Kind `yaml:"allowed_child_kinds,omitempty"`
	MinChildren       int    `yaml:"min_children,omitempty"`
	MaxChildren       int    `yaml:"max_children,omitempty"`
}

// Definition is one catalog entry. Immutable after registry construction.
type Definition struct {
	Kind         Kind           `yaml:"kind"`
	DisplayName  string         `yaml:"display_name"`
	Category     string         `yaml:"category"`
	DefaultProps map[string]any `yaml:"default_props,omitempty"`
	Schema       []PropSpec     `yaml:"schema,omitempty"`
	Capabilities Capabilities   `yaml:"capabilities"`
	Constraints  Constraints    `yaml:"constraints"`

	// Code generation fields. Template is a JSX fragment with {{prop:NAME}},
	// {{style}} and {{children}} placeholders; Imports are full import lines
	// hoisted (deduplicated) to the top of the generated file.
	Template   string   `yaml:"template,omitempty"`
	Imports    []string `yaml:"imports,omitempty"`
	ClientSide bool     `yaml:"client_side,omitempty"`
}

// AllowsChild reports whether the definition's containment rules permit a child
// of the given kind. A non-container never allows children.
func (d *Definition) AllowsChild(kind Kind) bool {
	if !d.Capabilities.IsContainer {
		return false
	}
	if len(d.Constraints.AllowedChildKinds) == 0 {
		return true
	}
	for _, k := range d.Constraints.AllowedChildKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// HasRoom reports whether a container with the given current child count may
// accept one more child.
func (d *Definition) HasRoom(childCount int) bool {
	max := d.Constraints.MaxChildren
	return max == 0 || childCount < max
}

// Registry is the read-only kind catalog.
type Registry struct {
	mu   sync.RWMutex
	defs map[Kind]*Definition
}

// New returns a registry seeded with the builtin catalog.
func New() *Registry {
	r := &Registry{defs: make(map[Kind]*Definition)}
	for _, def := range builtinDefinitions() {
		r.defs[def.Kind] = def
	}
	return r
}

// Lookup returns the definition for a kind, or false when the kind is not
// registered. Callers must treat the result as immutable.
func (r *Registry) Lookup(kind Kind) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[kind]
	return def, ok
}

// MustLookup is Lookup for kinds the caller knows are builtin.
func (r *Registry) MustLookup(kind Kind) *Definition {
	def, ok := r.Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("registry: unknown kind %q", kind))
	}
	return def
}

// Kinds returns all registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.defs))
	for k := range r.defs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Register validates and installs a definition, overriding any existing entry
// for the same kind. Intended for catalog construction (builtins, YAML
// overlays, tests); after the editor starts the catalog is treated as frozen.
func (r *Registry) Register(def *Definition) error {
	if def.Kind == "" {
		return fmt.Errorf("registry: definition missing kind")
	}
	if def.DisplayName == "" {
		def.DisplayName = string(def.Kind)
	}
	c := def.Constraints
	if c.MinChildren < 0 || c.MaxChildren < 0 {
		return fmt.Errorf("registry: %s: negative child bounds", def.Kind)
	}
	if c.MaxChildren != 0 && c.MinChildren > c.MaxChildren {
		return fmt.Errorf("registry: %s: min_children %d exceeds max_children %d",
			def.Kind, c.MinChildren, c.MaxChildren)
	}
	if !def.Capabilities.IsContainer && (c.MaxChildren != 0 || c.MinChildren != 0 || len(c.AllowedChildKinds) != 0) {
		return fmt.Errorf("registry: %s: containment constraints on a non-container", def.Kind)
	}
	r.mu.Lock()
	r.defs[def.Kind] = def
	r.mu.Unlock()
	return nil
}
