// Package canvas owns the component-instance tree edited by the page builder.
// Instances live in an arena keyed by opaque ids; parent/child structure is
// expressed only through id pointers, which keeps snapshots cheap (copy the
// arena map) and makes reference cycles impossible by construction.
package canvas

import (
	"time"

	"pagecraft/internal/registry"
)

// Position is an absolute canvas coordinate in pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a box extent in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// IntersectionArea returns the overlapping area of two rectangles, 0 if disjoint.
func (r Rect) IntersectionArea(o Rect) float64 {
	w := min(r.X+r.Width, o.X+o.Width) - max(r.X, o.X)
	h := min(r.Y+r.Height, o.Y+o.Height) - max(r.Y, o.Y)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the rectangle's center point.
func (r Rect) Center() Position {
	return Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Corners returns the four corner points.
func (r Rect) Corners() [4]Position {
	return [4]Position{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X, Y: r.Y + r.Height},
		{X: r.X + r.Width, Y: r.Y + r.Height},
	}
}

// Instance is a placed occurrence of a registry kind within the edited tree.
// Instances are owned exclusively by the Store; callers receive copies.
type Instance struct {
	ID       string            `json:"id"`
	Kind     registry.Kind     `json:"kind"`
	Name     string            `json:"name"`
	ParentID string            `json:"parentId,omitempty"` // empty = root
	ChildIDs []string          `json:"childIds,omitempty"` // order = visual/DOM order
	Position Position          `json:"position"`
	Size     Size              `json:"size"`
	Props    map[string]any    `json:"props,omitempty"`
	Styles   map[string]string `json:"styles,omitempty"`
	Locked   bool              `json:"locked,omitempty"`
	Hidden   bool              `json:"hidden,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Rect returns the instance's absolute bounding rectangle.
func (in *Instance) Rect() Rect {
	return Rect{X: in.Position.X, Y: in.Position.Y, Width: in.Size.Width, Height: in.Size.Height}
}

// Clone returns a deep copy of the instance.
func (in *Instance) Clone() *Instance {
	out := *in
	out.ChildIDs = append([]string(nil), in.ChildIDs...)
	if in.Props != nil {
		out.Props = make(map[string]any, len(in.Props))
		for k, v := range in.Props {
			out.Props[k] = v
		}
	}
	if in.Styles != nil {
		out.Styles = make(map[string]string, len(in.Styles))
		for k, v := range in.Styles {
			out.Styles[k] = v
		}
	}
	return &out
}

// Patch is a partial update applied by UpdateComponent. Nil fields are left
// untouched; Props and Styles merge key-wise.
type Patch struct {
	Name     *string
	Position *Position
	Size     *Size
	Props    map[string]any
	Styles   map[string]string
	Locked   *bool
	Hidden   *bool
}

// Viewport is the editor's pan/zoom state. Not part of history snapshots.
type Viewport struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Zoom    float64 `json:"zoom"`
}

// GridSettings control snapping on the canvas. Not part of history snapshots.
type GridSettings struct {
	Size    float64 `json:"size"`
	Snap    bool    `json:"snap"`
	Visible bool    `json:"visible"`
}

// Op identifies a mutation category in the event stream.
type Op string

const (
	OpAdd       Op = "add"
	OpUpdate    Op = "update"
	OpDelete    Op = "delete"
	OpMove      Op = "move"
	OpDuplicate Op = "duplicate"
	OpRestore   Op = "restore"
)

// Event describes one applied mutation. Committed mirrors the commit flag of
// the mutation: transient updates dispatch with Committed=false and must never
// enter history.
type Event struct {
	Op        Op
	IDs       []string // touched instance ids; for delete, the whole removed subtree
	Committed bool
}
