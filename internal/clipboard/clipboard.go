// Package clipboard implements copy/cut/paste for canvas subtrees. The buffer
// holds detached clones with their original ids; every paste remaps to fresh
// ids through the store, so the same buffer can be pasted any number of times
// and each paste yields a structurally identical but id-disjoint copy.
package clipboard

import "pagecraft/internal/canvas"

// pasteOffset is the visible delta applied per paste so copies never land
// exactly on their source.
var pasteOffset = canvas.Position{X: 16, Y: 16}

// Mode records how the buffer was filled.
type Mode int

const (
	ModeNone Mode = iota
	ModeCopy
	ModeCut
)

// Manager owns the clipboard buffer. Lifetime of the buffer ends at the next
// copy/cut or process teardown.
type Manager struct {
	store *canvas.Store

	buffer   []*canvas.Node
	sources  map[string]bool // original ids the buffer was cloned from
	fillMode Mode
	serial   int // paste count for the current buffer

	cutting bool // suppresses self-invalidation during Cut's deletes
}

// NewManager creates a clipboard bound to a store.
func NewManager(store *canvas.Store) *Manager {
	return &Manager{store: store}
}

// Copy clones the subtrees rooted at ids into the buffer. Ids that are
// descendants of other ids in the set are folded into their ancestor's clone
// rather than buffered twice. Returns the number of buffered subtrees.
func (m *Manager) Copy(ids []string) int {
	return m.fill(ids, ModeCopy)
}

// Cut is Copy plus deletion of each top-level source subtree. Deleting is
// idempotent: descendants already removed by an earlier top-level delete are
// skipped by the store.
func (m *Manager) Cut(ids []string) int {
	n := m.fill(ids, ModeCut)

	m.cutting = true
	for _, node := range m.buffer {
		m.store.DeleteComponent(node.Inst.ID)
	}
	m.cutting = false
	return n
}

func (m *Manager) fill(ids []string, mode Mode) int {
	m.buffer = nil
	m.sources = make(map[string]bool)
	m.fillMode = ModeNone
	m.serial = 0

	for _, id := range ids {
		if m.hasAncestorIn(id, ids) {
			continue
		}
		node := m.store.DetachedSubtree(id)
		if node == nil {
			continue
		}
		m.buffer = append(m.buffer, node)
		markSources(node, m.sources)
	}
	if len(m.buffer) > 0 {
		m.fillMode = mode
	}
	return len(m.buffer)
}

func (m *Manager) hasAncestorIn(id string, ids []string) bool {
	for _, other := range ids {
		if other != id && m.store.IsAncestor(other, id) {
			return true
		}
	}
	return false
}

func markSources(n *canvas.Node, set map[string]bool) {
	set[n.Inst.ID] = true
	for _, c := range n.Children {
		markSources(c, set)
	}
}

// Paste inserts a fresh-id copy of the buffer under targetParentID (empty for
// root) at index. Positions are offset by a visible delta scaled by the paste
// serial, so repeated pastes fan out instead of stacking. Returns the new root
// ids of the pasted subtrees.
func (m *Manager) Paste(targetParentID string, index int) ([]string, error) {
	if len(m.buffer) == 0 {
		return nil, nil
	}

	m.serial++
	clones := make([]*canvas.Node, 0, len(m.buffer))
	for _, node := range m.buffer {
		clone := node.Clone()
		clone.Inst.Position.X += pasteOffset.X * float64(m.serial)
		clone.Inst.Position.Y += pasteOffset.Y * float64(m.serial)
		clones = append(clones, clone)
	}

	newIDs, err := m.store.InsertSubtrees(clones, targetParentID, index)
	if err != nil {
		m.serial--
		return nil, err
	}
	return newIDs, nil
}

// InvalidateOn clears the buffer when a delete removed one of its source ids.
// Cut's own deletes are exempt: a cut buffer intentionally outlives its
// sources.
func (m *Manager) InvalidateOn(removedIDs []string) {
	if m.cutting || len(m.sources) == 0 {
		return
	}
	for _, id := range removedIDs {
		if m.sources[id] {
			m.Clear()
			return
		}
	}
}

// IsEmpty reports whether the buffer holds anything.
func (m *Manager) IsEmpty() bool {
	return len(m.buffer) == 0
}

// Mode returns how the current buffer was filled.
func (m *Manager) Mode() Mode {
	return m.fillMode
}

// Clear drops the buffer.
func (m *Manager) Clear() {
	m.buffer = nil
	m.sources = nil
	m.fillMode = ModeNone
	m.serial = 0
}
