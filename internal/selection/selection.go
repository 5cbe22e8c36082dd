// Package selection tracks which instances are selected, hovered, and focused.
// It never reaches into the canvas store; the editor purges ids here whenever
// the store deletes them, which keeps the invariant that every tracked id is
// live.
package selection

// Mode controls how Select folds new ids into the current selection.
type Mode int

const (
	// ModeReplace discards the current selection first.
	ModeReplace Mode = iota
	// ModeAdd appends ids not already selected.
	ModeAdd
	// ModeToggle flips membership per id.
	ModeToggle
)

// Manager holds the selection state. selected preserves insertion order, which
// is the order the user picked instances in.
type Manager struct {
	selected []string
	index    map[string]bool
	hovered  string
	focused  string
}

// NewManager returns an empty selection.
func NewManager() *Manager {
	return &Manager{index: make(map[string]bool)}
}

// Select applies ids under the given mode.
func (m *Manager) Select(ids []string, mode Mode) {
	switch mode {
	case ModeReplace:
		m.selected = m.selected[:0]
		m.index = make(map[string]bool)
		for _, id := range ids {
			m.add(id)
		}
	case ModeAdd:
		for _, id := range ids {
			m.add(id)
		}
	case ModeToggle:
		for _, id := range ids {
			if m.index[id] {
				m.remove(id)
			} else {
				m.add(id)
			}
		}
	}
}

func (m *Manager) add(id string) {
	if id == "" || m.index[id] {
		return
	}
	m.index[id] = true
	m.selected = append(m.selected, id)
}

func (m *Manager) remove(id string) {
	if !m.index[id] {
		return
	}
	delete(m.index, id)
	for i, v := range m.selected {
		if v == id {
			m.selected = append(m.selected[:i], m.selected[i+1:]...)
			break
		}
	}
}

// Clear empties the selection; hover and focus are left alone.
func (m *Manager) Clear() {
	m.selected = m.selected[:0]
	m.index = make(map[string]bool)
}

// Selected returns the selected ids in selection order.
func (m *Manager) Selected() []string {
	return append([]string(nil), m.selected...)
}

// IsSelected reports membership.
func (m *Manager) IsSelected(id string) bool {
	return m.index[id]
}

// SetHovered records the hovered id; empty clears it.
func (m *Manager) SetHovered(id string) {
	m.hovered = id
}

// Hovered returns the hovered id, empty when none.
func (m *Manager) Hovered() string {
	return m.hovered
}

// SetFocused records the focused id; empty clears it.
func (m *Manager) SetFocused(id string) {
	m.focused = id
}

// Focused returns the focused id, empty when none.
func (m *Manager) Focused() string {
	return m.focused
}

// Purge removes the ids from selection, hover, and focus. Called by the editor
// for every id the store deletes.
func (m *Manager) Purge(ids []string) {
	for _, id := range ids {
		m.remove(id)
		if m.hovered == id {
			m.hovered = ""
		}
		if m.focused == id {
			m.focused = ""
		}
	}
}
