// Package history implements the bounded undo/redo stack of canvas snapshots.
// Only committed mutations enter; transient drag/resize edits are coalesced
// away by the store's commit flag, which bounds memory to maxSize snapshots no
// matter how long a drag lasts.
package history

import "pagecraft/internal/canvas"

// DefaultMaxSize bounds the past stack when the caller passes 0.
const DefaultMaxSize = 50

// Manager is the bounded double stack. past holds pre-commit snapshots, oldest
// first; future holds states undone away from, nearest first.
type Manager struct {
	past    []canvas.Snapshot
	future  []canvas.Snapshot
	maxSize int
}

// NewManager creates a history bounded to maxSize snapshots.
func NewManager(maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{maxSize: maxSize}
}

// Commit records prev (the state before the committed mutation) and clears
// future: once a new action lands after an undo, the redo branch is discarded.
// The oldest entry is evicted FIFO when the stack is full.
func (m *Manager) Commit(prev canvas.Snapshot) {
	m.past = append(m.past, prev)
	if len(m.past) > m.maxSize {
		m.past = m.past[1:]
	}
	m.future = m.future[:0]
}

// Undo moves current onto the front of future and returns the most recent past
// snapshot. ok is false on an empty stack and nothing changes.
func (m *Manager) Undo(current canvas.Snapshot) (canvas.Snapshot, bool) {
	if len(m.past) == 0 {
		return canvas.Snapshot{}, false
	}
	prev := m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.future = append([]canvas.Snapshot{current}, m.future...)
	return prev, true
}

// Redo moves current onto past and returns the nearest future snapshot. ok is
// false on an empty stack and nothing changes.
func (m *Manager) Redo(current canvas.Snapshot) (canvas.Snapshot, bool) {
	if len(m.future) == 0 {
		return canvas.Snapshot{}, false
	}
	next := m.future[0]
	m.future = m.future[1:]
	m.past = append(m.past, current)
	if len(m.past) > m.maxSize {
		m.past = m.past[1:]
	}
	return next, true
}

// CanUndo reports whether an undo would succeed.
func (m *Manager) CanUndo() bool { return len(m.past) > 0 }

// CanRedo reports whether a redo would succeed.
func (m *Manager) CanRedo() bool { return len(m.future) > 0 }

// Depth returns the sizes of the past and future stacks.
func (m *Manager) Depth() (past, future int) {
	return len(m.past), len(m.future)
}
