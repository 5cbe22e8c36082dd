// Package editor composes the engine parts into one session: canvas store,
// selection, clipboard, undo history, and the drag-drop engine, with the
// cross-cutting wiring between them. All methods are intended for a single
// event-loop goroutine, matching how an interactive builder drives the engine.
package editor

import (
	"go.uber.org/zap"

	"pagecraft/internal/canvas"
	"pagecraft/internal/clipboard"
	"pagecraft/internal/dragdrop"
	"pagecraft/internal/history"
	"pagecraft/internal/registry"
	"pagecraft/internal/selection"
)

// Editor owns one editing session. Instances are independent: two editors
// never share state, so tests construct them freely.
type Editor struct {
	store *canvas.Store
	reg   *registry.Registry
	sel   *selection.Manager
	clip  *clipboard.Manager
	hist  *history.Manager
	drag  *dragdrop.Engine
	log   *zap.Logger

	// committed mirrors the store as of the last committed mutation. It is the
	// pre-mutation snapshot handed to history when the next commit lands.
	committed canvas.Snapshot

	dragOpts []dragdrop.EngineOption

	unsubscribe func()
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the session logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Editor) { e.log = log }
}

// WithHistorySize bounds the undo stack.
func WithHistorySize(n int) Option {
	return func(e *Editor) { e.hist = history.NewManager(n) }
}

// WithDragOptions forwards options to the drag-drop engine.
func WithDragOptions(opts ...dragdrop.EngineOption) Option {
	return func(e *Editor) { e.dragOpts = opts }
}

// New builds a session over the given registry.
func New(reg *registry.Registry, opts ...Option) *Editor {
	e := &Editor{
		reg:  reg,
		sel:  selection.NewManager(),
		hist: history.NewManager(history.DefaultMaxSize),
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.store = canvas.NewStore(reg, canvas.WithLogger(e.log))
	e.clip = clipboard.NewManager(e.store)
	e.drag = dragdrop.NewEngine(e.store, reg, e, e.dragOpts...)
	e.committed = e.store.Snapshot()

	e.unsubscribe = e.store.Subscribe(e.onStoreEvent)
	return e
}

// Close detaches the editor from its store. The store itself stays usable.
func (e *Editor) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// Store exposes the canvas store for reads and transient updates.
func (e *Editor) Store() *canvas.Store { return e.store }

// Selection exposes the selection manager.
func (e *Editor) Selection() *selection.Manager { return e.sel }

// Clipboard exposes the internal clipboard.
func (e *Editor) Clipboard() *clipboard.Manager { return e.clip }

// History exposes the undo/redo manager.
func (e *Editor) History() *history.Manager { return e.hist }

// Drag exposes the drag-drop engine. The engine commits through this editor,
// so drops land in history like any other mutation.
func (e *Editor) Drag() *dragdrop.Engine { return e.drag }

// Registry exposes the component catalog.
func (e *Editor) Registry() *registry.Registry { return e.reg }

// onStoreEvent is the cross-cutting wiring: committed mutations feed history,
// deletions purge the selection and invalidate the clipboard. It runs
// synchronously after each store mutation, outside the store's lock.
func (e *Editor) onStoreEvent(ev canvas.Event) {
	if ev.Op == canvas.OpDelete {
		e.sel.Purge(ev.IDs)
		e.clip.InvalidateOn(ev.IDs)
	}
	if !ev.Committed {
		return
	}
	e.hist.Commit(e.committed)
	e.committed = e.store.Snapshot()
}

// AddComponent creates an instance and selects it.
func (e *Editor) AddComponent(kind registry.Kind, parentID string, index int) (*canvas.Instance, error) {
	inst, err := e.store.AddComponent(kind, parentID, index)
	if err != nil {
		return nil, err
	}
	e.sel.Select([]string{inst.ID}, selection.ModeReplace)
	return inst, nil
}

// AddComponentAt creates an instance at a canvas position in one committed
// mutation and selects it. This is the drop path of dragdrop.Applier.
func (e *Editor) AddComponentAt(kind registry.Kind, parentID string, index int, pos canvas.Position) (*canvas.Instance, error) {
	inst, err := e.store.AddComponentAt(kind, parentID, index, pos)
	if err != nil {
		return nil, err
	}
	e.sel.Select([]string{inst.ID}, selection.ModeReplace)
	return inst, nil
}

// MoveComponentTo reparents and repositions in one committed mutation, the
// move path of dragdrop.Applier.
func (e *Editor) MoveComponentTo(id, newParentID string, index int, pos canvas.Position) error {
	return e.store.MoveComponentTo(id, newParentID, index, pos)
}

// UpdateComponent applies a patch through the store.
func (e *Editor) UpdateComponent(id string, patch canvas.Patch, commit bool) {
	e.store.UpdateComponent(id, patch, commit)
}

// MoveComponent reparents or reorders an instance.
func (e *Editor) MoveComponent(id, newParentID string, index int) error {
	return e.store.MoveComponent(id, newParentID, index)
}

// DeleteComponent removes an instance and its subtree. Selection purge and
// clipboard invalidation ride the delete event.
func (e *Editor) DeleteComponent(id string) {
	e.store.DeleteComponent(id)
}

// DeleteSelection deletes every selected instance.
func (e *Editor) DeleteSelection() {
	for _, id := range e.sel.Selected() {
		e.store.DeleteComponent(id)
	}
}

// DuplicateComponent clones a subtree and selects the clone.
func (e *Editor) DuplicateComponent(id string) (string, error) {
	dupID, err := e.store.DuplicateComponent(id)
	if err != nil {
		return "", err
	}
	e.sel.Select([]string{dupID}, selection.ModeReplace)
	return dupID, nil
}

// CopySelection fills the clipboard from the current selection.
func (e *Editor) CopySelection() int {
	return e.clip.Copy(e.sel.Selected())
}

// CutSelection fills the clipboard and deletes the selection.
func (e *Editor) CutSelection() int {
	return e.clip.Cut(e.sel.Selected())
}

// Paste inserts the clipboard under the given parent and selects the new
// roots. Empty parentID pastes at canvas root.
func (e *Editor) Paste(parentID string, index int) ([]string, error) {
	ids, err := e.clip.Paste(parentID, index)
	if err != nil {
		return nil, err
	}
	e.sel.Select(ids, selection.ModeReplace)
	return ids, nil
}

// Undo restores the previous committed snapshot. Returns false when history
// is empty. Selection entries that no longer resolve are purged. The snapshot
// pushed onto the redo stack is the last committed state, so in-flight
// transient patches never leak into history.
func (e *Editor) Undo() bool {
	snap, ok := e.hist.Undo(e.committed)
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

// Redo reapplies the next snapshot after an undo.
func (e *Editor) Redo() bool {
	snap, ok := e.hist.Redo(e.committed)
	if !ok {
		return false
	}
	e.restore(snap)
	return true
}

func (e *Editor) restore(snap canvas.Snapshot) {
	e.store.Restore(snap)
	e.committed = e.store.Snapshot()
	e.pruneSelection()
}

func (e *Editor) pruneSelection() {
	var gone []string
	for _, id := range e.sel.Selected() {
		if !e.store.Exists(id) {
			gone = append(gone, id)
		}
	}
	if h := e.sel.Hovered(); h != "" && !e.store.Exists(h) {
		gone = append(gone, h)
	}
	if f := e.sel.Focused(); f != "" && !e.store.Exists(f) {
		gone = append(gone, f)
	}
	if len(gone) > 0 {
		e.sel.Purge(gone)
	}
}
