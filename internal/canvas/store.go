package canvas

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagecraft/internal/registry"
)

// Default extent for freshly added instances; the editor resizes afterwards.
var defaultSize = Size{Width: 200, Height: 80}

// duplicateOffset keeps a duplicated subtree from landing exactly on its source.
var duplicateOffset = Position{X: 16, Y: 16}

// Store owns the component-instance arena for one edited page. All structural
// mutations validate fully before applying, so a rejected operation leaves the
// tree untouched. The store has no ambient singleton: construct one per editor
// (or per test) and inject it.
type Store struct {
	mu  sync.RWMutex
	reg *registry.Registry
	log *zap.Logger

	components map[string]*Instance
	rootIDs    []string
	viewport   Viewport
	grid       GridSettings

	kindCounts  map[registry.Kind]int
	subscribers map[int]func(Event)
	nextSubID   int

	now func() time.Time
}

// Option configures a Store at construction.
type Option func(*Store)

// WithLogger attaches a logger; the default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock overrides the timestamp source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store bound to a registry.
func NewStore(reg *registry.Registry, opts ...Option) *Store {
	s := &Store{
		reg:         reg,
		log:         zap.NewNop(),
		components:  make(map[string]*Instance),
		kindCounts:  make(map[registry.Kind]int),
		subscribers: make(map[int]func(Event)),
		viewport:    Viewport{Zoom: 1.0},
		grid:        GridSettings{Size: 8, Snap: true, Visible: true},
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a mutation listener and returns its unsubscribe func.
// Listeners are invoked after the mutation is applied and the lock released,
// so they may safely read the store.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.mu.RLock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// mintID returns a fresh id, never reused within the session.
func (s *Store) mintID() string {
	for {
		id := uuid.NewString()
		if _, taken := s.components[id]; !taken {
			return id
		}
	}
}

// AddComponent creates a new instance of kind under parentID (empty string for
// root) at the given child index (negative or out-of-range appends). It fails
// with ErrInvalidParent when the target is not a container, does not accept the
// kind, or is already at its child cap.
func (s *Store) AddComponent(kind registry.Kind, parentID string, index int) (*Instance, error) {
	return s.addComponent(kind, parentID, index, nil)
}

// AddComponentAt is AddComponent with the canvas position set in the same
// mutation, so a drop is a single committed event rather than an add followed
// by a position patch.
func (s *Store) AddComponentAt(kind registry.Kind, parentID string, index int, pos Position) (*Instance, error) {
	return s.addComponent(kind, parentID, index, &pos)
}

func (s *Store) addComponent(kind registry.Kind, parentID string, index int, pos *Position) (*Instance, error) {
	def, ok := s.reg.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	s.mu.Lock()
	var parent *Instance
	if parentID != "" {
		parent = s.components[parentID]
		if parent == nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: parent %s not found", ErrInvalidParent, parentID)
		}
		if err := s.validateContainment(parent, kind, 1); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}

	now := s.now()
	s.kindCounts[kind]++
	inst := &Instance{
		ID:        s.mintID(),
		Kind:      kind,
		Name:      fmt.Sprintf("%s %d", def.DisplayName, s.kindCounts[kind]),
		ParentID:  parentID,
		Size:      defaultSize,
		Props:     cloneProps(def.DefaultProps),
		Styles:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pos != nil {
		inst.Position = *pos
	}
	s.components[inst.ID] = inst

	if parent != nil {
		parent.ChildIDs = insertAt(parent.ChildIDs, index, inst.ID)
		parent.UpdatedAt = now
	} else {
		s.rootIDs = insertAt(s.rootIDs, index, inst.ID)
	}
	out := inst.Clone()
	s.mu.Unlock()

	s.log.Debug("component added",
		zap.String("id", inst.ID),
		zap.String("kind", string(kind)),
		zap.String("parent", parentID))
	s.publish(Event{Op: OpAdd, IDs: []string{inst.ID}, Committed: true})
	return out, nil
}

// UpdateComponent merges patch into the instance. commit=false marks the change
// as transient (live drag/resize); it still dispatches an event but with
// Committed=false so it never enters history. Unknown ids and locked instances
// are silent no-ops, except that a patch may always flip the Locked flag itself
// (otherwise nothing could ever be unlocked).
func (s *Store) UpdateComponent(id string, patch Patch, commit bool) {
	s.mu.Lock()
	inst, ok := s.components[id]
	if !ok {
		s.mu.Unlock()
		s.log.Debug("update on unknown id ignored", zap.String("id", id))
		return
	}
	if inst.Locked && patch.Locked == nil {
		s.mu.Unlock()
		s.log.Debug("update on locked instance ignored", zap.String("id", id))
		return
	}

	if patch.Name != nil {
		inst.Name = *patch.Name
	}
	if patch.Position != nil {
		inst.Position = *patch.Position
	}
	if patch.Size != nil {
		inst.Size = *patch.Size
	}
	for k, v := range patch.Props {
		if inst.Props == nil {
			inst.Props = make(map[string]any)
		}
		inst.Props[k] = v
	}
	for k, v := range patch.Styles {
		if inst.Styles == nil {
			inst.Styles = make(map[string]string)
		}
		inst.Styles[k] = v
	}
	if patch.Locked != nil {
		inst.Locked = *patch.Locked
	}
	if patch.Hidden != nil {
		inst.Hidden = *patch.Hidden
	}
	inst.UpdatedAt = s.now()
	s.mu.Unlock()

	s.publish(Event{Op: OpUpdate, IDs: []string{id}, Committed: commit})
}

// ApplyTransient is UpdateComponent with commit=false; the explicit entry point
// used during live drags and resizes.
func (s *Store) ApplyTransient(id string, patch Patch) {
	s.UpdateComponent(id, patch, false)
}

// DeleteComponent removes the instance and every descendant. Unknown ids and
// locked instances are silent no-ops.
func (s *Store) DeleteComponent(id string) {
	s.mu.Lock()
	inst, ok := s.components[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if inst.Locked {
		s.mu.Unlock()
		s.log.Debug("delete on locked instance ignored", zap.String("id", id))
		return
	}

	removed := s.subtreeIDs(id)
	for _, rid := range removed {
		delete(s.components, rid)
	}
	if inst.ParentID != "" {
		if parent := s.components[inst.ParentID]; parent != nil {
			parent.ChildIDs = removeFrom(parent.ChildIDs, id)
			parent.UpdatedAt = s.now()
		}
	} else {
		s.rootIDs = removeFrom(s.rootIDs, id)
	}
	s.mu.Unlock()

	s.log.Debug("component deleted", zap.String("id", id), zap.Int("removed", len(removed)))
	s.publish(Event{Op: OpDelete, IDs: removed, Committed: true})
}

// MoveComponent reparents id under newParentID (empty string for root) at the
// given child index. It rejects cycles (target equals the moved instance or one
// of its descendants) and containment violations with ErrInvalidParent, leaving
// the tree untouched. Unknown ids and locked instances are silent no-ops.
func (s *Store) MoveComponent(id, newParentID string, index int) error {
	return s.moveComponent(id, newParentID, index, nil)
}

// MoveComponentTo is MoveComponent with the canvas position updated in the
// same mutation, the single-event counterpart used when a drop reparents an
// existing instance.
func (s *Store) MoveComponentTo(id, newParentID string, index int, pos Position) error {
	return s.moveComponent(id, newParentID, index, &pos)
}

func (s *Store) moveComponent(id, newParentID string, index int, pos *Position) error {
	s.mu.Lock()
	inst, ok := s.components[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if inst.Locked {
		s.mu.Unlock()
		return nil
	}

	var newParent *Instance
	if newParentID != "" {
		if newParentID == id {
			s.mu.Unlock()
			return fmt.Errorf("%w: cannot move %s into itself", ErrInvalidParent, id)
		}
		newParent = s.components[newParentID]
		if newParent == nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: parent %s not found", ErrInvalidParent, newParentID)
		}
		if s.isAncestor(id, newParentID) {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s is a descendant of %s", ErrInvalidParent, newParentID, id)
		}
		// Reordering within the same parent frees the instance's own slot.
		extra := 1
		if inst.ParentID == newParentID {
			extra = 0
		}
		if err := s.validateContainment(newParent, inst.Kind, extra); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	// Detach.
	if inst.ParentID != "" {
		if old := s.components[inst.ParentID]; old != nil {
			old.ChildIDs = removeFrom(old.ChildIDs, id)
			old.UpdatedAt = s.now()
		}
	} else {
		s.rootIDs = removeFrom(s.rootIDs, id)
	}

	// Attach.
	inst.ParentID = newParentID
	if newParent != nil {
		newParent.ChildIDs = insertAt(newParent.ChildIDs, index, id)
		newParent.UpdatedAt = s.now()
	} else {
		s.rootIDs = insertAt(s.rootIDs, index, id)
	}
	if pos != nil {
		inst.Position = *pos
	}
	inst.UpdatedAt = s.now()
	s.mu.Unlock()

	s.publish(Event{Op: OpMove, IDs: []string{id}, Committed: true})
	return nil
}

// DuplicateComponent deep-clones the subtree rooted at id with fresh ids
// throughout and inserts the clone as a sibling immediately after the source.
func (s *Store) DuplicateComponent(id string) (string, error) {
	s.mu.Lock()
	src, ok := s.components[id]
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	if src.ParentID != "" {
		parent := s.components[src.ParentID]
		if err := s.validateContainment(parent, src.Kind, 1); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}

	newIDs := make([]string, 0, 8)
	rootCloneID := s.cloneSubtree(id, src.ParentID, &newIDs)

	clone := s.components[rootCloneID]
	clone.Position.X += duplicateOffset.X
	clone.Position.Y += duplicateOffset.Y

	if src.ParentID != "" {
		parent := s.components[src.ParentID]
		at := indexOf(parent.ChildIDs, id) + 1
		parent.ChildIDs = insertAt(parent.ChildIDs, at, rootCloneID)
		parent.UpdatedAt = s.now()
	} else {
		at := indexOf(s.rootIDs, id) + 1
		s.rootIDs = insertAt(s.rootIDs, at, rootCloneID)
	}
	s.mu.Unlock()

	s.publish(Event{Op: OpDuplicate, IDs: newIDs, Committed: true})
	return rootCloneID, nil
}

// cloneSubtree copies the subtree rooted at srcID into the arena with fresh
// ids, returning the clone's root id. Caller holds the lock and is responsible
// for linking the returned root into a child list.
func (s *Store) cloneSubtree(srcID, parentID string, newIDs *[]string) string {
	src := s.components[srcID]
	clone := src.Clone()
	clone.ID = s.mintID()
	clone.ParentID = parentID
	now := s.now()
	clone.CreatedAt = now
	clone.UpdatedAt = now
	clone.ChildIDs = nil
	s.components[clone.ID] = clone
	*newIDs = append(*newIDs, clone.ID)

	for _, childID := range src.ChildIDs {
		childClone := s.cloneSubtree(childID, clone.ID, newIDs)
		clone.ChildIDs = append(clone.ChildIDs, childClone)
	}
	return clone.ID
}

// validateContainment checks that parent may hold extra more children of kind.
// Caller holds the lock.
func (s *Store) validateContainment(parent *Instance, kind registry.Kind, extra int) error {
	def, ok := s.reg.Lookup(parent.Kind)
	if !ok {
		return fmt.Errorf("%w: parent kind %s not registered", ErrInvalidParent, parent.Kind)
	}
	if !def.Capabilities.IsContainer {
		return fmt.Errorf("%w: %s is not a container", ErrInvalidParent, parent.Kind)
	}
	if !def.AllowsChild(kind) {
		return fmt.Errorf("%w: %s does not accept %s children", ErrInvalidParent, parent.Kind, kind)
	}
	if !def.HasRoom(len(parent.ChildIDs) + extra - 1) {
		return fmt.Errorf("%w: %s already holds %d of %d children",
			ErrInvalidParent, parent.Kind, len(parent.ChildIDs), def.Constraints.MaxChildren)
	}
	return nil
}

// isAncestor reports whether ancestorID appears on ofID's ancestor chain.
// Caller holds the lock.
func (s *Store) isAncestor(ancestorID, ofID string) bool {
	cur := s.components[ofID]
	for cur != nil && cur.ParentID != "" {
		if cur.ParentID == ancestorID {
			return true
		}
		cur = s.components[cur.ParentID]
	}
	return false
}

// IsAncestor reports whether ancestorID is on ofID's ancestor chain.
func (s *Store) IsAncestor(ancestorID, ofID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAncestor(ancestorID, ofID)
}

// subtreeIDs returns id plus every descendant in pre-order. Caller holds the lock.
func (s *Store) subtreeIDs(id string) []string {
	out := []string{id}
	inst := s.components[id]
	if inst == nil {
		return out
	}
	for _, child := range inst.ChildIDs {
		out = append(out, s.subtreeIDs(child)...)
	}
	return out
}

// Get returns a copy of the instance, or false when the id is unknown.
func (s *Store) Get(id string) (*Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.components[id]
	if !ok {
		return nil, false
	}
	return inst.Clone(), true
}

// Exists reports whether id currently names a live instance.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.components[id]
	return ok
}

// RootIDs returns the ordered root ids.
func (s *Store) RootIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.rootIDs...)
}

// Len returns the number of live instances.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components)
}

// Subtree returns id plus every descendant id in pre-order.
func (s *Store) Subtree(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.components[id]; !ok {
		return nil
	}
	return s.subtreeIDs(id)
}

// Viewport returns the current pan/zoom state.
func (s *Store) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// SetViewport replaces the pan/zoom state. Transient; never enters history.
func (s *Store) SetViewport(v Viewport) {
	s.mu.Lock()
	s.viewport = v
	s.mu.Unlock()
}

// Grid returns the current grid settings.
func (s *Store) Grid() GridSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grid
}

// SetGrid replaces the grid settings. Transient; never enters history.
func (s *Store) SetGrid(g GridSettings) {
	s.mu.Lock()
	s.grid = g
	s.mu.Unlock()
}

func cloneProps(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func insertAt(ids []string, index int, id string) []string {
	if index < 0 || index > len(ids) {
		index = len(ids)
	}
	ids = append(ids, "")
	copy(ids[index+1:], ids[index:])
	ids[index] = id
	return ids
}

func removeFrom(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
