// Package dragdrop implements the drag state machine: palette and canvas drags
// enter here, collision detection proposes a drop target, the validation chain
// produces a verdict for visual feedback, and only a valid terminal drop ever
// mutates the canvas store.
package dragdrop

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"pagecraft/internal/canvas"
	"pagecraft/internal/registry"
)

// State is the engine's position in the drag lifecycle. Dropping and cancelled
// are transient: Drop and Cancel pass through them and settle back at idle
// before returning.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateDropping
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateDropping:
		return "dropping"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Payload is what a drag carries: an existing instance id for canvas drags, or
// just a kind for palette drags of a new component.
type Payload struct {
	InstanceID string        // empty for palette drags
	Kind       registry.Kind // palette kind; filled from the instance otherwise
	Start      canvas.Position
}

// Verdict is the outcome of drop validation: valid, or invalid with a
// human-readable reason for UI feedback. A rejection is data, not an error.
type Verdict struct {
	Valid  bool
	Reason string
}

// Plan resolves where a valid drop would insert: the collision target, the
// effective parent (the target itself for containers, the target's parent for
// the sibling interpretation), and the child index.
type Plan struct {
	TargetID string
	ParentID string
	Index    int
}

// Result reports a terminal Drop.
type Result struct {
	Applied bool
	Reason  string
	Plan    Plan
	// NewInstanceID is set for palette drops that created a component.
	NewInstanceID string
}

// Applier is the mutation surface a drop commits through. The editor
// implements it with commit semantics; the engine itself never touches the
// store's write API directly. Both operations carry the drop position so a
// gesture lands as exactly one committed mutation, which keeps one drop equal
// to one undo step.
type Applier interface {
	AddComponentAt(kind registry.Kind, parentID string, index int, pos canvas.Position) (*canvas.Instance, error)
	MoveComponentTo(id, newParentID string, index int, pos canvas.Position) error
}

// Engine is the drag-drop state machine. Single-threaded by design: calls
// arrive from one event loop, so there is no internal locking.
type Engine struct {
	store    *canvas.Store
	reg      *registry.Registry
	apply    Applier
	log      *zap.Logger
	strategy Strategy

	state    State
	payload  Payload
	pointer  canvas.Position
	dragRect canvas.Rect

	candidate string
	verdict   Verdict

	// Move recomputation is throttled to one pass per frame interval; a stale
	// frame is always superseded by the next, and Drop recomputes irrespective
	// of the throttle so the terminal decision uses the latest pointer.
	minFrame time.Duration
	lastEval time.Time
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithStrategy selects the collision strategy (default pointer-within).
func WithStrategy(s Strategy) EngineOption {
	return func(e *Engine) { e.strategy = s }
}

// WithFrameInterval sets the move-recompute throttle; 0 disables throttling.
func WithFrameInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.minFrame = d }
}

// WithEngineLogger attaches a logger.
func WithEngineLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithEngineClock overrides the throttle clock for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an idle engine reading store and reg, applying drops
// through apply.
func NewEngine(store *canvas.Store, reg *registry.Registry, apply Applier, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    store,
		reg:      reg,
		apply:    apply,
		log:      zap.NewNop(),
		strategy: StrategyPointerWithin,
		minFrame: 16 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current machine state.
func (e *Engine) State() State { return e.state }

// Candidate returns the current drop target id, empty when none.
func (e *Engine) Candidate() string { return e.candidate }

// Verdict returns the current validation verdict for visual feedback.
func (e *Engine) Verdict() Verdict { return e.verdict }

// SetStrategy switches the collision strategy; takes effect on the next move.
func (e *Engine) SetStrategy(s Strategy) error {
	if !s.Valid() {
		return fmt.Errorf("dragdrop: unknown strategy %q", s)
	}
	e.strategy = s
	return nil
}

// DragStart begins a drag. Only legal from idle. For canvas drags the payload
// kind is filled from the instance; locked and unknown instances refuse to
// start a drag at all.
func (e *Engine) DragStart(p Payload) error {
	if e.state != StateIdle {
		return fmt.Errorf("dragdrop: drag start in state %s", e.state)
	}
	if p.InstanceID != "" {
		inst, ok := e.store.Get(p.InstanceID)
		if !ok {
			return fmt.Errorf("dragdrop: instance %s not found", p.InstanceID)
		}
		if inst.Locked {
			return fmt.Errorf("dragdrop: instance %s is locked", p.InstanceID)
		}
		p.Kind = inst.Kind
		e.dragRect = inst.Rect()
	} else {
		if _, ok := e.reg.Lookup(p.Kind); !ok {
			return fmt.Errorf("dragdrop: unknown palette kind %q", p.Kind)
		}
		e.dragRect = canvas.Rect{X: p.Start.X, Y: p.Start.Y, Width: 1, Height: 1}
	}

	def, _ := e.reg.Lookup(p.Kind)
	if def != nil && !def.Capabilities.IsDraggable {
		return fmt.Errorf("dragdrop: kind %s is not draggable", p.Kind)
	}

	e.state = StateDragging
	e.payload = p
	e.pointer = p.Start
	e.candidate = ""
	e.verdict = Verdict{}
	e.lastEval = time.Time{}
	e.log.Debug("drag started",
		zap.String("instance", p.InstanceID),
		zap.String("kind", string(p.Kind)))
	return nil
}

// DragMove updates the pointer and dragged rectangle, then recomputes the drop
// candidate and verdict unless throttled. Never mutates the store.
func (e *Engine) DragMove(pointer canvas.Position, dragRect canvas.Rect) {
	if e.state != StateDragging {
		return
	}
	e.pointer = pointer
	if dragRect.Width > 0 || dragRect.Height > 0 {
		e.dragRect = dragRect
	} else {
		e.dragRect.X, e.dragRect.Y = pointer.X, pointer.Y
	}

	now := e.now()
	if e.minFrame > 0 && !e.lastEval.IsZero() && now.Sub(e.lastEval) < e.minFrame {
		return
	}
	e.lastEval = now
	e.recompute()
}

// recompute finds the best-scoring droppable under the drag and validates it.
func (e *Engine) recompute() {
	excluded := map[string]bool{}
	if e.payload.InstanceID != "" {
		for _, id := range e.store.Subtree(e.payload.InstanceID) {
			excluded[id] = true
		}
	}

	cands := make([]candidate, 0, 16)
	for _, id := range e.store.DFS() {
		if excluded[id] {
			continue
		}
		inst, ok := e.store.Get(id)
		if !ok || inst.Hidden {
			continue
		}
		cands = append(cands, candidate{id: id, rect: inst.Rect()})
	}

	e.candidate = bestCandidate(cands, e.strategy, e.pointer, e.dragRect)
	if e.candidate == "" {
		e.verdict = Verdict{Valid: false, Reason: "no drop target under pointer"}
		return
	}
	e.verdict, _ = e.validate(e.candidate)
}

// Drop is the terminal transition: dragging -> dropping -> idle. The latest
// pointer state is re-evaluated, the verdict decides, and only a valid drop
// calls into the store through the Applier. An invalid drop applies nothing
// and surfaces the rejection reason.
func (e *Engine) Drop() (Result, error) {
	if e.state != StateDragging {
		return Result{}, fmt.Errorf("dragdrop: drop in state %s", e.state)
	}
	e.state = StateDropping
	defer func() {
		e.state = StateIdle
		e.payload = Payload{}
		e.candidate = ""
	}()

	// The terminal decision always uses the latest frame.
	e.recompute()
	if e.candidate == "" {
		return Result{Reason: "no drop target under pointer"}, nil
	}

	verdict, plan := e.validate(e.candidate)
	if !verdict.Valid {
		e.log.Debug("drop rejected", zap.String("reason", verdict.Reason))
		return Result{Reason: verdict.Reason, Plan: plan}, nil
	}

	res := Result{Applied: true, Plan: plan}
	pos := canvas.Position{X: e.dragRect.X, Y: e.dragRect.Y}
	if e.payload.InstanceID == "" {
		inst, err := e.apply.AddComponentAt(e.payload.Kind, plan.ParentID, plan.Index, pos)
		if err != nil {
			return Result{Reason: err.Error(), Plan: plan}, nil
		}
		res.NewInstanceID = inst.ID
	} else {
		if err := e.apply.MoveComponentTo(e.payload.InstanceID, plan.ParentID, plan.Index, pos); err != nil {
			return Result{Reason: err.Error(), Plan: plan}, nil
		}
	}
	e.log.Debug("drop applied",
		zap.String("target", plan.TargetID),
		zap.String("parent", plan.ParentID))
	return res, nil
}

// Cancel discards the pending drag (Escape or window blur): dragging ->
// cancelled -> idle. Guaranteed to leave the store untouched.
func (e *Engine) Cancel() {
	if e.state != StateDragging {
		return
	}
	e.state = StateCancelled
	e.payload = Payload{}
	e.candidate = ""
	e.verdict = Verdict{}
	e.state = StateIdle
	e.log.Debug("drag cancelled")
}

// validate runs the ordered drop rules against targetID; the first failure
// wins. It also resolves the insertion plan used when the verdict is valid.
func (e *Engine) validate(targetID string) (Verdict, Plan) {
	plan := Plan{TargetID: targetID, Index: -1}

	target, ok := e.store.Get(targetID)
	if !ok {
		return Verdict{Valid: false, Reason: "drop target no longer exists"}, plan
	}
	targetDef, ok := e.reg.Lookup(target.Kind)
	if !ok {
		return Verdict{Valid: false, Reason: fmt.Sprintf("drop target kind %s is not registered", target.Kind)}, plan
	}

	// 1. Accepts set, when the target restricts one.
	if len(targetDef.Constraints.AllowedChildKinds) > 0 && !targetDef.AllowsChild(e.payload.Kind) {
		return Verdict{Valid: false, Reason: fmt.Sprintf("%s does not accept %s", target.Kind, e.payload.Kind)}, plan
	}

	// 2. Container, or reinterpret as insert-as-sibling.
	if targetDef.Capabilities.IsContainer {
		plan.ParentID = targetID
	} else {
		plan.ParentID = target.ParentID
		plan.Index = e.siblingIndex(target) + 1
	}

	// 3. Cycle prevention: walk the target's ancestor chain against the
	// dragged instance.
	if e.payload.InstanceID != "" {
		if targetID == e.payload.InstanceID ||
			e.store.IsAncestor(e.payload.InstanceID, targetID) {
			return Verdict{Valid: false, Reason: "cannot drop an element into itself or its descendants"}, plan
		}
	}

	// 4. Child count cap on the effective parent.
	if plan.ParentID != "" {
		parent, ok := e.store.Get(plan.ParentID)
		if !ok {
			return Verdict{Valid: false, Reason: "drop parent no longer exists"}, plan
		}
		parentDef, ok := e.reg.Lookup(parent.Kind)
		if !ok {
			return Verdict{Valid: false, Reason: fmt.Sprintf("parent kind %s is not registered", parent.Kind)}, plan
		}
		count := len(parent.ChildIDs)
		if e.payload.InstanceID != "" {
			// A reorder within the same parent frees the dragged slot.
			if dragged, ok := e.store.Get(e.payload.InstanceID); ok && dragged.ParentID == plan.ParentID {
				count--
			}
		}
		if !parentDef.HasRoom(count) {
			return Verdict{Valid: false, Reason: fmt.Sprintf("%s is full (%d children max)", parent.Kind, parentDef.Constraints.MaxChildren)}, plan
		}
	}

	return Verdict{Valid: true}, plan
}

// siblingIndex returns target's index among its siblings (roots count too).
func (e *Engine) siblingIndex(target *canvas.Instance) int {
	if target.ParentID == "" {
		for i, id := range e.store.RootIDs() {
			if id == target.ID {
				return i
			}
		}
		return -1
	}
	parent, ok := e.store.Get(target.ParentID)
	if !ok {
		return -1
	}
	for i, id := range parent.ChildIDs {
		if id == target.ID {
			return i
		}
	}
	return -1
}
