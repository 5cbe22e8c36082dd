package canvas

import "errors"

// Structural violations are rejected at the API boundary before any part of
// the tree is touched; there is no partially applied mutation to roll back.
var (
	// ErrInvalidParent covers containment violations: target is not a
	// container, the child kind is not allowed, the child count cap would be
	// exceeded, or the move would create a cycle.
	ErrInvalidParent = errors.New("invalid parent")

	// ErrLockedInstance marks a mutation attempted on a locked instance.
	// Store entry points that the editor calls on behalf of UI events swallow
	// it into a no-op; it is exported for callers that need to distinguish.
	ErrLockedInstance = errors.New("instance is locked")

	// ErrUnknownID marks an operation referencing a nonexistent instance.
	// UI events can race against deletion, so mutation paths treat it as a
	// silent no-op rather than a fatal condition.
	ErrUnknownID = errors.New("unknown instance id")

	// ErrUnknownKind marks an add with a kind absent from the registry.
	ErrUnknownKind = errors.New("unknown component kind")
)
