package canvas

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pagecraft/internal/registry"
)

// testRegistry returns the builtin catalog plus a Pair container capped at two
// children, used by the capacity tests.
func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	err := reg.Register(&registry.Definition{
		Kind:         "Pair",
		DisplayName:  "Pair",
		Category:     "layout",
		Capabilities: registry.Capabilities{IsContainer: true, IsDraggable: true},
		Constraints:  registry.Constraints{MaxChildren: 2},
		Template:     `<div{{style}}>{{children}}</div>`,
	})
	if err != nil {
		t.Fatalf("registering Pair: %v", err)
	}
	return reg
}

func mustAdd(t *testing.T, s *Store, kind registry.Kind, parentID string) *Instance {
	t.Helper()
	inst, err := s.AddComponent(kind, parentID, -1)
	if err != nil {
		t.Fatalf("AddComponent(%s, %q): %v", kind, parentID, err)
	}
	return inst
}

func TestAddComponentRoot(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")

	if box.ID == "" {
		t.Fatal("expected minted id")
	}
	if box.ParentID != "" {
		t.Errorf("root instance has parent %q", box.ParentID)
	}
	if diff := cmp.Diff([]string{box.ID}, s.RootIDs()); diff != "" {
		t.Errorf("rootIds mismatch (-want +got):\n%s", diff)
	}
	if box.Props["padding"] != "16px" {
		t.Errorf("default props not applied: %v", box.Props)
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Errorf("integrity: %v", err)
	}
}

func TestAddComponentIntoNonContainer(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	text := mustAdd(t, s, registry.KindText, "")

	_, err := s.AddComponent(registry.KindText, text.ID, -1)
	if !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent, got %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("rejected add mutated the store: %d instances", s.Len())
	}
}

func TestAddComponentDisallowedChildKind(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	form := mustAdd(t, s, registry.KindForm, "")

	if _, err := s.AddComponent(registry.KindImage, form.ID, -1); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected ErrInvalidParent for Image in Form, got %v", err)
	}
	if _, err := s.AddComponent(registry.KindInput, form.ID, -1); err != nil {
		t.Fatalf("Input in Form should be allowed: %v", err)
	}
}

// The scenario from the capacity contract: a container capped at two children
// accepts exactly two adds and rejects the third.
func TestAddComponentMaxChildren(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	pair := mustAdd(t, s, "Pair", "")

	t1 := mustAdd(t, s, registry.KindText, pair.ID)
	t2 := mustAdd(t, s, registry.KindText, pair.ID)

	got, _ := s.Get(pair.ID)
	if diff := cmp.Diff([]string{t1.ID, t2.ID}, got.ChildIDs); diff != "" {
		t.Errorf("childIds mismatch (-want +got):\n%s", diff)
	}

	_, err := s.AddComponent(registry.KindText, pair.ID, -1)
	if !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("third add should exceed max_children: got %v", err)
	}
}

func TestAddComponentUnknownKind(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	if _, err := s.AddComponent("Carousel", "", -1); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestAddComponentAtIndex(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")
	a := mustAdd(t, s, registry.KindText, box.ID)
	c := mustAdd(t, s, registry.KindText, box.ID)

	b, err := s.AddComponent(registry.KindText, box.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(box.ID)
	if diff := cmp.Diff([]string{a.ID, b.ID, c.ID}, got.ChildIDs); diff != "" {
		t.Errorf("insert at index 1 (-want +got):\n%s", diff)
	}
}

func TestAddComponentAtSingleCommittedEvent(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")

	var events []Event
	defer s.Subscribe(func(ev Event) { events = append(events, ev) })()

	inst, err := s.AddComponentAt(registry.KindText, box.ID, -1, Position{X: 120, Y: 40})
	if err != nil {
		t.Fatalf("AddComponentAt: %v", err)
	}
	if inst.Position != (Position{X: 120, Y: 40}) {
		t.Errorf("position not set at insert: %+v", inst.Position)
	}
	if len(events) != 1 || events[0].Op != OpAdd || !events[0].Committed {
		t.Errorf("expected exactly one committed add event, got %+v", events)
	}
}

func TestMoveComponentToSingleCommittedEvent(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")
	text := mustAdd(t, s, registry.KindText, "")

	var events []Event
	defer s.Subscribe(func(ev Event) { events = append(events, ev) })()

	if err := s.MoveComponentTo(text.ID, box.ID, -1, Position{X: 64, Y: 8}); err != nil {
		t.Fatalf("MoveComponentTo: %v", err)
	}
	moved, _ := s.Get(text.ID)
	if moved.ParentID != box.ID || moved.Position != (Position{X: 64, Y: 8}) {
		t.Errorf("move+position not applied together: parent=%q pos=%+v", moved.ParentID, moved.Position)
	}
	if len(events) != 1 || events[0].Op != OpMove || !events[0].Committed {
		t.Errorf("expected exactly one committed move event, got %+v", events)
	}
}

func TestUpdateComponent(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	text := mustAdd(t, s, registry.KindText, "")

	name := "Hero copy"
	s.UpdateComponent(text.ID, Patch{
		Name:  &name,
		Props: map[string]any{"content": "Welcome"},
		Styles: map[string]string{
			"color": "#333",
		},
		Position: &Position{X: 40, Y: 60},
	}, true)

	got, _ := s.Get(text.ID)
	if got.Name != "Hero copy" || got.Props["content"] != "Welcome" {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.Styles["color"] != "#333" {
		t.Errorf("styles not merged: %v", got.Styles)
	}
	if got.Position.X != 40 {
		t.Errorf("position not applied: %+v", got.Position)
	}
	if !got.UpdatedAt.After(text.UpdatedAt) && !got.UpdatedAt.Equal(text.UpdatedAt) {
		t.Error("updatedAt not bumped")
	}
}

func TestUpdateComponentUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	s.UpdateComponent("ghost", Patch{Props: map[string]any{"x": 1}}, true)
	if s.Len() != 0 {
		t.Error("update on unknown id should be a no-op")
	}
}

func TestUpdateComponentLockedIsNoop(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	text := mustAdd(t, s, registry.KindText, "")

	locked := true
	s.UpdateComponent(text.ID, Patch{Locked: &locked}, true)
	s.UpdateComponent(text.ID, Patch{Props: map[string]any{"content": "nope"}}, true)

	got, _ := s.Get(text.ID)
	if got.Props["content"] == "nope" {
		t.Error("locked instance was mutated")
	}

	// The Locked flag itself must stay patchable, or nothing could unlock.
	unlocked := false
	s.UpdateComponent(text.ID, Patch{Locked: &unlocked}, true)
	got, _ = s.Get(text.ID)
	if got.Locked {
		t.Error("could not unlock instance")
	}
}

func TestDeleteComponentCascades(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")
	section := mustAdd(t, s, registry.KindSection, box.ID)
	mustAdd(t, s, registry.KindText, section.ID)
	mustAdd(t, s, registry.KindText, section.ID)
	keep := mustAdd(t, s, registry.KindText, box.ID)

	before := s.Len()
	removed := len(s.Subtree(section.ID))
	s.DeleteComponent(section.ID)

	if got := s.Len(); got != before-removed {
		t.Errorf("expected exactly %d removals, store went %d -> %d", removed, before, got)
	}
	if s.Exists(section.ID) {
		t.Error("deleted id still present")
	}
	got, _ := s.Get(box.ID)
	if diff := cmp.Diff([]string{keep.ID}, got.ChildIDs); diff != "" {
		t.Errorf("parent childIds after delete (-want +got):\n%s", diff)
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Errorf("integrity: %v", err)
	}
}

func TestDeleteLockedIsNoop(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	text := mustAdd(t, s, registry.KindText, "")
	locked := true
	s.UpdateComponent(text.ID, Patch{Locked: &locked}, true)

	s.DeleteComponent(text.ID)
	if !s.Exists(text.ID) {
		t.Error("locked instance was deleted")
	}
}

func TestMoveComponentReparents(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	a := mustAdd(t, s, registry.KindBox, "")
	b := mustAdd(t, s, registry.KindBox, "")
	text := mustAdd(t, s, registry.KindText, a.ID)

	if err := s.MoveComponent(text.ID, b.ID, 0); err != nil {
		t.Fatal(err)
	}
	gotA, _ := s.Get(a.ID)
	gotB, _ := s.Get(b.ID)
	if len(gotA.ChildIDs) != 0 {
		t.Errorf("old parent still lists child: %v", gotA.ChildIDs)
	}
	if diff := cmp.Diff([]string{text.ID}, gotB.ChildIDs); diff != "" {
		t.Errorf("new parent childIds (-want +got):\n%s", diff)
	}
	gotText, _ := s.Get(text.ID)
	if gotText.ParentID != b.ID {
		t.Errorf("parentId = %q, want %q", gotText.ParentID, b.ID)
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Errorf("integrity: %v", err)
	}
}

func TestMoveComponentCyclePrevention(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	outer := mustAdd(t, s, registry.KindBox, "")
	inner := mustAdd(t, s, registry.KindBox, outer.ID)
	leaf := mustAdd(t, s, registry.KindSection, inner.ID)

	// Into itself, into a child, into a grandchild: all cycles.
	for _, target := range []string{outer.ID, inner.ID, leaf.ID} {
		if err := s.MoveComponent(outer.ID, target, 0); !errors.Is(err, ErrInvalidParent) {
			t.Errorf("move %s into %s: expected ErrInvalidParent, got %v", outer.ID, target, err)
		}
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Errorf("integrity after rejected moves: %v", err)
	}
}

func TestMoveComponentToRoot(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")
	text := mustAdd(t, s, registry.KindText, box.ID)

	if err := s.MoveComponent(text.ID, "", 0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{text.ID, box.ID}, s.RootIDs()); diff != "" {
		t.Errorf("rootIds (-want +got):\n%s", diff)
	}
}

func TestMoveComponentReorderWithinParent(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	pair := mustAdd(t, s, "Pair", "")
	a := mustAdd(t, s, registry.KindText, pair.ID)
	b := mustAdd(t, s, registry.KindText, pair.ID)

	// Pair is full, but reordering inside it must not count as a new child.
	if err := s.MoveComponent(b.ID, pair.ID, 0); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(pair.ID)
	if diff := cmp.Diff([]string{b.ID, a.ID}, got.ChildIDs); diff != "" {
		t.Errorf("reorder (-want +got):\n%s", diff)
	}
}

func TestMoveComponentCapacity(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	pair := mustAdd(t, s, "Pair", "")
	mustAdd(t, s, registry.KindText, pair.ID)
	mustAdd(t, s, registry.KindText, pair.ID)
	stray := mustAdd(t, s, registry.KindText, "")

	if err := s.MoveComponent(stray.ID, pair.ID, 0); !errors.Is(err, ErrInvalidParent) {
		t.Fatalf("expected capacity rejection, got %v", err)
	}
	gotStray, _ := s.Get(stray.ID)
	if gotStray.ParentID != "" {
		t.Error("rejected move mutated the instance")
	}
}

func TestDuplicateComponentSubtree(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	box := mustAdd(t, s, registry.KindBox, "")
	section := mustAdd(t, s, registry.KindSection, box.ID)
	mustAdd(t, s, registry.KindText, section.ID)

	newID, err := s.DuplicateComponent(section.ID)
	if err != nil {
		t.Fatal(err)
	}

	gotBox, _ := s.Get(box.ID)
	if diff := cmp.Diff([]string{section.ID, newID}, gotBox.ChildIDs); diff != "" {
		t.Errorf("clone not a sibling immediately after source (-want +got):\n%s", diff)
	}

	// Fresh ids throughout.
	srcIDs := map[string]bool{}
	for _, id := range s.Subtree(section.ID) {
		srcIDs[id] = true
	}
	for _, id := range s.Subtree(newID) {
		if srcIDs[id] {
			t.Errorf("clone shares id %s with source", id)
		}
	}
	if got := len(s.Subtree(newID)); got != len(s.Subtree(section.ID)) {
		t.Errorf("clone subtree size %d != source %d", got, len(s.Subtree(section.ID)))
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Errorf("integrity: %v", err)
	}
}

func TestDuplicateUnknownID(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	if _, err := s.DuplicateComponent("ghost"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestSubscribeEvents(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))

	var events []Event
	unsub := s.Subscribe(func(ev Event) { events = append(events, ev) })

	box := mustAdd(t, s, registry.KindBox, "")
	s.ApplyTransient(box.ID, Patch{Position: &Position{X: 5, Y: 5}})
	s.UpdateComponent(box.ID, Patch{Position: &Position{X: 10, Y: 10}}, true)
	s.DeleteComponent(box.ID)

	want := []struct {
		op        Op
		committed bool
	}{
		{OpAdd, true},
		{OpUpdate, false},
		{OpUpdate, true},
		{OpDelete, true},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		if events[i].Op != w.op || events[i].Committed != w.committed {
			t.Errorf("event %d = %+v, want op=%s committed=%v", i, events[i], w.op, w.committed)
		}
	}

	unsub()
	mustAdd(t, s, registry.KindText, "")
	if len(events) != len(want) {
		t.Error("unsubscribed listener still invoked")
	}
}

func TestIDsNeverReused(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		inst := mustAdd(t, s, registry.KindText, "")
		if seen[inst.ID] {
			t.Fatalf("id %s reused", inst.ID)
		}
		seen[inst.ID] = true
		s.DeleteComponent(inst.ID)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore(testRegistry(t))
	text := mustAdd(t, s, registry.KindText, "")

	got, _ := s.Get(text.ID)
	got.Props["content"] = "tampered"
	got.Name = "tampered"

	fresh, _ := s.Get(text.ID)
	if fresh.Props["content"] == "tampered" || fresh.Name == "tampered" {
		t.Error("Get leaked a reference into the arena")
	}
}
