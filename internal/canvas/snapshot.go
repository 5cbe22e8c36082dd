package canvas

import "fmt"

// Snapshot is an immutable deep copy of the tree-relevant subset of store
// state. Viewport and grid settings are deliberately excluded: undo moves the
// tree back, not the camera.
type Snapshot struct {
	Components map[string]*Instance `json:"components"`
	RootIDs    []string             `json:"rootIds"`
}

// Snapshot deep-copies the arena and root list.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotOf(s.components, s.rootIDs)
}

// Restore replaces the arena with a deep copy of the snapshot. The snapshot
// itself stays untouched, so history can hand the same snapshot out repeatedly.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	restored := snap.Clone()
	s.components = restored.Components
	s.rootIDs = restored.RootIDs
	ids := make([]string, 0, len(s.components))
	for id := range s.components {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	s.publish(Event{Op: OpRestore, IDs: ids, Committed: false})
}

// Clone returns an independent deep copy of the snapshot.
func (sn Snapshot) Clone() Snapshot {
	return snapshotOf(sn.Components, sn.RootIDs)
}

func snapshotOf(components map[string]*Instance, rootIDs []string) Snapshot {
	out := Snapshot{
		Components: make(map[string]*Instance, len(components)),
		RootIDs:    append([]string(nil), rootIDs...),
	}
	for id, inst := range components {
		out.Components[id] = inst.Clone()
	}
	return out
}

// CheckIntegrity verifies the structural invariants the store maintains:
// parent/child pointer consistency, acyclicity, the root set, and container
// child bounds. It is exercised by the validate command and by tests after
// every scripted mutation sequence.
func (s *Store) CheckIntegrity() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, inst := range s.components {
		if inst.ID != id {
			return fmt.Errorf("arena key %s holds instance with id %s", id, inst.ID)
		}
		if inst.ParentID != "" {
			parent, ok := s.components[inst.ParentID]
			if !ok {
				return fmt.Errorf("instance %s references missing parent %s", id, inst.ParentID)
			}
			if indexOf(parent.ChildIDs, id) < 0 {
				return fmt.Errorf("instance %s not listed in parent %s childIds", id, inst.ParentID)
			}
		} else if indexOf(s.rootIDs, id) < 0 {
			return fmt.Errorf("parentless instance %s missing from rootIds", id)
		}
		for _, child := range inst.ChildIDs {
			c, ok := s.components[child]
			if !ok {
				return fmt.Errorf("instance %s lists missing child %s", id, child)
			}
			if c.ParentID != id {
				return fmt.Errorf("child %s of %s points at parent %q", child, id, c.ParentID)
			}
		}
	}

	for _, rootID := range s.rootIDs {
		root, ok := s.components[rootID]
		if !ok {
			return fmt.Errorf("rootIds lists missing instance %s", rootID)
		}
		if root.ParentID != "" {
			return fmt.Errorf("root %s has parent %s", rootID, root.ParentID)
		}
	}

	// Acyclicity: every ancestor chain must terminate at a root.
	for id := range s.components {
		seen := map[string]bool{}
		cur := s.components[id]
		for cur.ParentID != "" {
			if seen[cur.ID] {
				return fmt.Errorf("cycle through instance %s", cur.ID)
			}
			seen[cur.ID] = true
			cur = s.components[cur.ParentID]
		}
	}

	// Container bounds at a commit boundary.
	for id, inst := range s.components {
		def, ok := s.reg.Lookup(inst.Kind)
		if !ok {
			continue
		}
		c := def.Constraints
		n := len(inst.ChildIDs)
		if c.MaxChildren != 0 && n > c.MaxChildren {
			return fmt.Errorf("container %s holds %d children, max %d", id, n, c.MaxChildren)
		}
		if n < c.MinChildren {
			return fmt.Errorf("container %s holds %d children, min %d", id, n, c.MinChildren)
		}
	}
	return nil
}
