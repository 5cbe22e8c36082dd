package canvas

import "fmt"

// Node is a detached subtree: an instance plus its children by value rather
// than by arena pointer. The clipboard moves these between stores (or between
// moments in time); ids inside a Node are whatever they were at detach time and
// are remapped to fresh ids on insert.
type Node struct {
	Inst     *Instance
	Children []*Node
}

// Clone deep-copies the node tree.
func (n *Node) Clone() *Node {
	out := &Node{Inst: n.Inst.Clone()}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}

// Count returns the number of instances in the node tree.
func (n *Node) Count() int {
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// DetachedSubtree returns a deep copy of the subtree rooted at id with the
// original ids preserved, or nil for an unknown id. The arena is not modified.
func (s *Store) DetachedSubtree(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detachLocked(id)
}

func (s *Store) detachLocked(id string) *Node {
	inst, ok := s.components[id]
	if !ok {
		return nil
	}
	node := &Node{Inst: inst.Clone()}
	for _, childID := range inst.ChildIDs {
		if child := s.detachLocked(childID); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// InsertSubtrees grafts detached subtrees under parentID (empty for root) at
// the given index, minting fresh ids for every node while preserving internal
// structure. The whole insert validates before anything is applied, and it
// dispatches a single committed event, so a paste is one undo step.
func (s *Store) InsertSubtrees(nodes []*Node, parentID string, index int) ([]string, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	var parent *Instance
	if parentID != "" {
		parent = s.components[parentID]
		if parent == nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: parent %s not found", ErrInvalidParent, parentID)
		}
		def, ok := s.reg.Lookup(parent.Kind)
		if !ok || !def.Capabilities.IsContainer {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s is not a container", ErrInvalidParent, parent.Kind)
		}
		for _, n := range nodes {
			if !def.AllowsChild(n.Inst.Kind) {
				s.mu.Unlock()
				return nil, fmt.Errorf("%w: %s does not accept %s children", ErrInvalidParent, parent.Kind, n.Inst.Kind)
			}
		}
		max := def.Constraints.MaxChildren
		if max != 0 && len(parent.ChildIDs)+len(nodes) > max {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: inserting %d children into %s would exceed max %d",
				ErrInvalidParent, len(nodes), parent.Kind, max)
		}
	}
	for _, n := range nodes {
		if _, ok := s.reg.Lookup(n.Inst.Kind); !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, n.Inst.Kind)
		}
	}

	var allNew []string
	rootIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		id := s.graftLocked(n, parentID, &allNew)
		rootIDs = append(rootIDs, id)
	}
	for i, id := range rootIDs {
		at := index
		if at >= 0 {
			at += i
		}
		if parent != nil {
			parent.ChildIDs = insertAt(parent.ChildIDs, at, id)
		} else {
			s.rootIDs = insertAt(s.rootIDs, at, id)
		}
	}
	if parent != nil {
		parent.UpdatedAt = s.now()
	}
	s.mu.Unlock()

	s.publish(Event{Op: OpAdd, IDs: allNew, Committed: true})
	return rootIDs, nil
}

// graftLocked copies a node tree into the arena with fresh ids. Caller holds
// the lock and links the returned root id into a child list afterwards.
func (s *Store) graftLocked(n *Node, parentID string, allNew *[]string) string {
	inst := n.Inst.Clone()
	inst.ID = s.mintID()
	inst.ParentID = parentID
	inst.ChildIDs = nil
	now := s.now()
	inst.CreatedAt = now
	inst.UpdatedAt = now
	s.components[inst.ID] = inst
	*allNew = append(*allNew, inst.ID)

	for _, child := range n.Children {
		childID := s.graftLocked(child, inst.ID, allNew)
		inst.ChildIDs = append(inst.ChildIDs, childID)
	}
	return inst.ID
}
