package canvas

// DFS returns every live id in depth-first pre-order starting from the roots.
// This is paint order: a later id renders above an earlier one, which is what
// drag-drop uses to break collision ties.
func (s *Store) DFS() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.components))
	for _, rootID := range s.rootIDs {
		out = append(out, s.subtreeIDs(rootID)...)
	}
	return out
}
