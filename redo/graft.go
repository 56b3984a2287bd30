package redo

// graftSource picks the equivalent position whose subtree should be copied
// under id: the best equivalent that has anything to copy and is not one of
// id's own ancestors (copying an ancestor would copy id itself).
func (s *Session) graftSource(id PosID) PosID {
	src := NoPosition
	for _, m := range s.Equivalents(id) {
		if len(s.positions[m].branches) == 0 || s.isAncestor(m, id) {
			continue
		}
		if src == NoPosition || s.IsBetter(m, src) {
			src = m
		}
	}
	return src
}

// graft copies the subtree of id's best equivalent under id and returns the
// new positions, in preorder.
func (s *Session) graft(id PosID) []PosID {
	src := s.graftSource(id)
	if src == NoPosition {
		return nil
	}
	var added []PosID
	s.copyBranches(src, id, &added)
	// Children were created before their solution sizes were known; settle
	// them bottom-up. id and its ancestors are handled by the caller.
	for i := len(added) - 1; i >= 0; i-- {
		s.positions[added[i]].solutionSize = s.solutionFor(added[i])
	}
	return added
}

func (s *Session) copyBranches(src, dst PosID, added *[]PosID) {
	br := s.positions[src].branches
	// Tail first, so that inserting each copy at the head reproduces the
	// source's MRU order.
	for i := len(br) - 1; i >= 0; i-- {
		child := &s.positions[br[i].Child]
		n := s.newChild(dst, br[i].Move, cloneState(child.state), child.endpoint)
		*added = append(*added, n)
		s.copyBranches(br[i].Child, n, added)
	}
}
