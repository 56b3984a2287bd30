package redo

import (
	"github.com/rs/zerolog/log"
)

// DropPosition removes a childless position from the tree and returns its
// parent. Positions that still have children must be removed with Erase.
func (s *Session) DropPosition(id PosID) (PosID, error) {
	if !s.live(id) {
		return NoPosition, ErrNoPosition
	}
	if id == s.root {
		return NoPosition, ErrRootPosition
	}
	if len(s.positions[id].branches) > 0 {
		return NoPosition, ErrHasChildren
	}
	parent := s.positions[id].parent
	state := s.unlink(id)
	s.repair(parent, [][]byte{state})
	return parent, nil
}

// Erase removes id together with its entire subtree and returns id's
// parent.
func (s *Session) Erase(id PosID) (PosID, error) {
	if !s.live(id) {
		return NoPosition, ErrNoPosition
	}
	if id == s.root {
		return NoPosition, ErrRootPosition
	}
	parent := s.positions[id].parent
	var states [][]byte
	s.eraseSubtree(id, &states)
	s.repair(parent, states)
	log.Debug().Int("pos", int(id)).Int("removed", len(states)).Msg("erased-subtree")
	return parent, nil
}

// EraseBranches removes every subtree below id, leaving id itself in place.
// This is how an abandoned future is discarded when branching is off.
func (s *Session) EraseBranches(id PosID) error {
	if !s.live(id) {
		return ErrNoPosition
	}
	if len(s.positions[id].branches) == 0 {
		return nil
	}
	var states [][]byte
	for len(s.positions[id].branches) > 0 {
		s.eraseSubtree(s.positions[id].branches[0].Child, &states)
	}
	s.repair(id, states)
	log.Debug().Int("pos", int(id)).Int("removed", len(states)).Msg("erased-branches")
	return nil
}

// eraseSubtree unlinks id and all of its descendants, children before
// parents, collecting the snapshots of everything removed.
func (s *Session) eraseSubtree(id PosID, states *[][]byte) {
	for len(s.positions[id].branches) > 0 {
		last := len(s.positions[id].branches) - 1
		s.eraseSubtree(s.positions[id].branches[last].Child, states)
	}
	*states = append(*states, s.unlink(id))
}

// unlink detaches a childless position from its parent, the equality index
// and the bookmark stack, and frees its slot. It returns the snapshot the
// position held so its equivalence class can be repaired.
func (s *Session) unlink(id PosID) []byte {
	p := &s.positions[id]
	state := p.state
	if p.pending {
		s.pending--
	}
	s.positions[p.parent].removeBranch(id)
	s.indexRemove(id)
	s.marks.purge(id)
	s.release(id)
	s.dirty = true
	return state
}

// repair restores the invariants that removing positions can break:
// solution sizes above the removal point, and the better links of every
// class that lost a member, including classes of ancestors whose solution
// size changed.
func (s *Session) repair(from PosID, states [][]byte) {
	for _, id := range s.resettleSolutions(from) {
		states = append(states, s.positions[id].state)
	}
	seen := make(map[uint64][]byte)
	for _, st := range states {
		key := s.indexKey(st)
		if prev, ok := seen[key]; ok && string(prev[:s.compareLen]) == string(st[:s.compareLen]) {
			continue
		}
		seen[key] = st
		if group := s.lookup(st); len(group) > 0 {
			s.linkGroup(group)
		}
	}
}
