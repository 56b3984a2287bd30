package redo

import (
	"github.com/BR903/brainjam/move"
)

// PosID is a stable handle to a position in a session's arena. Handles are
// only meaningful to the session that issued them, and a handle becomes
// invalid once its position is dropped.
type PosID int32

// NoPosition is the null handle.
const NoPosition PosID = -1

// A Branch is an edge in the redo tree: the move made, and the position it
// leads to.
type Branch struct {
	Move  move.ID
	Child PosID
}

type position struct {
	parent PosID
	// branches is kept in most-recently-used order; the head is the branch
	// most recently taken from this position.
	branches     []Branch
	depth        int
	solutionSize int
	endpoint     bool
	better       PosID
	// pending is set when the better link has not been computed yet.
	pending bool
	inUse   bool
	state   []byte
}

func (p *position) branchIndex(m move.ID) int {
	for i := range p.branches {
		if p.branches[i].Move == m {
			return i
		}
	}
	return -1
}

// promote moves the branch at idx to the head of the list.
func (p *position) promote(idx int) bool {
	if idx <= 0 {
		return false
	}
	b := p.branches[idx]
	copy(p.branches[1:idx+1], p.branches[:idx])
	p.branches[0] = b
	return true
}

func (p *position) removeBranch(child PosID) {
	for i := range p.branches {
		if p.branches[i].Child == child {
			p.branches = append(p.branches[:i], p.branches[i+1:]...)
			return
		}
	}
}

// alloc places a position in the arena, reusing a freed slot if one is
// available.
func (s *Session) alloc(p position) PosID {
	p.inUse = true
	if n := len(s.free); n > 0 {
		id := s.free[n-1]
		s.free = s.free[:n-1]
		s.positions[id] = p
		return id
	}
	s.positions = append(s.positions, p)
	return PosID(len(s.positions) - 1)
}

func (s *Session) release(id PosID) {
	s.positions[id] = position{parent: NoPosition, better: NoPosition}
	s.free = append(s.free, id)
	s.count--
}

func (s *Session) live(id PosID) bool {
	return id >= 0 && int(id) < len(s.positions) && s.positions[id].inUse
}

// solutionFor derives a position's solution size from its own endpoint
// status and the solution sizes already recorded on its children.
func (s *Session) solutionFor(id PosID) int {
	p := &s.positions[id]
	sol := 0
	if p.endpoint {
		sol = p.depth
	}
	for _, b := range p.branches {
		cs := s.positions[b.Child].solutionSize
		if cs != 0 && (sol == 0 || cs < sol) {
			sol = cs
		}
	}
	return sol
}

// resettleSolutions re-derives solution sizes from id up to the root,
// stopping at the first ancestor whose value does not change. It returns
// the positions whose value changed.
func (s *Session) resettleSolutions(id PosID) []PosID {
	var changed []PosID
	for id != NoPosition {
		sol := s.solutionFor(id)
		if sol == s.positions[id].solutionSize {
			break
		}
		s.positions[id].solutionSize = sol
		changed = append(changed, id)
		id = s.positions[id].parent
	}
	return changed
}
