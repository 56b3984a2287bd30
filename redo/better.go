package redo

import (
	"github.com/rs/zerolog/log"
)

// IsBetter reports whether b is preferable to a, assuming the two share a
// comparable snapshot. A shallower position is better; at equal depth, a
// known solution beats none and a shorter solution beats a longer one.
// A null or dropped handle is never better, and nothing is better than it.
func (s *Session) IsBetter(b, a PosID) bool {
	if !s.live(a) || !s.live(b) {
		return false
	}
	pb, pa := &s.positions[b], &s.positions[a]
	if pb.depth != pa.depth {
		return pb.depth < pa.depth
	}
	if pb.solutionSize == 0 {
		return false
	}
	return pa.solutionSize == 0 || pb.solutionSize < pa.solutionSize
}

// groupMinimum returns a member of group that no other member is better
// than. Ties go to the earliest member.
func (s *Session) groupMinimum(group []PosID) PosID {
	best := group[0]
	for _, m := range group[1:] {
		if s.IsBetter(m, best) {
			best = m
		}
	}
	return best
}

// linkGroup points every member of group that the group minimum is better
// than at the minimum, and clears the link of everyone else.
func (s *Session) linkGroup(group []PosID) {
	best := s.groupMinimum(group)
	for _, m := range group {
		p := &s.positions[m]
		if m != best && s.IsBetter(best, m) {
			p.better = best
		} else {
			p.better = NoPosition
		}
		if p.pending {
			p.pending = false
			s.pending--
		}
	}
}

// relinkGroup recomputes better links for id's equivalence class and
// returns the members of that class.
func (s *Session) relinkGroup(id PosID) []PosID {
	group := s.lookup(s.positions[id].state)
	if len(group) == 0 {
		return nil
	}
	s.linkGroup(group)
	return group
}

// RecomputeBetterLinks re-derives every better link in the tree. It is run
// once after a bulk load, and by hosts that add positions with NoCheck.
func (s *Session) RecomputeBetterLinks() {
	groups, linked := 0, 0
	for _, bucket := range s.index {
		// A bucket can hold more than one equivalence class when hashes
		// collide; peel them off one at a time.
		rest := append([]PosID(nil), bucket...)
		for len(rest) > 0 {
			group := s.lookup(s.positions[rest[0]].state)
			s.linkGroup(group)
			groups++
			if len(group) > 1 {
				linked += len(group)
			}
			in := make(map[PosID]bool, len(group))
			for _, m := range group {
				in[m] = true
			}
			next := rest[:0]
			for _, m := range rest {
				if !in[m] {
					next = append(next, m)
				}
			}
			rest = next
		}
	}
	s.pending = 0
	log.Debug().Int("groups", groups).Int("transposed", linked).
		Msg("recomputed-better-links")
}
