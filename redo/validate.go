package redo

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/BR903/brainjam/move"
)

// Validate walks the whole tree and checks its structural invariants. Every
// violation found is logged as a warning and returned; nothing is repaired.
// If isEndpoint is not nil, each position's endpoint flag is also checked
// against it.
//
// Better links are only checked when no recompute is outstanding.
func (s *Session) Validate(isEndpoint func(state []byte) bool) []error {
	var errs []error
	report := func(id PosID, format string, args ...any) {
		err := fmt.Errorf("position %d: %s", id, fmt.Sprintf(format, args...))
		log.Warn().Err(err).Msg("invariant-violation")
		errs = append(errs, err)
	}

	seen := 0
	s.Walk(func(id PosID) bool {
		seen++
		p := &s.positions[id]
		if !p.inUse {
			report(id, "reachable but not in use")
			return false
		}
		if id != s.root && p.depth != s.positions[p.parent].depth+1 {
			report(id, "depth %d under parent depth %d", p.depth, s.positions[p.parent].depth)
		}
		moves := make(map[move.ID]bool, len(p.branches))
		for _, b := range p.branches {
			if moves[b.Move] {
				report(id, "duplicate move %v", b.Move)
			}
			moves[b.Move] = true
			if s.positions[b.Child].parent != id {
				report(b.Child, "parent link does not point at %d", id)
			}
		}
		if sol := s.solutionFor(id); sol != p.solutionSize {
			report(id, "solution size %d, derived %d", p.solutionSize, sol)
		}
		if isEndpoint != nil && isEndpoint(p.state) != p.endpoint {
			report(id, "endpoint flag is %v", p.endpoint)
		}
		if !s.indexed(id) {
			report(id, "missing from equality index")
		}
		if s.pending == 0 {
			s.checkBetter(id, report)
		}
		return true
	})
	if seen != s.count {
		err := fmt.Errorf("%d positions reachable, %d counted", seen, s.count)
		log.Warn().Err(err).Msg("invariant-violation")
		errs = append(errs, err)
	}
	indexed := 0
	for _, bucket := range s.index {
		indexed += len(bucket)
	}
	if indexed != s.count {
		err := fmt.Errorf("%d positions indexed, %d counted", indexed, s.count)
		log.Warn().Err(err).Msg("invariant-violation")
		errs = append(errs, err)
	}
	return errs
}

func (s *Session) indexed(id PosID) bool {
	for _, m := range s.index[s.indexKey(s.positions[id].state)] {
		if m == id {
			return true
		}
	}
	return false
}

func (s *Session) checkBetter(id PosID, report func(PosID, string, ...any)) {
	p := &s.positions[id]
	if p.better == NoPosition {
		for _, m := range s.Equivalents(id) {
			if s.IsBetter(m, id) {
				report(id, "no better link although %d is better", m)
				break
			}
		}
		return
	}
	if !s.live(p.better) {
		report(id, "better link to dropped position %d", p.better)
		return
	}
	if !bytes.Equal(s.positions[p.better].state[:s.compareLen], p.state[:s.compareLen]) {
		report(id, "better link to non-equivalent position %d", p.better)
	}
	if !s.IsBetter(p.better, id) {
		report(id, "better link to %d which is not better", p.better)
	}
	if s.positions[p.better].better == id {
		report(id, "better links point both ways with %d", p.better)
	}
}
