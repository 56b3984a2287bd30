// Package redo implements a branching redo session: a tree of game
// positions that supports linear and branching undo and redo, detects
// transpositions (different move sequences reaching an identical state) and
// cross-links them, and tracks the shortest known solution below every
// position.
//
// Positions live in an arena owned by the Session and are addressed by
// PosID handles. Parent links, better links, the equality index and the
// bookmark stack are all non-owning references into that arena and are
// repaired whenever a position is dropped.
package redo

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/BR903/brainjam/move"
)

// GraftPolicy decides what happens when a new move reaches a state that is
// already present elsewhere in the tree.
type GraftPolicy int

const (
	// GraftCopy keeps the new position separate from its equivalents; they
	// are only cross-linked through better links.
	GraftCopy GraftPolicy = iota
	// GraftMerge copies the subtree of the best existing equivalent under
	// the new position, so the known continuation can be redone from it.
	GraftMerge
)

func (g GraftPolicy) String() string {
	switch g {
	case GraftCopy:
		return "copy"
	case GraftMerge:
		return "graft"
	}
	return "unknown"
}

// ParseGraftPolicy accepts the names produced by GraftPolicy.String.
func ParseGraftPolicy(s string) (GraftPolicy, error) {
	switch s {
	case "copy":
		return GraftCopy, nil
	case "graft", "merge":
		return GraftMerge, nil
	}
	return GraftCopy, fmt.Errorf("unknown graft policy %q", s)
}

// CheckMode controls when better links are computed for new positions.
type CheckMode int

const (
	// Check computes better links immediately.
	Check CheckMode = iota
	// CheckLater flags new positions for the next RecomputeBetterLinks.
	// This is what file replay uses, since a shorter path to a state may
	// not have been read yet.
	CheckLater
	// NoCheck does no cross-link work at all; the caller is expected to
	// call RecomputeBetterLinks itself.
	NoCheck
)

func (c CheckMode) String() string {
	switch c {
	case Check:
		return "check"
	case CheckLater:
		return "later"
	case NoCheck:
		return "none"
	}
	return "unknown"
}

// ParseCheckMode accepts the names produced by CheckMode.String.
func ParseCheckMode(s string) (CheckMode, error) {
	switch s {
	case "check":
		return Check, nil
	case "later":
		return CheckLater, nil
	case "none":
		return NoCheck, nil
	}
	return Check, fmt.Errorf("unknown check mode %q", s)
}

var (
	ErrNoPosition      = errors.New("no such position")
	ErrHasChildren     = errors.New("position still has children")
	ErrRootPosition    = errors.New("the root position cannot be dropped")
	ErrBadMove         = errors.New("invalid move identifier")
	ErrStateSize       = errors.New("snapshot has the wrong size")
	ErrComparableRange = errors.New("comparable length out of range")
)

// Session owns a redo tree.
type Session struct {
	positions []position
	free      []PosID
	count     int
	root      PosID

	stateSize  int
	compareLen int
	index      map[uint64][]PosID
	policy     GraftPolicy
	marks      Bookmarks

	pending int
	dirty   bool
}

// New creates a session whose root holds the initial snapshot. Only the
// first comparableLength bytes of any snapshot take part in equality; the
// rest is presentation-only.
func New(initial []byte, comparableLength int, policy GraftPolicy) (*Session, error) {
	if comparableLength <= 0 || comparableLength > len(initial) {
		return nil, ErrComparableRange
	}
	s := &Session{
		stateSize:  len(initial),
		compareLen: comparableLength,
		index:      make(map[uint64][]PosID),
		policy:     policy,
	}
	s.root = s.alloc(position{
		parent: NoPosition,
		better: NoPosition,
		state:  cloneState(initial),
	})
	s.count = 1
	s.indexAdd(s.root)
	return s, nil
}

func cloneState(state []byte) []byte {
	return append([]byte(nil), state...)
}

func (s *Session) Root() PosID {
	return s.root
}

// Len is the number of positions currently in the tree.
func (s *Session) Len() int {
	return s.count
}

func (s *Session) ComparableLength() int {
	return s.compareLen
}

func (s *Session) StateSize() int {
	return s.stateSize
}

func (s *Session) GraftPolicy() GraftPolicy {
	return s.policy
}

func (s *Session) SetGraftPolicy(g GraftPolicy) {
	s.policy = g
}

func (s *Session) Dirty() bool {
	return s.dirty
}

// ClearDirty is called after the session has been saved.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// NeedsRecompute is true if positions were added with CheckLater or NoCheck
// since the last RecomputeBetterLinks.
func (s *Session) NeedsRecompute() bool {
	return s.pending > 0
}

// Valid reports whether id refers to a position currently in the tree.
func (s *Session) Valid(id PosID) bool {
	return s.live(id)
}

func (s *Session) Parent(id PosID) PosID {
	if !s.live(id) {
		return NoPosition
	}
	return s.positions[id].parent
}

func (s *Session) Depth(id PosID) int {
	if !s.live(id) {
		return -1
	}
	return s.positions[id].depth
}

func (s *Session) SolutionSize(id PosID) int {
	if !s.live(id) {
		return 0
	}
	return s.positions[id].solutionSize
}

func (s *Session) Endpoint(id PosID) bool {
	return s.live(id) && s.positions[id].endpoint
}

// Better returns the position's better link, or NoPosition.
func (s *Session) Better(id PosID) PosID {
	if !s.live(id) {
		return NoPosition
	}
	return s.positions[id].better
}

// Best follows the better chain to its end.
func (s *Session) Best(id PosID) PosID {
	if !s.live(id) {
		return NoPosition
	}
	for steps := 0; s.positions[id].better != NoPosition; steps++ {
		if steps > s.count {
			log.Warn().Int("pos", int(id)).Msg("better-chain-cycle")
			break
		}
		id = s.positions[id].better
	}
	return id
}

// State returns the snapshot stored at a position. The caller must not
// modify it.
func (s *Session) State(id PosID) []byte {
	if !s.live(id) {
		return nil
	}
	return s.positions[id].state
}

// Branches returns a copy of the position's branches in MRU order.
func (s *Session) Branches(id PosID) []Branch {
	if !s.live(id) {
		return nil
	}
	return append([]Branch(nil), s.positions[id].branches...)
}

func (s *Session) NumBranches(id PosID) int {
	if !s.live(id) {
		return 0
	}
	return len(s.positions[id].branches)
}

// NextMove returns the head (most recently used) branch of a position.
func (s *Session) NextMove(id PosID) (Branch, bool) {
	if !s.live(id) || len(s.positions[id].branches) == 0 {
		return Branch{}, false
	}
	return s.positions[id].branches[0], true
}

// NextPosition looks up the position reached from id by m, without
// creating anything or changing the branch order.
func (s *Session) NextPosition(id PosID, m move.ID) PosID {
	if !s.live(id) {
		return NoPosition
	}
	p := &s.positions[id]
	if i := p.branchIndex(m); i >= 0 {
		return p.branches[i].Child
	}
	return NoPosition
}

// Follow is NextPosition for a branch that is actually being taken: the
// branch is promoted to the head of the list.
func (s *Session) Follow(id PosID, m move.ID) PosID {
	if !s.live(id) {
		return NoPosition
	}
	p := &s.positions[id]
	i := p.branchIndex(m)
	if i < 0 {
		return NoPosition
	}
	if p.promote(i) {
		s.dirty = true
	}
	return p.branches[0].Child
}

// AddMove records that m was played from the position from, producing
// state. If from already has a branch for m its child is promoted and
// returned; otherwise a new position is created as the head branch.
func (s *Session) AddMove(from PosID, m move.ID, state []byte, endpoint bool, mode CheckMode) (PosID, error) {
	if !s.live(from) {
		return NoPosition, ErrNoPosition
	}
	if !m.Valid() {
		return NoPosition, ErrBadMove
	}
	if len(state) != s.stateSize {
		return NoPosition, ErrStateSize
	}
	if existing := s.Follow(from, m); existing != NoPosition {
		return existing, nil
	}

	id := s.newChild(from, m, cloneState(state), endpoint)
	touched := []PosID{id}
	if s.policy == GraftMerge {
		touched = append(touched, s.graft(id)...)
	}
	touched = append(touched, s.resettleSolutions(id)...)
	s.settle(mode, touched)
	s.dirty = true
	log.Debug().Int("from", int(from)).Stringer("move", m).Int("pos", int(id)).
		Int("depth", s.positions[id].depth).Msg("added-position")
	return id, nil
}

// newChild links a fresh position under parent as its head branch. The
// state slice is taken over by the session.
func (s *Session) newChild(parent PosID, m move.ID, state []byte, endpoint bool) PosID {
	id := s.alloc(position{
		parent:   parent,
		depth:    s.positions[parent].depth + 1,
		endpoint: endpoint,
		better:   NoPosition,
		state:    state,
	})
	s.count++
	p := &s.positions[parent]
	p.branches = append(p.branches, Branch{})
	copy(p.branches[1:], p.branches)
	p.branches[0] = Branch{Move: m, Child: id}
	s.indexAdd(id)
	return id
}

// settle does the better-link work that mode asks for on every position
// whose link may have changed.
func (s *Session) settle(mode CheckMode, touched []PosID) {
	switch mode {
	case Check:
		seen := make(map[PosID]bool)
		for _, id := range touched {
			if seen[id] {
				continue
			}
			for _, m := range s.relinkGroup(id) {
				seen[m] = true
			}
		}
	default:
		for _, id := range touched {
			if !s.positions[id].pending {
				s.positions[id].pending = true
				s.pending++
			}
		}
	}
}

// SetMinimalPath walks forward from id, at each step taking the branch
// whose solution size matches the current one and promoting it to the
// head. It returns the last position reached.
func (s *Session) SetMinimalPath(id PosID) PosID {
	if !s.live(id) {
		return NoPosition
	}
	for {
		p := &s.positions[id]
		if p.solutionSize == 0 {
			return id
		}
		next := -1
		for i, b := range p.branches {
			if s.positions[b.Child].solutionSize == p.solutionSize {
				next = i
				break
			}
		}
		if next < 0 {
			return id
		}
		if p.promote(next) {
			s.dirty = true
		}
		id = p.branches[0].Child
	}
}

// Walk visits every position depth-first, parents before children and
// siblings in MRU order. Returning false from fn skips that position's
// subtree.
func (s *Session) Walk(fn func(id PosID) bool) {
	stack := []PosID{s.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(id) {
			continue
		}
		br := s.positions[id].branches
		for i := len(br) - 1; i >= 0; i-- {
			stack = append(stack, br[i].Child)
		}
	}
}

// Path returns the moves leading from the root to id.
func (s *Session) Path(id PosID) []move.ID {
	if !s.live(id) {
		return nil
	}
	path := make([]move.ID, s.positions[id].depth)
	for i := len(path) - 1; i >= 0; i-- {
		parent := s.positions[id].parent
		for _, b := range s.positions[parent].branches {
			if b.Child == id {
				path[i] = b.Move
				break
			}
		}
		id = parent
	}
	return path
}

func (s *Session) isAncestor(anc, id PosID) bool {
	for id != NoPosition {
		if id == anc {
			return true
		}
		id = s.positions[id].parent
	}
	return false
}
