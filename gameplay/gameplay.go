// Package gameplay ties a rule engine to a redo session: it keeps track of
// the position being viewed and turns player commands (move, undo, redo,
// jump) into session operations.
package gameplay

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/BR903/brainjam/move"
	"github.com/BR903/brainjam/redo"
	"github.com/BR903/brainjam/redoio"
	"github.com/BR903/brainjam/store"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrNoUndo      = errors.New("already at the start")
	ErrNoRedo      = errors.New("nothing to redo")
	ErrNoBookmark  = errors.New("no bookmark")
	ErrNoPrevious  = errors.New("no previous position")
	ErrNoBetter    = errors.New("no better position known")
	ErrNoSolution  = errors.New("no solution recorded from here")
)

// Engine is a rule engine that can list its legal moves.
type Engine interface {
	redoio.Game
	LegalMoves() []move.ID
}

// Storage is where sessions are saved. store.Store satisfies it.
type Storage interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
}

// Gameplay is one game being played with a redo session behind it.
type Gameplay struct {
	game    Engine
	session *redo.Session

	current redo.PosID
	// previous is the position current was before the last jump.
	previous redo.PosID

	branching bool
	mode      redo.CheckMode
}

// New starts at the session's root and puts the game into the root state.
func New(g Engine, s *redo.Session) *Gameplay {
	gp := &Gameplay{
		game:      g,
		session:   s,
		current:   s.Root(),
		previous:  redo.NoPosition,
		branching: true,
		mode:      redo.Check,
	}
	g.RestoreSnapshot(s.State(s.Root()))
	return gp
}

// Start creates a fresh session whose root is the game's current state.
func Start(g Engine, comparableLength int, policy redo.GraftPolicy) (*Gameplay, error) {
	s, err := redo.New(g.Snapshot(), comparableLength, policy)
	if err != nil {
		return nil, err
	}
	return New(g, s), nil
}

func (gp *Gameplay) Session() *redo.Session {
	return gp.session
}

func (gp *Gameplay) Game() Engine {
	return gp.game
}

func (gp *Gameplay) Current() redo.PosID {
	return gp.current
}

func (gp *Gameplay) Previous() redo.PosID {
	return gp.previous
}

func (gp *Gameplay) Depth() int {
	return gp.session.Depth(gp.current)
}

func (gp *Gameplay) Branching() bool {
	return gp.branching
}

// SetBranching turns branching on or off. With branching off, a move that
// differs from the recorded next move replaces the recorded future.
func (gp *Gameplay) SetBranching(b bool) {
	gp.branching = b
}

func (gp *Gameplay) CheckMode() redo.CheckMode {
	return gp.mode
}

func (gp *Gameplay) SetCheckMode(m redo.CheckMode) {
	gp.mode = m
}

func (gp *Gameplay) LegalMoves() []move.ID {
	return gp.game.LegalMoves()
}

// Move plays m from the current position.
func (gp *Gameplay) Move(m move.ID) (redo.PosID, error) {
	s := gp.session
	if !gp.game.ApplyMove(m) {
		return redo.NoPosition, fmt.Errorf("%w: %v", ErrIllegalMove, m)
	}
	if !gp.branching && s.NextPosition(gp.current, m) == redo.NoPosition &&
		s.NumBranches(gp.current) > 0 {
		if err := s.EraseBranches(gp.current); err != nil {
			gp.game.RestoreSnapshot(s.State(gp.current))
			return redo.NoPosition, err
		}
		gp.forgetLost()
	}
	next, err := s.AddMove(gp.current, m, gp.game.Snapshot(), gp.game.IsEndpoint(), gp.mode)
	if err != nil {
		gp.game.RestoreSnapshot(s.State(gp.current))
		return redo.NoPosition, err
	}
	gp.current = next
	return next, nil
}

// Undo steps back to the parent position.
func (gp *Gameplay) Undo() error {
	parent := gp.session.Parent(gp.current)
	if parent == redo.NoPosition {
		return ErrNoUndo
	}
	gp.moveTo(parent)
	return nil
}

// Redo follows the most recently used branch.
func (gp *Gameplay) Redo() error {
	b, ok := gp.session.NextMove(gp.current)
	if !ok {
		return ErrNoRedo
	}
	gp.moveTo(gp.session.Follow(gp.current, b.Move))
	return nil
}

// RedoMove follows the recorded branch for m, making it the most recently
// used.
func (gp *Gameplay) RedoMove(m move.ID) error {
	next := gp.session.Follow(gp.current, m)
	if next == redo.NoPosition {
		return fmt.Errorf("%w: %v", ErrNoRedo, m)
	}
	gp.moveTo(next)
	return nil
}

func (gp *Gameplay) moveTo(id redo.PosID) {
	gp.current = id
	gp.game.RestoreSnapshot(gp.session.State(id))
}

// JumpTo makes p current and remembers where we were.
func (gp *Gameplay) JumpTo(p redo.PosID) error {
	if !gp.session.Valid(p) {
		return redo.ErrNoPosition
	}
	if p != gp.current {
		gp.previous = gp.current
	}
	gp.moveTo(p)
	return nil
}

// JumpToDepth jumps back along the path to the current position.
func (gp *Gameplay) JumpToDepth(depth int) error {
	id := gp.current
	if depth < 0 || depth > gp.session.Depth(id) {
		return fmt.Errorf("%w: depth %d", redo.ErrNoPosition, depth)
	}
	for gp.session.Depth(id) > depth {
		id = gp.session.Parent(id)
	}
	return gp.JumpTo(id)
}

// SwitchToPrevious jumps back to the position current was before the last
// jump.
func (gp *Gameplay) SwitchToPrevious() error {
	if !gp.session.Valid(gp.previous) {
		return ErrNoPrevious
	}
	return gp.JumpTo(gp.previous)
}

// JumpToBetter jumps to the best known position with the same layout as
// the current one.
func (gp *Gameplay) JumpToBetter() error {
	if gp.session.NeedsRecompute() {
		gp.session.RecomputeBetterLinks()
	}
	best := gp.session.Best(gp.current)
	if best == gp.current {
		return ErrNoBetter
	}
	return gp.JumpTo(best)
}

// Erase removes the current position and everything after it, leaving
// its parent current. At the root it erases every branch.
func (gp *Gameplay) Erase() error {
	s := gp.session
	if gp.current == s.Root() {
		err := s.EraseBranches(gp.current)
		gp.forgetLost()
		return err
	}
	parent, err := s.Erase(gp.current)
	if err != nil {
		return err
	}
	gp.moveTo(parent)
	gp.forgetLost()
	return nil
}

func (gp *Gameplay) forgetLost() {
	if !gp.session.Valid(gp.previous) {
		gp.previous = redo.NoPosition
	}
}

func (gp *Gameplay) PushBookmark() {
	gp.session.Bookmarks().Push(gp.current)
}

// PopBookmark jumps to the most recent bookmark and removes it.
func (gp *Gameplay) PopBookmark() error {
	p, ok := gp.session.Bookmarks().Pop()
	if !ok {
		return ErrNoBookmark
	}
	return gp.JumpTo(p)
}

// SwapBookmark replaces the most recent bookmark with the current position
// and jumps to where the bookmark was.
func (gp *Gameplay) SwapBookmark() error {
	p, ok := gp.session.Bookmarks().Swap(gp.current)
	if !ok {
		return ErrNoBookmark
	}
	return gp.JumpTo(p)
}

func (gp *Gameplay) DropBookmark() error {
	if !gp.session.Bookmarks().Drop() {
		return ErrNoBookmark
	}
	return nil
}

// FollowMinimalPath orders the branches so that redo follows a shortest
// known solution from the current position, then jumps to its end.
func (gp *Gameplay) FollowMinimalPath() (redo.PosID, error) {
	if gp.session.SolutionSize(gp.current) == 0 {
		return redo.NoPosition, ErrNoSolution
	}
	end := gp.session.SetMinimalPath(gp.current)
	return end, gp.JumpTo(end)
}

// Save writes the session under key and marks it clean.
func (gp *Gameplay) Save(st Storage, key string) error {
	s := gp.session
	if s.NeedsRecompute() {
		s.RecomputeBetterLinks()
	}
	if err := st.Save(key, redoio.Marshal(s)); err != nil {
		return err
	}
	s.ClearDirty()
	log.Debug().Str("key", key).Int("positions", s.Len()).Msg("saved-session")
	return nil
}

// Load replays the session saved under key into this one and returns to
// the root. A missing session is not an error.
func (gp *Gameplay) Load(st Storage, key string) (redoio.Report, error) {
	data, err := st.Load(key)
	if errors.Is(err, store.ErrNotFound) {
		return redoio.Report{}, nil
	} else if err != nil {
		return redoio.Report{}, err
	}
	rep, err := redoio.Unmarshal(data, gp.session, gp.game)
	gp.current = gp.session.Root()
	gp.previous = redo.NoPosition
	gp.game.RestoreSnapshot(gp.session.State(gp.current))
	if !rep.Clean() {
		log.Warn().Str("key", key).Int("skipped", rep.Skipped).Int("corrupt", rep.Corrupt).
			Bool("truncated", rep.Truncated).Msg("session-partially-loaded")
	}
	return rep, err
}
