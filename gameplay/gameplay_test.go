package gameplay

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/BR903/brainjam/move"
	"github.com/BR903/brainjam/redo"
	"github.com/BR903/brainjam/store"
)

// adder is a toy engine: each move adds its card to a running total mod
// 10, cards up to 5 are legal, and a total of 9 is a solution. Only the
// total is compared; the second byte counts moves.
type adder struct {
	total, steps byte
}

func (a *adder) ApplyMove(m move.ID) bool {
	if !m.Valid() || m.Alt() || m.Card() > 5 {
		return false
	}
	a.total = (a.total + byte(m.Card())) % 10
	a.steps++
	return true
}

func (a *adder) Snapshot() []byte {
	return []byte{a.total, a.steps}
}

func (a *adder) RestoreSnapshot(st []byte) {
	a.total, a.steps = st[0], st[1]
}

func (a *adder) IsEndpoint() bool {
	return a.total == 9
}

func (a *adder) LegalMoves() []move.ID {
	var ms []move.ID
	for c := 1; c <= 5; c++ {
		ms = append(ms, move.New(c, false))
	}
	return ms
}

func mv(c int) move.ID {
	return move.New(c, false)
}

func newGameplay(t *testing.T) (*Gameplay, *adder) {
	t.Helper()
	g := &adder{}
	gp, err := Start(g, 1, redo.GraftCopy)
	if err != nil {
		t.Fatal(err)
	}
	return gp, g
}

func play(t *testing.T, gp *Gameplay, cards ...int) {
	t.Helper()
	for _, c := range cards {
		if _, err := gp.Move(mv(c)); err != nil {
			t.Fatalf("move %d: %v", c, err)
		}
	}
}

func TestMoveUndoRedo(t *testing.T) {
	is := is.New(t)
	gp, g := newGameplay(t)
	is.Equal(gp.Undo(), ErrNoUndo)
	is.Equal(gp.Redo(), ErrNoRedo)

	play(t, gp, 1, 2)
	is.Equal(gp.Depth(), 2)
	is.Equal(g.total, byte(3))

	is.NoErr(gp.Undo())
	is.Equal(gp.Depth(), 1)
	is.Equal(g.total, byte(1))
	is.Equal(g.steps, byte(1))

	is.NoErr(gp.Redo())
	is.Equal(gp.Depth(), 2)
	is.Equal(g.total, byte(3))
	is.Equal(gp.Redo(), ErrNoRedo)
}

func TestIllegalMove(t *testing.T) {
	is := is.New(t)
	gp, g := newGameplay(t)
	play(t, gp, 2)
	_, err := gp.Move(mv(7))
	is.True(errors.Is(err, ErrIllegalMove))
	is.Equal(gp.Depth(), 1)
	is.Equal(g.total, byte(2))
	is.Equal(gp.Session().Len(), 2)
}

func TestRedoMove(t *testing.T) {
	is := is.New(t)
	gp, _ := newGameplay(t)
	play(t, gp, 1)
	is.NoErr(gp.Undo())
	play(t, gp, 2)
	is.NoErr(gp.Undo())
	s := gp.Session()
	head, _ := s.NextMove(s.Root())
	is.Equal(head.Move, mv(2))

	is.NoErr(gp.RedoMove(mv(1)))
	is.Equal(gp.Depth(), 1)
	head, _ = s.NextMove(s.Root())
	is.Equal(head.Move, mv(1))
	is.NoErr(gp.Undo())
	is.True(errors.Is(gp.RedoMove(mv(3)), ErrNoRedo))
}

func TestBranchingOff(t *testing.T) {
	is := is.New(t)
	gp, _ := newGameplay(t)
	s := gp.Session()
	play(t, gp, 1, 2)
	is.NoErr(gp.JumpTo(s.Root()))

	// Replaying the recorded move keeps the recorded future.
	gp.SetBranching(false)
	play(t, gp, 1)
	is.Equal(s.Len(), 3)
	is.NoErr(gp.Undo())

	// A different move replaces it.
	play(t, gp, 3)
	is.Equal(s.Len(), 2)
	is.Equal(s.NumBranches(s.Root()), 1)
	is.Equal(gp.Previous(), redo.NoPosition)
}

func TestBranchingOn(t *testing.T) {
	is := is.New(t)
	gp, _ := newGameplay(t)
	s := gp.Session()
	play(t, gp, 1, 2)
	is.NoErr(gp.JumpTo(s.Root()))
	play(t, gp, 3)
	is.Equal(s.Len(), 4)
	is.Equal(s.NumBranches(s.Root()), 2)
	head, _ := s.NextMove(s.Root())
	is.Equal(head.Move, mv(3))
}

func TestJumpAndPrevious(t *testing.T) {
	is := is.New(t)
	gp, g := newGameplay(t)
	is.Equal(gp.SwitchToPrevious(), ErrNoPrevious)
	play(t, gp, 1, 2)
	leaf := gp.Current()

	is.NoErr(gp.JumpToDepth(0))
	is.Equal(gp.Current(), gp.Session().Root())
	is.Equal(g.total, byte(0))
	is.NoErr(gp.SwitchToPrevious())
	is.Equal(gp.Current(), leaf)
	is.NoErr(gp.SwitchToPrevious())
	is.Equal(gp.Current(), gp.Session().Root())

	is.True(gp.JumpToDepth(5) != nil)
	is.True(errors.Is(gp.JumpTo(99), redo.ErrNoPosition))
}

func TestJumpToBetter(t *testing.T) {
	is := is.New(t)
	gp, g := newGameplay(t)
	s := gp.Session()
	play(t, gp, 1, 2)
	long := gp.Current()
	is.NoErr(gp.JumpTo(s.Root()))
	play(t, gp, 3)
	short := gp.Current()

	is.NoErr(gp.JumpTo(long))
	is.NoErr(gp.JumpToBetter())
	is.Equal(gp.Current(), short)
	is.Equal(g.steps, byte(1))
	is.Equal(gp.JumpToBetter(), ErrNoBetter)
}

func TestJumpToBetterRecomputes(t *testing.T) {
	is := is.New(t)
	gp, _ := newGameplay(t)
	gp.SetCheckMode(redo.NoCheck)
	s := gp.Session()
	play(t, gp, 1, 2)
	long := gp.Current()
	is.NoErr(gp.JumpTo(s.Root()))
	play(t, gp, 3)
	is.True(s.NeedsRecompute())
	is.NoErr(gp.JumpTo(long))
	is.NoErr(gp.JumpToBetter())
	is.Equal(gp.Depth(), 1)
	is.True(!s.NeedsRecompute())
}

func TestErase(t *testing.T) {
	is := is.New(t)
	gp, g := newGameplay(t)
	s := gp.Session()
	play(t, gp, 1, 2)
	is.NoErr(gp.Erase())
	is.Equal(gp.Depth(), 1)
	is.Equal(g.total, byte(1))
	is.Equal(s.Len(), 2)

	play(t, gp, 4)
	is.NoErr(gp.JumpTo(s.Root()))
	play(t, gp, 2)
	is.NoErr(gp.Undo())
	is.NoErr(gp.Erase())
	is.Equal(s.Len(), 1)
	is.Equal(gp.Current(), s.Root())
}

func TestBookmarks(t *testing.T) {
	is := is.New(t)
	gp, _ := newGameplay(t)
	is.Equal(gp.PopBookmark(), ErrNoBookmark)
	is.Equal(gp.SwapBookmark(), ErrNoBookmark)
	is.Equal(gp.DropBookmark(), ErrNoBookmark)

	play(t, gp, 1)
	first := gp.Current()
	gp.PushBookmark()
	play(t, gp, 2)
	second := gp.Current()

	is.NoErr(gp.SwapBookmark())
	is.Equal(gp.Current(), first)
	is.NoErr(gp.PopBookmark())
	is.Equal(gp.Current(), second)
	is.Equal(gp.PopBookmark(), ErrNoBookmark)

	gp.PushBookmark()
	is.NoErr(gp.DropBookmark())
	is.Equal(gp.Session().Bookmarks().Len(), 0)
}

func TestFollowMinimalPath(t *testing.T) {
	is := is.New(t)
	gp, g := newGameplay(t)
	s := gp.Session()
	_, err := gp.FollowMinimalPath()
	is.Equal(err, ErrNoSolution)

	play(t, gp, 4, 5)
	is.True(g.IsEndpoint())
	short := gp.Current()
	is.NoErr(gp.JumpTo(s.Root()))
	play(t, gp, 1, 3, 5)
	is.True(g.IsEndpoint())
	is.Equal(s.SolutionSize(s.Root()), 2)

	is.NoErr(gp.JumpTo(s.Root()))
	end, err := gp.FollowMinimalPath()
	is.NoErr(err)
	is.Equal(end, short)
	is.Equal(gp.Current(), short)
	head, _ := s.NextMove(s.Root())
	is.Equal(head.Move, mv(4))
}

func TestSaveLoad(t *testing.T) {
	is := is.New(t)
	st, err := store.NewFileStore(t.TempDir())
	is.NoErr(err)

	gp, _ := newGameplay(t)
	play(t, gp, 1, 2)
	is.NoErr(gp.JumpTo(gp.Session().Root()))
	play(t, gp, 3, 4)
	is.True(gp.Session().Dirty())
	is.NoErr(gp.Save(st, "g1"))
	is.True(!gp.Session().Dirty())

	fresh, g := newGameplay(t)
	rep, err := fresh.Load(st, "g1")
	is.NoErr(err)
	is.True(rep.Clean())
	is.Equal(rep.Positions, 4)
	is.Equal(fresh.Session().Len(), 5)
	is.Equal(fresh.Current(), fresh.Session().Root())
	is.Equal(g.total, byte(0))
	is.True(!fresh.Session().Dirty())

	other, _ := newGameplay(t)
	rep, err = other.Load(st, "missing")
	is.NoErr(err)
	is.Equal(rep.Positions, 0)
}

func TestSaveRecomputesLinks(t *testing.T) {
	is := is.New(t)
	st, err := store.NewFileStore(t.TempDir())
	is.NoErr(err)
	gp, _ := newGameplay(t)
	gp.SetCheckMode(redo.NoCheck)
	s := gp.Session()
	play(t, gp, 1, 2)
	long := gp.Current()
	is.NoErr(gp.JumpTo(s.Root()))
	play(t, gp, 3)
	is.Equal(s.Better(long), redo.NoPosition)

	is.NoErr(gp.Save(st, "g2"))
	is.True(!s.NeedsRecompute())
	is.Equal(s.Better(long), gp.Current())
}
