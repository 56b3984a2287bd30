package solitaire

import (
	"errors"
	"sort"
	"testing"

	"github.com/matryer/is"

	"github.com/BR903/brainjam/move"
)

var tiny = Layout{Suits: 1, Ranks: 3, Columns: 2, Cells: 1}

func TestDealIsDeterministic(t *testing.T) {
	is := is.New(t)
	g1, err := Deal(DefaultLayout, 5)
	is.NoErr(err)
	g2, err := Deal(DefaultLayout, 5)
	is.NoErr(err)
	is.Equal(g1.Snapshot(), g2.Snapshot())
	g3, err := Deal(DefaultLayout, 6)
	is.NoErr(err)
	is.True(string(g1.Snapshot()) != string(g3.Snapshot()))
}

func TestDealUsesEveryCard(t *testing.T) {
	is := is.New(t)
	g, err := Deal(DefaultLayout, 1)
	is.NoErr(err)
	var cards []int
	for _, col := range g.columns {
		for _, c := range col {
			cards = append(cards, int(c))
		}
	}
	sort.Ints(cards)
	is.Equal(len(cards), DefaultLayout.NumCards())
	for i, c := range cards {
		is.Equal(c, i+1)
	}
	is.Equal(len(g.Snapshot()), DefaultLayout.SnapshotSize())
}

func TestBadLayout(t *testing.T) {
	is := is.New(t)
	_, err := Deal(Layout{Suits: 4, Ranks: 8, Columns: 6, Cells: 2}, 1)
	is.True(errors.Is(err, ErrBadLayout))
	_, err = Deal(Layout{Suits: 1, Ranks: 3, Columns: 0}, 1)
	is.True(errors.Is(err, ErrBadLayout))
}

func TestSolveTinyGame(t *testing.T) {
	is := is.New(t)
	g := newGame(tiny, [][]byte{{2, 1}, {3}})
	is.True(!g.IsEndpoint())
	for _, card := range []int{1, 2, 3} {
		is.True(g.ApplyMove(move.New(card, false)))
	}
	is.True(g.IsEndpoint())
	is.True(tiny.IsSolved(g.Snapshot()))
	is.Equal(g.Moves(), 3)
	is.Equal(len(g.LegalMoves()), 0)
}

func TestAltDestination(t *testing.T) {
	is := is.New(t)
	g := newGame(tiny, [][]byte{{3, 1}, {2}})
	// The ace can go home, or onto the two. The two can only go to the
	// cell.
	is.Equal(g.LegalMoves(), []move.ID{move.New(1, false), move.New(1, true),
		move.New(2, false)})
	is.True(g.ApplyMove(move.New(1, true)))
	is.Equal(g.columns[1], []byte{2, 1})
	is.Equal(g.foundation[0], byte(0))
}

func TestIllegalMoves(t *testing.T) {
	is := is.New(t)
	g := newGame(tiny, [][]byte{{3, 2}, {1}})
	before := g.Snapshot()
	// 3 is buried.
	is.True(!g.ApplyMove(move.New(3, false)))
	is.True(g.ApplyMove(move.New(1, false)))
	is.Equal(g.foundation[0], byte(1))
	g.RestoreSnapshot(before)
	is.True(!g.ApplyMove(move.New(9, false)))
	is.True(!g.ApplyMove(move.Invalid))
	is.Equal(g.Snapshot(), before)
}

func TestSnapshotRestore(t *testing.T) {
	is := is.New(t)
	g, err := Deal(DefaultLayout, 11)
	is.NoErr(err)
	start := g.Snapshot()
	for i := 0; i < 10; i++ {
		moves := g.LegalMoves()
		if len(moves) == 0 {
			break
		}
		is.True(g.ApplyMove(moves[i%len(moves)]))
	}
	mid := g.Snapshot()
	g.RestoreSnapshot(start)
	is.Equal(g.Snapshot(), start)
	g.RestoreSnapshot(mid)
	is.Equal(g.Snapshot(), mid)
}

func TestPresentationBytesNotCompared(t *testing.T) {
	is := is.New(t)
	// Moving the ace into the cell and back leaves the same layout with a
	// different move count.
	g := newGame(tiny, [][]byte{{3}, {2, 1}})
	start := g.Snapshot()
	is.True(g.ApplyMove(move.New(1, true)))
	is.True(g.ApplyMove(move.New(1, true)))
	end := g.Snapshot()
	n := tiny.ComparableLength()
	is.Equal(start[:n], end[:n])
	is.True(string(start) != string(end))
}

func TestCardNames(t *testing.T) {
	is := is.New(t)
	l := DefaultLayout
	is.Equal(l.CardName(1), "AC")
	is.Equal(l.CardName(8), "AD")
	is.Equal(l.CardName(28), "7S")
	is.Equal(l.CardName(0), "??")
	c, ok := l.ParseCard("7s")
	is.True(ok)
	is.Equal(c, 28)
	c, ok = l.ParseCard("12")
	is.True(ok)
	is.Equal(c, 12)
	_, ok = l.ParseCard("KS")
	is.True(!ok)
}

func TestGameKey(t *testing.T) {
	is := is.New(t)
	key := DefaultLayout.GameKey(42)
	is.Equal(key, "s4r7c6f2-42")
	l, n, err := ParseGameKey(key)
	is.NoErr(err)
	is.Equal(l, DefaultLayout)
	is.Equal(n, uint32(42))

	_, _, err = ParseGameKey("notes")
	is.True(err != nil)
	_, _, err = ParseGameKey("s4r9c6f2-1")
	is.True(errors.Is(err, ErrBadLayout))
}
