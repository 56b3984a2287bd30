package treestats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/BR903/brainjam/move"
	"github.com/BR903/brainjam/redo"
)

func add(t *testing.T, s *redo.Session, from redo.PosID, card int, value byte, endpoint bool) redo.PosID {
	t.Helper()
	id, err := s.AddMove(from, move.New(card, false), []byte{value, byte(card)}, endpoint, redo.Check)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestCollect(t *testing.T) {
	is := is.New(t)
	s, err := redo.New([]byte{0, 0}, 1, redo.GraftCopy)
	is.NoErr(err)
	a := add(t, s, s.Root(), 1, 1, false)
	add(t, s, a, 2, 3, false)
	add(t, s, a, 4, 5, true)
	add(t, s, s.Root(), 3, 3, false)
	s.Bookmarks().Push(a)

	st := Collect(s)
	is.Equal(st.Positions, 5)
	is.Equal(st.Leaves, 3)
	is.Equal(st.BranchPoints, 2)
	is.Equal(st.Endpoints, 1)
	is.Equal(st.Transposed, 1)
	is.Equal(st.MaxDepth, 2)
	is.Equal(st.Solution, 2)
	is.Equal(st.Bookmarks, 1)
	// Leaves at depths 2, 2 and 1.
	is.True(math.Abs(st.LeafDepthMean-5.0/3) < 1e-9)
	is.True(st.LeafDepthStdev > 0)

	out, err := st.YAML()
	is.NoErr(err)
	is.True(strings.Contains(out, "positions: 5"))
	is.True(strings.Contains(out, "branch_points: 2"))

	var buf bytes.Buffer
	is.NoErr(st.Histogram(&buf))
	is.True(buf.Len() > 0)
}

func TestCollectEmpty(t *testing.T) {
	is := is.New(t)
	s, err := redo.New([]byte{0, 0}, 1, redo.GraftCopy)
	is.NoErr(err)
	st := Collect(s)
	is.Equal(st.Positions, 1)
	is.Equal(st.Leaves, 0)
	is.Equal(st.MaxDepth, 0)

	var buf bytes.Buffer
	is.NoErr(st.Histogram(&buf))
	is.Equal(buf.Len(), 0)
}
