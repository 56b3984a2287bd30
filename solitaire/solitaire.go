// Package solitaire is a small freecell-style patience used as the rule
// engine behind a redo session. Cards are built up on foundations by suit;
// in the tableau a card may be placed on the next higher card of its own
// suit. Only single cards move.
//
// A move is named by the card being moved and whether it goes to its first
// or second choice of destination. The preference order is part of the
// session file format: changing it changes what old files replay to.
package solitaire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"lukechampine.com/frand"

	"github.com/BR903/brainjam/move"
)

type Layout struct {
	Suits   int
	Ranks   int
	Columns int
	Cells   int
}

var DefaultLayout = Layout{Suits: 4, Ranks: 7, Columns: 6, Cells: 2}

var ErrBadLayout = errors.New("unsupported layout")

const (
	rankNames = "A23456789TJQK"
	suitNames = "CDHS"
)

func (l Layout) NumCards() int {
	return l.Suits * l.Ranks
}

func (l Layout) Validate() error {
	if l.Suits < 1 || l.Suits > len(suitNames) || l.Ranks < 1 || l.Ranks > len(rankNames) ||
		l.Columns < 1 || l.Cells < 0 || l.NumCards() > move.MaxCard {
		return fmt.Errorf("%w: %d suits of %d ranks, %d columns, %d cells",
			ErrBadLayout, l.Suits, l.Ranks, l.Columns, l.Cells)
	}
	return nil
}

// SnapshotSize is the size of every snapshot for this layout: the tableau
// with a terminator per column, the cells, the foundation tops, and two
// presentation-only bytes.
func (l Layout) SnapshotSize() int {
	return l.NumCards() + l.Columns + l.Cells + l.Suits + 2
}

// ComparableLength excludes the move counter and the last card moved.
func (l Layout) ComparableLength() int {
	return l.SnapshotSize() - 2
}

func (l Layout) suit(card byte) int {
	return (int(card) - 1) / l.Ranks
}

func (l Layout) rank(card byte) int {
	return (int(card)-1)%l.Ranks + 1
}

// CardName returns a two-letter name such as "7H".
func (l Layout) CardName(card int) string {
	if card < 1 || card > l.NumCards() {
		return "??"
	}
	c := byte(card)
	return string(rankNames[l.rank(c)-1]) + string(suitNames[l.suit(c)])
}

// ParseCard accepts either a card number or a card name.
func (l Layout) ParseCard(s string) (int, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for c := 1; c <= l.NumCards(); c++ {
		if l.CardName(c) == s || fmt.Sprint(c) == s {
			return c, true
		}
	}
	return 0, false
}

// GameKey names the saved session for game n in this layout. Sessions for
// different layouts never share a key.
func (l Layout) GameKey(n uint32) string {
	return fmt.Sprintf("s%dr%dc%df%d-%d", l.Suits, l.Ranks, l.Columns, l.Cells, n)
}

// ParseGameKey is the inverse of GameKey.
func ParseGameKey(key string) (Layout, uint32, error) {
	var l Layout
	var n uint32
	if _, err := fmt.Sscanf(key, "s%dr%dc%df%d-%d", &l.Suits, &l.Ranks, &l.Columns, &l.Cells, &n); err != nil {
		return Layout{}, 0, fmt.Errorf("bad game key %q: %w", key, err)
	}
	if l.GameKey(n) != key {
		return Layout{}, 0, fmt.Errorf("bad game key %q", key)
	}
	return l, n, l.Validate()
}

type placeKind int

const (
	toFoundation placeKind = iota
	toColumn
	toCell
)

type place struct {
	kind  placeKind
	index int
}

// Game is one deal in progress.
type Game struct {
	layout     Layout
	columns    [][]byte
	cells      []byte
	foundation []byte
	moves      int
	last       byte
}

// Deal lays out game number n. The same number always gives the same deal.
func Deal(l Layout, n uint32) (*Game, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	var seed [32]byte
	binary.LittleEndian.PutUint32(seed[:], n)
	binary.LittleEndian.PutUint32(seed[4:], uint32(l.NumCards()))
	rng := frand.NewCustom(seed[:], 1024, 12)

	deck := make([]byte, l.NumCards())
	for i := range deck {
		deck[i] = byte(i + 1)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	columns := make([][]byte, l.Columns)
	for i, c := range deck {
		columns[i%l.Columns] = append(columns[i%l.Columns], c)
	}
	return newGame(l, columns), nil
}

func newGame(l Layout, columns [][]byte) *Game {
	return &Game{
		layout:     l,
		columns:    columns,
		cells:      make([]byte, l.Cells),
		foundation: make([]byte, l.Suits),
	}
}

func (g *Game) Layout() Layout {
	return g.layout
}

// Moves is the number of moves made to reach the current layout.
func (g *Game) Moves() int {
	return g.moves
}

// locate finds where a movable card is. Cards buried in a column or already
// on a foundation cannot move.
func (g *Game) locate(card byte) (place, bool) {
	for i, col := range g.columns {
		if len(col) > 0 && col[len(col)-1] == card {
			return place{toColumn, i}, true
		}
	}
	for i, c := range g.cells {
		if c == card {
			return place{toCell, i}, true
		}
	}
	return place{}, false
}

// destinations lists the legal destinations for a card in preference order:
// its foundation, a column topped by the next higher card of the same suit,
// the first empty column, the first empty cell.
func (g *Game) destinations(card byte) []place {
	from, ok := g.locate(card)
	if !ok {
		return nil
	}
	l := g.layout
	var dests []place
	if int(g.foundation[l.suit(card)]) == l.rank(card)-1 {
		dests = append(dests, place{toFoundation, l.suit(card)})
	}
	if l.rank(card) < l.Ranks {
		for i, col := range g.columns {
			if from.kind == toColumn && from.index == i {
				continue
			}
			if len(col) > 0 && col[len(col)-1] == card+1 {
				dests = append(dests, place{toColumn, i})
			}
		}
	}
	for i, col := range g.columns {
		if len(col) == 0 {
			if !(from.kind == toColumn && len(g.columns[from.index]) == 1) {
				dests = append(dests, place{toColumn, i})
			}
			break
		}
	}
	if from.kind != toCell {
		for i, c := range g.cells {
			if c == 0 {
				dests = append(dests, place{toCell, i})
				break
			}
		}
	}
	return dests
}

// LegalMoves lists every move that ApplyMove would currently accept.
func (g *Game) LegalMoves() []move.ID {
	var moves []move.ID
	for card := 1; card <= g.layout.NumCards(); card++ {
		dests := g.destinations(byte(card))
		for i := 0; i < len(dests) && i < 2; i++ {
			moves = append(moves, move.New(card, i == 1))
		}
	}
	return moves
}

// ApplyMove makes a move if it is legal.
func (g *Game) ApplyMove(m move.ID) bool {
	if !m.Valid() || m.Card() > g.layout.NumCards() {
		return false
	}
	card := byte(m.Card())
	dests := g.destinations(card)
	choice := 0
	if m.Alt() {
		choice = 1
	}
	if choice >= len(dests) {
		return false
	}
	from, _ := g.locate(card)
	switch from.kind {
	case toColumn:
		col := g.columns[from.index]
		g.columns[from.index] = col[:len(col)-1]
	case toCell:
		g.cells[from.index] = 0
	}
	to := dests[choice]
	switch to.kind {
	case toFoundation:
		g.foundation[to.index]++
	case toColumn:
		g.columns[to.index] = append(g.columns[to.index], card)
	case toCell:
		g.cells[to.index] = card
	}
	g.moves++
	g.last = card
	return true
}

// IsEndpoint is true once every card is on its foundation.
func (g *Game) IsEndpoint() bool {
	for _, f := range g.foundation {
		if int(f) != g.layout.Ranks {
			return false
		}
	}
	return true
}

// Snapshot encodes the current layout.
func (g *Game) Snapshot() []byte {
	l := g.layout
	buf := make([]byte, l.SnapshotSize())
	off := 0
	for _, col := range g.columns {
		off += copy(buf[off:], col)
		off++ // terminator
	}
	off = l.NumCards() + l.Columns
	off += copy(buf[off:], g.cells)
	off += copy(buf[off:], g.foundation)
	buf[off] = byte(g.moves)
	buf[off+1] = g.last
	return buf
}

// RestoreSnapshot puts the game back into a state taken by Snapshot.
func (g *Game) RestoreSnapshot(state []byte) {
	l := g.layout
	if len(state) != l.SnapshotSize() {
		return
	}
	off := 0
	for i := range g.columns {
		g.columns[i] = g.columns[i][:0]
		for state[off] != 0 {
			g.columns[i] = append(g.columns[i], state[off])
			off++
		}
		off++
	}
	off = l.NumCards() + l.Columns
	off += copy(g.cells, state[off:off+l.Cells])
	off += copy(g.foundation, state[off:off+l.Suits])
	g.moves = int(state[off])
	g.last = state[off+1]
}

// IsSolved reports whether a snapshot shows every card home.
func (l Layout) IsSolved(state []byte) bool {
	if len(state) != l.SnapshotSize() {
		return false
	}
	off := l.NumCards() + l.Columns + l.Cells
	for _, f := range state[off : off+l.Suits] {
		if int(f) != l.Ranks {
			return false
		}
	}
	return true
}

func (g *Game) String() string {
	l := g.layout
	var sb strings.Builder
	sb.WriteString("foundations:")
	for s, f := range g.foundation {
		if f == 0 {
			sb.WriteString(" --")
		} else {
			sb.WriteString(" " + l.CardName(s*l.Ranks+int(f)))
		}
	}
	sb.WriteString("   cells:")
	for _, c := range g.cells {
		if c == 0 {
			sb.WriteString(" --")
		} else {
			sb.WriteString(" " + l.CardName(int(c)))
		}
	}
	sb.WriteString("\n")
	for i, col := range g.columns {
		fmt.Fprintf(&sb, "%2d:", i+1)
		for _, c := range col {
			sb.WriteString(" " + l.CardName(int(c)))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "moves: %d", g.moves)
	if g.last != 0 {
		sb.WriteString("  last: " + l.CardName(int(g.last)))
	}
	return sb.String()
}
