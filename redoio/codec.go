// Package redoio reads and writes redo sessions. A session file is a
// depth-first, move-only encoding of the position tree: one byte per move,
// with brackets only where a position has more than one branch. Snapshots
// are not stored; reading a file replays every move through the rule
// engine.
package redoio

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/BR903/brainjam/move"
	"github.com/BR903/brainjam/redo"
)

// Stream bytes. A byte whose low five bits are zero is a marker; anything
// else is a move identifier, optionally carrying BetterFlag.
const (
	BranchOpen  byte = 0x20
	Sibling     byte = 0x40
	BranchClose byte = 0x60

	// BetterFlag is set on a move byte when the position it leads to had a
	// better link when the file was written.
	BetterFlag byte = 0x80

	markerMask byte = 0x1F
)

// Game is the part of the rule engine the codec needs in order to replay a
// file.
type Game interface {
	ApplyMove(m move.ID) bool
	Snapshot() []byte
	RestoreSnapshot(state []byte)
	IsEndpoint() bool
}

// Report summarizes a decode. Problems in the stream are recovered from,
// so they are counted here rather than returned as errors.
type Report struct {
	Positions int
	// Skipped counts move bytes that were not turned into positions,
	// either because the move was illegal or because an earlier move on
	// the same line was.
	Skipped   int
	Corrupt   int
	Truncated bool
	// HintMismatches counts positions whose stored better flag disagrees
	// with the recomputed link.
	HintMismatches int
}

// Clean is true if the whole stream was replayed without trouble.
func (r Report) Clean() bool {
	return r.Skipped == 0 && r.Corrupt == 0 && !r.Truncated
}

var errStreamEnded = errors.New("stream ended")

func isMoveByte(c byte) bool {
	return c&markerMask != 0 && move.ID(c&^BetterFlag).Valid()
}

// Encode writes the tree below the session's root to w.
func Encode(w io.Writer, s *redo.Session) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw, s: s}
	e.subtree(s.Root())
	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

// Marshal returns the encoding of the session.
func Marshal(s *redo.Session) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer do not fail.
	_ = Encode(&buf, s)
	return buf.Bytes()
}

type encoder struct {
	w   *bufio.Writer
	s   *redo.Session
	err error
}

func (e *encoder) put(c byte) {
	if e.err == nil {
		e.err = e.w.WriteByte(c)
	}
}

func (e *encoder) move(b redo.Branch) {
	c := byte(b.Move)
	if e.s.Better(b.Child) != redo.NoPosition {
		c |= BetterFlag
	}
	e.put(c)
}

func (e *encoder) subtree(p redo.PosID) {
	for {
		br := e.s.Branches(p)
		switch len(br) {
		case 0:
			return
		case 1:
			// A linear run needs no brackets.
			e.move(br[0])
			p = br[0].Child
		default:
			// Siblings are written tail first, so that replaying them
			// in order, each becoming the new head, restores the MRU
			// order.
			e.put(BranchOpen)
			for i := len(br) - 1; i >= 0; i-- {
				e.move(br[i])
				e.subtree(br[i].Child)
				if i > 0 {
					e.put(Sibling)
				}
			}
			e.put(BranchClose)
			return
		}
	}
}

// Decode replays a session stream into s, starting at its root. The game
// is left in the root's state afterwards. Illegal moves and corrupt bytes
// are logged and counted in the report; whatever was decoded before a
// problem is kept. The error is non-nil only when reading fails.
func Decode(r io.Reader, s *redo.Session, g Game) (Report, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &decoder{
		r:     br,
		s:     s,
		g:     g,
		hints: make(map[redo.PosID]bool),
	}

	// Grafting during replay would invent branches the file is about to
	// list itself.
	policy := s.GraftPolicy()
	s.SetGraftPolicy(redo.GraftCopy)
	defer s.SetGraftPolicy(policy)

	g.RestoreSnapshot(s.State(s.Root()))
	term, err := d.subtree(s.Root())
	// A Sibling or BranchClose outside any bracket is corrupt, and so is
	// everything after it.
	for err == nil && term != 0 {
		d.corrupt(term)
		term, err = d.skip()
	}
	g.RestoreSnapshot(s.State(s.Root()))

	s.RecomputeBetterLinks()
	for id, flagged := range d.hints {
		if !s.Valid(id) {
			continue
		}
		if flagged != (s.Better(id) != redo.NoPosition) {
			d.report.HintMismatches++
		}
	}
	if d.report.HintMismatches > 0 {
		log.Debug().Int("mismatches", d.report.HintMismatches).Msg("better-hints-differ")
	}
	if d.report.Clean() && d.err == nil {
		s.ClearDirty()
	}
	log.Debug().Int("positions", d.report.Positions).Int("skipped", d.report.Skipped).
		Int("corrupt", d.report.Corrupt).Msg("decoded-session")
	return d.report, d.err
}

// Unmarshal decodes data into s.
func Unmarshal(data []byte, s *redo.Session, g Game) (Report, error) {
	return Decode(bytes.NewReader(data), s, g)
}

type decoder struct {
	r      io.ByteReader
	s      *redo.Session
	g      Game
	hints  map[redo.PosID]bool
	report Report
	err    error
}

func (d *decoder) next() (byte, error) {
	c, err := d.r.ReadByte()
	if err != nil {
		if err != io.EOF {
			log.Warn().Err(err).Msg("session-read-failed")
			d.err = err
		}
		return 0, errStreamEnded
	}
	return c, nil
}

// subtree decodes moves starting from position p, which the game must
// currently be in. It returns the Sibling or BranchClose byte that ended
// the subtree, or an error if the stream ran out first.
func (d *decoder) subtree(p redo.PosID) (byte, error) {
	for {
		c, err := d.next()
		if err != nil {
			return 0, err
		}
		switch {
		case c == Sibling || c == BranchClose:
			return c, nil
		case c == BranchOpen:
			if err := d.siblings(p); err != nil {
				return 0, err
			}
			// Nothing may follow a bracketed run but the end of the
			// enclosing subtree.
			c, err := d.next()
			if err != nil {
				return 0, err
			}
			if c == Sibling || c == BranchClose {
				return c, nil
			}
			d.corrupt(c)
			return d.skip()
		case isMoveByte(c):
			child, ok := d.replay(p, c)
			if !ok {
				d.report.Skipped++
				return d.skip()
			}
			p = child
		default:
			d.corrupt(c)
			return d.skip()
		}
	}
}

// siblings decodes the contents of a bracket up to and including its
// BranchClose.
func (d *decoder) siblings(p redo.PosID) error {
	for {
		d.g.RestoreSnapshot(d.s.State(p))
		term, err := d.subtree(p)
		if err != nil {
			d.report.Truncated = true
			return err
		}
		if term == BranchClose {
			return nil
		}
	}
}

func (d *decoder) replay(p redo.PosID, c byte) (redo.PosID, bool) {
	m := move.ID(c &^ BetterFlag)
	if !d.g.ApplyMove(m) {
		log.Warn().Stringer("move", m).Int("depth", d.s.Depth(p)).Msg("replay-move-failed")
		return redo.NoPosition, false
	}
	n := d.s.Len()
	child, err := d.s.AddMove(p, m, d.g.Snapshot(), d.g.IsEndpoint(), redo.CheckLater)
	if err != nil {
		log.Warn().Err(err).Stringer("move", m).Msg("replay-add-failed")
		return redo.NoPosition, false
	}
	if d.s.Len() > n {
		d.report.Positions++
	}
	d.hints[child] = c&BetterFlag != 0
	return child, true
}

func (d *decoder) corrupt(c byte) {
	d.report.Corrupt++
	log.Warn().Uint8("byte", c).Msg("corrupt-session-byte")
}

// skip discards the rest of the current subtree, including any nested
// brackets, and returns the byte that ended it.
func (d *decoder) skip() (byte, error) {
	depth := 0
	for {
		c, err := d.next()
		if err != nil {
			return 0, err
		}
		switch {
		case c == BranchOpen:
			depth++
		case c == BranchClose:
			if depth == 0 {
				return c, nil
			}
			depth--
		case c == Sibling:
			if depth == 0 {
				return c, nil
			}
		case isMoveByte(c):
			d.report.Skipped++
		}
	}
}
