// Package move defines the compact move identifier stored on every branch of
// a redo tree. An identifier names the card being moved plus which of its
// legal destinations was chosen, rather than a raw board coordinate, so it
// stays stable when the game is replayed.
package move

import (
	"errors"
	"strconv"
	"strings"
)

// ID is a 6-bit representation of a move.
//
// Schema:
//
//	 7    3
//	xxxx xxxx
//	  AC CCCC
//
// C - card number (1-31; 0 is never a card)
// A - alt destination (0 = first choice, 1 = second choice)
//
// Bits 6 and 7 are always zero in a valid ID; the session file format uses
// them for its own purposes.
type ID uint8

const (
	CardBitMask = 0b00011111
	AltBit      = 0b00100000
	IDBitMask   = CardBitMask | AltBit

	MaxCard = CardBitMask

	// Invalid is the zero ID. No card is numbered 0.
	Invalid ID = 0
)

var ErrBadMove = errors.New("badly formatted move")

// New returns the identifier for moving card to its first-choice destination,
// or to its second-choice destination if alt is true.
func New(card int, alt bool) ID {
	if card <= 0 || card > MaxCard {
		return Invalid
	}
	id := ID(card)
	if alt {
		id |= AltBit
	}
	return id
}

func (id ID) Card() int {
	return int(id & CardBitMask)
}

func (id ID) Alt() bool {
	return id&AltBit != 0
}

// Valid is true if the identifier names a card and uses no bits outside
// the 6-bit schema.
func (id ID) Valid() bool {
	return id&^IDBitMask == 0 && id.Card() != 0
}

func (id ID) String() string {
	if !id.Valid() {
		return "?"
	}
	s := strconv.Itoa(id.Card())
	if id.Alt() {
		s += "'"
	}
	return s
}

// Parse turns a string such as "12" or "12'" back into an ID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	alt := strings.HasSuffix(s, "'")
	s = strings.TrimSuffix(s, "'")
	card, err := strconv.Atoi(s)
	if err != nil {
		return Invalid, ErrBadMove
	}
	id := New(card, alt)
	if id == Invalid {
		return Invalid, ErrBadMove
	}
	return id, nil
}
