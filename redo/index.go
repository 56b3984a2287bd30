package redo

import (
	"bytes"

	"github.com/cespare/xxhash"
)

// The equality index maps the hash of a snapshot's comparable prefix to
// every position whose snapshot hashes the same. Bucket members are
// compared byte for byte, so hash collisions never produce false
// transpositions.

func (s *Session) indexKey(state []byte) uint64 {
	return xxhash.Sum64(state[:s.compareLen])
}

func (s *Session) indexAdd(id PosID) {
	key := s.indexKey(s.positions[id].state)
	s.index[key] = append(s.index[key], id)
}

func (s *Session) indexRemove(id PosID) {
	key := s.indexKey(s.positions[id].state)
	bucket := s.index[key]
	for i, m := range bucket {
		if m == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(s.index, key)
	} else {
		s.index[key] = bucket
	}
}

// lookup returns every position whose comparable prefix equals state's.
func (s *Session) lookup(state []byte) []PosID {
	bucket := s.index[s.indexKey(state)]
	prefix := state[:s.compareLen]
	group := make([]PosID, 0, len(bucket))
	for _, m := range bucket {
		if bytes.Equal(s.positions[m].state[:s.compareLen], prefix) {
			group = append(group, m)
		}
	}
	return group
}

// Equivalents returns the other positions in the tree that share id's
// comparable snapshot.
func (s *Session) Equivalents(id PosID) []PosID {
	if !s.live(id) {
		return nil
	}
	group := s.lookup(s.positions[id].state)
	out := group[:0]
	for _, m := range group {
		if m != id {
			out = append(out, m)
		}
	}
	return out
}

// Find returns the best known position holding a state equal to state,
// or NoPosition.
func (s *Session) Find(state []byte) PosID {
	if len(state) < s.compareLen {
		return NoPosition
	}
	group := s.lookup(state)
	if len(group) == 0 {
		return NoPosition
	}
	return s.groupMinimum(group)
}
