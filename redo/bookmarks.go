package redo

import (
	"github.com/samber/lo"
)

// Bookmarks is a stack of positions kept purely for navigation. It is
// independent of the tree's shape, but entries for dropped positions are
// removed automatically.
type Bookmarks struct {
	stack []PosID
}

// Bookmarks returns the session's bookmark stack.
func (s *Session) Bookmarks() *Bookmarks {
	return &s.marks
}

func (b *Bookmarks) Len() int {
	return len(b.stack)
}

func (b *Bookmarks) Push(id PosID) {
	b.stack = append(b.stack, id)
}

// Top returns the most recently pushed bookmark.
func (b *Bookmarks) Top() (PosID, bool) {
	if len(b.stack) == 0 {
		return NoPosition, false
	}
	return b.stack[len(b.stack)-1], true
}

func (b *Bookmarks) Pop() (PosID, bool) {
	id, ok := b.Top()
	if ok {
		b.stack = b.stack[:len(b.stack)-1]
	}
	return id, ok
}

// Swap replaces the top bookmark with id and returns the one it replaced.
func (b *Bookmarks) Swap(id PosID) (PosID, bool) {
	top, ok := b.Top()
	if ok {
		b.stack[len(b.stack)-1] = id
	}
	return top, ok
}

// Drop discards the top bookmark.
func (b *Bookmarks) Drop() bool {
	_, ok := b.Pop()
	return ok
}

// All returns the bookmarks from bottom to top.
func (b *Bookmarks) All() []PosID {
	return append([]PosID(nil), b.stack...)
}

func (b *Bookmarks) purge(id PosID) {
	if !lo.Contains(b.stack, id) {
		return
	}
	b.stack = lo.Without(b.stack, id)
}
