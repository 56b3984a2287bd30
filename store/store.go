// Package store keeps encoded redo sessions, one blob per game.
package store

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrNotFound = errors.New("session not found")

// Store saves and loads encoded sessions by key. Keys are short strings
// such as a game number.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Keys() ([]string, error)
	Close() error
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindBadger = "badger"
)

// Open returns a store of the given kind rooted at path: a directory for
// file and badger stores, a database file for SQLite stores.
func Open(kind, path string) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFileStore(path)
	case KindSQLite:
		return NewSQLiteStore(path)
	case KindBadger:
		return NewBadgerStore(path)
	}
	return nil, errors.New("unknown session store " + kind)
}

// OpenDataPath opens a store of the given kind inside the data directory.
func OpenDataPath(kind, dataPath string) (Store, error) {
	switch kind {
	case KindSQLite:
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return nil, err
		}
		return Open(kind, filepath.Join(dataPath, "sessions.db"))
	case KindBadger:
		return Open(kind, filepath.Join(dataPath, "kv"))
	}
	return Open(kind, dataPath)
}
