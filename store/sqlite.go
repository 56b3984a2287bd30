package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS sessions (
	key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	updated INTEGER NOT NULL
)`

// SQLiteStore keeps every session as a row of a single SQLite table, which
// is handier than a directory of files when there are many games.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM sessions WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Save retries for a while if another process has the database locked.
func (s *SQLiteStore) Save(key string, data []byte) error {
	return retry.Do(
		func() error {
			_, err := s.db.Exec(`INSERT INTO sessions (key, data, updated) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated = excluded.updated`,
				key, data, time.Now().Unix())
			return err
		},
		retry.RetryIf(isBusy),
		retry.Attempts(5),
		retry.Delay(20*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("n", n).Str("key", key).Msg("session-save-retry")
		}),
	)
}

func (s *SQLiteStore) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM sessions ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
