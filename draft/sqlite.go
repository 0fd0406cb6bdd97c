package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS drafts (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteCache keeps drafts in a single SQLite table.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (and creates when needed) the database at path.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		path,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteCache{db: db}, nil
}

func (s *SQLiteCache) Close() error {
	return s.db.Close()
}

func (s *SQLiteCache) Set(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, val, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM drafts WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *SQLiteCache) Del(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key)
	return err
}

func (s *SQLiteCache) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM drafts WHERE key = ?`, key).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ Cache = (*SQLiteCache)(nil)
