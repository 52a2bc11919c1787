package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLiteKV stores values in a local SQLite file
type SQLiteKV struct {
	pool *sql.DB
}

// OpenSQLiteKV opens (and creates if needed) the database at path
func OpenSQLiteKV(ctx context.Context, path string) (*SQLiteKV, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	if _, err := pool.ExecContext(ctx, kvSchema); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &SQLiteKV{pool: pool}, nil
}

func (s *SQLiteKV) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

func (s *SQLiteKV) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(namespace, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

func (s *SQLiteKV) Put(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.pool.ExecContext(ctx, `
INSERT INTO kv(namespace, key, value, updated_at) VALUES(?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at`,
		namespace, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLiteKV) Create(ctx context.Context, namespace, key string, value []byte) error {
	_, err := s.pool.ExecContext(ctx,
		`INSERT INTO kv(namespace, key, value, updated_at) VALUES(?, ?, ?, ?)`,
		namespace, key, value, time.Now().Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, namespace, key string) error {
	if _, err := s.pool.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ? AND key = ?`, namespace, key); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}
