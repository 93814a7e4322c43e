// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default local dataset backend: scalar values live in
// a kv table, and each chunk-owning key has a row in chunks holding its
// element size and a BLOB sized to n*elemSize bytes. ReadChunk copies an
// element range out of the BLOB; WriteChunk stores the BLOB back whole
// with the element range replaced, growing it if needed.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a dataset at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	connStr := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("dataset: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: connecting to %s: %w", path, err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			key TEXT PRIMARY KEY,
			elem_size INTEGER NOT NULL,
			n INTEGER NOT NULL,
			data BLOB NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("dataset: migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) IterateKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv UNION SELECT key FROM chunks ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("dataset: listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("dataset: scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) IsChunk(ctx context.Context, key string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM chunks WHERE key = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dataset: checking chunk %q: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) GetString(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("dataset: reading %q: %w", key, err)
	}
	return v, nil
}

func (s *SQLiteStore) SetString(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE key = ?`, key); err != nil {
		return fmt.Errorf("dataset: clearing chunk at %q: %w", key, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("dataset: writing %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) CreateChunk(ctx context.Context, key string, n int64, elemSize int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("dataset: clearing scalar at %q: %w", key, err)
	}
	blank := make([]byte, n*int64(elemSize))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chunks (key, elem_size, n, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET elem_size = excluded.elem_size, n = excluded.n, data = excluded.data`,
		key, elemSize, n, blank)
	if err != nil {
		return fmt.Errorf("dataset: creating chunk %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) ReadChunk(ctx context.Context, key string, offset, n int64, p []byte) (int64, error) {
	var elemSize, total int64
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT elem_size, n, data FROM chunks WHERE key = ?`, key).
		Scan(&elemSize, &total, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("dataset: reading chunk %q: %w", key, err)
	}

	avail := total - offset
	if avail <= 0 {
		return 0, nil
	}
	got := n
	if got > avail {
		got = avail
	}
	start := offset * elemSize
	end := start + got*elemSize
	if end > int64(len(data)) {
		end = int64(len(data))
		got = (end - start) / elemSize
	}
	copy(p, data[start:end])
	return got, nil
}

func (s *SQLiteStore) WriteChunk(ctx context.Context, key string, offset, n int64, p []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dataset: beginning write to %q: %w", key, err)
	}
	defer tx.Rollback()

	var elemSize, total int64
	var data []byte
	err = tx.QueryRowContext(ctx, `SELECT elem_size, n, data FROM chunks WHERE key = ?`, key).
		Scan(&elemSize, &total, &data)
	if err != nil {
		return fmt.Errorf("dataset: writing chunk %q: %w", key, err)
	}

	start := offset * elemSize
	end := start + n*elemSize
	if end > int64(len(data)) {
		grown := make([]byte, end)
		copy(grown, data)
		data = grown
	}
	copy(data[start:end], p)

	newTotal := total
	if offset+n > newTotal {
		newTotal = offset + n
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chunks SET data = ?, n = ? WHERE key = ?`, data, newTotal, key); err != nil {
		return fmt.Errorf("dataset: writing chunk %q: %w", key, err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
