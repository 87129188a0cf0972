package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGStore implements Store on the kv_entries table.
type PGStore struct {
	DB *sql.DB
}

// Set upserts value under key.
func (s *PGStore) Set(ctx context.Context, key, value string) error {
	const query = `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("kv set key=%s: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key.
func (s *PGStore) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM kv_entries WHERE key = $1`

	var value string
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kv get key=%s: %w", key, err)
	}
	return value, nil
}

// List returns entries under prefix, newest first.
func (s *PGStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	const query = `
SELECT key, value, updated_at
FROM kv_entries
WHERE key LIKE $1 ESCAPE '\'
ORDER BY updated_at DESC, key ASC`

	rows, err := s.DB.QueryContext(ctx, query, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("kv list prefix=%s: %w", prefix, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("kv list scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv list rows: %w", err)
	}
	return out, nil
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

var _ Store = (*PGStore)(nil)
