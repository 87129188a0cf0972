// Package kv is a string key-value store. Values are opaque text, usually JSON.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("key not found")

// Entry is a stored key with its value.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Store persists values by key. Set overwrites.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	// List returns entries whose key starts with prefix, most recently updated first.
	List(ctx context.Context, prefix string) ([]Entry, error)
}
