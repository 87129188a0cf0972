package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGetOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "resume:1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "resume:1", `{"feedback":""}`))
	require.NoError(t, s.Set(ctx, "resume:1", `{"feedback":{"score":7}}`))

	got, err := s.Get(ctx, "resume:1")
	require.NoError(t, err)
	assert.Equal(t, `{"feedback":{"score":7}}`, got)
}

func TestMemoryStoreListByPrefixNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	require.NoError(t, s.Set(ctx, "resume:a", "1"))
	require.NoError(t, s.Set(ctx, "other:x", "2"))
	require.NoError(t, s.Set(ctx, "resume:b", "3"))

	entries, err := s.List(ctx, "resume:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "resume:b", entries[0].Key)
	assert.Equal(t, "resume:a", entries[1].Key)
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()

	assert.Error(t, s.Set(ctx, "k", "v"))
	_, err := s.Get(ctx, "k")
	assert.Error(t, err)
	_, err = s.List(ctx, "")
	assert.Error(t, err)
}
