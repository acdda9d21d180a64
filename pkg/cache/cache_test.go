package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)}
}

func stores(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()

	memory := NewMemory()
	memory.now = clock.Now

	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "cache.db"))
	require.NoError(t, err)
	sqlite.now = clock.Now
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]Store{"memory": memory, "sqlite": sqlite}
}

func TestStoreGetSet(t *testing.T) {
	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "latest_chat_id")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "latest_chat_id", "999", time.Hour))
			value, ok, err := store.Get(ctx, "latest_chat_id")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "999", value)
		})
	}
}

func TestStoreLastWriteWins(t *testing.T) {
	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "k", "first", time.Minute))
			require.NoError(t, store.Set(ctx, "k", "second", time.Hour))

			clock.Advance(2 * time.Minute)
			value, ok, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok, "second write must replace the first expiry")
			assert.Equal(t, "second", value)
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "exp", "v", time.Hour))
			clock.Advance(59 * time.Minute)
			_, ok, err := store.Get(ctx, "exp")
			require.NoError(t, err)
			assert.True(t, ok)

			clock.Advance(time.Minute)
			_, ok, err = store.Get(ctx, "exp")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreNoExpiry(t *testing.T) {
	clock := newClock()
	for name, store := range stores(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "forever", "v", 0))
			clock.Advance(24 * 365 * time.Hour)
			value, ok, err := store.Get(ctx, "forever")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", value)
		})
	}
}

func TestSQLiteSharedBetweenHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	writer, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, writer.Set(ctx, "latest_chat_id", "abc", time.Hour))
	require.NoError(t, writer.Close())

	reader, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
	require.NoError(t, reader.Ping(ctx))

	value, ok, err := reader.Get(ctx, "latest_chat_id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)
}
