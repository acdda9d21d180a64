// Package cache holds small string values with an expiry, such as the chat
// id of the last user who wrote to the bot.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a key-value store with per-entry expiry. Set overwrites any
// previous value and expiry; concurrent writers are last-write-wins.
type Store interface {
	// Get returns the live value for key. ok is false for missing or
	// expired entries.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key until ttl elapses. A ttl <= 0 never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *Memory) Close() error { return nil }
