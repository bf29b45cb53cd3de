package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	cacheport "github.com/finbeat/marketdata/internal/core/ports/cache"
)

const janitorInterval = 30 * time.Second

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryStore is the in-process ephemeral tier, used when no Redis is
// configured. Expired entries count as misses immediately; a janitor
// goroutine reclaims their memory in the background.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	janitor *time.Ticker
	done    chan struct{}
}

// NewMemoryStore creates a MemoryStore and starts its janitor.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		entries: make(map[string]memoryEntry),
		janitor: time.NewTicker(janitorInterval),
		done:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

func (m *MemoryStore) sweepLoop() {
	for {
		select {
		case <-m.janitor.C:
			m.sweep(time.Now())
		case <-m.done:
			m.janitor.Stop()
			return
		}
	}
}

func (m *MemoryStore) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// Close stops the janitor goroutine.
func (m *MemoryStore) Close() error {
	close(m.done)
	return nil
}

// Read returns the payload for key, or apperrors.ErrNotFound on a miss.
func (m *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, apperrors.ErrNotFound
	}
	// Copy so callers can't mutate the stored slice.
	return append([]byte(nil), e.payload...), nil
}

// Write stores payload under key for at most ttl.
func (m *MemoryStore) Write(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes one entry; deleting an absent key is not an error.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (m *MemoryStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// CountByPrefix reports the number of live entries under prefix.
func (m *MemoryStore) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var n int64
	for k, e := range m.entries {
		if strings.HasPrefix(k, prefix) && !now.After(e.expiresAt) {
			n++
		}
	}
	return n, nil
}

var _ cacheport.Store = (*MemoryStore)(nil)
