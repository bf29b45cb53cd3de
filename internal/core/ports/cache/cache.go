package cache

import (
	"context"
	"time"
)

// Store is the ephemeral cache tier. Entries may vanish before their TTL
// (eviction, restart); callers must treat absence as a miss, never an error.
type Store interface {
	// Read returns the payload for key, or apperrors.ErrNotFound on a miss.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores payload under key for at most ttl.
	Write(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Delete removes one entry; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every entry whose key starts with prefix and
	// returns the number of entries removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	// CountByPrefix reports the number of live entries under prefix.
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}
