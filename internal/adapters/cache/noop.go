package cache

import (
	"context"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	cacheport "github.com/finbeat/marketdata/internal/core/ports/cache"
)

// NoopStore is the cache backend used when caching is disabled. Every read
// is a miss and every write vanishes, so resolvers fall through to the
// durable store and provider tiers without a special code path.
type NoopStore struct{}

// NewNoopStore creates a NoopStore.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (s *NoopStore) Read(ctx context.Context, key string) ([]byte, error) {
	return nil, apperrors.ErrNotFound
}

func (s *NoopStore) Write(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return nil
}

func (s *NoopStore) Delete(ctx context.Context, key string) error {
	return nil
}

func (s *NoopStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	return 0, nil
}

func (s *NoopStore) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	return 0, nil
}

var _ cacheport.Store = (*NoopStore)(nil)
