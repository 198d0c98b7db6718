package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/admin-console/internal/domain"
)

// CacheStore is a byte-oriented key/value cache with per-entry TTL.
// Keys are namespaced with prefix so the cache can share a database.
type CacheStore struct {
	rdb    *goredis.Client
	prefix string
}

func NewCacheStore(c *Client) *CacheStore {
	return &CacheStore{
		rdb:    unwrap(c),
		prefix: "admin:",
	}
}

// Get reports a miss as (nil, false, nil).
func (s *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.rdb == nil {
		return nil, false, domain.ErrRedisUnavailable(errNotConfigured)
	}
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, domain.ErrRedisUnavailable(err)
	}
	return b, true, nil
}

func (s *CacheStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if s.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}
	if err := s.rdb.Set(ctx, s.prefix+key, val, ttl).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}

func (s *CacheStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if s.rdb == nil {
		return domain.ErrRedisUnavailable(errNotConfigured)
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return domain.ErrRedisUnavailable(err)
	}
	return nil
}
