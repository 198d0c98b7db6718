package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/baechuer/admin-console/internal/application/directory"
	"github.com/baechuer/admin-console/internal/domain"
	"github.com/baechuer/admin-console/internal/logger"
	"github.com/baechuer/admin-console/internal/metrics"
)

const (
	ListKey      = "users:list"
	detailPrefix = "users:detail:"
)

func DetailKey(id string) string { return detailPrefix + id }

// CachedUserRepo decorates a directory.Repository with a query cache.
//   - Read path: cache -> repository (one load per key in flight) -> cache set
//   - create: drop list
//   - update: set detail, drop list
//   - delete: drop detail and list
//
// Cache failures are logged and never fail the call.
//
// Every mutation bumps the generation of the keys it touches before it
// changes the cache. A load that finishes after a bump drops what it wrote,
// so a snapshot taken before a mutation never outlives it.
type CachedUserRepo struct {
	inner directory.Repository
	store Store
	ttl   time.Duration
	group singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCachedUserRepo(inner directory.Repository, store Store, ttl time.Duration) *CachedUserRepo {
	return &CachedUserRepo{inner: inner, store: store, ttl: ttl, gens: make(map[string]uint64)}
}

func (c *CachedUserRepo) List(ctx context.Context) ([]domain.DirectoryUser, error) {
	var cached []domain.DirectoryUser
	if c.read(ctx, ListKey, &cached) {
		metrics.RecordCacheLookup("list", true)
		return cached, nil
	}
	metrics.RecordCacheLookup("list", false)

	v, err, _ := c.group.Do(ListKey, func() (any, error) {
		// a shared load must not die with the first caller's request
		lctx := context.WithoutCancel(ctx)
		gen := c.generation(ListKey)
		users, err := c.inner.List(lctx)
		if err != nil {
			return nil, err
		}
		c.fill(lctx, ListKey, gen, users)
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	users, ok := v.([]domain.DirectoryUser)
	if !ok {
		return nil, domain.ErrInternal(fmt.Errorf("querycache: unexpected list value %T", v))
	}
	return append([]domain.DirectoryUser(nil), users...), nil
}

func (c *CachedUserRepo) Get(ctx context.Context, id string) (domain.DirectoryUser, error) {
	key := DetailKey(id)

	var cached domain.DirectoryUser
	if c.read(ctx, key, &cached) {
		metrics.RecordCacheLookup("detail", true)
		return cached, nil
	}
	metrics.RecordCacheLookup("detail", false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		gen := c.generation(key)
		u, err := c.inner.Get(lctx, id)
		if err != nil {
			return nil, err
		}
		c.fill(lctx, key, gen, u)
		return u, nil
	})
	if err != nil {
		return domain.DirectoryUser{}, err
	}
	u, ok := v.(domain.DirectoryUser)
	if !ok {
		return domain.DirectoryUser{}, domain.ErrInternal(fmt.Errorf("querycache: unexpected detail value %T", v))
	}
	return u, nil
}

func (c *CachedUserRepo) Create(ctx context.Context, u domain.DirectoryUser) (domain.DirectoryUser, error) {
	out, err := c.inner.Create(ctx, u)
	if err != nil {
		return domain.DirectoryUser{}, err
	}
	c.invalidate(ctx, ListKey)
	return out, nil
}

func (c *CachedUserRepo) Update(ctx context.Context, id string, patch domain.UserPatch) (domain.DirectoryUser, error) {
	out, err := c.inner.Update(ctx, id, patch)
	if err != nil {
		return domain.DirectoryUser{}, err
	}
	// SET beats DEL: the next detail read needs no round trip
	c.bump(DetailKey(id))
	c.group.Forget(DetailKey(id))
	c.write(ctx, DetailKey(id), out)
	c.invalidate(ctx, ListKey)
	return out, nil
}

func (c *CachedUserRepo) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, DetailKey(id), ListKey)
	return nil
}

func (c *CachedUserRepo) read(ctx context.Context, key string, dst any) bool {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("key", key).Msg("query_cache_get_failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		// unreadable entry -> refetch and overwrite
		return false
	}
	return true
}

func (c *CachedUserRepo) write(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, b, c.ttl); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("key", key).Msg("query_cache_set_failed")
	}
}

func (c *CachedUserRepo) invalidate(ctx context.Context, keys ...string) {
	c.bump(keys...)
	for _, k := range keys {
		c.group.Forget(k)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Strs("keys", keys).Msg("query_cache_delete_failed")
	}
}

// fill stores a loaded value, then takes it back out when a mutation bumped
// the key while the load was running.
func (c *CachedUserRepo) fill(ctx context.Context, key string, gen uint64, v any) {
	c.write(ctx, key, v)
	if c.generation(key) == gen {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		logger.WithCtx(ctx).Warn().Err(err).Str("key", key).Msg("query_cache_delete_failed")
	}
}

func (c *CachedUserRepo) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

func (c *CachedUserRepo) bump(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.gens[k]++
	}
}
