// Package cache memoizes expensive calls (typically provider fetches) in a
// Store, for a limited time.
//
// Values are encoded with msgpack, together with their expiry date, so that
// any Store, even one without native expiry, can hold them.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

// Store persists raw cache entries.
type Store interface {
	// Get returns the value stored for key, ok is false if there is none.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value for key. Stores with native expiry should drop it after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache provides GetOrFetch on top of a Store.
// Concurrent fetches of the same key are merged.
type Cache struct {
	store  Store
	logger zerolog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// New returns a Cache backed by store.
func New(store Store, logger zerolog.Logger) *Cache {
	return &Cache{store: store, logger: logger, now: time.Now}
}

type entry struct {
	ExpiresAt time.Time `msgpack:"expires_at"`
	Value     []byte    `msgpack:"value"`
}

// GetOrFetch returns the value cached for key, or calls fetch and caches its
// result for ttl. Errors are never cached. A nil Cache always calls fetch.
//
// Store failures are logged and treated as a miss: the cache is an optimization.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}
	if v, ok := get[T](ctx, c, key); ok {
		return v, nil
	}

	shared, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		if err := put(ctx, c, key, ttl, v); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache write error (ignored)")
		}
		return v, nil
	})
	v, _ := shared.(T)
	return v, err
}

func get[T any](ctx context.Context, c *Cache, key string) (v T, ok bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache read error (ignored)")
		return v, false
	}
	if !ok {
		return v, false
	}
	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupted cache entry (ignored)")
		return v, false
	}
	if !c.now().Before(e.ExpiresAt) {
		c.logger.Debug().Str("key", key).Time("expired", e.ExpiresAt).Msg("cache entry expired")
		return v, false
	}
	if err := msgpack.Unmarshal(e.Value, &v); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("corrupted cache value (ignored)")
		return v, false
	}
	c.logger.Debug().Str("key", key).Msg("cache hit")
	return v, true
}

func put[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, v T) error {
	value, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot encode value: %w", err)
	}
	raw, err := msgpack.Marshal(entry{ExpiresAt: c.now().Add(ttl), Value: value})
	if err != nil {
		return fmt.Errorf("cannot encode entry: %w", err)
	}
	return c.store.Set(ctx, key, raw, ttl)
}
