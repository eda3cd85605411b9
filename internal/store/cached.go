package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/cache"
	"github.com/voyagen/regiontv/internal/models"
)

const ttlFavorites = 10 * time.Minute

// CachedStore wraps a Store with a Redis read-through cache. Writes
// invalidate the region's key.
type CachedStore struct {
	inner Store
	cache *cache.Redis
	log   zerolog.Logger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis, log zerolog.Logger) *CachedStore {
	return &CachedStore{inner: inner, cache: c, log: log}
}

func favoritesKey(region models.Region) string {
	return cache.KeyPrefix + "favorites:" + string(region)
}

func (c *CachedStore) ListFavorites(ctx context.Context, region models.Region) ([]models.Favorite, error) {
	key := favoritesKey(region)
	if v, err := cache.Get[[]models.Favorite](ctx, c.cache, key); err == nil {
		return v, nil
	} else if !cache.IsMiss(err) {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get")
	}
	favs, err := c.inner.ListFavorites(ctx, region)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, favs, ttlFavorites); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set")
	}
	return favs, nil
}

func (c *CachedStore) SetFavorite(ctx context.Context, region models.Region, url string, favorite bool) error {
	if err := c.inner.SetFavorite(ctx, region, url, favorite); err != nil {
		return err
	}
	if err := cache.Del(ctx, c.cache, favoritesKey(region)); err != nil {
		c.log.Warn().Err(err).Str("region", string(region)).Msg("cache invalidate")
	}
	return nil
}

// Purge drops every cached favorites list, e.g. after the backing store changed.
func (c *CachedStore) Purge(ctx context.Context) error {
	return cache.DelPattern(ctx, c.cache, cache.KeyPrefix+"favorites:*")
}

// Close closes the wrapped store; the Redis client is owned by the caller.
func (c *CachedStore) Close() error {
	return c.inner.Close()
}
