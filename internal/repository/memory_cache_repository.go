package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/noah-isme/crs-api/pkg/errors"
)

const memoryCacheCleanupInterval = 10 * time.Minute

// MemoryCacheRepository is the in-process counterpart of CacheRepository, used when Redis is
// disabled. Values are stored JSON-encoded so callers observe the same copy semantics.
type MemoryCacheRepository struct {
	cache *gocache.Cache
}

// NewMemoryCacheRepository constructs an in-memory cache with the given default expiration.
func NewMemoryCacheRepository(defaultExpiration time.Duration) *MemoryCacheRepository {
	return &MemoryCacheRepository{cache: gocache.New(defaultExpiration, memoryCacheCleanupInterval)}
}

// Get unmarshals the cached value into dest or reports a cache miss.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	value, found := r.cache.Get(key)
	if !found {
		return appErrors.ErrCacheMiss
	}
	raw, ok := value.([]byte)
	if !ok {
		r.cache.Delete(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores the JSON encoding of value with the given TTL.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	r.cache.Set(key, payload, ttl)
	return nil
}

// DeleteByPattern removes entries whose key matches a glob pattern such as "catalogue:*".
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range r.cache.Items() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match cache pattern %s: %w", pattern, err)
		}
		if matched {
			r.cache.Delete(key)
		}
	}
	return nil
}
