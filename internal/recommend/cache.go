package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/justestif/go-wellness-mood/internal/mood"
)

// DefaultCacheTTL is how long remote candidates are reused.
const DefaultCacheTTL = 24 * time.Hour

const keyPrefix = "wellness:recommend:"

// Cache stores candidate lists in Redis.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a Cache. A non-positive ttl uses DefaultCacheTTL.
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

func cacheKey(source string, label mood.Label) string {
	return keyPrefix + source + ":" + string(label)
}

// Get returns the cached candidates. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, source string, label mood.Label) ([]string, bool, error) {
	val, err := c.rdb.Get(ctx, cacheKey(source, label)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache: %w", err)
	}

	var urls []string
	if err := json.Unmarshal([]byte(val), &urls); err != nil {
		return nil, false, fmt.Errorf("decoding cached candidates: %w", err)
	}
	return urls, true, nil
}

// Set stores candidates with the cache TTL.
func (c *Cache) Set(ctx context.Context, source string, label mood.Label, urls []string) error {
	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("encoding candidates: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(source, label), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// cachedSource serves candidates from the cache and fills it on a miss.
// Empty results are not cached.
type cachedSource struct {
	Source
	cache *Cache
}

func (s cachedSource) Candidates(ctx context.Context, label mood.Label) ([]string, error) {
	if urls, ok, err := s.cache.Get(ctx, s.Name(), label); err == nil && ok {
		return urls, nil
	}

	urls, err := s.Source.Candidates(ctx, label)
	if err != nil || len(urls) == 0 {
		return urls, err
	}

	// A failed write only means the next request goes remote again.
	_ = s.cache.Set(ctx, s.Name(), label, urls)
	return urls, nil
}
