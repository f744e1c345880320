package answer

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/policydocs/harvester/pkg/config"
	pkgredis "github.com/policydocs/harvester/pkg/redis"
)

const cacheKeyPrefix = "answer:"

// Cache stores generated answers in Redis keyed by the normalized query and
// section. Concurrent identical misses are collapsed with singleflight. A
// nil *Cache is valid and always misses.
type Cache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
}

// NewCache creates a Cache over an established Redis client.
func NewCache(client *pkgredis.Client, cfg config.RedisConfig) *Cache {
	return &Cache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "answer-cache"),
	}
}

// GetOrCompute returns the cached answer for the query, computing and
// storing it on a miss. The second return reports whether the answer came
// from the cache.
func (c *Cache) GetOrCompute(ctx context.Context, query, section string, computeFn func() Result) (Result, bool) {
	if c == nil {
		return computeFn(), false
	}
	key := c.buildKey(query, section)
	if result, ok := c.get(ctx, key); ok {
		return result, true
	}
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.get(ctx, key); ok {
			return result, nil
		}
		result := computeFn()
		c.set(ctx, key, result)
		return result, nil
	})
	return val.(Result), false
}

func (c *Cache) get(ctx context.Context, key string) (Result, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return Result{}, false
	}
	return result, true
}

func (c *Cache) set(ctx context.Context, key string, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached answer, e.g. after a harvest refreshes the
// document corpus.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	deleted, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating answer cache: %w", err)
	}
	c.logger.Info("answer cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *Cache) buildKey(query, section string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	raw := fmt.Sprintf("%s|section=%s", normalized, section)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, hash[:16])
}
