package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tieubaoca/studytool-be/logger"
)

// TextCache memoises extracted document text by storage name. Stored files
// are immutable, so an entry only goes stale when its file is deleted.
type TextCache interface {
	Get(ctx context.Context, storageName string) (string, bool)
	Set(ctx context.Context, storageName, text string)
	Delete(ctx context.Context, storageName string)
}

const keyPrefix = "studytool:text:"

type redisTextCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedisTextCache(ctx context.Context, addr string, ttl time.Duration, log *logger.Logger) (TextCache, *goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisTextCacheWithClient(rdb, ttl, log), rdb, nil
}

func NewRedisTextCacheWithClient(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) TextCache {
	return &redisTextCache{rdb: rdb, ttl: ttl, log: log}
}

// Cache failures degrade to a miss; the caller re-extracts.
func (c *redisTextCache) Get(ctx context.Context, storageName string) (string, bool) {
	text, err := c.rdb.Get(ctx, keyPrefix+storageName).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("Text cache read failed", "storage_name", storageName, "error", err)
		}
		return "", false
	}
	return text, true
}

func (c *redisTextCache) Set(ctx context.Context, storageName, text string) {
	if err := c.rdb.Set(ctx, keyPrefix+storageName, text, c.ttl).Err(); err != nil {
		c.log.Warn("Text cache write failed", "storage_name", storageName, "error", err)
	}
}

// A failed delete leaves an entry that expires with its TTL.
func (c *redisTextCache) Delete(ctx context.Context, storageName string) {
	if err := c.rdb.Del(ctx, keyPrefix+storageName).Err(); err != nil {
		c.log.Warn("Text cache eviction failed", "storage_name", storageName, "ttl", c.ttl, "error", err)
	}
}

type noopTextCache struct{}

func NewNoopTextCache() TextCache { return noopTextCache{} }

func (noopTextCache) Get(context.Context, string) (string, bool) { return "", false }
func (noopTextCache) Set(context.Context, string, string)        {}
func (noopTextCache) Delete(context.Context, string)             {}
