package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/market-insights/internal/models"
)

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "market-insights:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (FeedCache, error) {
	const op = "cache.NewRedisCache"

	if prefix == "" {
		prefix = "market-insights:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse url: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key() string { return c.prefix + feedKey }

// Лента хранится одной JSON-строкой с TTL на ключе.
func (c *redisCache) Get(ctx context.Context) (*models.FeedResult, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	var res models.FeedResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("cache: decode: %w", err)
	}

	return &res, true, nil
}

func (c *redisCache) Set(ctx context.Context, res *models.FeedResult, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}

	return c.rdb.Set(ctx, c.key(), raw, ttl).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
