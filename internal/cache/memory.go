package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pribylovaa/market-insights/internal/models"
)

type memoryCache struct {
	now func() time.Time

	mu      sync.RWMutex
	res     *models.FeedResult
	expires time.Time
}

// NewMemoryCache — кэш в памяти процесса; используется, когда redis_url не задан.
// now может быть nil (time.Now).
func NewMemoryCache(now func() time.Time) FeedCache {
	if now == nil {
		now = time.Now
	}

	return &memoryCache{now: now}
}

func (c *memoryCache) Get(ctx context.Context) (*models.FeedResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.res == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}

	return c.res, true, nil
}

// Set с ttl <= 0 сбрасывает запись.
func (c *memoryCache) Set(ctx context.Context, res *models.FeedResult, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 || res == nil {
		c.res = nil
		c.expires = time.Time{}
		return nil
	}

	c.res = res
	c.expires = c.now().Add(ttl)

	return nil
}

func (c *memoryCache) Close() error { return nil }
