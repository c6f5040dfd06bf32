// Package cache — кэш собранной ленты для HTTP-слоя.
// Ошибки кэша никогда не роняют запрос: вызывающий код логирует их и идёт за лентой.
package cache

//go:generate mockgen -source=cache.go -destination=../../mocks/mock_cache.go -package=mocks

import (
	"context"
	"time"

	"github.com/pribylovaa/market-insights/internal/models"
)

// FeedCache — минимальный контракт кэша ленты.
type FeedCache interface {
	// Get возвращает ленту и признак её наличия в кэше.
	Get(ctx context.Context) (*models.FeedResult, bool, error)
	// Set сохраняет ленту с TTL.
	Set(ctx context.Context, res *models.FeedResult, ttl time.Duration) error
	// Close освобождает ресурсы.
	Close() error
}

// feedKey — ключ единственной записи (лента одна на сервис).
const feedKey = "feed"
