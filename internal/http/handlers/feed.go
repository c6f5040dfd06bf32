package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/market-insights/internal/errors"
	"github.com/pribylovaa/market-insights/internal/metrics"
	"github.com/pribylovaa/market-insights/internal/models"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
	"github.com/pribylovaa/market-insights/internal/telemetry"
)

// Заголовок с результатом обращения к кэшу ленты.
const headerCache = "X-Cache"

// GetMarketInsights — GET /market-insights: собранная лента с кэш-политикой.
// Ошибка кэша не роняет запрос: пишем в лог и идём к источнику.
func (h *Handlers) GetMarketInsights(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.GetMarketInsights"

	ctx := r.Context()
	lg := log.From(ctx)

	if h.cache != nil {
		res, ok, err := h.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.FeedCacheTotal.WithLabelValues("error").Inc()
			lg.Warn("feed_cache_get_failed", slog.String("op", op), slog.Any("err", err))
		case ok:
			metrics.FeedCacheTotal.WithLabelValues("hit").Inc()
			h.emit(telemetry.MetricViewCached, 1)
			h.writeFeed(w, res, "HIT")
			return
		default:
			metrics.FeedCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	res, err := h.feed.FetchFeed(ctx)
	if err != nil {
		h.emit(telemetry.MetricError, 1)
		lg.Error("feed_request_failed", slog.String("op", op), slog.Any("err", err))
		apierrors.WriteError(w, r, fmt.Errorf("%s: %w", op, err))
		return
	}

	h.emit(telemetry.MetricViewFresh, 1)
	h.emit(telemetry.MetricArticleCount, float64(len(res.Articles)))

	status := ""
	if h.cache != nil {
		status = "MISS"
		if err := h.cache.Set(ctx, res, h.revalidate); err != nil {
			lg.Warn("feed_cache_set_failed", slog.String("op", op), slog.Any("err", err))
		}
	}

	h.writeFeed(w, res, status)
}

func (h *Handlers) writeFeed(w http.ResponseWriter, res *models.FeedResult, cacheStatus string) {
	if secs := int(h.revalidate.Seconds()); secs > 0 {
		w.Header().Set("Cache-Control",
			fmt.Sprintf("public, max-age=0, s-maxage=%d, stale-while-revalidate=%d", secs, secs))
	}

	if cacheStatus != "" {
		w.Header().Set(headerCache, cacheStatus)
	}

	writeJSON(w, http.StatusOK, res)
}
