package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pribylovaa/market-insights/internal/metrics"
	"github.com/pribylovaa/market-insights/internal/models"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
	"github.com/pribylovaa/market-insights/internal/pkg/redact"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	sourcePrimary  = "primary"
	sourceFallback = "fallback"
)

// fetchWithFallback — одна попытка на primary и одна на fallback.
func (s *Service) fetchWithFallback(ctx context.Context) (*models.FeedResult, error) {
	const op = "service.fetchWithFallback"

	ctx, span := s.tracer.Start(ctx, "FetchFeed")
	defer span.End()

	lg := log.From(ctx)

	res, primaryErr := s.attempt(ctx, sourcePrimary, s.cfg.PrimaryURL)
	if primaryErr == nil {
		return res, nil
	}

	lg.Warn("feed_primary_failed",
		slog.String("op", op),
		slog.String("url", redact.URL(s.cfg.PrimaryURL)),
		slog.String("err", primaryErr.Error()),
	)

	if s.cfg.FallbackURL == "" {
		err := &UnavailableError{Primary: primaryErr}
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary failed, no fallback configured")
		return nil, err
	}

	metrics.FeedFallbackTotal.Inc()
	span.AddEvent("fallback")

	res, fallbackErr := s.attempt(ctx, sourceFallback, s.cfg.FallbackURL)
	if fallbackErr == nil {
		lg.Info("feed_fallback_ok",
			slog.String("op", op),
			slog.String("url", redact.URL(s.cfg.FallbackURL)),
			slog.Int("articles", len(res.Articles)),
		)
		return res, nil
	}

	lg.Error("feed_unavailable",
		slog.String("op", op),
		slog.String("primary_err", primaryErr.Error()),
		slog.String("fallback_err", fallbackErr.Error()),
	)

	err := &UnavailableError{Primary: primaryErr, Fallback: fallbackErr}
	span.RecordError(err)
	span.SetStatus(codes.Error, "primary and fallback failed")

	return nil, err
}

// attempt — загрузка и разбор одного источника под собственным дедлайном.
func (s *Service) attempt(ctx context.Context, source, url string) (*models.FeedResult, error) {
	ctx, span := s.tracer.Start(ctx, "FetchFeed."+source)
	defer span.End()

	span.SetAttributes(
		attribute.String("feed.source", source),
		attribute.String("feed.url", redact.URL(url)),
	)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := s.parser.Parse(ctx, url)
	metrics.FeedFetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FeedFetchTotal.WithLabelValues(source, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	metrics.FeedFetchTotal.WithLabelValues(source, "ok").Inc()
	metrics.FeedArticles.Set(float64(len(res.Articles)))
	span.SetAttributes(attribute.Int("feed.articles", len(res.Articles)))

	return res, nil
}
