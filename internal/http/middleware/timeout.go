package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/market-insights/internal/metrics"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
)

// Timeout ограничивает обработку запроса сроком d, если у него ещё нет дедлайна.
// Запросы, упёршиеся в собственный срок, считаются в http_timeouts_total
// и логируются на уровне Warn. d <= 0 отключает мидлвар.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return
			}

			route := routeLabel(r)
			metrics.HTTPTimeoutsTotal.WithLabelValues(r.Method, route).Inc()
			log.From(ctx).Warn("http_request_deadline_exceeded",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Duration("timeout", d),
			)
		})
	}
}
