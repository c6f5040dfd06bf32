// metrics объявляет Prometheus-метрики сервиса. Коллекторы регистрируются
// в prometheus.DefaultRegisterer при инициализации пакета и отдаются через /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "market_insights"

var (
	// FeedFetchTotal — попытки загрузки ленты по источнику (primary/fallback) и результату (ok/error).
	FeedFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_fetch_total",
		Help:      "Feed fetch attempts by source and result.",
	}, []string{"source", "result"})

	// FeedFallbackTotal — сколько раз пришлось идти на fallback URL.
	FeedFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_fallback_total",
		Help:      "Number of times the fallback feed URL was used.",
	})

	// FeedFetchDuration — длительность одной попытки загрузки и разбора.
	FeedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_fetch_duration_seconds",
		Help:      "Duration of a single fetch-and-parse attempt.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	// FeedArticles — число статей в последнем успешном результате.
	FeedArticles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_articles",
		Help:      "Articles in the last successfully assembled feed.",
	})

	// FeedCacheTotal — обращения HTTP-слоя к кэшу ленты (hit/miss/error).
	FeedCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_total",
		Help:      "Feed response cache lookups by outcome.",
	}, []string{"outcome"})

	// PerformanceScore — последний рассчитанный балл по варианту панели.
	PerformanceScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "performance_score",
		Help:      "Latest 0-100 performance score by dashboard variant.",
	}, []string{"variant"})

	// TelemetryEventsTotal — принятые события телеметрии по имени метрики.
	TelemetryEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "telemetry_events_total",
		Help:      "Telemetry events appended to the buffer by metric name.",
	}, []string{"metric"})

	// HTTPRequestsTotal / HTTPRequestDuration — метрики HTTP-слоя по шаблону маршрута.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// HTTPTimeoutsTotal — запросы, исчерпавшие дедлайн мидлвара Timeout.
	HTTPTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_timeouts_total",
		Help:      "HTTP requests that ran past the server-side deadline.",
	}, []string{"method", "route"})
)
