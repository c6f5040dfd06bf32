package telemetry

import "time"

// Варианты панели.
const (
	VariantDashboard = "dashboard"
	VariantCompact   = "compact"
)

// Variant — окно событий и период пересчёта панели.
type Variant struct {
	Name     string
	Window   int
	Interval time.Duration
}

var (
	// Dashboard — полная панель: последние 10 событий, раз в 5 секунд.
	Dashboard = Variant{Name: VariantDashboard, Window: 10, Interval: 5 * time.Second}
	// Compact — компактный виджет: последние 5 событий, раз в 10 секунд.
	Compact = Variant{Name: VariantCompact, Window: 5, Interval: 10 * time.Second}
)

// Пороги и штрафы балла.
const (
	slowLoadMs     = 1000
	verySlowLoadMs = 2000
	minHitRate     = 50
	maxErrorRate   = 10
	goodScore      = 80

	slowLoadPenalty     = 20
	verySlowLoadPenalty = 20
	lowHitRatePenalty   = 15
	highErrorPenalty    = 25
)

// Snapshot — производные метрики одного окна событий.
type Snapshot struct {
	// LoadTime — среднее component_load_time, мс.
	LoadTime float64 `json:"loadTime"`
	// CacheHitRate — доля cached среди cached+fresh, %.
	CacheHitRate float64 `json:"cacheHitRate"`
	// ErrorRate — feed_error относительно cached+fresh, %.
	ErrorRate float64 `json:"errorRate"`
	// ArticleCount — последнее feed_article_count в окне.
	ArticleCount int `json:"articleCount"`
	// PerformanceScore — 0..100.
	PerformanceScore int `json:"performanceScore"`
}

// Compute считает снимок по окну событий. Пустое окно даёт нулевые метрики
// без ошибки; отсутствие телеметрии неотличимо от хорошей работы.
func Compute(events []Event) Snapshot {
	var (
		loadSum             float64
		loads               int
		cached, fresh, errs int
		articles            = -1
	)

	for _, e := range events {
		switch e.Metric {
		case MetricLoadTime:
			loadSum += e.Value
			loads++
		case MetricViewCached:
			cached++
		case MetricViewFresh:
			fresh++
		case MetricError:
			errs++
		case MetricArticleCount:
			articles = int(e.Value)
		}
	}

	var s Snapshot
	if loads > 0 {
		s.LoadTime = loadSum / float64(loads)
	}

	if views := cached + fresh; views > 0 {
		s.CacheHitRate = float64(cached) / float64(views) * 100
		s.ErrorRate = float64(errs) / float64(views) * 100
	}

	if articles > 0 {
		s.ArticleCount = articles
	}

	s.PerformanceScore = Score(s)

	return s
}

// Score — 100 минус независимые штрафы, не ниже 0. Пороги строгие (>, <).
func Score(s Snapshot) int {
	score := 100

	if s.LoadTime > slowLoadMs {
		score -= slowLoadPenalty
	}

	if s.LoadTime > verySlowLoadMs {
		score -= verySlowLoadPenalty
	}

	if s.CacheHitRate < minHitRate {
		score -= lowHitRatePenalty
	}

	if s.ErrorRate > maxErrorRate {
		score -= highErrorPenalty
	}

	if score < 0 {
		return 0
	}

	return score
}

// Recommendations — рекомендательный текст по тем же порогам.
func Recommendations(s Snapshot) []string {
	var out []string

	if s.LoadTime > slowLoadMs {
		out = append(out, "Consider lazy loading market insight widgets to reduce load time.")
	}

	if s.CacheHitRate < minHitRate {
		out = append(out, "Increase the feed cache TTL to improve the cache hit rate.")
	}

	if s.ErrorRate > maxErrorRate {
		out = append(out, "Add retry logic for feed requests to reduce the error rate.")
	}

	if s.PerformanceScore >= goodScore {
		out = append(out, "Great job! Market insights are performing well.")
	}

	return out
}
