package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pribylovaa/market-insights/internal/metrics"
	"github.com/pribylovaa/market-insights/internal/pkg/log"
)

// Reader — источник окна событий (реализация: *Buffer).
type Reader interface {
	Last(n int) []Event
}

// Monitor пересчитывает снимок панели по таймеру, но только после того,
// как панель стала видимой (Activate). Пропущенные до активации окна не досчитываются.
type Monitor struct {
	reader  Reader
	variant Variant

	once      sync.Once
	activated chan struct{}

	mu     sync.RWMutex
	latest Snapshot
	at     time.Time
}

// NewMonitor создаёт монитор для варианта панели.
func NewMonitor(reader Reader, variant Variant) *Monitor {
	if variant.Window <= 0 {
		variant.Window = Dashboard.Window
	}

	if variant.Interval <= 0 {
		variant.Interval = Dashboard.Interval
	}

	return &Monitor{
		reader:    reader,
		variant:   variant,
		activated: make(chan struct{}),
	}
}

// Variant — параметры панели монитора.
func (m *Monitor) Variant() Variant {
	return m.variant
}

// Activate отмечает панель видимой. Первый вызов синхронно считает снимок
// и запускает цикл Run; повторные вызовы ничего не делают.
func (m *Monitor) Activate() {
	m.once.Do(func() {
		m.refresh()
		close(m.activated)
	})
}

// Active — была ли панель активирована.
func (m *Monitor) Active() bool {
	select {
	case <-m.activated:
		return true
	default:
		return false
	}
}

// Snapshot возвращает последний снимок, время расчёта и признак активности.
func (m *Monitor) Snapshot() (Snapshot, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.latest, m.at, m.Active()
}

// Run ждёт активации и пересчитывает снимок каждые Interval.
// Останавливается по ctx (аналог размонтирования панели).
func (m *Monitor) Run(ctx context.Context) error {
	const op = "telemetry.Monitor.Run"

	lg := log.From(ctx).With(slog.String("variant", m.variant.Name))

	select {
	case <-ctx.Done():
		return nil
	case <-m.activated:
	}

	lg.Info("monitor_start",
		slog.String("op", op),
		slog.Int("window", m.variant.Window),
		slog.Duration("interval", m.variant.Interval),
	)

	ticker := time.NewTicker(m.variant.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("monitor_stop", slog.String("op", op))
			return nil
		case <-ticker.C:
			s := m.refresh()
			lg.Debug("monitor_tick",
				slog.String("op", op),
				slog.Int("score", s.PerformanceScore),
			)
		}
	}
}

func (m *Monitor) refresh() Snapshot {
	s := Compute(m.reader.Last(m.variant.Window))

	m.mu.Lock()
	m.latest = s
	m.at = time.Now().UTC()
	m.mu.Unlock()

	metrics.PerformanceScore.WithLabelValues(m.variant.Name).Set(float64(s.PerformanceScore))

	return s
}
