// telemetry — модель оценки производительности виджетов рынка:
// кольцевой буфер событий, расчёт снимка и балла, цикл обновления панели.
package telemetry

import (
	"sync"
	"time"
)

// Имена метрик, которые учитывает модель.
const (
	MetricLoadTime     = "component_load_time"
	MetricViewCached   = "feed_view_cached"
	MetricViewFresh    = "feed_view_fresh"
	MetricError        = "feed_error"
	MetricArticleCount = "feed_article_count"
)

// Known — учитывает ли модель метрику с таким именем.
func Known(metric string) bool {
	switch metric {
	case MetricLoadTime, MetricViewCached, MetricViewFresh, MetricError, MetricArticleCount:
		return true
	}

	return false
}

// DefaultCapacity — ёмкость буфера по умолчанию.
const DefaultCapacity = 500

// Event — одно событие телеметрии.
type Event struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Buffer — ограниченный кольцевой буфер событий.
// Писать могут несколько продюсеров одновременно; модель только читает.
// При заполнении самые старые события вытесняются.
type Buffer struct {
	mu     sync.RWMutex
	events []Event
	next   int
	full   bool
}

// NewBuffer создаёт буфер ёмкостью capacity (<=0 — DefaultCapacity).
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Buffer{events: make([]Event, capacity)}
}

// Append добавляет событие, вытесняя самое старое при заполнении.
func (b *Buffer) Append(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[b.next] = e
	b.next = (b.next + 1) % len(b.events)
	if b.next == 0 {
		b.full = true
	}
}

// Len — число событий в буфере.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lenLocked()
}

// Cap — ёмкость буфера.
func (b *Buffer) Cap() int {
	return len(b.events)
}

func (b *Buffer) lenLocked() int {
	if b.full {
		return len(b.events)
	}

	return b.next
}

// Last возвращает копию последних n событий в порядке от старых к новым.
func (b *Buffer) Last(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := b.lenLocked()
	if n <= 0 || size == 0 {
		return nil
	}

	if n > size {
		n = size
	}

	out := make([]Event, n)
	start := b.next - n
	if start < 0 {
		start += len(b.events)
	}

	for i := 0; i < n; i++ {
		out[i] = b.events[(start+i)%len(b.events)]
	}

	return out
}
