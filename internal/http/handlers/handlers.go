package handlers

//go:generate mockgen -source=handlers.go -destination=../../../mocks/mock_handlers.go -package=mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/market-insights/internal/cache"
	"github.com/pribylovaa/market-insights/internal/models"
	"github.com/pribylovaa/market-insights/internal/telemetry"
)

// FeedService — источник ленты (реализация: service.Service).
type FeedService interface {
	FetchFeed(ctx context.Context) (*models.FeedResult, error)
}

// EventSink принимает события телеметрии (реализация: telemetry.Buffer).
type EventSink interface {
	Append(e telemetry.Event)
}

// Panel — панель производительности с отложенной активацией (реализация: telemetry.Monitor).
type Panel interface {
	Variant() telemetry.Variant
	Activate()
	Snapshot() (telemetry.Snapshot, time.Time, bool)
}

// Deps — зависимости хендлеров. Cache может быть nil (кэш выключен).
type Deps struct {
	Feed   FeedService
	Cache  cache.FeedCache
	Events EventSink
	Panels []Panel
	// Revalidate — срок кэширования ответа ленты.
	Revalidate time.Duration
	// Now — часы для меток событий; nil означает time.Now.
	Now func() time.Time
}

// Handlers агрегирует зависимости REST-эндпойнтов.
type Handlers struct {
	feed       FeedService
	cache      cache.FeedCache
	events     EventSink
	panels     map[string]Panel
	revalidate time.Duration
	now        func() time.Time
	validate   *validator.Validate
}

func New(d Deps) *Handlers {
	panels := make(map[string]Panel, len(d.Panels))
	for _, p := range d.Panels {
		panels[p.Variant().Name] = p
	}

	now := d.Now
	if now == nil {
		now = time.Now
	}

	return &Handlers{
		feed:       d.Feed,
		cache:      d.Cache,
		events:     d.Events,
		panels:     panels,
		revalidate: d.Revalidate,
		now:        now,
		validate:   validator.New(),
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

func (h *Handlers) emit(metric string, value float64) {
	if h.events == nil {
		return
	}

	h.events.Append(telemetry.Event{Metric: metric, Value: value, Timestamp: h.now().UTC()})
}
