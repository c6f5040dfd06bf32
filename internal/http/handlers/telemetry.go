package handlers

import (
	"fmt"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/market-insights/internal/errors"
	"github.com/pribylovaa/market-insights/internal/metrics"
	"github.com/pribylovaa/market-insights/internal/telemetry"
)

// telemetryRequest — тело POST /telemetry. Timestamp необязателен.
type telemetryRequest struct {
	Metric    string     `json:"metric" validate:"required,max=64"`
	Value     *float64   `json:"value" validate:"required,gte=0"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// telemetryAccepted — ответ 202.
type telemetryAccepted struct {
	Accepted bool `json:"accepted"`
}

// PostTelemetry — POST /telemetry: одно событие в буфер.
// Имена метрик не ограничены: неизвестные лежат в буфере, модель их не учитывает.
func (h *Handlers) PostTelemetry(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.PostTelemetry"

	var req telemetryRequest
	if err := decodeStrict(r, &req); err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("%s: decode: %w: %v", op, apierrors.ErrInvalidArgument, err))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		apierrors.WriteError(w, r, fmt.Errorf("%s: validate: %w: %v", op, apierrors.ErrInvalidArgument, err))
		return
	}

	ts := h.now().UTC()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		ts = req.Timestamp.UTC()
	}

	if h.events != nil {
		h.events.Append(telemetry.Event{Metric: req.Metric, Value: *req.Value, Timestamp: ts})
	}

	label := "other"
	if telemetry.Known(req.Metric) {
		label = req.Metric
	}
	metrics.TelemetryEventsTotal.WithLabelValues(label).Inc()

	writeJSON(w, http.StatusAccepted, telemetryAccepted{Accepted: true})
}
