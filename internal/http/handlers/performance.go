package handlers

import (
	"fmt"
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/market-insights/internal/errors"
	"github.com/pribylovaa/market-insights/internal/telemetry"
)

// performanceResponse — снимок панели с рекомендациями.
type performanceResponse struct {
	Variant string `json:"variant"`
	telemetry.Snapshot
	Recommendations []string   `json:"recommendations"`
	Active          bool       `json:"active"`
	ComputedAt      *time.Time `json:"computedAt,omitempty"`
}

// GetPerformance — GET /performance?variant=dashboard|compact.
// Первый запрос активирует панель (аналог появления виджета во вьюпорте).
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.GetPerformance"

	name := r.URL.Query().Get("variant")
	if name == "" {
		name = telemetry.VariantDashboard
	}

	panel, ok := h.panels[name]
	if !ok {
		apierrors.WriteError(w, r, fmt.Errorf("%s: unknown variant %q: %w", op, name, apierrors.ErrInvalidArgument))
		return
	}

	panel.Activate()
	snap, at, active := panel.Snapshot()

	resp := performanceResponse{
		Variant:         name,
		Snapshot:        snap,
		Recommendations: telemetry.Recommendations(snap),
		Active:          active,
	}

	if !at.IsZero() {
		resp.ComputedAt = &at
	}

	writeJSON(w, http.StatusOK, resp)
}
