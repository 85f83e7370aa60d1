package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"incidentdash/core/aggregate"
	"incidentdash/core/chart"
	"incidentdash/core/dashboard"
	"incidentdash/core/incidents"
	"incidentdash/core/projection"
	"incidentdash/core/utils"
)

type SeriesHandler struct {
	svc    *dashboard.Service
	logger *utils.Logger
}

func NewSeriesHandler(svc *dashboard.Service, logger *utils.Logger) *SeriesHandler {
	return &SeriesHandler{svc: svc, logger: logger}
}

type seriesResponse struct {
	Category   string                 `json:"category"`
	Field      incidents.Field        `json:"field"`
	Mode       string                 `json:"mode"`
	Title      string                 `json:"title"`
	Points     []seriesPoint          `json:"points"`
	Projection *projection.Projection `json:"projection,omitempty"`
}

type seriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func (h *SeriesHandler) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Categories(r.Context())
	if err != nil {
		h.logger.Errorf("list categories: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", "categories unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Series returns the aggregated points and, when date is given in
// MM/DD/YY or YYYY-MM-DD form, the projection to that date.
func (h *SeriesHandler) Series(w http.ResponseWriter, r *http.Request) {
	q, err := dashboard.ParseQuery(urlParam(r, "category"), urlParam(r, "field"), normalizeDate(r.URL.Query().Get("date")))
	if errors.Is(err, incidents.ErrUnknownField) {
		writeError(w, http.StatusBadRequest, "unknown_field", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	data, err := h.svc.Series(r.Context(), q)
	if errors.Is(err, projection.ErrInsufficientData) {
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
		return
	}
	if err != nil {
		h.logger.Errorf("series %s/%s: %v", q.Category, q.Field, err)
		writeError(w, http.StatusInternalServerError, "server_error", "series unavailable")
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{
		Category:   q.Category,
		Field:      q.Field,
		Mode:       q.Mode.Mode(),
		Title:      chart.Title(data),
		Points:     toSeriesPoints(data.Points),
		Projection: data.Projection,
	})
}

func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(formDateLayout, raw); err == nil {
		return incidents.FormatDate(t)
	}
	return raw
}

func toSeriesPoints(points []aggregate.Point) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{Date: incidents.FormatDate(p.Date), Value: p.Value})
	}
	return out
}
