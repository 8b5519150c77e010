package api

import (
	"context"
	"net/http"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
)

// SeriesDependencies defines the interface for the error series and trends.
type SeriesDependencies interface {
	ErrorSeries(ctx context.Context, race string) ([]model.ErrorRow, error)
	ErrorSummary(ctx context.Context) ([]aggregate.ModelErrorSummary, error)
	Trends(ctx context.Context) ([]aggregate.RaceTrend, error)
}

// SeriesHandler handles error series and trend requests.
type SeriesHandler struct {
	deps SeriesDependencies
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(deps SeriesDependencies) *SeriesHandler {
	return &SeriesHandler{deps: deps}
}

// HandleGetErrors handles GET /errors?race= requests.
func (h *SeriesHandler) HandleGetErrors(w http.ResponseWriter, r *http.Request) {
	rows, err := h.deps.ErrorSeries(r.Context(), r.URL.Query().Get("race"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rows == nil {
		rows = []model.ErrorRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleGetErrorSummary handles GET /errors/summary requests.
func (h *SeriesHandler) HandleGetErrorSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.ErrorSummary(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleGetTrends handles GET /trends requests.
func (h *SeriesHandler) HandleGetTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := h.deps.Trends(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}
