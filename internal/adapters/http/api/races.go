package api

import (
	"context"
	"net/http"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
)

// RacesDependencies defines the interface for per-race reads.
type RacesDependencies interface {
	DefaultModel() model.ModelKind
	Races(ctx context.Context) ([]aggregate.RaceSummary, error)
	Race(ctx context.Context, race string) (aggregate.RaceAnalysis, error)
	Predictions(ctx context.Context, race string, kind model.ModelKind) ([]aggregate.PredictionRow, error)
	Projection(ctx context.Context, race string, kind model.ModelKind) (model.ChampionshipImpact, error)
}

// RacesHandler handles race requests.
type RacesHandler struct {
	deps RacesDependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps RacesDependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// HandleListRaces handles GET /races requests.
func (h *RacesHandler) HandleListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := h.deps.Races(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, races)
}

// HandleGetRace handles GET /races/{race} requests.
func (h *RacesHandler) HandleGetRace(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.deps.Race(r.Context(), r.PathValue("race"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// HandleGetPredictions handles GET /races/{race}/predictions?model= requests.
func (h *RacesHandler) HandleGetPredictions(w http.ResponseWriter, r *http.Request) {
	kind, err := modelParam(r, h.deps.DefaultModel())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rows, err := h.deps.Predictions(r.Context(), r.PathValue("race"), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleGetProjection handles GET /races/{race}/projection?model= requests.
func (h *RacesHandler) HandleGetProjection(w http.ResponseWriter, r *http.Request) {
	kind, err := modelParam(r, h.deps.DefaultModel())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	impact, err := h.deps.Projection(r.Context(), r.PathValue("race"), kind)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, impact)
}
