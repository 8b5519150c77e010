// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Ready(ctx context.Context) bool
	DefaultModel() model.ModelKind

	Models(ctx context.Context) ([]model.ModelMetrics, error)
	Drivers(ctx context.Context, limit int) ([]model.DriverStat, error)

	Races(ctx context.Context) ([]aggregate.RaceSummary, error)
	Race(ctx context.Context, race string) (aggregate.RaceAnalysis, error)
	Predictions(ctx context.Context, race string, kind model.ModelKind) ([]aggregate.PredictionRow, error)
	Projection(ctx context.Context, race string, kind model.ModelKind) (model.ChampionshipImpact, error)

	ErrorSeries(ctx context.Context, race string) ([]model.ErrorRow, error)
	ErrorSummary(ctx context.Context) ([]aggregate.ModelErrorSummary, error)
	Trends(ctx context.Context) ([]aggregate.RaceTrend, error)

	// RequestRefresh queues an artifact reload. Returns false on backpressure.
	RequestRefresh(ctx context.Context, reason string) (string, bool)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	modelsHandler    *ModelsHandler
	racesHandler     *RacesHandler
	seriesHandler    *SeriesHandler
	refreshHandler   *RefreshHandler
	dashboardHandler *dashboardHandler
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxDriversLimit int
}

// WithMaxDriversLimit caps GET /drivers?limit.
func WithMaxDriversLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxDriversLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxDriversLimit: defaultMaxDriversLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		modelsHandler:    NewModelsHandler(deps, o.maxDriversLimit),
		racesHandler:     NewRacesHandler(deps),
		seriesHandler:    NewSeriesHandler(deps),
		refreshHandler:   NewRefreshHandler(deps),
		dashboardHandler: newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /models", MetricsMiddleware(s.modelsHandler.HandleGetModels, "models"))
	mux.HandleFunc("GET /drivers", MetricsMiddleware(s.modelsHandler.HandleGetDrivers, "drivers"))

	mux.HandleFunc("GET /races", MetricsMiddleware(s.racesHandler.HandleListRaces, "races"))
	mux.HandleFunc("GET /races/{race}", MetricsMiddleware(s.racesHandler.HandleGetRace, "race"))
	mux.HandleFunc("GET /races/{race}/predictions", MetricsMiddleware(s.racesHandler.HandleGetPredictions, "predictions"))
	mux.HandleFunc("GET /races/{race}/projection", MetricsMiddleware(s.racesHandler.HandleGetProjection, "projection"))

	mux.HandleFunc("GET /errors", MetricsMiddleware(s.seriesHandler.HandleGetErrors, "errors"))
	mux.HandleFunc("GET /errors/summary", MetricsMiddleware(s.seriesHandler.HandleGetErrorSummary, "errors_summary"))
	mux.HandleFunc("GET /trends", MetricsMiddleware(s.seriesHandler.HandleGetTrends, "trends"))

	mux.HandleFunc("POST /refresh", MetricsMiddleware(s.refreshHandler.HandlePostRefresh, "refresh"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if rec, ok := w.(*statusRecorder); ok {
		rec.code = code
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service errors into status codes. Upstream
// and internal failures are reported without their details.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "not_ready", model.ErrNotReady)
	case errors.Is(err, model.ErrRaceNotFound):
		writeError(w, http.StatusNotFound, "race_not_found", err)
	case errors.Is(err, model.ErrModelUnavailable):
		writeError(w, http.StatusNotFound, "model_unavailable", err)
	case errors.Is(err, model.ErrDataUnavailable):
		writeError(w, http.StatusBadGateway, "data_unavailable", model.ErrDataUnavailable)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// modelParam resolves ?model=, falling back to the configured default.
func modelParam(r *http.Request, fallback model.ModelKind) (model.ModelKind, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("model"))
	if raw == "" {
		return fallback, nil
	}
	return model.ParseModelKind(raw)
}
