package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/adapters/http/api"
	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
)

// Mock implementations for testing
type mockDependencies struct {
	ready       bool
	err         error
	refreshOK   bool
	lastLimit   int
	lastRace    string
	lastModel   model.ModelKind
	lastReason  string
	errorSeries []model.ErrorRow
}

func (m *mockDependencies) Ready(context.Context) bool    { return m.ready }
func (m *mockDependencies) DefaultModel() model.ModelKind { return model.ModelAdvanced }

func (m *mockDependencies) Models(context.Context) ([]model.ModelMetrics, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []model.ModelMetrics{{ModelType: model.ModelBasic, AverageError: 2.5, PredictionsCount: 20}}, nil
}

func (m *mockDependencies) Drivers(_ context.Context, limit int) ([]model.DriverStat, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return []model.DriverStat{{Driver: "Max Verstappen", Positions: []int{1, 1}, AveragePosition: 1, ConsistencyScore: 1}}, nil
}

func (m *mockDependencies) Races(context.Context) ([]aggregate.RaceSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []aggregate.RaceSummary{{Race: "Emilia Romagna", Slug: "emilia-romagna"}}, nil
}

func (m *mockDependencies) Race(_ context.Context, race string) (aggregate.RaceAnalysis, error) {
	m.lastRace = race
	if m.err != nil {
		return aggregate.RaceAnalysis{}, m.err
	}
	return aggregate.RaceAnalysis{Race: "Emilia Romagna", Slug: "emilia-romagna"}, nil
}

func (m *mockDependencies) Predictions(_ context.Context, race string, kind model.ModelKind) ([]aggregate.PredictionRow, error) {
	m.lastRace, m.lastModel = race, kind
	if m.err != nil {
		return nil, m.err
	}
	return []aggregate.PredictionRow{{Rank: 1, Driver: "Max Verstappen", Time: "90:00.000", Points: 25}}, nil
}

func (m *mockDependencies) Projection(_ context.Context, race string, kind model.ModelKind) (model.ChampionshipImpact, error) {
	m.lastRace, m.lastModel = race, kind
	if m.err != nil {
		return model.ChampionshipImpact{}, m.err
	}
	return model.ChampionshipImpact{
		Race:  "Emilia Romagna",
		Model: kind,
		Projected: []model.ProjectedStandingEntry{
			{Position: 1, Driver: "Lando Norris", Points: 100, PredictedPoints: 125, PositionChange: 1},
			{Position: 2, Driver: "Oscar Piastri", Points: 110, PredictedPoints: 118, PositionChange: -1},
		},
		ActualSource: model.ActualSourceNone,
	}, nil
}

func (m *mockDependencies) ErrorSeries(_ context.Context, race string) ([]model.ErrorRow, error) {
	m.lastRace = race
	if m.err != nil {
		return nil, m.err
	}
	return m.errorSeries, nil
}

func (m *mockDependencies) ErrorSummary(context.Context) ([]aggregate.ModelErrorSummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []aggregate.ModelErrorSummary{{Model: model.ModelBasic, Count: 2, Mean: 3}}, nil
}

func (m *mockDependencies) Trends(context.Context) ([]aggregate.RaceTrend, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []aggregate.RaceTrend{{Race: "Monaco", BestModel: model.ModelAdvanced}}, nil
}

func (m *mockDependencies) RequestRefresh(_ context.Context, reason string) (string, bool) {
	m.lastReason = reason
	if !m.refreshOK {
		return "", false
	}
	return "req-1", true
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{ready: true, refreshOK: true}
		mux := newMux(deps)

		Convey("Then health reports snapshot readiness", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"snapshot":true`)
		})

		Convey("Then stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then metrics are exposed", func() {
			_ = do(mux, http.MethodGet, "/models", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "pitwall_http_requests_total")
		})

		Convey("Then the dashboard page is served", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "<title>pitwall")
		})

		Convey("Then wrong methods are rejected", func() {
			w := do(mux, http.MethodPost, "/models", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestModelsHandler(t *testing.T) {
	Convey("Given the models and drivers endpoints", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps, api.WithMaxDriversLimit(50))

		Convey("When listing models", func() {
			w := do(mux, http.MethodGet, "/models", "")

			Convey("Then the metrics are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []model.ModelMetrics
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].ModelType, ShouldEqual, model.ModelBasic)
			})
		})

		Convey("When listing drivers without a limit", func() {
			w := do(mux, http.MethodGet, "/drivers", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 50)
		})

		Convey("When listing drivers with a limit", func() {
			w := do(mux, http.MethodGet, "/drivers?limit=5", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastLimit, ShouldEqual, 5)
		})

		Convey("When the limit is invalid", func() {
			for _, q := range []string{"0", "-3", "ten"} {
				w := do(mux, http.MethodGet, "/drivers?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			w := do(mux, http.MethodGet, "/drivers?limit=51", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
		})
	})
}

func TestRacesHandler(t *testing.T) {
	Convey("Given the race endpoints", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps)

		Convey("When listing races", func() {
			w := do(mux, http.MethodGet, "/races", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"slug":"emilia-romagna"`)
		})

		Convey("When fetching a race by slug", func() {
			w := do(mux, http.MethodGet, "/races/emilia-romagna", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastRace, ShouldEqual, "emilia-romagna")
		})

		Convey("When fetching predictions without a model", func() {
			w := do(mux, http.MethodGet, "/races/monaco/predictions", "")

			Convey("Then the default model is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastModel, ShouldEqual, model.ModelAdvanced)
				So(w.Body.String(), ShouldContainSubstring, `"points":25`)
			})
		})

		Convey("When fetching a projection for a named model", func() {
			w := do(mux, http.MethodGet, "/races/Monaco/projection?model=BASIC", "")

			Convey("Then the model is parsed case-insensitively", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastModel, ShouldEqual, model.ModelBasic)
				var got model.ChampionshipImpact
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got.Projected, ShouldHaveLength, 2)
				So(got.Projected[0].PositionChange, ShouldEqual, 1)
				So(got.ActualSource, ShouldEqual, model.ActualSourceNone)
			})
		})

		Convey("When the model is unknown", func() {
			w := do(mux, http.MethodGet, "/races/monaco/projection?model=ensemble", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeError(w)["message"], ShouldContainSubstring, "ensemble")
		})
	})
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: no snapshot", model.ErrNotReady), http.StatusServiceUnavailable, "not_ready"},
		{fmt.Errorf("%w: \"Atlantis\"", model.ErrRaceNotFound), http.StatusNotFound, "race_not_found"},
		{fmt.Errorf("%w: monaco basic run failed", model.ErrModelUnavailable), http.StatusNotFound, "model_unavailable"},
		{fmt.Errorf("%w: dial tcp: refused", model.ErrDataUnavailable), http.StatusBadGateway, "data_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	Convey("Given service errors", t, func() {
		for _, tc := range cases {
			deps := &mockDependencies{err: tc.err}
			mux := newMux(deps)

			w := do(mux, http.MethodGet, "/races/atlantis/projection", "")
			So(w.Code, ShouldEqual, tc.status)
			So(decodeError(w)["code"], ShouldEqual, tc.code)
		}

		Convey("Then upstream details are not leaked", func() {
			deps := &mockDependencies{err: fmt.Errorf("%w: dial tcp 10.0.0.1: refused", model.ErrDataUnavailable)}
			w := do(newMux(deps), http.MethodGet, "/races/monaco/projection", "")
			So(decodeError(w)["message"], ShouldEqual, "data unavailable")
		})
	})
}

func TestSeriesHandler(t *testing.T) {
	Convey("Given the error series endpoints", t, func() {
		deps := &mockDependencies{ready: true}
		mux := newMux(deps)

		Convey("When no rows exist", func() {
			w := do(mux, http.MethodGet, "/errors?race=monaco", "")

			Convey("Then an empty array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
				So(deps.lastRace, ShouldEqual, "monaco")
			})
		})

		Convey("When rows exist", func() {
			deps.errorSeries = []model.ErrorRow{{GrandPrix: "Monaco", Model: model.ModelBasic, ErrorSeconds: 4.2}}
			w := do(mux, http.MethodGet, "/errors", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"errorSeconds":4.2`)
		})

		Convey("When asking for the summary and trends", func() {
			So(do(mux, http.MethodGet, "/errors/summary", "").Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodGet, "/trends", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"bestModel":"advanced"`)
		})
	})
}

func TestRefreshHandler(t *testing.T) {
	Convey("Given the refresh endpoint", t, func() {
		deps := &mockDependencies{refreshOK: true}
		mux := newMux(deps)

		Convey("When posting without a body", func() {
			w := do(mux, http.MethodPost, "/refresh", "")

			Convey("Then the request is accepted with a default reason", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"id":"req-1"`)
				So(deps.lastReason, ShouldEqual, "api")
			})
		})

		Convey("When posting a reason", func() {
			w := do(mux, http.MethodPost, "/refresh", `{"reason":"new artifact"}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.lastReason, ShouldEqual, "new artifact")
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/refresh", `{reason`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.refreshOK = false
			w := do(mux, http.MethodPost, "/refresh", "")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decodeError(w)["code"], ShouldEqual, "backpressure")
		})
	})
}
