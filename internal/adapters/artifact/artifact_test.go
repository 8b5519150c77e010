package artifact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/domain/model"
)

const seasonJSON = `{
  "Bahrain": {
    "basic": {
      "gp_name": "Bahrain", "model_type": "basic",
      "predictions": [
        {"Driver": "Max Verstappen", "PredictedRaceTime (s)": 5504.2},
        {"Driver": "Charles Leclerc", "PredictedRaceTime (s)": 5510.9},
        {"Driver": "", "PredictedRaceTime (s)": 5520.0},
        {"Driver": "Lando Norris", "PredictedRaceTime (s)": "fast"}
      ],
      "model_error": 3.25,
      "timestamp": "2025-04-20T15:04:05.123456"
    },
    "advanced": {"gp_name": "Bahrain", "model_type": "advanced", "error": "No data", "timestamp": "2025-04-20T15:05:00"},
    "ensemble": {"predictions": [], "model_error": 1}
  },
  "Saudi Arabia": {
    "nochange": {"predictions": [], "model_error": "n/a"},
    "olddrivers": {"predictions": [{"Driver": "Lewis Hamilton", "PredictedRaceTime (s)": 5600}], "model_error": 1.5}
  },
  "Broken": []
}`

func TestParseSeason(t *testing.T) {
	Convey("Given a prediction artifact", t, func() {
		season, report, err := ParseSeason([]byte(seasonJSON))

		Convey("Then it parses without error in document order", func() {
			So(err, ShouldBeNil)
			So(season.Races, ShouldHaveLength, 2)
			So(season.Races[0].Race, ShouldEqual, model.RaceID("Bahrain"))
			So(season.Races[1].Race, ShouldEqual, model.RaceID("Saudi Arabia"))
		})

		Convey("Then malformed race keys still count as races", func() {
			So(season.Keys, ShouldEqual, 3)
			So(season.RaceCount(), ShouldEqual, 3)
		})

		Convey("Then successful runs keep only valid predictions", func() {
			run, ok := season.Races[0].Run(model.ModelBasic)
			So(ok, ShouldBeTrue)
			res, ok := run.Success()
			So(ok, ShouldBeTrue)
			So(res.ModelError, ShouldEqual, 3.25)
			So(res.Predictions, ShouldResemble, []model.PredictionRecord{
				{Driver: "Max Verstappen", PredictedTimeSeconds: 5504.2, Rank: 1},
				{Driver: "Charles Leclerc", PredictedTimeSeconds: 5510.9, Rank: 2},
			})
			So(res.Entries, ShouldEqual, 4)
			So(res.PredictionCount(), ShouldEqual, 4)
			So(run.Timestamp, ShouldEqual, time.Date(2025, 4, 20, 15, 4, 5, 123456000, time.UTC))
		})

		Convey("Then error leaves become failures", func() {
			run, ok := season.Races[0].Run(model.ModelAdvanced)
			So(ok, ShouldBeTrue)
			So(run.Outcome, ShouldResemble, model.RunFailure{Reason: "No data"})
		})

		Convey("Then malformed records are counted", func() {
			So(report.Dropped[ReasonMissingDriver], ShouldEqual, 1)
			So(report.Dropped[ReasonBadTime], ShouldEqual, 1)
			So(report.Dropped[ReasonUnknownModel], ShouldEqual, 1)
			So(report.Dropped[ReasonBadModelError], ShouldEqual, 1)
			So(report.Dropped[ReasonMalformedRace], ShouldEqual, 1)
			So(report.Total(), ShouldEqual, 5)
			So(report.String(), ShouldContainSubstring, "bad_time=1")
		})
	})

	Convey("Given documents that are not objects", t, func() {
		for _, doc := range []string{`[]`, `"x"`, `{not json`, ``} {
			_, _, err := ParseSeason([]byte(doc))
			So(errors.Is(err, ErrNotObject), ShouldBeTrue)
		}
	})

	Convey("Given an empty object", t, func() {
		season, report, err := ParseSeason([]byte(`{}`))
		So(err, ShouldBeNil)
		So(season.Races, ShouldBeEmpty)
		So(report.Total(), ShouldEqual, 0)
		So(report.String(), ShouldEqual, "no records dropped")
	})
}

func TestParseSeasonKeepsSourceRanks(t *testing.T) {
	Convey("Given a run with a broken entry in the middle", t, func() {
		doc := `{"Monaco":{"basic":{"predictions":[
			{"Driver":"A","PredictedRaceTime (s)":5400},
			{"PredictedRaceTime (s)":5401},
			{"Driver":"C","PredictedRaceTime (s)":5402}
		],"model_error":1}}}`
		season, report, err := ParseSeason([]byte(doc))
		So(err, ShouldBeNil)
		So(report.Dropped[ReasonMissingDriver], ShouldEqual, 1)

		Convey("Then later drivers keep their source index", func() {
			res, ok := season.Races[0].Runs[0].Success()
			So(ok, ShouldBeTrue)
			So(res.Predictions, ShouldHaveLength, 2)
			So(res.Predictions[1].Driver, ShouldEqual, model.DriverID("C"))
			So(res.Predictions[1].Rank, ShouldEqual, 3)
			So(res.PredictionCount(), ShouldEqual, 3)
		})
	})

	Convey("Given error fields that are empty", t, func() {
		doc := `{"Monaco":{
			"basic":{"error":null,"predictions":[{"Driver":"A","PredictedRaceTime (s)":5400}],"model_error":1},
			"advanced":{"error":"","predictions":[],"model_error":2},
			"nochange":{"error":false,"predictions":[],"model_error":3},
			"olddrivers":{"error":"timeout"}
		}}`
		season, _, err := ParseSeason([]byte(doc))
		So(err, ShouldBeNil)
		runs := season.Races[0]

		Convey("Then only a non-empty error marks the run as failed", func() {
			for _, kind := range []model.ModelKind{model.ModelBasic, model.ModelAdvanced, model.ModelNoChange} {
				run, ok := runs.Run(kind)
				So(ok, ShouldBeTrue)
				So(run.Failed(), ShouldBeFalse)
			}
			run, ok := runs.Run(model.ModelOldDrivers)
			So(ok, ShouldBeTrue)
			So(run.Outcome, ShouldResemble, model.RunFailure{Reason: "timeout"})
		})
	})
}

func TestParseErrorSeries(t *testing.T) {
	Convey("Given an error series export", t, func() {
		csvData := "Grand Prix,Model Type,Error (seconds)\n" +
			"Bahrain,basic,3.5\n" +
			"Bahrain,advanced,nan\n" +
			"Bahrain,ensemble,1.0\n" +
			"Jeddah,advanced,abc\n" +
			"Jeddah\n" +
			"Jeddah,advanced,2.25\n"

		rows, report, err := ParseErrorSeries(strings.NewReader(csvData))

		Convey("Then numeric rows survive", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, []model.ErrorRow{
				{GrandPrix: "Bahrain", Model: model.ModelBasic, ErrorSeconds: 3.5},
				{GrandPrix: "Jeddah", Model: model.ModelAdvanced, ErrorSeconds: 2.25},
			})
		})

		Convey("Then the rest are counted", func() {
			So(report.Dropped[ReasonBadErrorValue], ShouldEqual, 2)
			So(report.Dropped[ReasonUnknownModel], ShouldEqual, 1)
			So(report.Dropped[ReasonMalformedRow], ShouldEqual, 1)
		})
	})

	Convey("Given reordered columns", t, func() {
		rows, _, err := ParseErrorSeries(strings.NewReader("Error (seconds),Grand Prix,Model Type\n1.5,Monaco,basic\n"))
		So(err, ShouldBeNil)
		So(rows, ShouldResemble, []model.ErrorRow{{GrandPrix: "Monaco", Model: model.ModelBasic, ErrorSeconds: 1.5}})
	})

	Convey("Given an empty input", t, func() {
		rows, _, err := ParseErrorSeries(strings.NewReader(""))
		So(err, ShouldBeNil)
		So(rows, ShouldBeEmpty)
	})

	Convey("Given a header that is too narrow", t, func() {
		_, _, err := ParseErrorSeries(strings.NewReader("race\nMonaco\n"))
		So(errors.Is(err, ErrBadHeader), ShouldBeTrue)
	})
}

func TestSources(t *testing.T) {
	ctx := context.Background()

	Convey("Given a location", t, func() {
		Convey("When it is empty", func() {
			_, err := NewSource("  ")
			So(errors.Is(err, ErrEmptyLocator), ShouldBeTrue)
		})

		Convey("When it is a local file", func() {
			path := filepath.Join(t.TempDir(), "all_predictions.json")
			So(os.WriteFile(path, []byte(`{}`), 0o600), ShouldBeNil)

			src, err := NewSource("file://" + path)
			So(err, ShouldBeNil)
			b, err := src.Load(ctx)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{}`)
			So(src.String(), ShouldEqual, path)
		})

		Convey("When the file does not exist", func() {
			src, _ := NewSource(filepath.Join(t.TempDir(), "missing.json"))
			_, err := src.Load(ctx)
			So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a flaky HTTP server", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"Monaco":{}}`))
		}))
		defer srv.Close()

		Convey("Then the load is retried until it succeeds", func() {
			src, err := NewSource(srv.URL, WithRetry(3, time.Millisecond))
			So(err, ShouldBeNil)
			b, err := src.Load(ctx)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"Monaco":{}}`)
			So(calls.Load(), ShouldEqual, 3)
		})
	})

	Convey("Given an HTTP server returning 404", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.NotFound(w, nil)
		}))
		defer srv.Close()

		Convey("Then it fails without retrying", func() {
			src := NewHTTPSource(srv.URL, WithRetry(5, time.Millisecond), WithHTTPClient(srv.Client()))
			_, err := src.Load(ctx)
			So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
			So(calls.Load(), ShouldEqual, 1)
		})
	})
}
