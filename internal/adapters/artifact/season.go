// Package artifact parses the prediction pipeline's output files and loads
// them from disk or over HTTP.
package artifact

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/okian/pitwall/internal/domain/model"
)

// Field names used by the prediction pipeline.
const (
	fieldPredictions = "predictions"
	fieldModelError  = "model_error"
	fieldTimestamp   = "timestamp"
	fieldError       = "error"
	fieldDriver      = "Driver"
	fieldTime        = "PredictedRaceTime (s)"
)

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// predictionInput is a single prediction leaf before it becomes a record.
type predictionInput struct {
	Driver string  `validate:"required"`
	Time   float64 `validate:"gt=0"`
}

// timestampLayouts are tried in order. The pipeline writes naive ISO 8601.
var timestampLayouts = []string{ //nolint:gochecknoglobals // constant table
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseSeason decodes all_predictions.json, keeping races and models in
// document order. Malformed races, runs and predictions are skipped and
// counted in the report. Only a document that is not a JSON object fails.
func ParseSeason(data []byte) (model.Season, Report, error) {
	var report Report
	if !gjson.ValidBytes(data) {
		return model.Season{}, report, ErrNotObject
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return model.Season{}, report, ErrNotObject
	}

	var season model.Season
	doc.ForEach(func(raceKey, raceVal gjson.Result) bool {
		season.Keys++
		race := model.RaceID(strings.TrimSpace(raceKey.String()))
		if race == "" || !raceVal.IsObject() {
			report.drop(ReasonMalformedRace)
			return true
		}
		runs := model.RaceRuns{Race: race}
		raceVal.ForEach(func(modelKey, leaf gjson.Result) bool {
			if run, ok := parseRun(race, modelKey.String(), leaf, &report); ok {
				runs.Runs = append(runs.Runs, run)
			}
			return true
		})
		season.Races = append(season.Races, runs)
		return true
	})
	return season, report, nil
}

func parseRun(race model.RaceID, kindStr string, leaf gjson.Result, report *Report) (model.ModelRunResult, bool) {
	kind, err := model.ParseModelKind(kindStr)
	if err != nil {
		report.drop(ReasonUnknownModel)
		return model.ModelRunResult{}, false
	}
	if !leaf.IsObject() {
		report.drop(ReasonMalformedRun)
		return model.ModelRunResult{}, false
	}

	run := model.ModelRunResult{
		Race:      race,
		Model:     kind,
		Timestamp: parseTimestamp(leaf.Get(fieldTimestamp).String()),
	}

	if e := leaf.Get(fieldError); failed(e) {
		run.Outcome = model.RunFailure{Reason: e.String()}
		return run, true
	}

	preds := leaf.Get(fieldPredictions)
	if !preds.IsArray() {
		report.drop(ReasonMalformedRun)
		return model.ModelRunResult{}, false
	}
	me := leaf.Get(fieldModelError)
	if me.Type != gjson.Number || !finite(me.Float()) {
		report.drop(ReasonBadModelError)
		return model.ModelRunResult{}, false
	}

	entries := preds.Array()
	success := model.RunSuccess{ModelError: me.Float(), Entries: len(entries)}
	for i, p := range entries {
		rec, reason := parsePrediction(p)
		if reason != "" {
			report.drop(reason)
			continue
		}
		rec.Rank = i + 1
		success.Predictions = append(success.Predictions, rec)
	}
	run.Outcome = success
	return run, true
}

// failed reports whether an error field marks the run as failed. Null,
// false, zero and empty values do not.
func failed(e gjson.Result) bool {
	switch e.Type {
	case gjson.String:
		return e.Str != ""
	case gjson.Number:
		return e.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

func parsePrediction(p gjson.Result) (model.PredictionRecord, string) {
	if !p.IsObject() {
		return model.PredictionRecord{}, ReasonMissingDriver
	}
	// Keys contain spaces and parentheses, so walk them instead of using a path.
	var in predictionInput
	timeOK := false
	p.ForEach(func(k, v gjson.Result) bool {
		switch k.String() {
		case fieldDriver:
			if v.Type == gjson.String {
				in.Driver = strings.TrimSpace(v.String())
			}
		case fieldTime:
			if v.Type == gjson.Number && finite(v.Float()) {
				in.Time, timeOK = v.Float(), true
			}
		}
		return true
	})

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Driver" {
			return model.PredictionRecord{}, ReasonMissingDriver
		}
		return model.PredictionRecord{}, ReasonBadTime
	}
	if !timeOK {
		return model.PredictionRecord{}, ReasonBadTime
	}
	return model.PredictionRecord{Driver: model.DriverID(in.Driver), PredictedTimeSeconds: in.Time}, ""
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
