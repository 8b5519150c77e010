package aggregate

import (
	"time"

	"github.com/samber/lo"

	"github.com/okian/pitwall/internal/domain/model"
)

// Run statuses reported per model.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusMissing = "missing"
)

// RaceSummary lists a race and the status of each model run.
type RaceSummary struct {
	Race   model.RaceID               `json:"race"`
	Slug   string                     `json:"slug"`
	Models map[model.ModelKind]string `json:"models"`
}

// RunSummary describes one model run of a race.
type RunSummary struct {
	Model       model.ModelKind `json:"modelType"`
	Status      string          `json:"status"`
	ModelError  *float64        `json:"modelError,omitempty"`
	Predictions int             `json:"predictions"`
	Reason      string          `json:"reason,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// RaceAnalysis is the per-race view: every model's run and a driver comparison.
type RaceAnalysis struct {
	Race    model.RaceID       `json:"race"`
	Slug    string             `json:"slug"`
	Runs    []RunSummary       `json:"runs"`
	Drivers []DriverComparison `json:"drivers"`
	Trend   RaceTrend          `json:"trend"`
}

// RaceIndex returns every race in artifact order with each model's status.
// Models absent from a race are reported as missing.
func RaceIndex(season model.Season) []RaceSummary {
	return lo.Map(season.Races, func(r model.RaceRuns, _ int) RaceSummary {
		statuses := make(map[model.ModelKind]string, len(model.ModelKinds))
		for _, k := range model.ModelKinds {
			statuses[k] = StatusMissing
		}
		for _, run := range r.Runs {
			statuses[run.Model] = runStatus(run)
		}
		return RaceSummary{Race: r.Race, Slug: r.Race.Slug(), Models: statuses}
	})
}

// AnalyzeRace summarises one race.
func AnalyzeRace(race model.RaceRuns) RaceAnalysis {
	runs := lo.Map(race.Runs, func(run model.ModelRunResult, _ int) RunSummary {
		s := RunSummary{Model: run.Model, Status: runStatus(run), Timestamp: run.Timestamp}
		if res, ok := run.Success(); ok {
			e := res.ModelError
			s.ModelError = &e
			s.Predictions = len(res.Predictions)
		} else if f, ok := run.Outcome.(model.RunFailure); ok {
			s.Reason = f.Reason
		}
		return s
	})
	return RaceAnalysis{
		Race:    race.Race,
		Slug:    race.Race.Slug(),
		Runs:    runs,
		Drivers: CompareDrivers(race),
		Trend:   raceTrend(race),
	}
}

func runStatus(run model.ModelRunResult) string {
	if run.Failed() {
		return StatusFailed
	}
	return StatusOK
}
