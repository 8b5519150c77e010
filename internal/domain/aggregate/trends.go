package aggregate

import (
	"github.com/samber/lo"

	"github.com/okian/pitwall/internal/domain/model"
)

// RaceTrend summarises how the models fared on one race.
type RaceTrend struct {
	Race             model.RaceID    `json:"race"`
	BestModel        model.ModelKind `json:"bestModel,omitempty"`
	BestError        float64         `json:"bestError"`
	WorstModel       model.ModelKind `json:"worstModel,omitempty"`
	WorstError       float64         `json:"worstError"`
	PredictionSpread float64         `json:"predictionSpread"`
	SuccessfulRuns   int             `json:"successfulRuns"`
	FailedRuns       int             `json:"failedRuns"`
}

// RaceTrends returns one trend per race in season order. Best and worst are by
// model error, first run wins ties. Spread is the range of every predicted
// time across the race's successful runs.
func RaceTrends(season model.Season) []RaceTrend {
	return lo.Map(season.Races, func(race model.RaceRuns, _ int) RaceTrend {
		return raceTrend(race)
	})
}

func raceTrend(race model.RaceRuns) RaceTrend {
	t := RaceTrend{Race: race.Race}

	ok := lo.Filter(race.Runs, func(r model.ModelRunResult, _ int) bool { return !r.Failed() })
	t.SuccessfulRuns = len(ok)
	t.FailedRuns = len(race.Runs) - len(ok)
	if len(ok) == 0 {
		return t
	}

	errOf := func(r model.ModelRunResult) float64 {
		s, _ := r.Success()
		return s.ModelError
	}
	best := lo.MinBy(ok, func(a, b model.ModelRunResult) bool { return errOf(a) < errOf(b) })
	worst := lo.MaxBy(ok, func(a, b model.ModelRunResult) bool { return errOf(a) > errOf(b) })
	t.BestModel, t.BestError = best.Model, errOf(best)
	t.WorstModel, t.WorstError = worst.Model, errOf(worst)

	var times []float64
	for _, r := range ok {
		s, _ := r.Success()
		for _, p := range s.Predictions {
			times = append(times, p.PredictedTimeSeconds)
		}
	}
	if len(times) > 0 {
		t.PredictionSpread = lo.Max(times) - lo.Min(times)
	}
	return t
}
