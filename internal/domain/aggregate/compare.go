package aggregate

import (
	"github.com/okian/pitwall/internal/domain/model"
)

// DriverComparison lines up one driver's predicted time from each model.
type DriverComparison struct {
	Driver model.DriverID              `json:"driver"`
	Times  map[model.ModelKind]float64 `json:"times"`
	Ranks  map[model.ModelKind]int     `json:"ranks"`
}

// CompareDrivers builds a per-driver view of a race across its successful
// runs. Drivers appear in the predicted finishing order of the first run that
// mentions them. Ranks are by predicted time.
func CompareDrivers(race model.RaceRuns) []DriverComparison {
	var out []DriverComparison
	index := map[model.DriverID]int{}

	for _, run := range race.Runs {
		res, ok := run.Success()
		if !ok {
			continue
		}
		for _, row := range SortedPredictions(res.Predictions, nil) {
			i, seen := index[row.Driver]
			if !seen {
				i = len(out)
				index[row.Driver] = i
				out = append(out, DriverComparison{
					Driver: row.Driver,
					Times:  map[model.ModelKind]float64{},
					Ranks:  map[model.ModelKind]int{},
				})
			}
			out[i].Times[run.Model] = row.PredictedTimeSeconds
			out[i].Ranks[run.Model] = row.Rank
		}
	}
	return out
}
