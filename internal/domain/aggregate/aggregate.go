// Package aggregate reduces per-race, per-model prediction runs into
// season-level statistics.
package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/pitwall/internal/domain/model"
)

// Averaging selects the divisor used for a model's average error.
type Averaging string

const (
	// AverageOverRaces divides by every race in the season, failed runs included.
	AverageOverRaces Averaging = "races"
	// AverageOverRuns divides by the model's successful runs only.
	AverageOverRuns Averaging = "runs"
)

// ParseAveraging maps a config string to an Averaging mode. Empty means races.
func ParseAveraging(s string) (Averaging, error) {
	switch a := Averaging(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return AverageOverRaces, nil
	case AverageOverRaces, AverageOverRuns:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAveraging, s)
	}
}

// Options tunes Aggregate.
type Options struct {
	Averaging Averaging
}

// Summary is the output of Aggregate.
type Summary struct {
	Models  []model.ModelMetrics `json:"models"`
	Drivers []model.DriverStat   `json:"drivers"`
}

type modelAcc struct {
	errorSum    float64
	runs        int
	predictions int
	firstSeen   time.Time
}

// Aggregate folds every successful run into per-model metrics and per-driver
// rank statistics. A driver's rank is its 1-based index in the run's
// source prediction array, so the source order matters and dropped entries
// keep their slot. Output follows
// first-seen order. An empty season yields an empty summary.
func Aggregate(season model.Season, opts Options) Summary {
	var (
		modelOrder  []model.ModelKind
		models      = map[model.ModelKind]*modelAcc{}
		driverOrder []model.DriverID
		positions   = map[model.DriverID][]int{}
	)

	for _, race := range season.Races {
		for _, run := range race.Runs {
			res, ok := run.Success()
			if !ok {
				continue
			}
			acc, seen := models[run.Model]
			if !seen {
				acc = &modelAcc{firstSeen: run.Timestamp}
				models[run.Model] = acc
				modelOrder = append(modelOrder, run.Model)
			}
			acc.errorSum += res.ModelError
			acc.runs++
			acc.predictions += res.PredictionCount()

			for i, p := range res.Predictions {
				if _, seen := positions[p.Driver]; !seen {
					driverOrder = append(driverOrder, p.Driver)
				}
				rank := i + 1
				if p.Rank > 0 {
					rank = p.Rank
				}
				positions[p.Driver] = append(positions[p.Driver], rank)
			}
		}
	}

	out := Summary{
		Models:  make([]model.ModelMetrics, 0, len(modelOrder)),
		Drivers: make([]model.DriverStat, 0, len(driverOrder)),
	}
	for _, kind := range modelOrder {
		acc := models[kind]
		divisor := season.RaceCount()
		if opts.Averaging == AverageOverRuns {
			divisor = acc.runs
		}
		out.Models = append(out.Models, model.ModelMetrics{
			ModelType:        kind,
			AverageError:     acc.errorSum / float64(divisor),
			PredictionsCount: acc.predictions,
			LastUpdated:      acc.firstSeen,
		})
	}
	for _, d := range driverOrder {
		out.Drivers = append(out.Drivers, driverStat(d, positions[d]))
	}
	return out
}

func driverStat(d model.DriverID, positions []int) model.DriverStat {
	xs := lo.Map(positions, func(p int, _ int) float64 { return float64(p) })
	mean, std := stat.PopMeanStdDev(xs, nil)
	if std == 0 {
		std = 1
	}
	return model.DriverStat{
		Driver:           d,
		Positions:        positions,
		AveragePosition:  mean,
		ConsistencyScore: 1 / std,
	}
}
