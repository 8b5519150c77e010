// Package projection computes a championship table as it would stand after a
// predicted race result.
package projection

import (
	"cmp"
	"slices"

	"github.com/okian/pitwall/internal/domain/model"
)

// Projector applies predicted finishing orders to championship standings.
type Projector struct {
	table PointsTable
}

// New returns a Projector for a validated points table.
func New(table PointsTable) (*Projector, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Projector{table: slices.Clone(table)}, nil
}

// Table returns a copy of the projector's points table.
func (p *Projector) Table() PointsTable {
	return slices.Clone(p.table)
}

// Project returns the standings after backing out actual's already-awarded
// points and awarding table points by predicted finishing order. Unknown
// drivers are ignored. Inputs are not modified.
func (p *Projector) Project(
	standings []model.StandingEntry,
	predictions []model.PredictionRecord,
	actual []model.RaceResultEntry,
) []model.ProjectedStandingEntry {
	out := make([]model.ProjectedStandingEntry, len(standings))
	index := make(map[model.DriverID]int, len(standings))
	for i, s := range standings {
		out[i] = model.ProjectedStandingEntry{
			Position:        s.Position,
			Driver:          s.Driver,
			Team:            s.Team,
			Points:          s.Points,
			PredictedPoints: s.Points,
		}
		if _, dup := index[s.Driver]; !dup {
			index[s.Driver] = i
		}
	}

	for _, r := range actual {
		if i, ok := index[r.Driver]; ok {
			out[i].PredictedPoints -= r.Points
		}
	}

	for rank, pred := range SortByTime(predictions) {
		if rank >= maxScoringRank {
			break
		}
		if i, ok := index[pred.Driver]; ok {
			out[i].PredictedPoints += p.table.Points(rank + 1)
		}
	}

	slices.SortStableFunc(out, func(a, b model.ProjectedStandingEntry) int {
		return cmp.Compare(b.PredictedPoints, a.PredictedPoints)
	})

	for i := range out {
		newPos := i + 1
		orig := out[i].Position
		if orig <= 0 {
			orig = newPos
		}
		out[i].Position = newPos
		out[i].PositionChange = orig - newPos
	}
	return out
}

// SortByTime returns predictions ordered fastest first. Equal times keep input order.
func SortByTime(predictions []model.PredictionRecord) []model.PredictionRecord {
	sorted := slices.Clone(predictions)
	slices.SortStableFunc(sorted, func(a, b model.PredictionRecord) int {
		return cmp.Compare(a.PredictedTimeSeconds, b.PredictedTimeSeconds)
	})
	return sorted
}

// Unmatched returns predicted drivers absent from standings, in prediction order.
func Unmatched(standings []model.StandingEntry, predictions []model.PredictionRecord) []model.DriverID {
	known := make(map[model.DriverID]struct{}, len(standings))
	for _, s := range standings {
		known[s.Driver] = struct{}{}
	}
	var missing []model.DriverID
	for _, p := range predictions {
		if _, ok := known[p.Driver]; !ok {
			missing = append(missing, p.Driver)
		}
	}
	return missing
}
