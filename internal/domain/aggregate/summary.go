package aggregate

import (
	"slices"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/pitwall/internal/domain/model"
)

// ModelErrorSummary describes the distribution of one model's race errors.
type ModelErrorSummary struct {
	Model  model.ModelKind `json:"model"`
	Count  int             `json:"count"`
	Mean   float64         `json:"mean"`
	StdDev float64         `json:"std"`
	Min    float64         `json:"min"`
	Max    float64         `json:"max"`
	Median float64         `json:"median"`
}

// ErrorSummary groups error rows by model, sorted by model name. StdDev is
// the sample standard deviation and is 0 for a single row.
func ErrorSummary(rows []model.ErrorRow) []ModelErrorSummary {
	groups := lo.GroupBy(rows, func(r model.ErrorRow) model.ModelKind { return r.Model })
	kinds := lo.Keys(groups)
	slices.Sort(kinds)

	out := make([]ModelErrorSummary, 0, len(kinds))
	for _, k := range kinds {
		xs := lo.Map(groups[k], func(r model.ErrorRow, _ int) float64 { return r.ErrorSeconds })
		sort.Float64s(xs)
		s := ModelErrorSummary{
			Model:  k,
			Count:  len(xs),
			Mean:   stat.Mean(xs, nil),
			Min:    xs[0],
			Max:    xs[len(xs)-1],
			Median: median(xs),
		}
		if len(xs) > 1 {
			s.StdDev = stat.StdDev(xs, nil)
		}
		out = append(out, s)
	}
	return out
}

// median expects sorted, non-empty input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
