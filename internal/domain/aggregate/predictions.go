package aggregate

import (
	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/projection"
	"github.com/okian/pitwall/internal/domain/timing"
)

// PredictionRow is one line of a predicted classification.
type PredictionRow struct {
	Rank                 int            `json:"rank"`
	Driver               model.DriverID `json:"driver"`
	PredictedTimeSeconds float64        `json:"predictedTimeSeconds"`
	Time                 string         `json:"time"`
	Gap                  string         `json:"gap"`
	Points               int            `json:"points"`
}

// SortedPredictions orders predictions fastest first and annotates each row
// with its display time, gap to the leader and the points that rank earns
// under table. A nil table awards nothing.
func SortedPredictions(predictions []model.PredictionRecord, table projection.PointsTable) []PredictionRow {
	sorted := projection.SortByTime(predictions)
	rows := make([]PredictionRow, len(sorted))
	for i, p := range sorted {
		rows[i] = PredictionRow{
			Rank:                 i + 1,
			Driver:               p.Driver,
			PredictedTimeSeconds: p.PredictedTimeSeconds,
			Time:                 timing.FormatRaceTime(p.PredictedTimeSeconds),
			Gap:                  timing.Gap(sorted[0].PredictedTimeSeconds, p.PredictedTimeSeconds),
			Points:               table.Points(i + 1),
		}
	}
	return rows
}
