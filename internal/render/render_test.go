package render

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/domain/aggregate"
	"github.com/okian/pitwall/internal/domain/model"
)

func TestTitle(t *testing.T) {
	Convey("Given model kind names", t, func() {
		So(Title("basic"), ShouldEqual, "Basic")
		So(Title("olddrivers"), ShouldEqual, "Olddrivers")
		So(Title(""), ShouldEqual, "")
	})

	Convey("Given concurrent callers", t, func() {
		var wg sync.WaitGroup
		out := make([]string, 32)
		for i := range out {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = Title("advanced")
			}(i)
		}
		wg.Wait()
		for _, s := range out {
			So(s, ShouldEqual, "Advanced")
		}
	})
}

func TestDelta(t *testing.T) {
	Convey("Given position changes", t, func() {
		So(Delta(2), ShouldEqual, "+2")
		So(Delta(-1), ShouldEqual, "-1")
		So(Delta(0), ShouldEqual, "0")
	})
}

func TestTables(t *testing.T) {
	Convey("Given model metrics", t, func() {
		out := ModelMetrics([]model.ModelMetrics{{
			ModelType: model.ModelNoChange, AverageError: 3.14159, PredictionsCount: 40,
			LastUpdated: time.Date(2025, 5, 25, 14, 0, 0, 0, time.UTC),
		}})

		Convey("Then the table carries headers and formatted values", func() {
			So(out, ShouldContainSubstring, "Avg error (s)")
			So(out, ShouldContainSubstring, "Nochange")
			So(out, ShouldContainSubstring, "3.142")
			So(out, ShouldContainSubstring, "2025-05-25 14:00")
		})
	})

	Convey("Given a projection", t, func() {
		out := Projection([]model.ProjectedStandingEntry{
			{Position: 1, Driver: "Lando Norris", Team: "McLaren", Points: 100, PredictedPoints: 125, PositionChange: 1},
			{Position: 2, Driver: "Oscar Piastri", Team: "McLaren", Points: 110, PredictedPoints: 118, PositionChange: -1},
		})

		Convey("Then every row and signed change is rendered", func() {
			So(out, ShouldContainSubstring, "Lando Norris")
			So(out, ShouldContainSubstring, "+1")
			So(out, ShouldContainSubstring, "-1")
			So(out, ShouldContainSubstring, "Projected")
		})
	})

	Convey("Given predictions, drivers and an error summary", t, func() {
		p := Predictions([]aggregate.PredictionRow{{Rank: 1, Driver: "Max Verstappen", Time: "90:00.000", Points: 25}})
		d := Drivers([]model.DriverStat{{Driver: "Max Verstappen", Positions: []int{1, 2}, AveragePosition: 1.5, ConsistencyScore: 2}})
		e := ErrorSummary([]aggregate.ModelErrorSummary{{Model: model.ModelBasic, Count: 3, Mean: 4.5}})

		So(p, ShouldContainSubstring, "90:00.000")
		So(d, ShouldContainSubstring, "1.50")
		So(e, ShouldContainSubstring, "4.500")
		So(e, ShouldContainSubstring, "Basic")
	})

	Convey("Given no rows", t, func() {
		So(Table([]string{"A", "B"}, nil), ShouldContainSubstring, "A")
	})
}
