package aggregate

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/domain/model"
)

func TestRaceIndex(t *testing.T) {
	Convey("Given a season with a failed run", t, func() {
		index := RaceIndex(sampleSeason())

		Convey("Then every race lists every model kind", func() {
			So(index, ShouldHaveLength, 2)
			So(index[0].Slug, ShouldEqual, "bahrain")
			So(index[0].Models, ShouldHaveLength, len(model.ModelKinds))
			So(index[0].Models[model.ModelBasic], ShouldEqual, StatusOK)
			So(index[0].Models[model.ModelNoChange], ShouldEqual, StatusMissing)
			So(index[1].Models[model.ModelAdvanced], ShouldEqual, StatusFailed)
		})
	})

	Convey("Given an empty season", t, func() {
		So(RaceIndex(model.Season{}), ShouldBeEmpty)
	})
}

func TestAnalyzeRace(t *testing.T) {
	Convey("Given a race with one success and one failure", t, func() {
		a := AnalyzeRace(sampleSeason().Races[1])

		Convey("Then runs keep artifact order with error and reason", func() {
			So(a.Race, ShouldEqual, model.RaceID("Jeddah"))
			So(a.Runs, ShouldHaveLength, 2)
			So(a.Runs[0].Status, ShouldEqual, StatusOK)
			So(*a.Runs[0].ModelError, ShouldEqual, 4.0)
			So(a.Runs[0].Predictions, ShouldEqual, 3)
			So(a.Runs[1].Status, ShouldEqual, StatusFailed)
			So(a.Runs[1].ModelError, ShouldBeNil)
			So(a.Runs[1].Reason, ShouldEqual, "no data")
		})

		Convey("Then the comparison and trend are attached", func() {
			So(a.Drivers, ShouldHaveLength, 3)
			So(a.Trend.FailedRuns, ShouldEqual, 1)
		})
	})
}
