package simulate

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/internal/domain/projection"
)

func TestSimulatorResult(t *testing.T) {
	Convey("Given the default simulator", t, func() {
		sim := New()

		Convey("When simulating a race", func() {
			res := sim.Result("Monaco")

			Convey("Then the whole grid is classified once", func() {
				So(res, ShouldHaveLength, 20)
				seen := map[model.DriverID]bool{}
				for i, r := range res {
					So(r.Position, ShouldEqual, i+1)
					So(seen[r.Driver], ShouldBeFalse)
					seen[r.Driver] = true
				}
			})

			Convey("Then tiers are respected", func() {
				top := map[model.DriverID]bool{"Max Verstappen": true, "Lewis Hamilton": true, "Lando Norris": true}
				for _, r := range res[:3] {
					So(top[r.Driver], ShouldBeTrue)
				}
			})

			Convey("Then the leader has a clock time and others a gap", func() {
				So(res[0].FinishTime, ShouldStartWith, "1:30:")
				for _, r := range res[1:] {
					So(strings.HasPrefix(r.FinishTime, "+"), ShouldBeTrue)
					So(r.FinishTime, ShouldEndWith, "s")
				}
			})

			Convey("Then points follow the table", func() {
				So(res[0].Points, ShouldEqual, 25)
				So(res[9].Points, ShouldEqual, 1)
				So(res[10].Points, ShouldEqual, 0)
			})
		})

		Convey("When simulating the same race twice", func() {
			Convey("Then the results agree", func() {
				So(sim.Result("Monaco"), ShouldResemble, sim.Result("Monaco"))
			})
		})

		Convey("When the seed changes", func() {
			a := New(WithSeed(1)).Result("Monaco")
			b := New(WithSeed(1)).Result("Monaco")

			Convey("Then results stay deterministic for that seed", func() {
				So(a, ShouldResemble, b)
			})
		})
	})

	Convey("Given a custom grid and table", t, func() {
		sim := New(
			WithGrid([]Driver{{"A", "T1"}, {"B", "T2"}, {"C", "T3"}}, nil),
			WithPointsTable(projection.PointsTable{10, 5}),
		)

		Convey("Then only those drivers are classified", func() {
			res := sim.Result("Test")
			So(res, ShouldHaveLength, 3)
			So(res[0].Points, ShouldEqual, 10)
			So(res[1].Points, ShouldEqual, 5)
			So(res[2].Points, ShouldEqual, 0)
		})
	})

	Convey("Given an invalid table option", t, func() {
		sim := New(WithPointsTable(projection.PointsTable{1, 2}))

		Convey("Then the default table is kept", func() {
			So(sim.table, ShouldResemble, projection.DefaultPointsTable())
		})
	})
}
