package timing

import (
	"math"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatRaceTime(t *testing.T) {
	Convey("Given race times in seconds", t, func() {
		Convey("Then they render as m:ss.mmm", func() {
			So(FormatRaceTime(5423.417), ShouldEqual, "90:23.417")
			So(FormatRaceTime(83.5), ShouldEqual, "1:23.500")
			So(FormatRaceTime(7.25), ShouldEqual, "0:07.250")
			So(FormatRaceTime(0), ShouldEqual, "0:00.000")
		})

		Convey("Then rounding carries into the minute", func() {
			So(FormatRaceTime(59.9996), ShouldEqual, "1:00.000")
		})

		Convey("Then invalid values render empty", func() {
			So(FormatRaceTime(-1), ShouldEqual, "")
			So(FormatRaceTime(math.NaN()), ShouldEqual, "")
			So(FormatRaceTime(math.Inf(1)), ShouldEqual, "")
		})
	})
}

func TestFormatClock(t *testing.T) {
	Convey("Given a winning race time", t, func() {
		d := time.Hour + 31*time.Minute + 44*time.Second + 742*time.Millisecond

		Convey("Then it renders as h:mm:ss.mmm", func() {
			So(FormatClock(d), ShouldEqual, "1:31:44.742")
			So(FormatClock(-time.Second), ShouldEqual, "")
		})
	})
}

func TestGap(t *testing.T) {
	Convey("Given a leader and a follower", t, func() {
		Convey("Then the follower gets a signed gap", func() {
			So(Gap(5400, 5412.3456), ShouldEqual, "+12.346s")
		})

		Convey("Then the leader gets nothing", func() {
			So(Gap(5400, 5400), ShouldEqual, "")
		})
	})
}
