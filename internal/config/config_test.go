package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pitwall/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.PredictionsSource, convey.ShouldEqual, "data/all_predictions.json")
			convey.So(cfg.ErrorsSource, convey.ShouldEqual, "data/error_data.csv")
			convey.So(cfg.PointsTable, convey.ShouldResemble, []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1})
			convey.So(cfg.ErrorAveraging, convey.ShouldEqual, "races")
			convey.So(cfg.DefaultModel, convey.ShouldEqual, "advanced")
			convey.So(cfg.ActualResults, convey.ShouldEqual, "live")
			convey.So(cfg.SimulationSeed, convey.ShouldEqual, 42)
			convey.So(cfg.MaxDriversLimit, convey.ShouldEqual, 100)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then duration helpers convert units", func() {
			convey.So(cfg.RefreshInterval(), convey.ShouldEqual, 300*time.Second)
			convey.So(cfg.ErgastTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.StandingsTTL(), convey.ShouldEqual, time.Minute)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the averaging mode is unknown", func() {
			cfg.ErrorAveraging = "weeks"
			err := cfg.Validate()

			convey.Convey("Then validation fails with ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ErrorAveraging")
			})
		})

		convey.Convey("When the default model is unknown", func() {
			cfg.DefaultModel = "quantum"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the points table is not strictly decreasing", func() {
			cfg.PointsTable = []int{25, 25, 10}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the points table is longer than ten entries", func() {
			cfg.PointsTable = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the points table is empty", func() {
			cfg.PointsTable = nil
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the actual results mode is simulated", func() {
			cfg.ActualResults = "simulated"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
