package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/pitwall/internal/domain/model"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()

		Convey("When reading before any publish", func() {
			_, err := s.Current(ctx)

			Convey("Then ErrNoSnapshot is returned", func() {
				So(errors.Is(err, ErrNoSnapshot), ShouldBeTrue)
			})
		})

		Convey("When publishing nil", func() {
			So(errors.Is(s.Publish(ctx, nil), ErrNilSnapshot), ShouldBeTrue)
		})

		Convey("When publishing snapshots", func() {
			first := &Snapshot{ID: "one", Season: model.Season{Races: []model.RaceRuns{{Race: "Bahrain"}}}}
			So(s.Publish(ctx, first), ShouldBeNil)
			second := &Snapshot{ID: "two"}
			So(s.Publish(ctx, second), ShouldBeNil)

			Convey("Then the latest wins with increasing versions", func() {
				cur, err := s.Current(ctx)
				So(err, ShouldBeNil)
				So(cur.ID, ShouldEqual, "two")
				So(first.Version, ShouldEqual, 1)
				So(cur.Version, ShouldEqual, 2)
				So(cur.LoadedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When readers race a writer", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					_ = s.Publish(ctx, &Snapshot{ID: "x"})
				}()
				go func() {
					defer wg.Done()
					_, _ = s.Current(ctx)
				}()
			}
			wg.Wait()

			Convey("Then every publish got its own version", func() {
				cur, err := s.Current(ctx)
				So(err, ShouldBeNil)
				So(cur.Version, ShouldBeLessThanOrEqualTo, 8)
				So(cur.Version, ShouldBeGreaterThan, 0)
			})
		})
	})
}
