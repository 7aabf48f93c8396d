package bucket_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/wastewise/internal/domain/bucket"
	"github.com/okian/wastewise/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func at(month time.Month, day, hour int) time.Time {
	return time.Date(2025, month, day, hour, 30, 0, 0, time.UTC)
}

func TestLabels(t *testing.T) {
	Convey("Given the day series", t, func() {
		So(bucket.DayLabel(at(time.March, 1, 0)), ShouldEqual, "Morning")
		So(bucket.DayLabel(at(time.March, 1, 11)), ShouldEqual, "Morning")
		So(bucket.DayLabel(at(time.March, 1, 12)), ShouldEqual, "Afternoon")
		So(bucket.DayLabel(at(time.March, 1, 17)), ShouldEqual, "Afternoon")
		So(bucket.DayLabel(at(time.March, 1, 18)), ShouldEqual, "Evening")
		So(bucket.DayLabel(at(time.March, 1, 23)), ShouldEqual, "Evening")
	})

	Convey("Given the month series", t, func() {
		So(bucket.MonthLabel(at(time.March, 1, 9)), ShouldEqual, "Week 1")
		So(bucket.MonthLabel(at(time.March, 7, 9)), ShouldEqual, "Week 1")
		So(bucket.MonthLabel(at(time.March, 8, 9)), ShouldEqual, "Week 2")
		So(bucket.MonthLabel(at(time.March, 28, 9)), ShouldEqual, "Week 4")
		So(bucket.MonthLabel(at(time.March, 29, 9)), ShouldEqual, "Week 5")
		So(bucket.MonthLabel(at(time.March, 31, 9)), ShouldEqual, "Week 5")
	})

	Convey("Given the quarter and year series", t, func() {
		So(bucket.QuarterLabel(at(time.January, 5, 9)), ShouldEqual, "Jan")
		So(bucket.QuarterLabel(at(time.September, 5, 9)), ShouldEqual, "Sep")
		So(bucket.YearLabel(at(time.January, 5, 9)), ShouldEqual, "Q1")
		So(bucket.YearLabel(at(time.March, 5, 9)), ShouldEqual, "Q1")
		So(bucket.YearLabel(at(time.April, 5, 9)), ShouldEqual, "Q2")
		So(bucket.YearLabel(at(time.September, 5, 9)), ShouldEqual, "Q3")
		So(bucket.YearLabel(at(time.December, 5, 9)), ShouldEqual, "Q4")
	})

	Convey("Given Label dispatch", t, func() {
		ts := at(time.May, 15, 14)

		Convey("When the timeframe is known", func() {
			for tf, want := range map[model.Timeframe]string{
				model.Day:     "Afternoon",
				model.Month:   "Week 3",
				model.Quarter: "May",
				model.Year:    "Q2",
			} {
				got, err := bucket.Label(tf, ts)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("When the timeframe is unknown", func() {
			_, err := bucket.Label("hour", ts)
			So(errors.Is(err, model.ErrUnknownTimeframe), ShouldBeTrue)
		})
	})
}

func TestIncrement(t *testing.T) {
	Convey("Given a month series", t, func() {
		series := []model.ChartBucket{
			{Label: "Week 1", Waste: 8.5},
			{Label: "Week 2", Waste: 7.2},
		}

		Convey("When the label matches", func() {
			out, ok := bucket.Increment(series, "Week 2", 1.8)

			Convey("Then only that bucket should grow", func() {
				So(ok, ShouldBeTrue)
				So(out[0].Waste, ShouldEqual, 8.5)
				So(out[1].Waste, ShouldAlmostEqual, 9.0, 1e-9)
				So(bucket.Total(out), ShouldAlmostEqual, 17.5, 1e-9)
			})
		})

		Convey("When no bucket carries the label", func() {
			out, ok := bucket.Increment(series, "Week 5", 3)

			Convey("Then the series should be unchanged", func() {
				So(ok, ShouldBeFalse)
				So(out, ShouldHaveLength, 2)
				So(bucket.Total(out), ShouldAlmostEqual, 15.7, 1e-9)
			})
		})
	})
}
