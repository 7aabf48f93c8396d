// Package bucket maps timestamps onto the fixed labels of the waste chart
// series.
package bucket

import (
	"fmt"
	"time"

	"github.com/okian/wastewise/internal/domain/model"
)

const (
	afternoonStartHour = 12
	eveningStartHour   = 18
	daysPerWeek        = 7
	monthsPerQuarter   = 3
)

// DayLabel returns Morning, Afternoon or Evening for the hour of t.
func DayLabel(t time.Time) string {
	switch h := t.Hour(); {
	case h < afternoonStartHour:
		return "Morning"
	case h < eveningStartHour:
		return "Afternoon"
	default:
		return "Evening"
	}
}

// MonthLabel returns "Week N" with N = ceil(day of month / 7).
func MonthLabel(t time.Time) string {
	week := (t.Day() + daysPerWeek - 1) / daysPerWeek
	return fmt.Sprintf("Week %d", week)
}

// QuarterLabel returns the three-letter month name of t.
func QuarterLabel(t time.Time) string {
	return t.Month().String()[:3]
}

// YearLabel returns the calendar quarter of t, "Q1".."Q4".
func YearLabel(t time.Time) string {
	return fmt.Sprintf("Q%d", 1+(int(t.Month())-1)/monthsPerQuarter)
}

// Label resolves the bucket label of t in the series tf.
func Label(tf model.Timeframe, t time.Time) (string, error) {
	switch tf {
	case model.Day:
		return DayLabel(t), nil
	case model.Month:
		return MonthLabel(t), nil
	case model.Quarter:
		return QuarterLabel(t), nil
	case model.Year:
		return YearLabel(t), nil
	}
	return "", fmt.Errorf("%w: %q", model.ErrUnknownTimeframe, tf)
}

// Increment adds weight to the bucket labelled label. It never creates a
// bucket; ok is false when no bucket carries the label. The series is
// modified in place.
func Increment(series []model.ChartBucket, label string, weight float64) ([]model.ChartBucket, bool) {
	for i := range series {
		if series[i].Label == label {
			series[i].Waste += weight
			return series, true
		}
	}
	return series, false
}

// Total sums the waste of every bucket in series.
func Total(series []model.ChartBucket) float64 {
	var sum float64
	for _, b := range series {
		sum += b.Waste
	}
	return sum
}
