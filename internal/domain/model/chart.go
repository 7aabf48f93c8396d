package model

import (
	"errors"
	"fmt"
	"strings"
)

// Timeframe names one of the four chart series.
type Timeframe string

const (
	Day     Timeframe = "day"
	Month   Timeframe = "month"
	Quarter Timeframe = "quarter"
	Year    Timeframe = "year"
)

// Timeframes lists every series in display order.
var Timeframes = []Timeframe{Day, Month, Quarter, Year} //nolint:gochecknoglobals // fixed series set

// ErrUnknownTimeframe is returned for a timeframe outside day/month/quarter/year.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// ParseTimeframe parses a case-insensitive timeframe name.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	switch tf {
	case Day, Month, Quarter, Year:
		return tf, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, s)
}

// ChartBucket is one labelled slot of a series.
type ChartBucket struct {
	Label string  `json:"date"`
	Waste float64 `json:"waste"`
}

// WasteChart holds the four parallel series.
type WasteChart struct {
	Day     []ChartBucket `json:"day"`
	Month   []ChartBucket `json:"month"`
	Quarter []ChartBucket `json:"quarter"`
	Year    []ChartBucket `json:"year"`
}

// Series returns the buckets of tf, or nil for an unknown timeframe.
func (c *WasteChart) Series(tf Timeframe) []ChartBucket {
	switch tf {
	case Day:
		return c.Day
	case Month:
		return c.Month
	case Quarter:
		return c.Quarter
	case Year:
		return c.Year
	}
	return nil
}

// SetSeries replaces the buckets of tf.
func (c *WasteChart) SetSeries(tf Timeframe, buckets []ChartBucket) {
	switch tf {
	case Day:
		c.Day = buckets
	case Month:
		c.Month = buckets
	case Quarter:
		c.Quarter = buckets
	case Year:
		c.Year = buckets
	}
}

// Clone deep-copies every series.
func (c WasteChart) Clone() WasteChart {
	return WasteChart{
		Day:     cloneBuckets(c.Day),
		Month:   cloneBuckets(c.Month),
		Quarter: cloneBuckets(c.Quarter),
		Year:    cloneBuckets(c.Year),
	}
}

func cloneBuckets(b []ChartBucket) []ChartBucket {
	if b == nil {
		return nil
	}
	out := make([]ChartBucket, len(b))
	copy(out, b)
	return out
}

// WasteTypeShare is the cumulative weight for one waste type.
type WasteTypeShare struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AddWasteType increments the share called name or appends a new one.
// It reports whether a new share was appended.
func AddWasteType(shares []WasteTypeShare, name string, w float64) ([]WasteTypeShare, bool) {
	for i := range shares {
		if shares[i].Name == name {
			shares[i].Value += w
			return shares, false
		}
	}
	return append(shares, WasteTypeShare{Name: name, Value: w}), true
}

// CloneShares copies the share list.
func CloneShares(s []WasteTypeShare) []WasteTypeShare {
	if s == nil {
		return nil
	}
	out := make([]WasteTypeShare, len(s))
	copy(out, s)
	return out
}

// Snapshot is every view at one instant.
type Snapshot struct {
	Leaderboard []LeaderboardRow `json:"leaderboard"`
	WasteLogs   []WasteLogEntry  `json:"wasteLogs"`
	Metrics     MetricsSnapshot  `json:"metrics"`
	WasteChart  WasteChart       `json:"wasteChart"`
	WasteTypes  []WasteTypeShare `json:"wasteTypes"`
}
