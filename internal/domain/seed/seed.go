// Package seed holds the baseline dataset every fresh store starts from.
package seed

import (
	"time"

	"github.com/okian/wastewise/internal/domain/model"
)

type row struct {
	id       int64
	company  string
	rank     int
	prev     int
	wpe      float64
	seasonal float64
}

// Ordered by rank. Formatted fields are derived in Leaderboard.
var leaderboard = []row{ //nolint:gochecknoglobals // seed table
	{24, "EcoCare Consulting", 1, 3, 1.8, 4.1},
	{21, "EcoTech Solutions", 2, 1, 3.2, 16.0},
	{25, "Urban Recyclers Ltd", 3, 4, 4.1, 20.6},
	{23, "Sustainable Foods Inc", 4, 2, 4.8, 49.6},
	{22, "Green Planet Logistics", 5, 5, 5.3, 24.6},
	{1, "Shell", 6, 5, 6.4, 5600},
	{2, "BP", 7, 7, 8.2, 13380},
	{17, "limited", 8, 9, 10.0, 0.01},
	{4, "Jones", 9, 7, 12.5, 75.0},
	{13, "University of Bristol", 10, 10, 15.7, 94.2},
}

// Leaderboard returns the ten seeded rows ordered by rank.
func Leaderboard() []model.LeaderboardRow {
	out := make([]model.LeaderboardRow, len(leaderboard))
	for i, r := range leaderboard {
		out[i] = model.LeaderboardRow{
			BusinessID:                r.id,
			CompanyName:               r.company,
			Rank:                      r.rank,
			PreviousRank:              r.prev,
			RankChange:                r.prev - r.rank,
			SeasonalWaste:             r.seasonal,
			WastePerEmployee:          r.wpe,
			FormattedWaste:            model.FormatOneDecimal(r.seasonal),
			FormattedWastePerEmployee: model.FormatOneDecimal(r.wpe),
			Username:                  r.company,
		}
	}
	return out
}

func ts(month time.Month, day, hour, minute, sec, ms int) time.Time {
	return time.Date(2025, month, day, hour, minute, sec, ms*int(time.Millisecond), time.UTC)
}

func loc(s string) *string { return &s }

// WasteLogs returns the nine seeded entries in stored order.
func WasteLogs() []model.WasteLogEntry {
	return []model.WasteLogEntry{
		{LogID: 9, CreatedAt: ts(time.March, 19, 15, 55, 24, 460), UserID: 57, BusinessID: 24, WasteType: "Paper", Weight: 0.78, Location: loc("Main office"), Username: "liam.johnson"},
		{LogID: 3, CreatedAt: ts(time.March, 6, 21, 1, 36, 949), UserID: 57, BusinessID: 24, WasteType: "Glass", Weight: 0.67, Location: loc("Meeting room"), Username: "liam.johnson"},
		{LogID: 2, CreatedAt: ts(time.March, 4, 11, 32, 18, 462), UserID: 57, BusinessID: 24, WasteType: "Mixed", Weight: 0.69, Location: loc("Meeting Room"), Username: "liam.johnson"},
		{LogID: 1, CreatedAt: ts(time.March, 4, 11, 16, 21, 681), UserID: 57, BusinessID: 24, WasteType: "Food", Weight: 0.9, Location: loc("Office Kitchen"), Username: "liam.johnson"},
		{LogID: 7, CreatedAt: ts(time.March, 18, 11, 10, 56, 450), UserID: 73, BusinessID: 1, WasteType: "Mixed", Weight: 1, Location: loc("Office"), Username: "Admin"},
		{LogID: 6, CreatedAt: ts(time.March, 18, 10, 59, 36, 630), UserID: 5, BusinessID: 1, WasteType: "Electronics", Weight: 2, Location: loc("bath"), Username: "bob"},
		{LogID: 5, CreatedAt: ts(time.March, 18, 10, 43, 35, 0), UserID: 5, BusinessID: 1, WasteType: "Food", Weight: 5, Username: "bob"},
		{LogID: 4, CreatedAt: ts(time.March, 13, 14, 31, 32, 744), UserID: 72, BusinessID: 1, WasteType: "Paper", Weight: 5, Location: loc("Entrance"), Username: "Employee"},
		{LogID: 8, CreatedAt: ts(time.March, 18, 11, 19, 28, 701), UserID: 74, BusinessID: 17, WasteType: "Paper", Weight: 0.01, Username: "john"},
	}
}

// Metrics returns the seeded dashboard snapshot.
func Metrics() model.MetricsSnapshot {
	return model.MetricsSnapshot{
		CO2Emissions:     125.8,
		CO2Change:        -12.3,
		TotalWaste:       35.4,
		WasteChange:      -8.5,
		MostRecentLog:    model.RecentLog{Date: "2025-03-19", Weight: 0.78},
		MostRecentChange: 2.6,
		CurrentRank:      2,
		RankChange:       1,
	}
}

// WasteChart returns the four seeded series. Their label sets never grow.
func WasteChart() model.WasteChart {
	return model.WasteChart{
		Day: []model.ChartBucket{
			{Label: "Morning", Waste: 1.2},
			{Label: "Afternoon", Waste: 2.5},
			{Label: "Evening", Waste: 0.8},
		},
		Month: []model.ChartBucket{
			{Label: "Week 1", Waste: 8.5},
			{Label: "Week 2", Waste: 7.2},
			{Label: "Week 3", Waste: 9.1},
			{Label: "Week 4", Waste: 6.3},
		},
		Quarter: []model.ChartBucket{
			{Label: "Jan", Waste: 32.5},
			{Label: "Feb", Waste: 28.7},
			{Label: "Mar", Waste: 35.4},
		},
		Year: []model.ChartBucket{
			{Label: "Q1", Waste: 95.6},
			{Label: "Q2", Waste: 88.4},
			{Label: "Q3", Waste: 104.2},
			{Label: "Q4", Waste: 92.8},
		},
	}
}

// WasteTypes returns the five seeded shares.
func WasteTypes() []model.WasteTypeShare {
	return []model.WasteTypeShare{
		{Name: "Paper", Value: 45},
		{Name: "Plastic", Value: 28},
		{Name: "Food", Value: 15},
		{Name: "Glass", Value: 8},
		{Name: "Metal", Value: 4},
	}
}

// EmployeeCounts returns the estimated head count per business.
func EmployeeCounts() model.EmployeeCounts {
	return model.EmployeeCounts{
		1:  875,
		2:  1625,
		4:  6,
		13: 6,
		17: 1,
		21: 5,
		22: 5,
		23: 10,
		24: 4,
		25: 5,
	}
}

// Snapshot returns every seeded view at once.
func Snapshot() model.Snapshot {
	return model.Snapshot{
		Leaderboard: Leaderboard(),
		WasteLogs:   WasteLogs(),
		Metrics:     Metrics(),
		WasteChart:  WasteChart(),
		WasteTypes:  WasteTypes(),
	}
}
