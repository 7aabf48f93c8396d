package model

import "math"

// RecentLog is the date and weight of the latest entry.
type RecentLog struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// MetricsSnapshot is the dashboard summary. Only TotalWaste, WasteChange,
// CO2Emissions and MostRecentLog move on append.
type MetricsSnapshot struct {
	CO2Emissions     float64   `json:"co2Emissions"`
	CO2Change        float64   `json:"co2Change"`
	TotalWaste       float64   `json:"totalWaste"`
	WasteChange      float64   `json:"wasteChange"`
	MostRecentLog    RecentLog `json:"mostRecentLog"`
	MostRecentChange float64   `json:"mostRecentChange"`
	CurrentRank      int       `json:"currentRank"`
	RankChange       int       `json:"rankChange"`
}

// Apply folds one entry of weight w logged on date into the snapshot.
func (m *MetricsSnapshot) Apply(w float64, date string) {
	old := m.TotalWaste
	m.TotalWaste += w
	if old > 0 {
		m.WasteChange = RoundOneDecimal((m.TotalWaste - old) / old * 100)
	} else {
		m.WasteChange = 0
	}
	m.CO2Emissions += w * CO2PerKg
	m.MostRecentLog = RecentLog{Date: date, Weight: w}
}

// RoundOneDecimal rounds half away from zero to one decimal place.
func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
