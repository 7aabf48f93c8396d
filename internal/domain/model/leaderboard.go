package model

import "strconv"

// LeaderboardRow is one business on the leaderboard. Lower waste per
// employee ranks first.
type LeaderboardRow struct {
	BusinessID                int64   `json:"businessID"`
	CompanyName               string  `json:"companyName"`
	Rank                      int     `json:"rank"`
	PreviousRank              int     `json:"previousRank"`
	RankChange                int     `json:"rankChange"`
	SeasonalWaste             float64 `json:"seasonalWaste"`
	WastePerEmployee          float64 `json:"wastePerEmployee"`
	FormattedWaste            string  `json:"formattedWaste"`
	FormattedWastePerEmployee string  `json:"formattedWastePerEmployee"`
	Username                  string  `json:"username"`
}

// AddWaste adds weight to the row and recomputes the per-employee ratio and
// the formatted fields.
func (r *LeaderboardRow) AddWaste(weight float64, employees int) {
	r.SeasonalWaste += weight
	r.WastePerEmployee = r.SeasonalWaste / float64(employees)
	r.FormattedWaste = FormatOneDecimal(r.SeasonalWaste)
	r.FormattedWastePerEmployee = FormatOneDecimal(r.WastePerEmployee)
}

// FormatOneDecimal renders v with exactly one decimal place.
func FormatOneDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// CloneRows deep-copies a leaderboard.
func CloneRows(rows []LeaderboardRow) []LeaderboardRow {
	if rows == nil {
		return nil
	}
	out := make([]LeaderboardRow, len(rows))
	copy(out, rows)
	return out
}
