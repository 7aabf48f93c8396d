// Package model contains domain models passed between layers.
package model

import "time"

const (
	// DefaultWasteType is used when a submission leaves the waste type empty.
	DefaultWasteType = "Mixed"
	// CO2PerKg converts kilograms of waste into kilograms of CO2.
	CO2PerKg = 2.5
	// DefaultEmployeeCount is the divisor for businesses absent from the employee table.
	DefaultEmployeeCount = 5
)

// WasteLogEntry is one logged waste fact. Entries are append-only.
type WasteLogEntry struct {
	LogID      int64     `json:"logID"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     int64     `json:"userID"`
	BusinessID int64     `json:"businessID"`
	WasteType  string    `json:"wasteType"`
	Weight     float64   `json:"weight"`
	Location   *string   `json:"location"`
	Username   string    `json:"username,omitempty"`
}

// Clone returns a copy that shares no pointers with e.
func (e WasteLogEntry) Clone() WasteLogEntry {
	if e.Location != nil {
		loc := *e.Location
		e.Location = &loc
	}
	return e
}

// Submission is the input of an append.
type Submission struct {
	BusinessID int64   `json:"businessID"`
	UserID     int64   `json:"userID"`
	WasteType  string  `json:"wasteType"`
	Weight     float64 `json:"weight"`
	Location   *string `json:"location,omitempty"`
	Username   string  `json:"username,omitempty"`
}

// EmployeeCounts maps a business id to its estimated head count.
type EmployeeCounts map[int64]int

// Lookup returns the head count for id, or def when the business is not listed
// or carries a non-positive count.
func (c EmployeeCounts) Lookup(id int64, def int) int {
	if n, ok := c[id]; ok && n > 0 {
		return n
	}
	return def
}

// Clone copies the table.
func (c EmployeeCounts) Clone() EmployeeCounts {
	out := make(EmployeeCounts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// StringPtr is a small helper for optional string fields.
func StringPtr(s string) *string { return &s }

// CloneEntries deep-copies a list of entries.
func CloneEntries(entries []WasteLogEntry) []WasteLogEntry {
	if entries == nil {
		return nil
	}
	out := make([]WasteLogEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
