package models

import (
	"encoding/json"
	"time"
)

// ReportStatus enumerates the moderation states of an incident report.
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusVerified ReportStatus = "verified"
	StatusResolved ReportStatus = "resolved"
	StatusRejected ReportStatus = "rejected"
)

// ValidStatus reports whether s is one of the four moderation states.
func ValidStatus(s ReportStatus) bool {
	switch s {
	case StatusPending, StatusVerified, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Report is one incident record from the reports table. The datetime column
// is JSONB and preserves whichever encoding the submitting client used:
// epoch seconds, epoch millis, a {seconds,nanoseconds} object, or a date
// string. Normalization happens at read time, never at rest.
type Report struct {
	ID             string          `db:"id" json:"id"`
	Category       string          `db:"category" json:"category"`
	Location       *string         `db:"location" json:"location,omitempty"`
	Landmark       *string         `db:"landmark" json:"landmark,omitempty"`
	Datetime       json.RawMessage `db:"datetime" json:"datetime"`
	Status         ReportStatus    `db:"status" json:"status"`
	Description    *string         `db:"description" json:"description,omitempty"`
	Barangay       string          `db:"barangay" json:"barangay"`
	Lat            *float64        `db:"lat" json:"lat,omitempty"`
	Lng            *float64        `db:"lng" json:"lng,omitempty"`
	ReporterUserID *string         `db:"reporter_user_id" json:"reporterUserId,omitempty"`
	ReportedBy     *string         `db:"reported_by" json:"reportedBy,omitempty"`
	CreatedByEmail *string         `db:"created_by_email" json:"createdByEmail,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// EffectiveStatus returns the stored status, defaulting to pending when the
// record predates the status column.
func (r *Report) EffectiveStatus() ReportStatus {
	if r.Status == "" {
		return StatusPending
	}
	return r.Status
}

// ReportedByAdmin reports whether the record was submitted through the admin
// channel rather than by a resident.
func (r *Report) ReportedByAdmin() bool {
	return r.ReportedBy != nil && *r.ReportedBy == "admin"
}

// EnrichedReport is a Report plus the derived reporter identity and the
// normalized timestamp. Derived fields are never persisted; a report without
// them is raw and must not be served.
type EnrichedReport struct {
	Report
	ReporterName    string `json:"reporterName"`
	ReporterAddress string `json:"reporterAddress"`
	ReporterContact string `json:"reporterContact"`
	EpochMs         int64  `json:"epochMs"`
}

// Dash is the placeholder for identity fields that cannot be resolved.
// Presentation always expects a string, never an absent value.
const Dash = "—"

// Identity is a resolved human-readable reporter identity.
type Identity struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// UnknownIdentity returns the all-dash fallback identity.
func UnknownIdentity() Identity {
	return Identity{Name: Dash, Address: Dash, Contact: Dash}
}

// SortOrder selects timestamp ordering for the composed view.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterState holds the five independently settable view dimensions.
type FilterState struct {
	StatusTab     ReportStatus
	SearchTerm    string
	BarangayScope string
	PeriodFilter  string // "" or a canonical YYYY-MM key
	SortOrder     SortOrder
}

// DefaultFilterState mirrors the initial view an operator lands on.
func DefaultFilterState() FilterState {
	return FilterState{
		StatusTab:     StatusPending,
		BarangayScope: AllBarangays,
		SortOrder:     SortDesc,
	}
}

// StatusCount is one row of the per-status report tally.
type StatusCount struct {
	Status ReportStatus `db:"status" json:"status"`
	Total  int          `db:"total" json:"total"`
}
