package dto

import (
	"encoding/json"
	"time"

	"github.com/saferoute/admin-api/internal/models"
)

// ListReportsQuery binds the five view dimensions from query parameters.
// Absent parameters fall back to the default landing view: pending tab,
// no search, all barangays, no period, newest first.
type ListReportsQuery struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending verified resolved rejected"`
	Search   string `form:"q"`
	Barangay string `form:"barangay"`
	Period   string `form:"period" binding:"omitempty,datetime=2006-01"`
	Sort     string `form:"sort" binding:"omitempty,oneof=asc desc"`
}

// FilterState converts the bound query into composer dimensions.
func (q ListReportsQuery) FilterState() models.FilterState {
	state := models.DefaultFilterState()
	if q.Status != "" {
		state.StatusTab = models.ReportStatus(q.Status)
	}
	state.SearchTerm = q.Search
	if q.Barangay != "" {
		state.BarangayScope = q.Barangay
	}
	state.PeriodFilter = q.Period
	if q.Sort != "" {
		state.SortOrder = models.SortOrder(q.Sort)
	}
	return state
}

// CreateReportRequest is an admin-submitted incident report.
type CreateReportRequest struct {
	Category    string          `json:"category" binding:"required"`
	Location    *string         `json:"location"`
	Landmark    *string         `json:"landmark"`
	Description *string         `json:"description"`
	Barangay    string          `json:"barangay"`
	Datetime    json.RawMessage `json:"datetime"`
	Lat         *float64        `json:"lat"`
	Lng         *float64        `json:"lng"`
}

// UpdateStatusRequest changes the moderation status of a report.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending verified resolved rejected"`
}

// ReportStats tallies reports per status for the caller's scope.
type ReportStats struct {
	Barangay    string    `json:"barangay"`
	Pending     int       `json:"pending"`
	Verified    int       `json:"verified"`
	Resolved    int       `json:"resolved"`
	Rejected    int       `json:"rejected"`
	Total       int       `json:"total"`
	GeneratedAt time.Time `json:"generated_at"`
}
