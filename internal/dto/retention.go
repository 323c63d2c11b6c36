package dto

import "github.com/noah-isme/academy-crm-api/internal/models"

// StudentRetentionView bundles the per-student retention signals.
type StudentRetentionView struct {
	Student       models.Student              `json:"student"`
	Indicator     *models.AttendanceIndicator `json:"indicator,omitempty"`
	Milestone     *models.MilestoneSummary    `json:"milestone,omitempty"`
	RenewalDue    bool                        `json:"renewal_due"`
	DaysSinceSeen *int                        `json:"days_since_seen,omitempty"`
}

// RenewalsResponse lists students inside the renewal window.
type RenewalsResponse struct {
	WindowDays int              `json:"window_days"`
	Students   []models.Student `json:"students"`
}
