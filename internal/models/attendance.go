package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// AttendanceRecord is one (date, status) observation for a lead in a batch.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	LeadID    string           `db:"lead_id" json:"lead_id"`
	BatchID   string           `db:"batch_id" json:"batch_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceSummary reports marking progress for a session roster.
type AttendanceSummary struct {
	Total     int  `json:"total"`
	Marked    int  `json:"marked"`
	Remaining int  `json:"remaining"`
	AllMarked bool `json:"all_marked"`
}

// AttendanceIndicatorKind distinguishes the single indicator shown per student.
type AttendanceIndicatorKind string

const (
	IndicatorMissed    AttendanceIndicatorKind = "missed"
	IndicatorToday     AttendanceIndicatorKind = "today"
	IndicatorYesterday AttendanceIndicatorKind = "yesterday"
	IndicatorDaysAgo   AttendanceIndicatorKind = "days_ago"
)

// AttendanceIndicator is the one-line recency/absence signal for a student.
// At most one indicator is produced; Missed wins over recency.
type AttendanceIndicator struct {
	Kind  AttendanceIndicatorKind `json:"kind"`
	Label string                  `json:"label"`
	Count int                     `json:"count,omitempty"`
}
