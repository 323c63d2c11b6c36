package models

import "time"

// Batch represents a recurring weekly class at a center.
type Batch struct {
	ID          string     `db:"id" json:"id"`
	CenterID    string     `db:"center_id" json:"center_id"`
	Name        string     `db:"name" json:"name"`
	IsSunday    bool       `db:"is_sunday" json:"is_sunday"`
	IsMonday    bool       `db:"is_monday" json:"is_monday"`
	IsTuesday   bool       `db:"is_tuesday" json:"is_tuesday"`
	IsWednesday bool       `db:"is_wednesday" json:"is_wednesday"`
	IsThursday  bool       `db:"is_thursday" json:"is_thursday"`
	IsFriday    bool       `db:"is_friday" json:"is_friday"`
	IsSaturday  bool       `db:"is_saturday" json:"is_saturday"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	MaxCapacity int        `db:"max_capacity" json:"max_capacity"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CoachIDs    []string   `db:"-" json:"coach_ids,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// WeeklySchedule is the seven day-of-week flags, indexed 0=Sunday..6=Saturday.
type WeeklySchedule [7]bool

// Schedule extracts the batch's weekly pattern.
func (b *Batch) Schedule() WeeklySchedule {
	return WeeklySchedule{
		b.IsSunday,
		b.IsMonday,
		b.IsTuesday,
		b.IsWednesday,
		b.IsThursday,
		b.IsFriday,
		b.IsSaturday,
	}
}

// ScheduledOn reports whether the flag for the given canonical weekday is set.
// Out-of-range weekdays fail closed.
func (s WeeklySchedule) ScheduledOn(weekday int) bool {
	if weekday < 0 || weekday > 6 {
		return false
	}
	return s[weekday]
}

// HasAnyDay reports whether at least one weekday flag is set.
func (s WeeklySchedule) HasAnyDay() bool {
	for _, set := range s {
		if set {
			return true
		}
	}
	return false
}

// BatchFilter scopes batch listing queries.
type BatchFilter struct {
	CenterID string
	Active   *bool
	Page     int
	PageSize int
}
