package models

// MilestoneScheme selects which threshold table applies. The web and mobile
// tiers historically diverged and are kept side by side; callers must declare
// which one they mean.
type MilestoneScheme string

const (
	MilestoneSchemeWeb    MilestoneScheme = "web"
	MilestoneSchemeMobile MilestoneScheme = "mobile"
)

// Valid returns true when the scheme is a supported value.
func (s MilestoneScheme) Valid() bool {
	return s == MilestoneSchemeWeb || s == MilestoneSchemeMobile
}

// Thresholds returns the ordered milestone table for the scheme. Unknown
// schemes return nil so lookups fail closed.
func (s MilestoneScheme) Thresholds() []int {
	switch s {
	case MilestoneSchemeWeb:
		return []int{9, 24, 49}
	case MilestoneSchemeMobile:
		return []int{10, 25, 50, 100}
	default:
		return nil
	}
}

// MilestoneSummary describes a student's position against the threshold table.
type MilestoneSummary struct {
	SessionCount      int  `json:"session_count"`
	HitMilestone      bool `json:"hit_milestone"`
	CurrentMilestone  int  `json:"current_milestone,omitempty"`
	NextMilestone     int  `json:"next_milestone,omitempty"`
	SessionsUntilNext int  `json:"sessions_until_next,omitempty"`
}
