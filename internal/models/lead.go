package models

import (
	"encoding/json"
	"time"
)

// LeadStatus enumerates the lifecycle states of a lead.
type LeadStatus string

const (
	StatusNew            LeadStatus = "New"
	StatusFollowedUp     LeadStatus = "Followed up with message"
	StatusCalled         LeadStatus = "Called"
	StatusTrialScheduled LeadStatus = "Trial Scheduled"
	StatusTrialAttended  LeadStatus = "Trial Attended"
	StatusJoined         LeadStatus = "Joined"

	StatusNurture       LeadStatus = "Nurture"
	StatusOnBreak       LeadStatus = "On Break"
	StatusNotInterested LeadStatus = "Dead/Not Interested"
)

// Pipeline is the canonical forward progression; index = progress rank.
var Pipeline = []LeadStatus{
	StatusNew,
	StatusFollowedUp,
	StatusCalled,
	StatusTrialScheduled,
	StatusTrialAttended,
	StatusJoined,
}

// offRamps are parking/terminal statuses outside the ordered pipeline.
var offRamps = map[LeadStatus]struct{}{
	StatusNurture:       {},
	StatusOnBreak:       {},
	StatusNotInterested: {},
}

// Valid returns true when the status is a supported value.
func (s LeadStatus) Valid() bool {
	if s.IsOffRamp() {
		return true
	}
	return s.PipelineRank() >= 0
}

// PipelineRank returns the index of s in the ordered pipeline, -1 when s is
// not a pipeline status.
func (s LeadStatus) PipelineRank() int {
	for i, status := range Pipeline {
		if status == s {
			return i
		}
	}
	return -1
}

// IsOffRamp reports whether s is one of the non-pipeline parking statuses.
func (s LeadStatus) IsOffRamp() bool {
	_, ok := offRamps[s]
	return ok
}

// Lead represents a prospective or enrolled participant.
type Lead struct {
	ID                    string          `db:"id" json:"id"`
	Name                  string          `db:"name" json:"name"`
	Phone                 *string         `db:"phone" json:"phone,omitempty"`
	Status                LeadStatus      `db:"status" json:"status"`
	CreatedTime           time.Time       `db:"created_time" json:"created_time"`
	NextFollowupDate      *time.Time      `db:"next_followup_date" json:"next_followup_date,omitempty"`
	LastUpdated           *time.Time      `db:"last_updated" json:"last_updated,omitempty"`
	TrialBatchID          *string         `db:"trial_batch_id" json:"trial_batch_id,omitempty"`
	PermanentBatchID      *string         `db:"permanent_batch_id" json:"permanent_batch_id,omitempty"`
	SubscriptionPlan      *string         `db:"subscription_plan" json:"subscription_plan,omitempty"`
	SubscriptionStartDate *time.Time      `db:"subscription_start_date" json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time      `db:"subscription_end_date" json:"subscription_end_date,omitempty"`
	LossReason            *string         `db:"loss_reason" json:"loss_reason,omitempty"`
	NudgeCount            int             `db:"nudge_count" json:"nudge_count"`
	PreferredBatchID      *string         `db:"preferred_batch_id" json:"preferred_batch_id,omitempty"`
	PreferredCallTime     *string         `db:"preferred_call_time" json:"preferred_call_time,omitempty"`
	ExtraData             json.RawMessage `db:"extra_data" json:"extra_data,omitempty"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// HasParentPreferences reports whether a public scheduling preference has been
// submitted for this lead.
func (l *Lead) HasParentPreferences() bool {
	return l.PreferredBatchID != nil || l.PreferredCallTime != nil
}

// LeadExtra is the validated shape of a lead's extra_data payload. The raw
// JSONB column is decoded once at the boundary; nothing downstream touches
// untyped maps.
type LeadExtra struct {
	SkillReports []SkillReportEntry `json:"skill_reports,omitempty"`
	CoachNotes   []CoachNote        `json:"coach_notes,omitempty"`
}

// SkillReportEntry is one historical skill assessment.
type SkillReportEntry struct {
	Date    string         `json:"date"`
	Scores  map[string]int `json:"scores"`
	Comment string         `json:"comment,omitempty"`
}

// CoachNote is a free-form feedback note attached by a coach.
type CoachNote struct {
	CoachID string    `json:"coach_id"`
	Note    string    `json:"note"`
	AddedAt time.Time `json:"added_at"`
}

// DecodeExtra parses the lead's extra_data. Malformed payloads yield an empty
// structure rather than an error; the engine treats them as "no history".
func (l *Lead) DecodeExtra() LeadExtra {
	var extra LeadExtra
	if len(l.ExtraData) == 0 {
		return extra
	}
	if err := json.Unmarshal(l.ExtraData, &extra); err != nil {
		return LeadExtra{}
	}
	return extra
}

// StatusUpdate captures the persisted side effects of a lifecycle change.
type StatusUpdate struct {
	Status        LeadStatus
	Note          *string
	LossReason    *string
	NextFollowup  *time.Time
	ClearFollowup bool
	UpdatedAt     time.Time
}

// LeadFilter scopes lead listing queries.
type LeadFilter struct {
	Status    *LeadStatus
	BatchID   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
