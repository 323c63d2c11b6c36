package models

// FollowUpBuckets is the server-partitioned worklist input. The boundary
// between overdue and not-yet-due is computed by the data source relative to
// server time; the categoriser never re-derives it.
type FollowUpBuckets struct {
	Overdue  []Lead `json:"overdue"`
	DueToday []Lead `json:"due_today"`
	Upcoming []Lead `json:"upcoming"`
}

// TripleStack is the categorised daily worklist for a selected date.
type TripleStack struct {
	Overdue  []Lead `json:"overdue"`
	Today    []Lead `json:"today"`
	Upcoming []Lead `json:"upcoming"`
}

// SmartFilter names one of the predefined worklist views.
type SmartFilter string

const (
	FilterUnscheduled      SmartFilter = "unscheduled"
	FilterHotTrials        SmartFilter = "hot_trials"
	FilterPostTrialNoReply SmartFilter = "post_trial_no_response"
	FilterReschedule       SmartFilter = "reschedule"
	FilterRenewals         SmartFilter = "renewals"
	FilterNurtureReengage  SmartFilter = "nurture_reengage"
	FilterOnBreak          SmartFilter = "on_break"
	FilterReturningSoon    SmartFilter = "returning_soon"
	FilterMilestones       SmartFilter = "milestones"
)

// Valid returns true when the filter is a supported value.
func (f SmartFilter) Valid() bool {
	switch f {
	case FilterUnscheduled, FilterHotTrials, FilterPostTrialNoReply,
		FilterReschedule, FilterRenewals, FilterNurtureReengage,
		FilterOnBreak, FilterReturningSoon, FilterMilestones:
		return true
	default:
		return false
	}
}
