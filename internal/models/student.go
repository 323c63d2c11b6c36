package models

import "time"

// Student is an enrolled lead's active-subscription projection. It shares
// identity with its originating lead through LeadID.
type Student struct {
	ID                  string     `db:"id" json:"id"`
	LeadID              string     `db:"lead_id" json:"lead_id"`
	Name                string     `db:"name" json:"name"`
	IsActive            bool       `db:"is_active" json:"is_active"`
	SubscriptionPlan    *string    `db:"subscription_plan" json:"subscription_plan,omitempty"`
	SubscriptionEndDate *time.Time `db:"subscription_end_date" json:"subscription_end_date,omitempty"`
	InGracePeriod       bool       `db:"in_grace_period" json:"in_grace_period"`
	BatchIDs            []string   `db:"-" json:"batch_ids,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
