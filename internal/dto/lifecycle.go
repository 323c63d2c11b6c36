package dto

import "github.com/noah-isme/academy-crm-api/internal/models"

// TransitionResult is the structured verdict for a proposed status change.
// Validation never raises; callers decide whether to block the transition.
type TransitionResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// OffRampRequirements flags the fields a parking status demands at
// transition time.
type OffRampRequirements struct {
	Note       bool `json:"note"`
	Reason     bool `json:"reason"`
	ReturnDate bool `json:"return_date"`
}

// StatusView is the display projection of a lead's lifecycle position.
type StatusView struct {
	Status             models.LeadStatus  `json:"status"`
	EffectiveStatus    models.LeadStatus  `json:"effective_status"`
	PreviousStatus     *models.LeadStatus `json:"previous_status,omitempty"`
	CanRevert          bool               `json:"can_revert"`
	ShowGuidedWorkflow bool               `json:"show_guided_workflow"`
}

// OffRampRequest is a proposed transition into a parking status.
type OffRampRequest struct {
	Status     models.LeadStatus `json:"status" validate:"required"`
	Note       string            `json:"note"`
	Reason     string            `json:"reason"`
	ReturnDate string            `json:"return_date"`
}
