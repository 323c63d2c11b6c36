package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
)

// minOffRampNoteLen is the trimmed length below which a justification note is
// treated as empty for Nurture and Dead/Not Interested transitions.
const minOffRampNoteLen = 3

// LifecycleService owns the lead status state machine: pipeline ordering,
// reversal rules, off-ramp validation, and the display-only status projection.
type LifecycleService struct {
	logger *zap.Logger
}

// NewLifecycleService constructs the lifecycle service.
func NewLifecycleService(logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{logger: logger}
}

// PreviousStatus returns the immediately lower-rank pipeline status. The
// second return is false for New, off-ramp statuses, and anything not in the
// ordered pipeline.
func (s *LifecycleService) PreviousStatus(status models.LeadStatus) (models.LeadStatus, bool) {
	rank := status.PipelineRank()
	if rank <= 0 {
		return "", false
	}
	return models.Pipeline[rank-1], true
}

// CanRevertStatus reports whether the status has a pipeline predecessor.
func (s *LifecycleService) CanRevertStatus(status models.LeadStatus) bool {
	_, ok := s.PreviousStatus(status)
	return ok
}

// EffectiveStatus projects the status for display. A New lead whose parent
// has already submitted scheduling preferences shows as followed-up so the
// worklist does not present it as untouched; the stored status is unchanged.
func (s *LifecycleService) EffectiveStatus(status models.LeadStatus, hasParentPreferences bool) models.LeadStatus {
	if status == models.StatusNew && hasParentPreferences {
		return models.StatusFollowedUp
	}
	return status
}

// ShouldShowGuidedWorkflow reports whether the step-by-step progression UI
// applies. Joined leads and all parked leads are considered resolved.
func (s *LifecycleService) ShouldShowGuidedWorkflow(status models.LeadStatus) bool {
	if status == models.StatusJoined {
		return false
	}
	return !status.IsOffRamp()
}

// OffRampRequirements returns the mandatory fields for a parking status.
// Non-off-ramp statuses require nothing.
func (s *LifecycleService) OffRampRequirements(status models.LeadStatus) dto.OffRampRequirements {
	switch status {
	case models.StatusOnBreak:
		return dto.OffRampRequirements{Note: true, Reason: true, ReturnDate: true}
	case models.StatusNotInterested:
		return dto.OffRampRequirements{Note: true, Reason: true}
	case models.StatusNurture:
		return dto.OffRampRequirements{Note: true}
	default:
		return dto.OffRampRequirements{}
	}
}

// ValidateOffRamp checks a proposed transition into a parking status. The
// verdict is returned, never raised; callers decide whether to block.
func (s *LifecycleService) ValidateOffRamp(req dto.OffRampRequest) dto.TransitionResult {
	if !req.Status.IsOffRamp() {
		return dto.TransitionResult{Valid: false, Error: fmt.Sprintf("%s is not an off-ramp status", req.Status)}
	}

	required := s.OffRampRequirements(req.Status)
	note := strings.TrimSpace(req.Note)

	if required.Note {
		switch req.Status {
		case models.StatusNurture, models.StatusNotInterested:
			if len(note) < minOffRampNoteLen {
				return dto.TransitionResult{Valid: false, Error: "a note of at least 3 characters is required"}
			}
		default:
			if note == "" {
				return dto.TransitionResult{Valid: false, Error: "a note is required"}
			}
		}
	}

	if required.Reason && strings.TrimSpace(req.Reason) == "" {
		return dto.TransitionResult{Valid: false, Error: fmt.Sprintf("a reason is required for %s", req.Status)}
	}

	if required.ReturnDate {
		if strings.TrimSpace(req.ReturnDate) == "" {
			return dto.TransitionResult{Valid: false, Error: "a return date is required for On Break"}
		}
		if _, ok := dateutil.ParseDate(req.ReturnDate); !ok {
			return dto.TransitionResult{Valid: false, Error: "return date must be a valid YYYY-MM-DD date"}
		}
	}

	return dto.TransitionResult{Valid: true}
}

// ValidateTransition checks any proposed status change. Pipeline moves and
// reversions are always permitted; off-ramp entries go through field checks.
func (s *LifecycleService) ValidateTransition(from models.LeadStatus, req dto.OffRampRequest) dto.TransitionResult {
	if !req.Status.Valid() {
		return dto.TransitionResult{Valid: false, Error: fmt.Sprintf("unknown status %q", string(req.Status))}
	}
	if !from.Valid() {
		return dto.TransitionResult{Valid: false, Error: fmt.Sprintf("unknown current status %q", string(from))}
	}
	if req.Status.IsOffRamp() {
		return s.ValidateOffRamp(req)
	}
	return dto.TransitionResult{Valid: true}
}

// ClearsFollowUp reports whether entering the status should null out the
// lead's next follow-up date. Joined and Dead leads need no further contact.
func (s *LifecycleService) ClearsFollowUp(status models.LeadStatus) bool {
	return status == models.StatusJoined || status == models.StatusNotInterested
}

// StatusView assembles the full display projection for a lead.
func (s *LifecycleService) StatusView(lead *models.Lead) dto.StatusView {
	view := dto.StatusView{
		Status:             lead.Status,
		EffectiveStatus:    s.EffectiveStatus(lead.Status, lead.HasParentPreferences()),
		CanRevert:          s.CanRevertStatus(lead.Status),
		ShowGuidedWorkflow: s.ShouldShowGuidedWorkflow(lead.Status),
	}
	if prev, ok := s.PreviousStatus(lead.Status); ok {
		view.PreviousStatus = &prev
	}
	return view
}
