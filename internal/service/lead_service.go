package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
)

type leadRepository interface {
	List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int, error)
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) error
	SetNextFollowup(ctx context.Context, id string, followup *time.Time) error
	SavePreferences(ctx context.Context, id string, batchID, callTime *string) error
}

type worklistInvalidator interface {
	InvalidateCache(ctx context.Context)
}

// LeadService coordinates lead reads and lifecycle transitions.
type LeadService struct {
	repo      leadRepository
	lifecycle *LifecycleService
	worklist  worklistInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeadService constructs the lead service.
func NewLeadService(repo leadRepository, lifecycle *LifecycleService, worklist worklistInvalidator, validate *validator.Validate, logger *zap.Logger) *LeadService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{
		repo:      repo,
		lifecycle: lifecycle,
		worklist:  worklist,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns leads with paging metadata.
func (s *LeadService) List(ctx context.Context, filter models.LeadFilter) ([]models.Lead, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leads")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return leads, pagination, nil
}

// Get returns a lead with its lifecycle projection.
func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, *dto.StatusView, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch lead")
	}
	view := s.lifecycle.StatusView(lead)
	return lead, &view, nil
}

// Transition validates and applies a status change. Rejections come back as a
// verdict, not an error; errors are reserved for lookup and storage failures.
func (s *LeadService) Transition(ctx context.Context, id string, req dto.OffRampRequest) (*dto.TransitionResult, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch lead")
	}

	result := s.lifecycle.ValidateTransition(lead.Status, req)
	if !result.Valid {
		return &result, nil
	}

	update := models.StatusUpdate{Status: req.Status, UpdatedAt: s.now().UTC()}
	if req.Status == models.StatusNotInterested {
		reason := req.Reason
		update.LossReason = &reason
	}
	if note := req.Note; note != "" {
		update.Note = &note
	}

	// An On Break return date doubles as the next follow-up so the lead
	// resurfaces in the returning-soon view; resolved statuses clear it.
	switch {
	case s.lifecycle.ClearsFollowUp(req.Status):
		update.ClearFollowup = true
	case req.Status == models.StatusOnBreak:
		if returnDate, ok := dateutil.ParseDate(req.ReturnDate); ok {
			update.NextFollowup = &returnDate
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lead status")
	}
	if s.worklist != nil {
		s.worklist.InvalidateCache(ctx)
	}
	return &result, nil
}

// Revert moves a lead one step back down the pipeline.
func (s *LeadService) Revert(ctx context.Context, id string) (*dto.TransitionResult, error) {
	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lead not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch lead")
	}

	prev, ok := s.lifecycle.PreviousStatus(lead.Status)
	if !ok {
		return &dto.TransitionResult{Valid: false, Error: "status cannot be reverted"}, nil
	}

	update := models.StatusUpdate{Status: prev, UpdatedAt: s.now().UTC()}
	if err := s.repo.UpdateStatus(ctx, id, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revert lead status")
	}
	if s.worklist != nil {
		s.worklist.InvalidateCache(ctx)
	}
	return &dto.TransitionResult{Valid: true}, nil
}

// ScheduleFollowup sets or clears the lead's next follow-up date.
func (s *LeadService) ScheduleFollowup(ctx context.Context, id string, followup *time.Time) error {
	if err := s.repo.SetNextFollowup(ctx, id, followup); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule follow-up")
	}
	if s.worklist != nil {
		s.worklist.InvalidateCache(ctx)
	}
	return nil
}

// PreferenceRequest is the parent-submitted scheduling preference payload.
type PreferenceRequest struct {
	PreferredBatchID  *string `json:"preferred_batch_id"`
	PreferredCallTime *string `json:"preferred_call_time"`
}

// SubmitPreferences records parent preferences; the stored status stays New
// and only the display projection advances.
func (s *LeadService) SubmitPreferences(ctx context.Context, id string, req PreferenceRequest) error {
	if req.PreferredBatchID == nil && req.PreferredCallTime == nil {
		return appErrors.Clone(appErrors.ErrValidation, "at least one preference is required")
	}
	if err := s.repo.SavePreferences(ctx, id, req.PreferredBatchID, req.PreferredCallTime); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preferences")
	}
	return nil
}
