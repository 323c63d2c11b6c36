package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
)

type batchLister interface {
	ListActive(ctx context.Context, centerID string) ([]models.Batch, error)
	FindByID(ctx context.Context, id string) (*models.Batch, error)
}

// OccurrenceService maps weekly batch recurrence patterns onto concrete
// calendar dates and session counts.
type OccurrenceService struct {
	repo   batchLister
	logger *zap.Logger
}

// NewOccurrenceService constructs the occurrence service.
func NewOccurrenceService(repo batchLister, logger *zap.Logger) *OccurrenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OccurrenceService{repo: repo, logger: logger}
}

// SessionsBetween counts calendar days in [start, end] inclusive whose
// weekday flag is set. Returns 0 when end precedes start. The scan is
// day-by-day; batches run for a few years at most.
func (s *OccurrenceService) SessionsBetween(start, end time.Time, schedule models.WeeklySchedule) int {
	day := dateutil.StartOfDay(start)
	last := dateutil.StartOfDay(end)
	if last.Before(day) {
		return 0
	}
	count := 0
	for !day.After(last) {
		if schedule.ScheduledOn(dateutil.Weekday(day)) {
			count++
		}
		day = dateutil.AddDays(day, 1)
	}
	return count
}

// EndDateForSessionCount scans forward from start and returns the date on
// which the cumulative scheduled-session count first reaches totalSessions.
// Non-positive counts return start unchanged, as does a schedule with no days
// set (there is no date that would ever satisfy it).
func (s *OccurrenceService) EndDateForSessionCount(start time.Time, totalSessions int, schedule models.WeeklySchedule) time.Time {
	if totalSessions <= 0 || !schedule.HasAnyDay() {
		return start
	}
	day := dateutil.StartOfDay(start)
	count := 0
	for {
		if schedule.ScheduledOn(dateutil.Weekday(day)) {
			count++
			if count == totalSessions {
				return day
			}
		}
		day = dateutil.AddDays(day, 1)
	}
}

// OccursOn reports whether the batch holds a session on the given date: the
// weekday flag is set, the date falls inside the batch's validity window, and
// the batch is active.
func (s *OccurrenceService) OccursOn(batch models.Batch, date time.Time) bool {
	if !batch.IsActive {
		return false
	}
	day := dateutil.StartOfDay(date)
	if day.Before(dateutil.StartOfDay(batch.StartDate)) {
		return false
	}
	if batch.EndDate != nil && day.After(dateutil.StartOfDay(*batch.EndDate)) {
		return false
	}
	return batch.Schedule().ScheduledOn(dateutil.Weekday(day))
}

// OccurrencesOnDate filters the batch collection to those holding a session
// on the date.
func (s *OccurrenceService) OccurrencesOnDate(batches []models.Batch, date time.Time) []models.Batch {
	occurring := make([]models.Batch, 0, len(batches))
	for _, batch := range batches {
		if s.OccursOn(batch, date) {
			occurring = append(occurring, batch)
		}
	}
	return occurring
}

// OccurrencesForCenter loads the active batches for a center and returns
// those occurring on the date.
func (s *OccurrenceService) OccurrencesForCenter(ctx context.Context, centerID string, date time.Time) ([]models.Batch, error) {
	batches, err := s.repo.ListActive(ctx, centerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	return s.OccurrencesOnDate(batches, date), nil
}

// BatchSessionsBetween resolves a batch and counts its sessions in [from, to].
func (s *OccurrenceService) BatchSessionsBetween(ctx context.Context, batchID string, from, to time.Time) (int, error) {
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
	}
	return s.SessionsBetween(from, to, batch.Schedule()), nil
}

// BatchEndDate resolves a batch and projects the completion date for a
// session bundle starting at start.
func (s *OccurrenceService) BatchEndDate(ctx context.Context, batchID string, start time.Time, totalSessions int) (time.Time, error) {
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "batch not found")
	}
	return s.EndDateForSessionCount(start, totalSessions, batch.Schedule()), nil
}
