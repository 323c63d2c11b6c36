package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
)

type worklistLeadRepository interface {
	ListAll(ctx context.Context) ([]models.Lead, error)
	Buckets(ctx context.Context, now time.Time) (*models.FollowUpBuckets, error)
}

type renewalDetector interface {
	RenewalsDue(ctx context.Context, windowDays int) ([]models.Student, error)
	MilestoneStudents(ctx context.Context, scheme models.MilestoneScheme) ([]models.Student, error)
}

// WorklistConfig tunes the daily queue categoriser.
type WorklistConfig struct {
	UpcomingWindowDays  int
	NurtureReengageDays int
	ReviewSlotHour      int
	RenewalWindowDays   int
	DefaultScheme       models.MilestoneScheme
	CacheTTL            time.Duration
}

// WorklistService turns the lead collection into the prioritised daily
// worklist: the Overdue/Today/Upcoming triple-stack plus the named smart
// filters.
type WorklistService struct {
	leads     worklistLeadRepository
	retention renewalDetector
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
	cfg       WorklistConfig
}

// NewWorklistService constructs the worklist service with sane defaults.
func NewWorklistService(leads worklistLeadRepository, retention renewalDetector, cache *CacheService, logger *zap.Logger, cfg WorklistConfig) *WorklistService {
	if cfg.UpcomingWindowDays <= 0 {
		cfg.UpcomingWindowDays = 7
	}
	if cfg.NurtureReengageDays <= 0 {
		cfg.NurtureReengageDays = 5
	}
	if cfg.ReviewSlotHour <= 0 {
		cfg.ReviewSlotHour = 10
	}
	if cfg.RenewalWindowDays <= 0 {
		cfg.RenewalWindowDays = 7
	}
	if !cfg.DefaultScheme.Valid() {
		cfg.DefaultScheme = models.MilestoneSchemeWeb
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorklistService{
		leads:     leads,
		retention: retention,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// actionable filters out parked leads; Nurture and Dead leads are never
// follow-up work.
func actionable(leads []models.Lead) []models.Lead {
	kept := make([]models.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.Status == models.StatusNurture || lead.Status == models.StatusNotInterested {
			continue
		}
		kept = append(kept, lead)
	}
	return kept
}

// CategoriseBuckets builds the triple-stack view from the server-partitioned
// buckets for a selected date. The overdue bucket is authoritative and only
// loses its parked leads; Today and Upcoming are re-cut against selectedDate
// because the user may be browsing a different day than the server's "now".
func (s *WorklistService) CategoriseBuckets(buckets *models.FollowUpBuckets, selectedDate time.Time) models.TripleStack {
	stack := models.TripleStack{
		Overdue:  []models.Lead{},
		Today:    []models.Lead{},
		Upcoming: []models.Lead{},
	}
	if buckets == nil {
		return stack
	}

	stack.Overdue = actionable(buckets.Overdue)

	selected := dateutil.StartOfDay(selectedDate)
	pool := make([]models.Lead, 0, len(buckets.DueToday)+len(buckets.Upcoming))
	pool = append(pool, buckets.DueToday...)
	pool = append(pool, buckets.Upcoming...)

	for _, lead := range actionable(pool) {
		if lead.NextFollowupDate == nil {
			continue
		}
		if dateutil.SameDay(*lead.NextFollowupDate, selected) {
			stack.Today = append(stack.Today, lead)
		}
	}

	for _, lead := range actionable(buckets.Upcoming) {
		if lead.NextFollowupDate == nil {
			continue
		}
		due := dateutil.StartOfDay(*lead.NextFollowupDate)
		if due.After(selected) && dateutil.WithinWindow(due, selected, s.cfg.UpcomingWindowDays) {
			stack.Upcoming = append(stack.Upcoming, lead)
		}
	}

	return stack
}

// TripleStack loads the bucket triple and categorises it for selectedDate.
// The bool return reports cache utilisation.
func (s *WorklistService) TripleStack(ctx context.Context, selectedDate time.Time) (*dto.TripleStackResponse, bool, error) {
	selected := dateutil.StartOfDay(selectedDate)
	cacheKey := fmt.Sprintf("worklist:stack:%s", selected.Format(dateutil.DateLayout))

	if s.cache.Enabled() {
		var cached dto.TripleStackResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	buckets, err := s.leads.Buckets(ctx, s.now())
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load follow-up buckets")
	}

	stack := s.CategoriseBuckets(buckets, selected)
	resp := &dto.TripleStackResponse{
		SelectedDate: selected.Format(dateutil.DateLayout),
		Overdue:      stack.Overdue,
		Today:        stack.Today,
		Upcoming:     stack.Upcoming,
		Counts: dto.TripleStackCounts{
			Overdue:  len(stack.Overdue),
			Today:    len(stack.Today),
			Upcoming: len(stack.Upcoming),
		},
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL)
	}
	return resp, false, nil
}

// SmartFilter evaluates one named view over the full lead/student collection.
func (s *WorklistService) SmartFilter(ctx context.Context, filter models.SmartFilter) (*dto.SmartFilterResponse, error) {
	if !filter.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown filter %q", string(filter)))
	}

	switch filter {
	case models.FilterRenewals:
		students, err := s.retention.RenewalsDue(ctx, s.cfg.RenewalWindowDays)
		if err != nil {
			return nil, err
		}
		return &dto.SmartFilterResponse{Filter: filter, Students: students, Count: len(students)}, nil
	case models.FilterMilestones:
		students, err := s.retention.MilestoneStudents(ctx, s.cfg.DefaultScheme)
		if err != nil {
			return nil, err
		}
		return &dto.SmartFilterResponse{Filter: filter, Students: students, Count: len(students)}, nil
	}

	leads, err := s.leads.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leads")
	}

	matched := s.applyLeadFilter(leads, filter)
	return &dto.SmartFilterResponse{Filter: filter, Leads: matched, Count: len(matched)}, nil
}

func (s *WorklistService) applyLeadFilter(leads []models.Lead, filter models.SmartFilter) []models.Lead {
	matched := make([]models.Lead, 0)
	for _, lead := range leads {
		if s.matches(lead, filter) {
			matched = append(matched, lead)
		}
	}
	return matched
}

func (s *WorklistService) matches(lead models.Lead, filter models.SmartFilter) bool {
	now := s.now()
	switch filter {
	case models.FilterUnscheduled:
		if lead.Status != models.StatusNew && lead.Status != models.StatusCalled {
			return false
		}
		return lead.NextFollowupDate == nil

	case models.FilterHotTrials:
		if lead.Status != models.StatusTrialAttended || lead.LastUpdated == nil {
			return false
		}
		return dateutil.WithinLastHours(*lead.LastUpdated, now, 24)

	case models.FilterPostTrialNoReply:
		if lead.Status != models.StatusTrialAttended {
			return false
		}
		// No update timestamp at all means nobody has touched the lead
		// since the trial, which is exactly this bucket.
		if lead.LastUpdated == nil {
			return true
		}
		return !dateutil.WithinLastHours(*lead.LastUpdated, now, 24)

	case models.FilterReschedule:
		if lead.Status != models.StatusTrialScheduled || lead.NextFollowupDate == nil {
			return false
		}
		slotStart := dateutil.StartOfDay(dateutil.AddDays(now, 1)).Add(time.Duration(s.cfg.ReviewSlotHour) * time.Hour)
		slotEnd := slotStart.Add(time.Hour)
		due := *lead.NextFollowupDate
		return !due.Before(slotStart) && due.Before(slotEnd)

	case models.FilterNurtureReengage:
		if lead.Status != models.StatusNurture {
			return false
		}
		reference := lead.LastUpdated
		if reference == nil {
			created := lead.CreatedTime
			reference = &created
		}
		return dateutil.DaysBetween(*reference, now) >= s.cfg.NurtureReengageDays

	case models.FilterOnBreak:
		return lead.Status == models.StatusOnBreak

	case models.FilterReturningSoon:
		if lead.Status != models.StatusOnBreak || lead.NextFollowupDate == nil {
			return false
		}
		return dateutil.WithinWindow(*lead.NextFollowupDate, now, s.cfg.UpcomingWindowDays)

	default:
		return false
	}
}

// InvalidateCache drops cached worklist payloads after a lead mutation.
func (s *WorklistService) InvalidateCache(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, "worklist:*"); err != nil {
		s.logger.Warn("worklist cache invalidation failed", zap.Error(err))
	}
}
