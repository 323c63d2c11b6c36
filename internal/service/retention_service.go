package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/dto"
	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/dateutil"
	appErrors "github.com/noah-isme/academy-crm-api/pkg/errors"
)

type studentLister interface {
	ListActive(ctx context.Context) ([]models.Student, error)
	FindByLeadID(ctx context.Context, leadID string) (*models.Student, error)
}

type attendanceReader interface {
	HistoryByLead(ctx context.Context, leadID string) ([]models.AttendanceRecord, error)
	PresentCountByLead(ctx context.Context, leadID string) (int, error)
}

// RetentionConfig tunes the retention detectors.
type RetentionConfig struct {
	RenewalWindowDays   int
	AbsenceStreakWindow int
	MilestoneLookback   int
	DefaultScheme       models.MilestoneScheme
}

// RetentionService aggregates attendance signals and detects renewal windows
// and milestone hits that drive retention nudges.
type RetentionService struct {
	students   studentLister
	attendance attendanceReader
	logger     *zap.Logger
	now        func() time.Time
	cfg        RetentionConfig
}

// NewRetentionService constructs the retention service with sane defaults.
func NewRetentionService(students studentLister, attendance attendanceReader, logger *zap.Logger, cfg RetentionConfig) *RetentionService {
	if cfg.RenewalWindowDays <= 0 {
		cfg.RenewalWindowDays = 7
	}
	if cfg.AbsenceStreakWindow <= 0 {
		cfg.AbsenceStreakWindow = 3
	}
	if cfg.MilestoneLookback <= 0 {
		cfg.MilestoneLookback = 7
	}
	if !cfg.DefaultScheme.Valid() {
		cfg.DefaultScheme = models.MilestoneSchemeWeb
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		students:   students,
		attendance: attendance,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// AttendanceSummary reports marking progress for a session roster. Marked
// counts the non-nil entries in statusMap.
func (s *RetentionService) AttendanceSummary(participants []string, statusMap map[string]*models.AttendanceStatus) models.AttendanceSummary {
	total := len(participants)
	marked := 0
	for _, id := range participants {
		if status, ok := statusMap[id]; ok && status != nil {
			marked++
		}
	}
	return models.AttendanceSummary{
		Total:     total,
		Marked:    marked,
		Remaining: total - marked,
		AllMarked: total > 0 && marked == total,
	}
}

// DaysSinceLastAttendance returns the whole-day gap between lastDate and now,
// both normalised to midnight.
func (s *RetentionService) DaysSinceLastAttendance(lastDate time.Time) int {
	return dateutil.DaysBetween(lastDate, s.now())
}

// RecentAbsenceCount sorts history most-recent-first, takes the first window
// records, and counts absences among them.
func (s *RetentionService) RecentAbsenceCount(history []models.AttendanceRecord, window int) int {
	if window <= 0 {
		window = s.cfg.AbsenceStreakWindow
	}
	sorted := make([]models.AttendanceRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > window {
		sorted = sorted[:window]
	}
	count := 0
	for _, record := range sorted {
		if record.Status == models.AttendanceAbsent {
			count++
		}
	}
	return count
}

// AttendanceStatusIndicator derives the single recency/absence signal for a
// student. Nothing is returned until a first Present record exists. An
// absence streak in the recent window outranks the days-since display.
func (s *RetentionService) AttendanceStatusIndicator(history []models.AttendanceRecord) *models.AttendanceIndicator {
	var lastPresent *time.Time
	for i := range history {
		if history[i].Status != models.AttendancePresent {
			continue
		}
		if lastPresent == nil || history[i].Date.After(*lastPresent) {
			lastPresent = &history[i].Date
		}
	}
	if lastPresent == nil {
		return nil
	}

	if missed := s.RecentAbsenceCount(history, s.cfg.AbsenceStreakWindow); missed >= 2 {
		return &models.AttendanceIndicator{
			Kind:  models.IndicatorMissed,
			Label: fmt.Sprintf("missed %d", missed),
			Count: missed,
		}
	}

	switch days := dateutil.DaysBetween(*lastPresent, s.now()); days {
	case 0:
		return &models.AttendanceIndicator{Kind: models.IndicatorToday, Label: "today"}
	case 1:
		return &models.AttendanceIndicator{Kind: models.IndicatorYesterday, Label: "yesterday"}
	default:
		return &models.AttendanceIndicator{
			Kind:  models.IndicatorDaysAgo,
			Label: fmt.Sprintf("%dd ago", days),
			Count: days,
		}
	}
}

// IsRenewalDueWithinDays reports whether endDate falls in [today,
// today+windowDays], date parts only, both ends inclusive.
func (s *RetentionService) IsRenewalDueWithinDays(endDate time.Time, windowDays int) bool {
	if windowDays <= 0 {
		windowDays = s.cfg.RenewalWindowDays
	}
	return dateutil.WithinWindow(endDate, s.now(), windowDays)
}

// MilestonePosition locates the session count against the scheme's threshold
// table. A milestone is "hit" only on an exact threshold match.
func (s *RetentionService) MilestonePosition(sessionCount int, scheme models.MilestoneScheme) models.MilestoneSummary {
	if !scheme.Valid() {
		scheme = s.cfg.DefaultScheme
	}
	summary := models.MilestoneSummary{SessionCount: sessionCount}
	for _, threshold := range scheme.Thresholds() {
		if sessionCount == threshold {
			summary.HitMilestone = true
			summary.CurrentMilestone = threshold
		}
		if threshold > sessionCount {
			summary.NextMilestone = threshold
			summary.SessionsUntilNext = threshold - sessionCount
			break
		}
	}
	return summary
}

// HitMilestoneWithin reports whether the cumulative present-count crossed a
// threshold exactly during the lookback window ending now.
func (s *RetentionService) HitMilestoneWithin(history []models.AttendanceRecord, scheme models.MilestoneScheme, lookbackDays int) bool {
	if !scheme.Valid() {
		scheme = s.cfg.DefaultScheme
	}
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.MilestoneLookback
	}
	thresholds := make(map[int]struct{}, len(scheme.Thresholds()))
	for _, t := range scheme.Thresholds() {
		thresholds[t] = struct{}{}
	}

	sorted := make([]models.AttendanceRecord, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	now := s.now()
	cumulative := 0
	for _, record := range sorted {
		if record.Status != models.AttendancePresent {
			continue
		}
		cumulative++
		if _, ok := thresholds[cumulative]; !ok {
			continue
		}
		gap := dateutil.DaysBetween(record.Date, now)
		if gap >= 0 && gap <= lookbackDays {
			return true
		}
	}
	return false
}

// RenewalsDue returns the active students whose subscription end date falls
// inside the renewal window.
func (s *RetentionService) RenewalsDue(ctx context.Context, windowDays int) ([]models.Student, error) {
	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active students")
	}
	if windowDays <= 0 {
		windowDays = s.cfg.RenewalWindowDays
	}
	due := make([]models.Student, 0)
	for _, student := range students {
		if student.SubscriptionEndDate == nil {
			continue
		}
		if s.IsRenewalDueWithinDays(*student.SubscriptionEndDate, windowDays) {
			due = append(due, student)
		}
	}
	return due, nil
}

// MilestoneStudents returns the active students who reached a tracked
// milestone within the lookback window.
func (s *RetentionService) MilestoneStudents(ctx context.Context, scheme models.MilestoneScheme) ([]models.Student, error) {
	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active students")
	}
	hits := make([]models.Student, 0)
	for _, student := range students {
		history, err := s.attendance.HistoryByLead(ctx, student.LeadID)
		if err != nil {
			s.logger.Warn("failed to load attendance history", zap.String("lead_id", student.LeadID), zap.Error(err))
			continue
		}
		if s.HitMilestoneWithin(history, scheme, s.cfg.MilestoneLookback) {
			hits = append(hits, student)
		}
	}
	return hits, nil
}

// StudentIndicator derives the attendance indicator for a single student.
func (s *RetentionService) StudentIndicator(ctx context.Context, leadID string) (*models.AttendanceIndicator, error) {
	history, err := s.attendance.HistoryByLead(ctx, leadID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return s.AttendanceStatusIndicator(history), nil
}

// StudentMilestone returns the milestone position for a single student.
func (s *RetentionService) StudentMilestone(ctx context.Context, leadID string, scheme models.MilestoneScheme) (*models.MilestoneSummary, error) {
	count, err := s.attendance.PresentCountByLead(ctx, leadID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count sessions")
	}
	summary := s.MilestonePosition(count, scheme)
	return &summary, nil
}

// DefaultRenewalWindow exposes the configured window size for display.
func (s *RetentionService) DefaultRenewalWindow() int {
	return s.cfg.RenewalWindowDays
}

// StudentView bundles every retention signal for one student: attendance
// indicator, milestone position, renewal flag and days since last seen.
func (s *RetentionService) StudentView(ctx context.Context, leadID string, scheme models.MilestoneScheme) (*dto.StudentRetentionView, error) {
	student, err := s.students.FindByLeadID(ctx, leadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no student for lead %s", leadID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	history, err := s.attendance.HistoryByLead(ctx, leadID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	view := &dto.StudentRetentionView{
		Student:   *student,
		Indicator: s.AttendanceStatusIndicator(history),
	}

	milestone, err := s.StudentMilestone(ctx, leadID, scheme)
	if err != nil {
		return nil, err
	}
	view.Milestone = milestone

	if student.SubscriptionEndDate != nil {
		view.RenewalDue = s.IsRenewalDueWithinDays(*student.SubscriptionEndDate, s.cfg.RenewalWindowDays)
	}

	var lastSeen *time.Time
	for i := range history {
		if history[i].Status != models.AttendancePresent {
			continue
		}
		if lastSeen == nil || history[i].Date.After(*lastSeen) {
			lastSeen = &history[i].Date
		}
	}
	if lastSeen != nil {
		days := s.DaysSinceLastAttendance(*lastSeen)
		view.DaysSinceSeen = &days
	}
	return view, nil
}
