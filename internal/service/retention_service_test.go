package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

type fakeStudentRepo struct {
	students []models.Student
	err      error
}

func (f *fakeStudentRepo) ListActive(context.Context) ([]models.Student, error) {
	return f.students, f.err
}

func (f *fakeStudentRepo) FindByLeadID(_ context.Context, leadID string) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].LeadID == leadID {
			return &f.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeAttendanceRepo struct {
	history map[string][]models.AttendanceRecord
	counts  map[string]int
}

func (f *fakeAttendanceRepo) HistoryByLead(_ context.Context, leadID string) ([]models.AttendanceRecord, error) {
	return f.history[leadID], nil
}

func (f *fakeAttendanceRepo) PresentCountByLead(_ context.Context, leadID string) (int, error) {
	return f.counts[leadID], nil
}

func newRetentionAt(t *testing.T, now time.Time) *RetentionService {
	t.Helper()
	svc := NewRetentionService(&fakeStudentRepo{}, &fakeAttendanceRepo{}, nil, RetentionConfig{})
	svc.now = func() time.Time { return now }
	return svc
}

func record(y int, m time.Month, d int, status models.AttendanceStatus) models.AttendanceRecord {
	return models.AttendanceRecord{Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Status: status}
}

func TestAttendanceSummary(t *testing.T) {
	svc := newRetentionAt(t, time.Now())
	present := models.AttendancePresent

	participants := []string{"a", "b", "c"}
	statusMap := map[string]*models.AttendanceStatus{"a": &present, "b": nil}

	summary := svc.AttendanceSummary(participants, statusMap)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Marked)
	assert.Equal(t, 2, summary.Remaining)
	assert.False(t, summary.AllMarked)

	statusMap["b"] = &present
	statusMap["c"] = &present
	summary = svc.AttendanceSummary(participants, statusMap)
	assert.True(t, summary.AllMarked)

	empty := svc.AttendanceSummary(nil, nil)
	assert.False(t, empty.AllMarked, "empty roster is never fully marked")
}

func TestRecentAbsenceCount(t *testing.T) {
	svc := newRetentionAt(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	history := []models.AttendanceRecord{
		record(2024, 1, 1, models.AttendancePresent),
		record(2024, 1, 2, models.AttendanceAbsent),
		record(2024, 1, 3, models.AttendanceAbsent),
	}
	assert.Equal(t, 2, svc.RecentAbsenceCount(history, 3))

	// Older absences fall out of the window once newer records arrive.
	history = append(history,
		record(2024, 1, 4, models.AttendancePresent),
		record(2024, 1, 5, models.AttendancePresent),
		record(2024, 1, 6, models.AttendancePresent),
	)
	assert.Equal(t, 0, svc.RecentAbsenceCount(history, 3))

	assert.Equal(t, 0, svc.RecentAbsenceCount(nil, 3))
}

func TestAttendanceStatusIndicator(t *testing.T) {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	svc := newRetentionAt(t, now)

	t.Run("no present record yields nothing", func(t *testing.T) {
		history := []models.AttendanceRecord{record(2024, 1, 9, models.AttendanceAbsent)}
		assert.Nil(t, svc.AttendanceStatusIndicator(history))
		assert.Nil(t, svc.AttendanceStatusIndicator(nil))
	})

	t.Run("absence streak outranks recency", func(t *testing.T) {
		history := []models.AttendanceRecord{
			record(2024, 1, 1, models.AttendancePresent),
			record(2024, 1, 2, models.AttendanceAbsent),
			record(2024, 1, 3, models.AttendanceAbsent),
		}
		indicator := svc.AttendanceStatusIndicator(history)
		require.NotNil(t, indicator)
		assert.Equal(t, models.IndicatorMissed, indicator.Kind)
		assert.Equal(t, "missed 2", indicator.Label)
		assert.Equal(t, 2, indicator.Count)
	})

	t.Run("seen today", func(t *testing.T) {
		history := []models.AttendanceRecord{record(2024, 1, 10, models.AttendancePresent)}
		indicator := svc.AttendanceStatusIndicator(history)
		require.NotNil(t, indicator)
		assert.Equal(t, models.IndicatorToday, indicator.Kind)
	})

	t.Run("seen yesterday", func(t *testing.T) {
		history := []models.AttendanceRecord{record(2024, 1, 9, models.AttendancePresent)}
		indicator := svc.AttendanceStatusIndicator(history)
		require.NotNil(t, indicator)
		assert.Equal(t, models.IndicatorYesterday, indicator.Kind)
	})

	t.Run("days ago", func(t *testing.T) {
		history := []models.AttendanceRecord{record(2024, 1, 4, models.AttendancePresent)}
		indicator := svc.AttendanceStatusIndicator(history)
		require.NotNil(t, indicator)
		assert.Equal(t, models.IndicatorDaysAgo, indicator.Kind)
		assert.Equal(t, "6d ago", indicator.Label)
	})
}

func TestIsRenewalDueWithinDays(t *testing.T) {
	endDate := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	svc := newRetentionAt(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, svc.IsRenewalDueWithinDays(endDate, 7))

	svc = newRetentionAt(t, time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC))
	assert.False(t, svc.IsRenewalDueWithinDays(endDate, 7), "already expired")

	svc = newRetentionAt(t, time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC))
	assert.False(t, svc.IsRenewalDueWithinDays(endDate, 7), "beyond the window")

	svc = newRetentionAt(t, endDate)
	assert.True(t, svc.IsRenewalDueWithinDays(endDate, 7), "expiring today still counts")
}

func TestMilestonePosition(t *testing.T) {
	svc := newRetentionAt(t, time.Now())

	hit := svc.MilestonePosition(24, models.MilestoneSchemeWeb)
	assert.True(t, hit.HitMilestone)
	assert.Equal(t, 24, hit.CurrentMilestone)
	assert.Equal(t, 49, hit.NextMilestone)
	assert.Equal(t, 25, hit.SessionsUntilNext)

	between := svc.MilestonePosition(10, models.MilestoneSchemeWeb)
	assert.False(t, between.HitMilestone)
	assert.Equal(t, 24, between.NextMilestone)
	assert.Equal(t, 14, between.SessionsUntilNext)

	// Ten sessions is a milestone on mobile but not on web.
	mobile := svc.MilestonePosition(10, models.MilestoneSchemeMobile)
	assert.True(t, mobile.HitMilestone)
	assert.Equal(t, 25, mobile.NextMilestone)

	beyond := svc.MilestonePosition(120, models.MilestoneSchemeMobile)
	assert.False(t, beyond.HitMilestone)
	assert.Zero(t, beyond.NextMilestone)
	assert.Zero(t, beyond.SessionsUntilNext)
}

func TestHitMilestoneWithin(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	svc := newRetentionAt(t, now)

	history := make([]models.AttendanceRecord, 0, 10)
	// Eight sessions well in the past, the ninth five days ago.
	for i := 0; i < 8; i++ {
		history = append(history, record(2024, 1, 1+i, models.AttendancePresent))
	}
	history = append(history, record(2024, 3, 15, models.AttendancePresent))

	assert.True(t, svc.HitMilestoneWithin(history, models.MilestoneSchemeWeb, 7))
	assert.False(t, svc.HitMilestoneWithin(history, models.MilestoneSchemeMobile, 7), "ninth session is not a mobile milestone")

	old := newRetentionAt(t, now.AddDate(0, 0, 30))
	assert.False(t, old.HitMilestoneWithin(history, models.MilestoneSchemeWeb, 7), "hit aged out of the window")

	assert.False(t, svc.HitMilestoneWithin(nil, models.MilestoneSchemeWeb, 7))
}

func TestRenewalsDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inWindow := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	students := []models.Student{
		{ID: "s1", LeadID: "l1", IsActive: true, SubscriptionEndDate: &inWindow},
		{ID: "s2", LeadID: "l2", IsActive: true, SubscriptionEndDate: &outOfWindow},
		{ID: "s3", LeadID: "l3", IsActive: true},
	}

	svc := NewRetentionService(&fakeStudentRepo{students: students}, &fakeAttendanceRepo{}, nil, RetentionConfig{})
	svc.now = func() time.Time { return now }

	due, err := svc.RenewalsDue(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "s1", due[0].ID)
}

func TestMilestoneStudents(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)

	history := make([]models.AttendanceRecord, 0, 9)
	for i := 0; i < 8; i++ {
		history = append(history, record(2024, 1, 1+i, models.AttendancePresent))
	}
	history = append(history, record(2024, 3, 18, models.AttendancePresent))

	students := []models.Student{
		{ID: "s1", LeadID: "l1", IsActive: true},
		{ID: "s2", LeadID: "l2", IsActive: true},
	}
	attendance := &fakeAttendanceRepo{history: map[string][]models.AttendanceRecord{"l1": history}}

	svc := NewRetentionService(&fakeStudentRepo{students: students}, attendance, nil, RetentionConfig{})
	svc.now = func() time.Time { return now }

	hits, err := svc.MilestoneStudents(context.Background(), models.MilestoneSchemeWeb)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "s1", hits[0].ID)
}

func TestStudentView(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	endDate := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	students := []models.Student{
		{ID: "s1", LeadID: "l1", IsActive: true, SubscriptionEndDate: &endDate},
	}
	attendance := &fakeAttendanceRepo{
		history: map[string][]models.AttendanceRecord{
			"l1": {record(2024, 1, 8, models.AttendancePresent)},
		},
		counts: map[string]int{"l1": 9},
	}

	svc := NewRetentionService(&fakeStudentRepo{students: students}, attendance, nil, RetentionConfig{})
	svc.now = func() time.Time { return now }

	view, err := svc.StudentView(context.Background(), "l1", models.MilestoneSchemeWeb)
	require.NoError(t, err)
	assert.Equal(t, "s1", view.Student.ID)
	assert.True(t, view.RenewalDue)
	require.NotNil(t, view.Milestone)
	assert.True(t, view.Milestone.HitMilestone)
	require.NotNil(t, view.DaysSinceSeen)
	assert.Equal(t, 2, *view.DaysSinceSeen)
	require.NotNil(t, view.Indicator)

	_, err = svc.StudentView(context.Background(), "unknown", models.MilestoneSchemeWeb)
	require.Error(t, err)
}
