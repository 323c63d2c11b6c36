package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

type fakeLeadSource struct {
	leads   []models.Lead
	buckets *models.FollowUpBuckets
	err     error
}

func (f *fakeLeadSource) ListAll(context.Context) ([]models.Lead, error) {
	return f.leads, f.err
}

func (f *fakeLeadSource) Buckets(context.Context, time.Time) (*models.FollowUpBuckets, error) {
	return f.buckets, f.err
}

type fakeRetentionSource struct {
	renewals   []models.Student
	milestones []models.Student
	err        error
}

func (f *fakeRetentionSource) RenewalsDue(context.Context, int) ([]models.Student, error) {
	return f.renewals, f.err
}

func (f *fakeRetentionSource) MilestoneStudents(context.Context, models.MilestoneScheme) ([]models.Student, error) {
	return f.milestones, f.err
}

func newWorklistAt(t *testing.T, now time.Time, leads *fakeLeadSource, retention *fakeRetentionSource) *WorklistService {
	t.Helper()
	if leads == nil {
		leads = &fakeLeadSource{}
	}
	if retention == nil {
		retention = &fakeRetentionSource{}
	}
	svc := NewWorklistService(leads, retention, nil, nil, WorklistConfig{})
	svc.now = func() time.Time { return now }
	return svc
}

func leadWithFollowup(id string, status models.LeadStatus, followup *time.Time) models.Lead {
	return models.Lead{ID: id, Status: status, NextFollowupDate: followup}
}

func TestCategoriseBuckets(t *testing.T) {
	selected := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	svc := newWorklistAt(t, selected, nil, nil)

	yesterday := selected.AddDate(0, 0, -1)
	todayNoon := selected.Add(12 * time.Hour)
	inThreeDays := selected.AddDate(0, 0, 3)
	inEightDays := selected.AddDate(0, 0, 8)

	buckets := &models.FollowUpBuckets{
		Overdue: []models.Lead{
			leadWithFollowup("over-1", models.StatusCalled, &yesterday),
			leadWithFollowup("over-nurture", models.StatusNurture, &yesterday),
			leadWithFollowup("over-dead", models.StatusNotInterested, &yesterday),
		},
		DueToday: []models.Lead{
			leadWithFollowup("today-1", models.StatusTrialScheduled, &todayNoon),
			leadWithFollowup("today-none", models.StatusCalled, nil),
		},
		Upcoming: []models.Lead{
			leadWithFollowup("up-3d", models.StatusCalled, &inThreeDays),
			leadWithFollowup("up-8d", models.StatusCalled, &inEightDays),
			leadWithFollowup("up-today", models.StatusCalled, &todayNoon),
			leadWithFollowup("up-nurture", models.StatusNurture, &inThreeDays),
		},
	}

	stack := svc.CategoriseBuckets(buckets, selected)

	require.Len(t, stack.Overdue, 1, "parked leads drop out of overdue")
	assert.Equal(t, "over-1", stack.Overdue[0].ID)

	ids := func(leads []models.Lead) []string {
		out := make([]string, len(leads))
		for i, l := range leads {
			out[i] = l.ID
		}
		return out
	}

	assert.ElementsMatch(t, []string{"today-1", "up-today"}, ids(stack.Today), "today draws from due_today and upcoming, time of day discarded")
	assert.Equal(t, []string{"up-3d"}, ids(stack.Upcoming), "upcoming is strictly after selected and within seven days")
}

func TestCategoriseBucketsEmpty(t *testing.T) {
	selected := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	svc := newWorklistAt(t, selected, nil, nil)

	stack := svc.CategoriseBuckets(nil, selected)
	assert.Empty(t, stack.Overdue)
	assert.Empty(t, stack.Today)
	assert.Empty(t, stack.Upcoming)

	stack = svc.CategoriseBuckets(&models.FollowUpBuckets{}, selected)
	assert.Empty(t, stack.Today)
}

func TestTripleStack(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)
	due := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	leads := &fakeLeadSource{buckets: &models.FollowUpBuckets{
		DueToday: []models.Lead{leadWithFollowup("l1", models.StatusCalled, &due)},
	}}
	svc := newWorklistAt(t, now, leads, nil)

	resp, cacheHit, err := svc.TripleStack(context.Background(), now)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, "2024-05-10", resp.SelectedDate)
	assert.Equal(t, 1, resp.Counts.Today)
	assert.Empty(t, resp.Overdue)
}

func TestSmartFilterUnscheduled(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	followup := now.AddDate(0, 0, 1)
	leads := &fakeLeadSource{leads: []models.Lead{
		leadWithFollowup("new-no-date", models.StatusNew, nil),
		leadWithFollowup("called-no-date", models.StatusCalled, nil),
		leadWithFollowup("new-with-date", models.StatusNew, &followup),
		leadWithFollowup("trial-no-date", models.StatusTrialScheduled, nil),
	}}
	svc := newWorklistAt(t, now, leads, nil)

	resp, err := svc.SmartFilter(context.Background(), models.FilterUnscheduled)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)
}

func TestSmartFilterTrialSplit(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-6 * time.Hour)
	stale := now.Add(-30 * time.Hour)

	leads := &fakeLeadSource{leads: []models.Lead{
		{ID: "hot", Status: models.StatusTrialAttended, LastUpdated: &recent},
		{ID: "cold", Status: models.StatusTrialAttended, LastUpdated: &stale},
		{ID: "untouched", Status: models.StatusTrialAttended},
		{ID: "other", Status: models.StatusCalled, LastUpdated: &recent},
	}}
	svc := newWorklistAt(t, now, leads, nil)

	hot, err := svc.SmartFilter(context.Background(), models.FilterHotTrials)
	require.NoError(t, err)
	require.Len(t, hot.Leads, 1)
	assert.Equal(t, "hot", hot.Leads[0].ID)

	cold, err := svc.SmartFilter(context.Background(), models.FilterPostTrialNoReply)
	require.NoError(t, err)
	assert.Len(t, cold.Leads, 2, "stale and never-touched trials both need a nudge")
}

func TestSmartFilterReschedule(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

	inSlot := time.Date(2024, 5, 11, 10, 30, 0, 0, time.UTC)
	beforeSlot := time.Date(2024, 5, 11, 9, 59, 0, 0, time.UTC)
	afterSlot := time.Date(2024, 5, 11, 11, 0, 0, 0, time.UTC)

	leads := &fakeLeadSource{leads: []models.Lead{
		leadWithFollowup("in-slot", models.StatusTrialScheduled, &inSlot),
		leadWithFollowup("before", models.StatusTrialScheduled, &beforeSlot),
		leadWithFollowup("after", models.StatusTrialScheduled, &afterSlot),
		leadWithFollowup("wrong-status", models.StatusCalled, &inSlot),
	}}
	svc := newWorklistAt(t, now, leads, nil)

	resp, err := svc.SmartFilter(context.Background(), models.FilterReschedule)
	require.NoError(t, err)
	require.Len(t, resp.Leads, 1)
	assert.Equal(t, "in-slot", resp.Leads[0].ID)
}

func TestSmartFilterNurtureReengage(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	sixDaysAgo := now.AddDate(0, 0, -6)
	fourDaysAgo := now.AddDate(0, 0, -4)

	leads := &fakeLeadSource{leads: []models.Lead{
		{ID: "stale", Status: models.StatusNurture, LastUpdated: &sixDaysAgo},
		{ID: "fresh", Status: models.StatusNurture, LastUpdated: &fourDaysAgo},
		{ID: "created-old", Status: models.StatusNurture, CreatedTime: sixDaysAgo},
	}}
	svc := newWorklistAt(t, now, leads, nil)

	resp, err := svc.SmartFilter(context.Background(), models.FilterNurtureReengage)
	require.NoError(t, err)
	assert.Len(t, resp.Leads, 2)
	for _, lead := range resp.Leads {
		assert.NotEqual(t, "fresh", lead.ID)
	}
}

func TestSmartFilterOnBreakViews(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	soon := now.AddDate(0, 0, 5)
	far := now.AddDate(0, 0, 20)

	leads := &fakeLeadSource{leads: []models.Lead{
		leadWithFollowup("back-soon", models.StatusOnBreak, &soon),
		leadWithFollowup("back-later", models.StatusOnBreak, &far),
		leadWithFollowup("not-on-break", models.StatusCalled, &soon),
	}}
	svc := newWorklistAt(t, now, leads, nil)

	all, err := svc.SmartFilter(context.Background(), models.FilterOnBreak)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Count)

	returning, err := svc.SmartFilter(context.Background(), models.FilterReturningSoon)
	require.NoError(t, err)
	require.Len(t, returning.Leads, 1)
	assert.Equal(t, "back-soon", returning.Leads[0].ID)
}

func TestSmartFilterDelegatedViews(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	retention := &fakeRetentionSource{
		renewals:   []models.Student{{ID: "s1"}},
		milestones: []models.Student{{ID: "s2"}, {ID: "s3"}},
	}
	svc := newWorklistAt(t, now, nil, retention)

	renewals, err := svc.SmartFilter(context.Background(), models.FilterRenewals)
	require.NoError(t, err)
	assert.Equal(t, 1, renewals.Count)
	assert.Len(t, renewals.Students, 1)

	milestones, err := svc.SmartFilter(context.Background(), models.FilterMilestones)
	require.NoError(t, err)
	assert.Equal(t, 2, milestones.Count)
}

func TestSmartFilterUnknown(t *testing.T) {
	svc := newWorklistAt(t, time.Now(), nil, nil)
	_, err := svc.SmartFilter(context.Background(), models.SmartFilter("bogus"))
	assert.Error(t, err)
}
