package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-crm-api/internal/models"
)

type fakeBatchRepo struct {
	batches []models.Batch
	err     error
}

func (f *fakeBatchRepo) ListActive(context.Context, string) ([]models.Batch, error) {
	return f.batches, f.err
}

func (f *fakeBatchRepo) FindByID(_ context.Context, id string) (*models.Batch, error) {
	for i := range f.batches {
		if f.batches[i].ID == id {
			return &f.batches[i], nil
		}
	}
	return nil, context.Canceled
}

func wedFriSchedule() models.WeeklySchedule {
	var s models.WeeklySchedule
	s[3] = true // Wednesday
	s[5] = true // Friday
	return s
}

func TestSessionsBetween(t *testing.T) {
	svc := NewOccurrenceService(nil, nil)
	schedule := wedFriSchedule()

	// 2024-01-01 is a Monday; the first week holds Wed 3rd and Fri 5th.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"single week", time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), 2},
		{"end before start", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 0},
		{"end on scheduled day", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), 1},
		{"four weeks", time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.SessionsBetween(start, tt.end, schedule))
		})
	}
}

func TestEndDateForSessionCount(t *testing.T) {
	svc := NewOccurrenceService(nil, nil)
	schedule := wedFriSchedule()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	end := svc.EndDateForSessionCount(start, 2, schedule)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), end)

	assert.Equal(t, start, svc.EndDateForSessionCount(start, 0, schedule))
	assert.Equal(t, start, svc.EndDateForSessionCount(start, -3, schedule))
	assert.Equal(t, start, svc.EndDateForSessionCount(start, 5, models.WeeklySchedule{}), "empty schedule returns start")
}

func TestSessionCountRoundTrip(t *testing.T) {
	svc := NewOccurrenceService(nil, nil)
	schedule := wedFriSchedule()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for n := 1; n <= 12; n++ {
		end := svc.EndDateForSessionCount(start, n, schedule)
		assert.Equal(t, n, svc.SessionsBetween(start, end, schedule), "n=%d", n)
	}

	// And the reverse: a scheduled end date survives the round trip.
	end := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC) // a Wednesday
	n := svc.SessionsBetween(start, end, schedule)
	assert.Equal(t, end, svc.EndDateForSessionCount(start, n, schedule))
}

func TestOccurrencesOnDate(t *testing.T) {
	svc := NewOccurrenceService(nil, nil)

	batch := models.Batch{
		ID:          "b1",
		IsWednesday: true,
		IsFriday:    true,
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:    true,
	}

	wednesday := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	thursday := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []models.Batch{batch}, svc.OccurrencesOnDate([]models.Batch{batch}, wednesday))
	assert.Empty(t, svc.OccurrencesOnDate([]models.Batch{batch}, thursday))

	t.Run("before start date", func(t *testing.T) {
		early := time.Date(2023, 12, 27, 0, 0, 0, 0, time.UTC) // a Wednesday
		assert.Empty(t, svc.OccurrencesOnDate([]models.Batch{batch}, early))
	})

	t.Run("after end date", func(t *testing.T) {
		ended := batch
		endDate := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		ended.EndDate = &endDate
		late := time.Date(2024, 2, 7, 0, 0, 0, 0, time.UTC) // a Wednesday
		assert.Empty(t, svc.OccurrencesOnDate([]models.Batch{ended}, late))
		assert.Len(t, svc.OccurrencesOnDate([]models.Batch{ended}, endDate), 1, "end date itself is included")
	})

	t.Run("inactive batch never occurs", func(t *testing.T) {
		inactive := batch
		inactive.IsActive = false
		assert.Empty(t, svc.OccurrencesOnDate([]models.Batch{inactive}, wednesday))
	})
}

func TestOccurrencesForCenter(t *testing.T) {
	batch := models.Batch{
		ID:        "b1",
		IsMonday:  true,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
	svc := NewOccurrenceService(&fakeBatchRepo{batches: []models.Batch{batch}}, nil)

	monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	got, err := svc.OccurrencesForCenter(context.Background(), "center-1", monday)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	tuesday := monday.AddDate(0, 0, 1)
	got, err = svc.OccurrencesForCenter(context.Background(), "center-1", tuesday)
	require.NoError(t, err)
	assert.Empty(t, got)
}
