package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same day", date(2024, 1, 1), date(2024, 1, 1), 0},
		{"next day", date(2024, 1, 1), date(2024, 1, 2), 1},
		{"reverse is negative", date(2024, 1, 5), date(2024, 1, 1), -4},
		{"ignores time of day", date(2024, 1, 1).Add(23 * time.Hour), date(2024, 1, 2).Add(time.Minute), 1},
		{"across month boundary", date(2024, 1, 31), date(2024, 2, 2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(tt.from, tt.to))
		})
	}
}

func TestWithinLastHours(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, WithinLastHours(now.Add(-23*time.Hour), now, 24))
	assert.False(t, WithinLastHours(now.Add(-25*time.Hour), now, 24))
	assert.False(t, WithinLastHours(now.Add(time.Hour), now, 24), "future timestamps never count")
}

func TestParseDate(t *testing.T) {
	parsed, ok := ParseDate("2024-01-03")
	require.True(t, ok)
	assert.Equal(t, date(2024, 1, 3), parsed)

	parsed, ok = ParseDate("2024-01-03T15:04:05Z")
	require.True(t, ok)
	assert.Equal(t, 15, parsed.Hour())

	_, ok = ParseDate("03/01/2024")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	ref := date(2024, 5, 10)

	assert.Equal(t, DueNone, Classify(nil, ref))

	past := date(2024, 5, 9)
	assert.Equal(t, DueOverdue, Classify(&past, ref))

	today := ref.Add(18 * time.Hour)
	assert.Equal(t, DueToday, Classify(&today, ref), "time of day is discarded")

	future := date(2024, 5, 11)
	assert.Equal(t, DueUpcoming, Classify(&future, ref))
}

func TestWithinWindow(t *testing.T) {
	today := date(2024, 1, 1)

	assert.True(t, WithinWindow(date(2024, 1, 1), today, 7), "lower bound inclusive")
	assert.True(t, WithinWindow(date(2024, 1, 8), today, 7), "upper bound inclusive")
	assert.False(t, WithinWindow(date(2024, 1, 9), today, 7))
	assert.False(t, WithinWindow(date(2023, 12, 31), today, 7), "past dates excluded")
}

func TestWeekdayCanonicalisation(t *testing.T) {
	// 2024-01-07 is a Sunday.
	assert.Equal(t, 0, Weekday(date(2024, 1, 7)))
	assert.Equal(t, 6, Weekday(date(2024, 1, 6)))
}
