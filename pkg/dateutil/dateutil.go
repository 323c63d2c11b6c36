package dateutil

import "time"

// DateLayout is the wire format for date-only fields.
const DateLayout = "2006-01-02"

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DaysBetween returns the whole-day difference to - from, both normalised to
// midnight. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	f := StartOfDay(from)
	t := StartOfDay(to)
	return int(t.Sub(f).Hours() / 24)
}

// AddDays returns t shifted by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// WithinLastHours reports whether t falls inside (now - hours, now].
func WithinLastHours(t, now time.Time, hours int) bool {
	if t.After(now) {
		return false
	}
	return now.Sub(t) < time.Duration(hours)*time.Hour
}

// ParseDate parses a YYYY-MM-DD or RFC3339 string. The second return is false
// for anything unparseable; callers treat that as "no date" rather than an
// error, so malformed input falls out of schedules instead of crashing them.
func ParseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Weekday canonicalises to 0=Sunday .. 6=Saturday.
func Weekday(t time.Time) int {
	return int(t.Weekday())
}

// DueState classifies a follow-up date against a reference date.
type DueState int

const (
	DueNone DueState = iota
	DueOverdue
	DueToday
	DueUpcoming
)

// Classify is the single "is due" predicate shared by the worklist categoriser
// and the repository bucket queries. Both sides compare date parts only.
func Classify(followUp *time.Time, reference time.Time) DueState {
	if followUp == nil {
		return DueNone
	}
	due := StartOfDay(*followUp)
	ref := StartOfDay(reference)
	switch {
	case due.Before(ref):
		return DueOverdue
	case due.Equal(ref):
		return DueToday
	default:
		return DueUpcoming
	}
}

// WithinWindow reports whether target falls in [from, from+windowDays], date
// parts only, both ends inclusive.
func WithinWindow(target, from time.Time, windowDays int) bool {
	d := DaysBetween(from, target)
	return d >= 0 && d <= windowDays
}
