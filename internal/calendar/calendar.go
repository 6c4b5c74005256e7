package calendar

import "time"

const (
	// LabelLayout is the ledger key format, e.g. "Mar 07".
	LabelLayout = "Jan 02"
	// QueryLayout is the provider's history date format, e.g. "07-03-2025".
	QueryLayout = "02-01-2006"
)

// Target identifies the calendar day a run computes a record for.
type Target struct {
	Day   time.Time // UTC midnight of the target day
	Next  time.Time // UTC midnight of the following day
	Label string
	Query string
}

// Resolve returns the target for the day before now (UTC).
func Resolve(now time.Time) Target {
	return ForDay(TruncateDay(now).AddDate(0, 0, -1))
}

// ForDay builds a Target for the UTC calendar day containing day.
func ForDay(day time.Time) Target {
	d := TruncateDay(day)
	return Target{
		Day:   d,
		Next:  d.AddDate(0, 0, 1),
		Label: d.Format(LabelLayout),
		Query: d.Format(QueryLayout),
	}
}

// TruncateDay returns UTC midnight of t's UTC calendar date.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether t falls on the UTC calendar date starting at day.
func SameDay(t, day time.Time) bool {
	return TruncateDay(t).Equal(TruncateDay(day))
}
