// Package timeutil provides date helpers for the analytics service: ISO date
// formatting, enrollment spans, and evaluation scheduling.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// ISODate is the wire format for calendar dates ("2006-01-02").
const ISODate = "2006-01-02"

// EvaluationInterval is the advisory gap between evaluations. The next
// evaluation date is scheduling guidance only; it is not derived from the
// performance data.
const EvaluationInterval = 30 * 24 * time.Hour

// NextEvaluationDate returns the advisory next evaluation date, 30 days after
// the given time, formatted as an ISO date.
func NextEvaluationDate(from time.Time) string {
	return from.AddDate(0, 0, 30).Format(ISODate)
}

// FormatDate formats a time as an ISO date string.
func FormatDate(t time.Time) string {
	return t.Format(ISODate)
}

// ParseDate parses an ISO date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(ISODate, s)
}

// StartOfDay returns the start of the day (00:00:00) in the time's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole days from a to b, ignoring the
// time-of-day component. Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b)
	return int(to.Sub(from).Hours() / 24)
}

// DaysSince returns the number of whole days from t until now. Used to derive
// days_enrolled from an enrollment timestamp.
func DaysSince(t time.Time) int {
	return DaysBetween(t, time.Now())
}
