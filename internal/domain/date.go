package domain

import "time"

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// DateOf truncates t to its calendar day, expressed as midnight UTC.
// The calendar day is taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one day to another.
// It is negative when to is before from.
func DaysBetween(from, to time.Time) int {
	// Unix seconds rather than Sub: a Duration saturates after about 292 years.
	return int((DateOf(to).Unix() - DateOf(from).Unix()) / secondsPerDay)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
