// Package period computes the calendar windows that profit summaries are
// keyed by: ISO-style weeks (Monday through Sunday), calendar months, and
// calendar years. All returned bounds are dates truncated to midnight UTC.
package period

import "time"

// truncate drops the clock from t, keeping only the calendar date.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Week returns the Monday and Sunday bounding the week containing t.
func Week(t time.Time) (start, end time.Time) {
	d := truncate(t)
	// time.Weekday puts Sunday at 0; shift so Monday is the start of the week.
	offset := (int(d.Weekday()) + 6) % 7
	start = d.AddDate(0, 0, -offset)
	end = start.AddDate(0, 0, 6)
	return start, end
}

// Month returns the first and last day of the month containing t.
func Month(t time.Time) (start, end time.Time) {
	d := truncate(t)
	start = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// Year returns January 1st and December 31st of the year containing t.
func Year(t time.Time) (start, end time.Time) {
	d := truncate(t)
	start = time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}
