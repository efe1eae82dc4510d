package utils

import "time"

// DateOnly truncates t to midnight in its own location, matching the
// resolution of date-typed columns.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
