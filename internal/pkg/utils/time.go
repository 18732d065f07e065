package utils

import (
	"screening-service/internal/pkg/constvars"
	"time"
)

var fhirDateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseFHIRDateTime parses the authored timestamp of a questionnaire
// response. Layouts without a zone are interpreted in local time, matching
// the timezone correction the scheduler's window math expects.
func ParseFHIRDateTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range fhirDateTimeLayouts {
		parsed, err := time.ParseInLocation(layout, value, time.Local)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// LocalMidnight truncates a moment to local midnight of its calendar date.
func LocalMidnight(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}

// PeriodUnitHours converts a timing period unit to its hour factor. Month is
// a 30-day approximation. Unknown units convert to zero, which the scheduler
// treats as "no usable schedule".
func PeriodUnitHours(unit string) int {
	switch unit {
	case constvars.PeriodUnitHour:
		return 1
	case constvars.PeriodUnitDay:
		return constvars.HoursPerDay
	case constvars.PeriodUnitWeek:
		return constvars.HoursPerWeek
	case constvars.PeriodUnitMonth:
		return constvars.HoursPerMonth
	default:
		return 0
	}
}

// ElapsedHours returns the absolute distance between two moments in hours.
func ElapsedHours(a, b time.Time) float64 {
	diff := a.Sub(b).Hours()
	if diff < 0 {
		return -diff
	}
	return diff
}
