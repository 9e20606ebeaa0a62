package slack

import (
	"fmt"
	"time"
)

// FormatTime renders a timestamp as an ISO date plus a compact relative
// duration, e.g. "2023-04-01 (3.2 weeks ago)". A nil timestamp yields the
// empty string; callers substitute their own placeholder ("Never").
func FormatTime(t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}

	absolute := t.UTC().Format("2006-01-02")
	relative := relativeDuration(now.Sub(*t))

	if !now.Before(*t) {
		return fmt.Sprintf("%s (%s ago)", absolute, relative)
	}
	return fmt.Sprintf("%s (in %s)", absolute, relative)
}

// relativeDuration picks the largest unit that is at least 1 and formats it
// with one decimal place. Months are fixed at 30 days and years at 365; this
// is a human-facing approximation, not a calendar computation. Durations of
// five seconds or less are shown in milliseconds.
func relativeDuration(delta time.Duration) string {
	seconds := delta.Abs().Seconds()
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	weeks := days / 7
	months := days / 30
	years := days / 365

	var value float64
	var unit string

	switch {
	case years >= 1:
		value, unit = years, "year"
	case months >= 1:
		value, unit = months, "month"
	case weeks >= 1:
		value, unit = weeks, "week"
	case days >= 1:
		value, unit = days, "day"
	case hours >= 1:
		value, unit = hours, "hour"
	case minutes >= 1:
		value, unit = minutes, "min"
	case seconds > 5:
		value, unit = seconds, "sec"
	default:
		return fmt.Sprintf("%.0f ms", seconds*1000)
	}

	if value != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%.1f %s", value, unit)
}
