package models

import (
	"strings"
	"time"
)

// TimeFilter bounds deadline-based queries and bulk deletes.
type TimeFilter string

const (
	TimeFilterToday TimeFilter = "TODAY"
	TimeFilterWeek  TimeFilter = "WEEK"
	TimeFilterMonth TimeFilter = "MONTH"
	TimeFilterYear  TimeFilter = "YEAR"
	TimeFilterAll   TimeFilter = "ALL"
)

// ParseTimeFilter maps free-form input to a filter, defaulting to ALL.
func ParseTimeFilter(value string) TimeFilter {
	switch f := TimeFilter(strings.ToUpper(value)); f {
	case TimeFilterToday, TimeFilterWeek, TimeFilterMonth, TimeFilterYear, TimeFilterAll:
		return f
	default:
		return TimeFilterAll
	}
}

// Cutoff returns the inclusive upper deadline bound for the filter, or false
// for ALL (unbounded). TODAY ends at the last instant of the current day; the
// remaining windows are fixed offsets from now.
func (f TimeFilter) Cutoff(now time.Time) (time.Time, bool) {
	switch f {
	case TimeFilterToday:
		year, month, day := now.Date()
		return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), now.Location()), true
	case TimeFilterWeek:
		return now.AddDate(0, 0, 7), true
	case TimeFilterMonth:
		return now.AddDate(0, 0, 30), true
	case TimeFilterYear:
		return now.AddDate(0, 0, 365), true
	default:
		return time.Time{}, false
	}
}
