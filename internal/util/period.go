// Package util holds small presentation helpers shared by the CLI and the
// web API.
package util

import (
	"fmt"
	"time"
)

// Period is a reporting window over the usage ledger.
type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts today, week, month or all. An empty string is all.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case "":
		return PeriodAll, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", fmt.Errorf("invalid period %q: must be today, week, month or all", s)
}

// Start returns the UTC start of the period containing now. Weeks start on
// Monday; all starts at the Unix epoch.
func (p Period) Start(now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodToday:
		return day
	case PeriodWeek:
		offset := (int(now.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Unix(0, 0).UTC()
}

// Since is Start formatted the way the ledger stores created_at.
func (p Period) Since(now time.Time) string {
	return p.Start(now).Format(time.RFC3339)
}

func (p Period) Label() string {
	switch p {
	case PeriodToday:
		return "Today"
	case PeriodWeek:
		return "This week"
	case PeriodMonth:
		return "This month"
	}
	return "All time"
}

// Compact formats a count with a K or M suffix: 500, 1.5K, 2.3M.
func Compact[T int64 | float64](n T) string {
	f := float64(n)
	switch {
	case f < 1000:
		return fmt.Sprintf("%.0f", f)
	case f < 1_000_000:
		return fmt.Sprintf("%.1fK", f/1000)
	}
	return fmt.Sprintf("%.1fM", f/1_000_000)
}
