package util

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in      string
		want    Period
		wantErr bool
	}{
		{"", PeriodAll, false},
		{"all", PeriodAll, false},
		{"today", PeriodToday, false},
		{"week", PeriodWeek, false},
		{"month", PeriodMonth, false},
		{"year", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePeriod(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPeriod_Start(t *testing.T) {
	// Thursday afternoon in a non-UTC zone.
	now := time.Date(2026, 3, 5, 15, 30, 0, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		period Period
		want   time.Time
	}{
		{PeriodToday, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{PeriodWeek, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{PeriodMonth, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{PeriodAll, time.Unix(0, 0).UTC()},
	}
	for _, tt := range tests {
		if got := tt.period.Start(now); !got.Equal(tt.want) {
			t.Errorf("%s start = %v, want %v", tt.period, got, tt.want)
		}
	}

	sunday := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	if got := PeriodWeek.Start(sunday); !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("sunday belongs to the week starting %v", got)
	}
	if got := PeriodAll.Since(now); got != "1970-01-01T00:00:00Z" {
		t.Errorf("all since = %q", got)
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1500, "1.5K"},
		{2_300_000, "2.3M"},
	}
	for _, tt := range tests {
		if got := Compact(tt.in); got != tt.want {
			t.Errorf("Compact(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Compact(412.6); got != "413" {
		t.Errorf("Compact(412.6) = %q", got)
	}
}
