package services

import (
	"testing"
	"time"
)

func TestIsWorkday(t *testing.T) {
	svc := NewWorkdayService()

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"monday", time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local), true},
		{"saturday", time.Date(2026, 8, 22, 10, 0, 0, 0, time.Local), false},
		{"sunday", time.Date(2026, 8, 23, 10, 0, 0, 0, time.Local), false},
		{"independence day", time.Date(2026, 8, 17, 10, 0, 0, 0, time.Local), false},
		{"christmas", time.Date(2026, 12, 25, 10, 0, 0, 0, time.Local), false},
		{"new year", time.Date(2026, 1, 1, 10, 0, 0, 0, time.Local), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.IsWorkday(tt.date); got != tt.want {
				t.Errorf("IsWorkday(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestAddBusinessDays(t *testing.T) {
	svc := NewWorkdayService()

	// Wednesday + 5 business days skips the weekend and lands on the next
	// Wednesday.
	from := time.Date(2026, 8, 19, 9, 0, 0, 0, time.Local)
	got := svc.AddBusinessDays(from, 5)
	want := time.Date(2026, 8, 26, 9, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("AddBusinessDays = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}

	// A span crossing Independence Day (Monday 2026-08-17) stretches by one
	// extra calendar day.
	from = time.Date(2026, 8, 13, 9, 0, 0, 0, time.Local) // Thursday
	got = svc.AddBusinessDays(from, 3)
	want = time.Date(2026, 8, 19, 9, 0, 0, 0, time.Local) // Wednesday
	if !got.Equal(want) {
		t.Errorf("AddBusinessDays across holiday = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}
