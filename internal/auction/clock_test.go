package auction

import (
	"testing"
	"time"
)

func TestComputeWindowImmediate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	start, end := ComputeWindow(nil, 3, now)
	if !start.Equal(now) {
		t.Fatalf("start=%v want=%v", start, now)
	}
	want := time.Date(2025, 3, 13, 12, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Fatalf("end=%v want=%v", end, want)
	}
}

func TestComputeWindowScheduled(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	sched := time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)
	start, end := ComputeWindow(&sched, 1, now)
	if !start.Equal(sched) {
		t.Fatalf("start=%v want scheduled time %v", start, sched)
	}
	if !end.Equal(sched.AddDate(0, 0, 1)) {
		t.Fatalf("end=%v want=%v", end, sched.AddDate(0, 0, 1))
	}
}

func TestComputeWindowCalendarDays(t *testing.T) {
	// End-of-month rollover must follow the calendar, not 24h arithmetic.
	now := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	_, end := ComputeWindow(nil, 1, now)
	want := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	if !end.Equal(want) {
		t.Fatalf("end=%v want=%v", end, want)
	}
}

func TestPhaseAt(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before start", start.Add(-time.Second), PhaseNotStarted},
		{"at start", start, PhaseLive},
		{"mid window", start.Add(12 * time.Hour), PhaseLive},
		{"just before end", end.Add(-time.Second), PhaseLive},
		{"at end", end, PhaseEnded},
		{"after end", end.Add(time.Hour), PhaseEnded},
	}
	for _, tt := range tests {
		if got := PhaseAt(tt.now, start, end); got != tt.want {
			t.Fatalf("%s: PhaseAt=%v want=%v", tt.name, got, tt.want)
		}
	}
}
