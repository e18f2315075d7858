package pbp

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10:00:00", 10 * time.Minute},
		{"09:45:50", 9*time.Minute + 45*time.Second + 500*time.Millisecond},
		{"00:05:5", 5*time.Second + 500*time.Millisecond},
		{"00:00:123456", 123456 * time.Microsecond},
		{"4:07", 4*time.Minute + 7*time.Second},
		{"00:00:00", 0},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if err != nil {
			t.Fatalf("ParseClock(%q) error: %v", tt.in, err)
		}
		if got.Duration() != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got.Duration(), tt.want)
		}
	}
}

func TestParseClockRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "10", "aa:00:00", "10:60:00", "10:00:1234567", "10:00:", "1:2:3:4", "100:00:00"} {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("ParseClock(%q) expected error", in)
		}
	}
}

func TestClockString(t *testing.T) {
	tests := []struct {
		c    Clock
		want string
	}{
		{RegulationLength, "10:00"},
		{Clock(9*time.Minute + 45*time.Second + 500*time.Millisecond), "09:45.5"},
		{Clock(1230 * time.Millisecond), "00:01.23"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPeriodLength(t *testing.T) {
	if PeriodLength(4) != RegulationLength {
		t.Errorf("period 4 should be regulation length")
	}
	if PeriodLength(5) != OvertimeLength {
		t.Errorf("period 5 should be overtime length")
	}
}

func TestSortEvents(t *testing.T) {
	events := []Event{
		{Period: 2, Clock: Clock(9 * time.Minute), Sequence: 5},
		{Period: 1, Clock: Clock(1 * time.Minute), Sequence: 3},
		{Period: 1, Clock: Clock(8 * time.Minute), Sequence: 2},
		{Period: 1, Clock: Clock(8 * time.Minute), Sequence: 1},
	}
	SortEvents(events)

	wantSeq := []int{1, 2, 3, 5}
	for i, e := range events {
		if e.Sequence != wantSeq[i] {
			t.Fatalf("position %d: sequence %d, want %d", i, e.Sequence, wantSeq[i])
		}
	}
}
