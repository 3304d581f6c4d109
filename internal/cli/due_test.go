package cli

import (
	"errors"
	"testing"
	"time"
)

func TestParseDue(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 14, 10, 15, 0, 0, loc)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "", want: time.Time{}},
		{raw: "none", want: time.Time{}},
		{raw: "now", want: now},
		{raw: "in 20m", want: now.Add(20 * time.Minute)},
		{raw: "in 1h 30m", want: now.Add(90 * time.Minute)},
		{raw: "+45s", want: now.Add(45 * time.Second)},
		{raw: "17:30", want: time.Date(2026, 3, 14, 17, 30, 0, 0, loc)},
		{raw: "08:00", want: time.Date(2026, 3, 15, 8, 0, 0, 0, loc)},
		{raw: "10:15", want: time.Date(2026, 3, 15, 10, 15, 0, 0, loc)},
		{raw: "today", want: time.Date(2026, 3, 14, 9, 0, 0, 0, loc)},
		{raw: "Tomorrow", want: time.Date(2026, 3, 15, 9, 0, 0, 0, loc)},
		{raw: "tomorrow 18:45", want: time.Date(2026, 3, 15, 18, 45, 0, 0, loc)},
		{raw: "2026-04-01", want: time.Date(2026, 4, 1, 9, 0, 0, 0, loc)},
		{raw: "2026-04-01 14:00", want: time.Date(2026, 4, 1, 14, 0, 0, 0, loc)},
		{raw: "2026-04-01T14:00:00Z", want: time.Date(2026, 4, 1, 14, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		got, err := ParseDue(tt.raw, now, loc)
		if err != nil {
			t.Fatalf("ParseDue(%q): %v", tt.raw, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("ParseDue(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestParseDueRejectsGarbage(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 15, 0, 0, time.UTC)
	for _, raw := range []string{"soon", "in forever", "+-5m", "tomorrow 25:00", "2026-13-01", "today at noon"} {
		if _, err := ParseDue(raw, now, time.UTC); !errors.Is(err, ErrInvalidDue) {
			t.Fatalf("ParseDue(%q) err = %v, want ErrInvalidDue", raw, err)
		}
	}
}

func TestParseDueUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	now := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC) // 08:00 in loc
	got, err := ParseDue("09:00", now, loc)
	if err != nil {
		t.Fatalf("ParseDue: %v", err)
	}
	want := time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.UTC(), want)
	}
}

func TestParseTaskID(t *testing.T) {
	if id, err := parseTaskID("42"); err != nil || id != 42 {
		t.Fatalf("parseTaskID(42) = %d, %v", id, err)
	}
	for _, raw := range []string{"0", "-3", "abc", ""} {
		if _, err := parseTaskID(raw); err == nil {
			t.Fatalf("parseTaskID(%q) expected error", raw)
		}
	}
}
