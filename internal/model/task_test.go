package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	task := Task{
		ID:        1,
		Title:     "Pay rent",
		Priority:  PriorityHigh,
		DueDate:   time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateRequiresTitle(t *testing.T) {
	task := Task{Title: "   ", Priority: PriorityLow}
	if err := task.Validate(); !errors.Is(err, ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got: %v", err)
	}
}

func TestTaskValidateInvalidPriority(t *testing.T) {
	task := Task{Title: "Bad priority", Priority: Priority(7)}
	err := task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got: %v", err)
	}
}

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"low":    PriorityLow,
		"HIGH":   PriorityHigh,
		" 2 ":    PriorityMedium,
		"":       PriorityMedium,
		"medium": PriorityMedium,
	}
	for in, want := range cases {
		got, err := ParsePriority(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v want %v", in, got, want)
		}
	}
	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestHasDueDate(t *testing.T) {
	if (Task{}).HasDueDate() {
		t.Fatal("zero due date must count as unset")
	}
	if (Task{DueDate: time.UnixMilli(0)}).HasDueDate() {
		t.Fatal("epoch due date must count as unset")
	}
	if (Task{DueDate: time.UnixMilli(-5)}).HasDueDate() {
		t.Fatal("negative due date must count as unset")
	}
	due := Task{DueDate: time.UnixMilli(1)}
	if !due.HasDueDate() || due.DueDateMillis() != 1 {
		t.Fatalf("expected due date set, got %+v", due)
	}
}

func TestFromMillis(t *testing.T) {
	if !FromMillis(0).IsZero() || !FromMillis(-1).IsZero() {
		t.Fatal("expected zero time for non-positive millis")
	}
	ts := time.Date(2026, 2, 9, 12, 30, 0, 0, time.UTC)
	if got := FromMillis(ts.UnixMilli()); !got.Equal(ts) {
		t.Fatalf("unexpected time: %v", got)
	}
}
