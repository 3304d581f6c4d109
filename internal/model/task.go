package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrTitleRequired   = errors.New("model: task title is required")
)

type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// ParsePriority accepts the display names case-insensitively as well as the
// stored numeric form.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "1":
		return PriorityLow, nil
	case "medium", "med", "2", "":
		return PriorityMedium, nil
	case "high", "3":
		return PriorityHigh, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
}

type Task struct {
	ID          int64
	Title       string
	Description string
	DueDate     time.Time
	Priority    Priority
	Completed   bool
	CreatedAt   time.Time
}

// HasDueDate reports whether the task carries a usable due date. A zero time
// or any instant at or before the Unix epoch counts as unset.
func (t Task) HasDueDate() bool {
	return !t.DueDate.IsZero() && t.DueDate.UnixMilli() > 0
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, int(t.Priority))
	}
	return nil
}

// DueDateMillis returns the due date in milliseconds since the epoch, or 0
// when the task has none.
func (t Task) DueDateMillis() int64 {
	if !t.HasDueDate() {
		return 0
	}
	return t.DueDate.UnixMilli()
}

// FromMillis converts a stored millisecond timestamp back into a time. Zero
// and negative values map to the zero time.
func FromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
