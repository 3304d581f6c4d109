package storage

import "time"

type TaskListFilter struct {
	// IncludeCompleted keeps completed tasks in the result.
	IncludeCompleted bool
	// DueBefore restricts the result to tasks with a due date at or before
	// the given instant. Zero means no bound.
	DueBefore time.Time
	Limit     int
	Offset    int
}

const (
	prefNotificationsEnabled = "notifications_enabled"
)
