package reminder

import (
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

type Classification int

const (
	Inert Classification = iota
	Upcoming
	Due
)

func (c Classification) String() string {
	switch c {
	case Upcoming:
		return "upcoming"
	case Due:
		return "due"
	default:
		return "inert"
	}
}

const (
	DefaultLookahead = 30 * time.Minute
	DefaultLookback  = 60 * time.Minute
)

// Policy classifies tasks against the lookahead and lookback windows around
// now. Both windows are inclusive at their edges.
type Policy struct {
	Lookahead time.Duration
	Lookback  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Lookahead: DefaultLookahead, Lookback: DefaultLookback}
}

// Classify is pure. Due wins over Upcoming when the windows overlap.
func (p Policy) Classify(now time.Time, task model.Task) Classification {
	if task.Completed || !task.HasDueDate() {
		return Inert
	}
	due := task.DueDate
	dueStart, dueEnd := p.DueWindow(now)
	if !due.Before(dueStart) && !due.After(dueEnd) {
		return Due
	}
	upStart, upEnd := p.UpcomingWindow(now)
	if !due.Before(upStart) && !due.After(upEnd) {
		return Upcoming
	}
	return Inert
}

func (p Policy) UpcomingWindow(now time.Time) (time.Time, time.Time) {
	return now, now.Add(p.Lookahead)
}

func (p Policy) DueWindow(now time.Time) (time.Time, time.Time) {
	return now.Add(-p.Lookback), now
}

// MinutesUntilDue floors the remaining time to whole minutes. Overdue tasks
// yield negative values.
func MinutesUntilDue(now time.Time, task model.Task) int64 {
	ms := task.DueDateMillis() - now.UnixMilli()
	minutes := ms / 60000
	if ms < 0 && ms%60000 != 0 {
		minutes--
	}
	return minutes
}
