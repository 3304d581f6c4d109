package reminder

import (
	"context"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

type TaskStore interface {
	TasksDueBetween(ctx context.Context, start, end time.Time) ([]model.Task, error)
}

type Preferences interface {
	NotificationsEnabled(ctx context.Context) (bool, error)
}

type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyCritical:
		return "critical"
	default:
		return "normal"
	}
}

const (
	ActionOpen    = "open"
	ActionDismiss = "dismiss"
)

type Action struct {
	ID    string
	Label string
}

type Notification struct {
	Key     Key
	Title   string
	Body    string
	Detail  string
	Urgency Urgency
	// Persistent notifications stay until cancelled.
	Persistent bool
	FullScreen bool
	Actions    []Action
	// OnAction may be called from any goroutine.
	OnAction func(actionID string)
}

// Notifier posts and cancels notifications. Posting a key that is already
// shown replaces it.
type Notifier interface {
	Post(ctx context.Context, n Notification) error
	Cancel(ctx context.Context, key Key) error
}

type AudioSession interface {
	Stop() error
}

type Player interface {
	Start(ctx context.Context, task model.Task) (AudioSession, error)
}

type Launcher interface {
	FullScreen(ctx context.Context, task model.Task) error
	Open(ctx context.Context, taskID int64) error
}

// WakeLock keeps the machine from suspending. Acquire always carries a
// timeout after which the lock releases itself.
type WakeLock interface {
	Acquire(timeout time.Duration) error
	Release() error
	Held() bool
}
