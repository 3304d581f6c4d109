package reminder

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
)

const DefaultWakeLockTimeout = 10 * time.Minute

type RegistryOptions struct {
	WakeLock        WakeLock
	WakeLockTimeout time.Duration
	Notifier        Notifier
	Logger          *log.Logger
	Metrics         *Metrics
}

// Registry tracks the sounding alarm for each task and owns the alarm wake
// lock. One mutex guards both so that check-then-act sequences on the map and
// the lock are atomic with respect to concurrent dismissals.
type Registry struct {
	mu          sync.Mutex
	active      map[int64]AudioSession
	lock        WakeLock
	lockTimeout time.Duration
	notifier    Notifier
	logger      *log.Logger
	metrics     *Metrics
}

func NewRegistry(opts RegistryOptions) *Registry {
	timeout := opts.WakeLockTimeout
	if timeout <= 0 {
		timeout = DefaultWakeLockTimeout
	}
	return &Registry{
		active:      make(map[int64]AudioSession),
		lock:        opts.WakeLock,
		lockTimeout: timeout,
		notifier:    opts.Notifier,
		logger:      logging.OrDiscard(opts.Logger),
		metrics:     opts.Metrics,
	}
}

// StartAlarm records session as the sounding alarm for taskID. It returns
// false, leaving the registry untouched, when the task already has one; the
// caller still owns session in that case.
func (r *Registry) StartAlarm(taskID int64, session AudioSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[taskID]; ok {
		return false
	}
	r.active[taskID] = session
	if r.lock != nil && !r.lock.Held() {
		if err := r.lock.Acquire(r.lockTimeout); err != nil {
			r.logger.Warn("wake lock acquire failed", "task_id", taskID, "err", err)
		} else {
			r.logger.Debug("wake lock acquired", "timeout", r.lockTimeout)
		}
	}
	r.metrics.setActive(len(r.active))
	return true
}

func (r *Registry) Active(taskID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[taskID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// TaskIDs returns the ids with a sounding alarm in ascending order.
func (r *Registry) TaskIDs() []int64 {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}

// Dismiss reports whether an alarm was stopped. Dismissing a task without one
// only withdraws its notification.
func (r *Registry) Dismiss(ctx context.Context, taskID int64) bool {
	r.mu.Lock()
	session, ok := r.active[taskID]
	if ok {
		delete(r.active, taskID)
	}
	if len(r.active) == 0 && r.lock != nil && r.lock.Held() {
		if err := r.lock.Release(); err != nil {
			r.logger.Warn("wake lock release failed", "err", err)
		} else {
			r.logger.Debug("wake lock released")
		}
	}
	r.metrics.setActive(len(r.active))
	r.mu.Unlock()

	if ok {
		r.stopSession(taskID, session)
		r.metrics.alarmDismissed()
		r.logger.Info("alarm dismissed", "task_id", taskID)
	}
	if r.notifier != nil {
		if err := r.notifier.Cancel(ctx, AlarmKey(taskID)); err != nil {
			r.logger.Warn("cancel alarm notification failed", "task_id", taskID, "err", err)
		}
	}
	return ok
}

// Shutdown stops every alarm, clears the registry and releases the wake lock
// whether or not it is believed to be held.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := r.active
	r.active = make(map[int64]AudioSession)
	if r.lock != nil {
		if err := r.lock.Release(); err != nil {
			r.logger.Warn("wake lock release failed", "err", err)
		}
	}
	r.metrics.setActive(0)
	r.mu.Unlock()

	for taskID, session := range sessions {
		r.stopSession(taskID, session)
		if r.notifier != nil {
			if err := r.notifier.Cancel(ctx, AlarmKey(taskID)); err != nil {
				r.logger.Warn("cancel alarm notification failed", "task_id", taskID, "err", err)
			}
		}
	}
	if len(sessions) > 0 {
		r.logger.Info("alarms torn down", "count", len(sessions))
	}
}

func (r *Registry) stopSession(taskID int64, session AudioSession) {
	if session == nil {
		return
	}
	if err := session.Stop(); err != nil {
		r.logger.Warn("stop alarm audio failed", "task_id", taskID, "err", err)
	}
}
