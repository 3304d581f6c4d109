package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
)

const (
	passUpcoming = "upcoming"
	passDue      = "due"
)

type ServiceOptions struct {
	Store       TaskStore
	Preferences Preferences
	Policy      Policy
	Dispatcher  *Dispatcher
	Registry    *Registry
	Now         func() time.Time
	Logger      *log.Logger
	Metrics     *Metrics
}

// Service runs the two scan passes and exposes the operations offered to
// callers outside the worker: run-now, dismiss and shutdown.
type Service struct {
	store      TaskStore
	prefs      Preferences
	policy     Policy
	dispatcher *Dispatcher
	registry   *Registry
	now        func() time.Time
	logger     *log.Logger
	metrics    *Metrics

	mu      sync.Mutex
	trigger func()
}

func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("reminder: service needs a task store")
	}
	if opts.Dispatcher == nil || opts.Registry == nil {
		return nil, errors.New("reminder: service needs a dispatcher and a registry")
	}
	policy := opts.Policy
	if policy.Lookahead <= 0 || policy.Lookback <= 0 {
		return nil, fmt.Errorf("reminder: policy windows must be positive, got lookahead %s lookback %s",
			policy.Lookahead, policy.Lookback)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:      opts.Store,
		prefs:      opts.Preferences,
		policy:     policy,
		dispatcher: opts.Dispatcher,
		registry:   opts.Registry,
		now:        now,
		logger:     logging.OrDiscard(opts.Logger),
		metrics:    opts.Metrics,
	}, nil
}

// AttachTrigger routes RunScanNow through fn, normally Loop.RunNow.
func (s *Service) AttachTrigger(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = fn
}

// RunScanNow requests one immediate pair of scans. Without an attached
// trigger the scans run synchronously on the caller's goroutine.
func (s *Service) RunScanNow() {
	s.mu.Lock()
	trigger := s.trigger
	s.mu.Unlock()
	if trigger != nil {
		trigger()
		return
	}
	if err := s.RunScan(context.Background()); err != nil {
		s.logger.Warn("scan finished with errors", "err", err)
	}
}

// RunScan executes the upcoming pass and then the due pass. A failure in one
// pass does not prevent the other.
func (s *Service) RunScan(ctx context.Context) error {
	if s.prefs != nil {
		enabled, err := s.prefs.NotificationsEnabled(ctx)
		if err != nil {
			s.logger.Warn("read notification preference failed, assuming enabled", "err", err)
		} else if !enabled {
			s.logger.Debug("notifications disabled, skipping scan")
			return nil
		}
	}
	now := s.now()
	return errors.Join(s.ScanUpcoming(ctx, now), s.ScanDue(ctx, now))
}

func (s *Service) ScanUpcoming(ctx context.Context, now time.Time) error {
	start, end := s.policy.UpcomingWindow(now)
	tasks, err := s.store.TasksDueBetween(ctx, start, end)
	if err != nil {
		s.metrics.scanFailed(passUpcoming)
		s.logger.Error("upcoming scan aborted", "err", err)
		return fmt.Errorf("%w: %s scan: %v", ErrStoreUnavailable, passUpcoming, err)
	}
	s.metrics.scanRan(passUpcoming)

	var errs []error
	for _, task := range tasks {
		if task.Completed || s.policy.Classify(now, task) != Upcoming {
			continue
		}
		if err := s.dispatcher.Remind(ctx, now, task); err != nil {
			s.logger.Warn("reminder dispatch failed", "task_id", task.ID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) ScanDue(ctx context.Context, now time.Time) error {
	start, end := s.policy.DueWindow(now)
	tasks, err := s.store.TasksDueBetween(ctx, start, end)
	if err != nil {
		s.metrics.scanFailed(passDue)
		s.logger.Error("due scan aborted", "err", err)
		return fmt.Errorf("%w: %s scan: %v", ErrStoreUnavailable, passDue, err)
	}
	s.metrics.scanRan(passDue)

	var errs []error
	for _, task := range tasks {
		if task.Completed || s.policy.Classify(now, task) != Due {
			continue
		}
		if s.registry.Active(task.ID) {
			continue
		}
		if err := s.dispatcher.Alarm(ctx, now, task); err != nil {
			s.logger.Warn("alarm degraded", "task_id", task.ID, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) Dismiss(ctx context.Context, taskID int64) bool {
	return s.registry.Dismiss(ctx, taskID)
}

func (s *Service) ActiveAlarms() []int64 {
	return s.registry.TaskIDs()
}

func (s *Service) Shutdown(ctx context.Context) {
	s.registry.Shutdown(ctx)
}
