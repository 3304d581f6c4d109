package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/reminder"
)

const (
	DefaultInterval        = time.Minute
	DefaultScanLockTimeout = time.Minute
)

var (
	ErrLoopStarted = errors.New("scheduler: loop already started")
	ErrLoopStopped = errors.New("scheduler: loop stopped")
)

type WakeMode int

const (
	WakeInexact WakeMode = iota
	WakeExact
)

func (m WakeMode) String() string {
	if m == WakeExact {
		return "exact"
	}
	return "inexact"
}

// Waker arms an out-of-process wake-up so that scans resume after the host
// sleeps or the daemon is restarted.
type Waker interface {
	ExactAvailable() bool
	ScheduleWake(ctx context.Context, at time.Time, mode WakeMode) error
}

type Job func(ctx context.Context) error

type Options struct {
	Interval        time.Duration
	Job             Job
	Waker           Waker
	ScanLock        reminder.WakeLock
	ScanLockTimeout time.Duration
	Logger          *log.Logger
	Now             func() time.Time
}

// Loop runs Job on a single worker goroutine. Periodic ticks and RunNow only
// enqueue; a request that arrives while one is already pending is dropped, so
// runs never overlap and never pile up.
type Loop struct {
	interval    time.Duration
	job         Job
	waker       Waker
	scanLock    reminder.WakeLock
	lockTimeout time.Duration
	logger      *log.Logger
	now         func() time.Time

	cron   *cron.Cron
	queue  chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	mu       sync.Mutex
	started  bool
	stopped  bool
	mode     WakeMode
	stopOnce sync.Once

	runs    uint64
	dropped uint64
}

func New(opts Options) (*Loop, error) {
	if opts.Job == nil {
		return nil, errors.New("scheduler: job is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	lockTimeout := opts.ScanLockTimeout
	if lockTimeout <= 0 {
		lockTimeout = DefaultScanLockTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := logging.OrDiscard(opts.Logger)
	return &Loop{
		interval:    interval,
		job:         opts.Job,
		waker:       opts.Waker,
		scanLock:    opts.ScanLock,
		lockTimeout: lockTimeout,
		logger:      logger,
		now:         now,
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger)))),
		queue:       make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start runs the job once right away and then every interval until Stop.
// Cancelling ctx does not interrupt a run.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	if l.started {
		l.mu.Unlock()
		return ErrLoopStarted
	}
	l.started = true
	l.mode = WakeInexact
	if l.waker != nil && l.waker.ExactAvailable() {
		l.mode = WakeExact
	}
	mode := l.mode
	l.mu.Unlock()

	if l.waker != nil && mode != WakeExact {
		l.logger.Warn("exact wake-ups unavailable, using inexact", "err", reminder.ErrSchedulingDegraded)
	}

	l.cron.Schedule(cron.Every(l.interval), cron.FuncJob(func() { l.RunNow() }))
	l.cron.Start()
	go l.worker(context.WithoutCancel(ctx))
	l.RunNow()
	l.logger.Info("scheduler started", "interval", l.interval, "wake_mode", mode)
	return nil
}

// RunNow requests one run. It reports false when the request was dropped
// because a run is already pending or the loop is stopped.
func (l *Loop) RunNow() bool {
	select {
	case <-l.stopCh:
		return false
	default:
	}
	select {
	case l.queue <- struct{}{}:
		return true
	default:
		atomic.AddUint64(&l.dropped, 1)
		return false
	}
}

// Stop halts the ticker, waits for an in-flight run and discards anything
// still pending. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		started := l.started
		l.mu.Unlock()

		stopCtx := l.cron.Stop()
		<-stopCtx.Done()
		close(l.stopCh)
		if started {
			<-l.doneCh
		}
		select {
		case <-l.queue:
		default:
		}
		l.logger.Info("scheduler stopped", "runs", l.Runs(), "dropped", l.Dropped())
	})
}

func (l *Loop) Runs() uint64 {
	return atomic.LoadUint64(&l.runs)
}

func (l *Loop) Dropped() uint64 {
	return atomic.LoadUint64(&l.dropped)
}

func (l *Loop) Mode() WakeMode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

func (l *Loop) worker(ctx context.Context) {
	defer close(l.doneCh)
	for {
		select {
		case <-l.stopCh:
			return
		case <-l.queue:
			select {
			case <-l.stopCh:
				return
			default:
			}
			l.runOnce(ctx)
		}
	}
}

func (l *Loop) runOnce(ctx context.Context) {
	if l.scanLock != nil {
		if err := l.scanLock.Acquire(l.lockTimeout); err != nil {
			l.logger.Warn("scan lock acquire failed", "err", err)
		} else {
			defer func() {
				if err := l.scanLock.Release(); err != nil {
					l.logger.Warn("scan lock release failed", "err", err)
				}
			}()
		}
	}

	started := l.now()
	if err := l.job(ctx); err != nil {
		l.logger.Warn("scan finished with errors", "err", err)
	}
	atomic.AddUint64(&l.runs, 1)
	l.logger.Debug("scan complete", "took", l.now().Sub(started))
	l.arm(ctx, l.wakeAfter(l.now()))
}

// wakeAfter lands half an interval past the next tick; each run pushes it
// forward, so it fires only after the loop stops ticking.
func (l *Loop) wakeAfter(now time.Time) time.Time {
	return now.Add(l.interval + l.interval/2)
}

func (l *Loop) arm(ctx context.Context, at time.Time) {
	if l.waker == nil {
		return
	}
	mode := l.Mode()
	err := l.waker.ScheduleWake(ctx, at, mode)
	if err != nil && mode == WakeExact {
		l.logger.Warn("exact wake-up rejected, falling back to inexact",
			"err", errors.Join(reminder.ErrSchedulingDegraded, err))
		l.mu.Lock()
		l.mode = WakeInexact
		l.mu.Unlock()
		err = l.waker.ScheduleWake(ctx, at, WakeInexact)
	}
	if err != nil {
		l.logger.Error("arm wake-up failed", "at", at, "err", err)
	}
}
