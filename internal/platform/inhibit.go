package platform

import (
	"context"
	"math"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
)

// InhibitLock holds a logind sleep inhibitor by running
// `systemd-inhibit ... sleep <timeout>`. When the inhibitor cannot be taken
// the lock degrades to a timer-only token so that Held still reflects the
// lock state. Either way the lock releases itself once the timeout elapses.
type InhibitLock struct {
	Command []string
	Logger  *log.Logger

	mu    sync.Mutex
	held  bool
	gen   uint64
	stop  context.CancelFunc
	timer *time.Timer
}

func NewInhibitLock(why string, logger *log.Logger) *InhibitLock {
	return &InhibitLock{
		Command: []string{
			"systemd-inhibit",
			"--what=sleep:idle",
			"--who=remindd",
			"--why=" + why,
			"--mode=block",
		},
		Logger: logging.OrDiscard(logger),
	}
}

// Acquire takes the lock for at most timeout. Acquiring a held lock restarts
// its timeout.
func (l *InhibitLock) Acquire(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = time.Minute
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		l.releaseLocked()
	}
	l.gen++
	gen := l.gen

	ctx, stop := context.WithCancel(context.Background())
	l.stop = stop
	if len(l.Command) > 0 {
		seconds := strconv.Itoa(int(math.Ceil(timeout.Seconds())))
		args := append(append([]string(nil), l.Command[1:]...), "sleep", seconds)
		cmd := exec.CommandContext(ctx, l.Command[0], args...)
		if err := cmd.Start(); err != nil {
			l.logger().Debug("sleep inhibitor unavailable, using timer token", "err", err)
		} else {
			reap(cmd)
		}
	}
	l.timer = time.AfterFunc(timeout, func() { l.expire(gen) })
	l.held = true
	return nil
}

func (l *InhibitLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		l.releaseLocked()
	}
	return nil
}

func (l *InhibitLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *InhibitLock) expire(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held && l.gen == gen {
		l.logger().Debug("wake lock timed out")
		l.releaseLocked()
	}
}

func (l *InhibitLock) releaseLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
	l.held = false
}

func (l *InhibitLock) logger() *log.Logger {
	return logging.OrDiscard(l.Logger)
}
