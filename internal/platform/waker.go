package platform

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/scheduler"
)

const (
	exactAccuracy   = "1s"
	inexactAccuracy = "1min"
)

// SystemdWaker arms a transient systemd user timer that runs `remindd wake`.
// Re-arming replaces the previous timer unit.
type SystemdWaker struct {
	Exact      bool
	Unit       string
	Executable string
	Args       []string
	SystemdRun string
	Systemctl  string
	Run        Runner
	LookPath   func(string) (string, error)
	Now        func() time.Time
	Logger     *log.Logger
}

func NewSystemdWaker(exact bool, unit, executable string, args []string, logger *log.Logger) *SystemdWaker {
	return &SystemdWaker{
		Exact:      exact,
		Unit:       unit,
		Executable: executable,
		Args:       args,
		SystemdRun: "systemd-run",
		Systemctl:  "systemctl",
		Run:        ExecRunner,
		LookPath:   exec.LookPath,
		Now:        time.Now,
		Logger:     logging.OrDiscard(logger),
	}
}

func (w *SystemdWaker) ExactAvailable() bool {
	if !w.Exact {
		return false
	}
	_, err := w.LookPath(w.SystemdRun)
	return err == nil
}

func (w *SystemdWaker) ScheduleWake(ctx context.Context, at time.Time, mode scheduler.WakeMode) error {
	delay := at.Sub(w.Now())
	if delay < time.Second {
		delay = time.Second
	}
	accuracy := inexactAccuracy
	if mode == scheduler.WakeExact {
		accuracy = exactAccuracy
	}

	// systemd-run refuses a unit name whose timer is still pending.
	if _, err := w.Run(ctx, w.Systemctl, "--user", "stop", w.Unit+".timer"); err != nil {
		w.Logger.Debug("stop previous wake timer", "unit", w.Unit, "err", err)
	}

	args := []string{
		"--user",
		"--collect",
		"--unit=" + w.Unit,
		"--on-active=" + strconv.FormatInt(int64(math.Ceil(delay.Seconds())), 10) + "s",
		"--timer-property=AccuracySec=" + accuracy,
		"--",
		w.Executable,
	}
	args = append(args, w.Args...)
	if _, err := w.Run(ctx, w.SystemdRun, args...); err != nil {
		return fmt.Errorf("arm wake timer: %w", err)
	}
	w.Logger.Debug("wake timer armed", "unit", w.Unit, "in", delay.Round(time.Second), "mode", mode)
	return nil
}

// StateWaker records every arm attempt in a WakeStateStore before returning
// the wrapped waker's result.
type StateWaker struct {
	Waker  scheduler.Waker
	Store  *WakeStateStore
	Now    func() time.Time
	Logger *log.Logger
}

func (w *StateWaker) ExactAvailable() bool {
	return w.Waker.ExactAvailable()
}

func (w *StateWaker) ScheduleWake(ctx context.Context, at time.Time, mode scheduler.WakeMode) error {
	err := w.Waker.ScheduleWake(ctx, at, mode)
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	state := WakeState{
		NextWake: at.UTC(),
		Mode:     mode.String(),
		ArmedAt:  now().UTC(),
	}
	if err != nil {
		state.LastError = err.Error()
	}
	if saveErr := w.Store.Save(state); saveErr != nil {
		logging.OrDiscard(w.Logger).Warn("record wake state failed", "err", saveErr)
	}
	return err
}
