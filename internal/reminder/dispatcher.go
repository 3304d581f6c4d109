package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/model"
)

type DispatcherOptions struct {
	Notifier Notifier
	Player   Player
	Launcher Launcher
	Registry *Registry
	Logger   *log.Logger
	Metrics  *Metrics
}

// Dispatcher turns classified tasks into notifications, alarm sound and
// full-screen escalation. Both entry points are idempotent per task.
type Dispatcher struct {
	notifier Notifier
	player   Player
	launcher Launcher
	registry *Registry
	logger   *log.Logger
	metrics  *Metrics
}

func NewDispatcher(opts DispatcherOptions) (*Dispatcher, error) {
	if opts.Notifier == nil {
		return nil, errors.New("reminder: dispatcher needs a notifier")
	}
	if opts.Registry == nil {
		return nil, errors.New("reminder: dispatcher needs a registry")
	}
	return &Dispatcher{
		notifier: opts.Notifier,
		player:   opts.Player,
		launcher: opts.Launcher,
		registry: opts.Registry,
		logger:   logging.OrDiscard(opts.Logger),
		metrics:  opts.Metrics,
	}, nil
}

// Remind posts the soft reminder for an upcoming task. Re-posting replaces
// the previous reminder for the same task.
func (d *Dispatcher) Remind(ctx context.Context, now time.Time, task model.Task) error {
	n := Notification{
		Key:     ReminderKey(task.ID),
		Title:   "Upcoming Task: " + task.Title,
		Body:    fmt.Sprintf("Due in about %d minutes", MinutesUntilDue(now, task)),
		Detail:  task.Description,
		Urgency: UrgencyNormal,
		Actions: []Action{{ID: ActionOpen, Label: "Open"}},
	}
	n.OnAction = d.actionHandler(task.ID)
	if err := d.notifier.Post(ctx, n); err != nil {
		return fmt.Errorf("post reminder for task %d: %w", task.ID, err)
	}
	d.metrics.reminderPosted()
	d.logger.Debug("reminder posted", "task_id", task.ID, "key", n.Key)
	return nil
}

// Alarm raises the full alarm for a due task: looping sound registered in
// the registry, a persistent notification with a dismiss action, and a
// direct full-screen launch. When the task already has a sounding alarm only
// the notification is re-posted. Sound and full-screen failures degrade the
// alarm without stopping delivery; they are returned joined.
func (d *Dispatcher) Alarm(ctx context.Context, now time.Time, task model.Task) error {
	if d.registry.Active(task.ID) {
		return d.postAlarm(ctx, task)
	}

	var errs []error
	if err := d.startSound(ctx, task); err != nil {
		d.metrics.audioFailed()
		errs = append(errs, err)
	}
	if err := d.postAlarm(ctx, task); err != nil {
		errs = append(errs, err)
	}
	if err := d.escalate(ctx, task); err != nil {
		d.metrics.escalationFailed()
		errs = append(errs, err)
	}
	d.logger.Info("alarm raised", "task_id", task.ID, "title", task.Title,
		"overdue", now.Sub(task.DueDate).Truncate(time.Second), "sounding", d.registry.Active(task.ID))
	return errors.Join(errs...)
}

func (d *Dispatcher) startSound(ctx context.Context, task model.Task) error {
	if d.player == nil {
		return fmt.Errorf("%w: no player configured", ErrAudioUnavailable)
	}
	session, err := d.player.Start(ctx, task)
	if err != nil {
		if errors.Is(err, ErrAudioUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	if !d.registry.StartAlarm(task.ID, session) {
		if stopErr := session.Stop(); stopErr != nil {
			d.logger.Warn("stop duplicate alarm audio failed", "task_id", task.ID, "err", stopErr)
		}
		return nil
	}
	d.metrics.alarmStarted()
	return nil
}

func (d *Dispatcher) postAlarm(ctx context.Context, task model.Task) error {
	body := strings.TrimSpace(task.Description)
	if body == "" {
		body = "Task is due"
	}
	n := Notification{
		Key:        AlarmKey(task.ID),
		Title:      "Task Reminder: " + task.Title,
		Body:       body,
		Detail:     task.Description,
		Urgency:    UrgencyCritical,
		Persistent: true,
		FullScreen: true,
		Actions: []Action{
			{ID: ActionOpen, Label: "Open"},
			{ID: ActionDismiss, Label: "Dismiss"},
		},
	}
	n.OnAction = d.actionHandler(task.ID)
	if err := d.notifier.Post(ctx, n); err != nil {
		return fmt.Errorf("post alarm for task %d: %w", task.ID, err)
	}
	return nil
}

func (d *Dispatcher) escalate(ctx context.Context, task model.Task) error {
	if d.launcher == nil {
		return fmt.Errorf("%w: no launcher configured", ErrDispatchTargetMissing)
	}
	if err := d.launcher.FullScreen(ctx, task); err != nil {
		if errors.Is(err, ErrDispatchTargetMissing) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDispatchTargetMissing, err)
	}
	return nil
}

func (d *Dispatcher) actionHandler(taskID int64) func(string) {
	return func(actionID string) {
		switch actionID {
		case ActionDismiss:
			d.registry.Dismiss(context.Background(), taskID)
		case ActionOpen:
			if d.launcher == nil {
				return
			}
			if err := d.launcher.Open(context.Background(), taskID); err != nil {
				d.logger.Warn("open task failed", "task_id", taskID, "err", err)
			}
		}
	}
}
