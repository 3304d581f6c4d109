package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/reminder"
)

const (
	defaultNotifySend = "notify-send"
	defaultGDBus      = "gdbus"
)

// ExecNotifier posts freedesktop notifications through notify-send. The
// server-assigned id of each key is remembered so that a re-post replaces the
// notification in place and Cancel can close it over D-Bus.
type ExecNotifier struct {
	AppName    string
	NotifySend string
	GDBus      string
	Run        Runner
	Logger     *log.Logger

	mu     sync.Mutex
	shown  map[reminder.Key]*shownNotification
	keyMus map[reminder.Key]*sync.Mutex
}

type shownNotification struct {
	id   uint32
	stop context.CancelFunc
}

func NewExecNotifier(logger *log.Logger) *ExecNotifier {
	return &ExecNotifier{
		AppName:    "remindd",
		NotifySend: defaultNotifySend,
		GDBus:      defaultGDBus,
		Run:        ExecRunner,
		Logger:     logging.OrDiscard(logger),
		shown:      make(map[reminder.Key]*shownNotification),
		keyMus:     make(map[reminder.Key]*sync.Mutex),
	}
}

// lockKey serializes Post and Cancel for one key.
func (n *ExecNotifier) lockKey(key reminder.Key) func() {
	n.mu.Lock()
	if n.keyMus == nil {
		n.keyMus = make(map[reminder.Key]*sync.Mutex)
	}
	m, ok := n.keyMus[key]
	if !ok {
		m = &sync.Mutex{}
		n.keyMus[key] = m
	}
	n.mu.Unlock()
	m.Lock()
	return m.Unlock
}

func (n *ExecNotifier) Post(ctx context.Context, notif reminder.Notification) error {
	defer n.lockKey(notif.Key)()

	n.mu.Lock()
	prev := n.shown[notif.Key]
	n.mu.Unlock()

	var prevID uint32
	if prev != nil {
		prevID = prev.id
		if prev.stop != nil {
			prev.stop()
		}
	}

	listen := notif.OnAction != nil && len(notif.Actions) > 0
	args := n.args(notif, prevID, listen)

	var entry *shownNotification
	var err error
	if listen {
		entry, err = n.postAndListen(args, notif)
	} else {
		entry, err = n.post(ctx, args)
	}
	if err != nil {
		return fmt.Errorf("notify %s: %w", notif.Key, err)
	}

	n.mu.Lock()
	if n.shown == nil {
		n.shown = make(map[reminder.Key]*shownNotification)
	}
	n.shown[notif.Key] = entry
	n.mu.Unlock()
	n.Logger.Debug("notification posted", "key", notif.Key, "id", entry.id)
	return nil
}

func (n *ExecNotifier) Cancel(ctx context.Context, key reminder.Key) error {
	defer n.lockKey(key)()

	n.mu.Lock()
	entry := n.shown[key]
	delete(n.shown, key)
	n.mu.Unlock()
	if entry == nil {
		return nil
	}
	if entry.stop != nil {
		entry.stop()
	}
	_, err := n.Run(ctx, n.GDBus, "call", "--session",
		"--dest", "org.freedesktop.Notifications",
		"--object-path", "/org/freedesktop/Notifications",
		"--method", "org.freedesktop.Notifications.CloseNotification",
		strconv.FormatUint(uint64(entry.id), 10))
	if err != nil {
		return fmt.Errorf("close notification %s: %w", key, err)
	}
	return nil
}

func (n *ExecNotifier) args(notif reminder.Notification, replaceID uint32, listen bool) []string {
	args := []string{
		"--app-name=" + n.AppName,
		"--urgency=" + notif.Urgency.String(),
		"--print-id",
	}
	if code, err := notif.Key.Encode(); err == nil {
		args = append(args, "--hint=int:x-remindd-key:"+strconv.FormatInt(code, 10))
	}
	if replaceID != 0 {
		args = append(args, "--replace-id="+strconv.FormatUint(uint64(replaceID), 10))
	}
	if notif.Persistent {
		args = append(args, "--expire-time=0", "--hint=boolean:resident:true")
	}
	if notif.FullScreen {
		args = append(args, "--category=x-remindd.alarm")
	}
	if listen {
		for _, a := range notif.Actions {
			args = append(args, "--action="+a.ID+"="+a.Label)
		}
		args = append(args, "--wait")
	}
	body := notif.Body
	if detail := strings.TrimSpace(notif.Detail); detail != "" && detail != body {
		body += "\n" + detail
	}
	return append(args, "--", notif.Title, body)
}

func (n *ExecNotifier) post(ctx context.Context, args []string) (*shownNotification, error) {
	out, err := n.Run(ctx, n.NotifySend, args...)
	if err != nil {
		return nil, err
	}
	id, err := parseNotificationID(firstLine(string(out)))
	if err != nil {
		return nil, err
	}
	return &shownNotification{id: id}, nil
}

func (n *ExecNotifier) postAndListen(args []string, notif reminder.Notification) (*shownNotification, error) {
	waitCtx, stop := context.WithCancel(context.Background())
	cmd := exec.CommandContext(waitCtx, n.NotifySend, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stop()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		stop()
		return nil, err
	}

	scanner := bufio.NewScanner(stdout)
	if !scanner.Scan() {
		stop()
		_ = cmd.Wait()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("notify-send printed no id")
	}
	id, err := parseNotificationID(scanner.Text())
	if err != nil {
		stop()
		_ = cmd.Wait()
		return nil, err
	}

	go func() {
		defer stop()
		for scanner.Scan() {
			if action := strings.TrimSpace(scanner.Text()); action != "" {
				n.Logger.Debug("notification action", "key", notif.Key, "action", action)
				notif.OnAction(action)
			}
		}
		_ = cmd.Wait()
	}()
	return &shownNotification{id: id, stop: stop}, nil
}

func parseNotificationID(s string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse notification id %q: %w", s, err)
	}
	return uint32(id), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// LogNotifier writes notifications to the log instead of the desktop. It is
// used when desktop notifications are turned off.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Post(_ context.Context, notif reminder.Notification) error {
	code, _ := notif.Key.Encode()
	logging.OrDiscard(n.Logger).Info(notif.Title, "key", notif.Key, "id", code, "body", notif.Body, "urgency", notif.Urgency)
	return nil
}

func (n LogNotifier) Cancel(_ context.Context, key reminder.Key) error {
	logging.OrDiscard(n.Logger).Debug("notification withdrawn", "key", key)
	return nil
}
