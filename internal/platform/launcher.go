package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/reminder"
)

// TerminalLauncher starts detached commands for the full-screen alarm view
// and the task view. Templates may reference {exe} (the remindd binary),
// {task} (the task id) and, for the full-screen view, {key} (the encoded
// full-screen key, usable as a window title or class).
type TerminalLauncher struct {
	Executable        string
	FullScreenCommand []string
	OpenCommand       []string
	Logger            *log.Logger
}

func (l *TerminalLauncher) FullScreen(_ context.Context, task model.Task) error {
	code, err := reminder.FullScreenKey(task.ID).Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", reminder.ErrDispatchTargetMissing, err)
	}
	return l.launch(l.FullScreenCommand, task.ID, strconv.FormatInt(code, 10))
}

func (l *TerminalLauncher) Open(_ context.Context, taskID int64) error {
	return l.launch(l.OpenCommand, taskID, "")
}

func (l *TerminalLauncher) launch(tmpl []string, taskID int64, key string) error {
	if len(tmpl) == 0 {
		return fmt.Errorf("%w: no command configured", reminder.ErrDispatchTargetMissing)
	}
	argv := expandTemplate(tmpl, l.Executable, taskID, key)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", reminder.ErrDispatchTargetMissing, err)
	}
	reap(cmd)
	logging.OrDiscard(l.Logger).Debug("view launched", "task_id", taskID, "key", key, "cmd", argv[0])
	return nil
}
