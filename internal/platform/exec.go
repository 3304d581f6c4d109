// Package platform implements the reminder primitives on a Linux desktop:
// freedesktop notifications, PulseAudio playback, logind sleep inhibitors and
// systemd user timers. Every primitive shells out to a standard tool so the
// daemon carries no D-Bus or audio bindings of its own.
package platform

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner runs a command to completion and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

func expandTemplate(tmpl []string, exe string, taskID int64, key string) []string {
	r := strings.NewReplacer("{exe}", exe, "{task}", strconv.FormatInt(taskID, 10), "{key}", key)
	out := make([]string, len(tmpl))
	for i, arg := range tmpl {
		out[i] = r.Replace(arg)
	}
	return out
}

func reap(cmd *exec.Cmd) {
	go func() { _ = cmd.Wait() }()
}
