package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/control"
	"github.com/sandeepkv93/remindd/internal/platform"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/views"
)

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	d, err := newDaemon(e, daemonDeps{})
	if err != nil {
		return err
	}
	return d.run(ctx)
}

// newWakeCmd is the target of the systemd wake timer and of login
// autostart. A running daemon is asked to scan; otherwise the daemon is
// started, but only when notifications are enabled.
func newWakeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:    "wake",
		Short:  "Trigger a scan, starting the daemon if none is running",
		Args:   cobra.NoArgs,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			err := e.client().Scan(ctx)
			if err == nil {
				e.logger.Debug("running daemon asked to scan")
				return nil
			}
			if !errors.Is(err, control.ErrDaemonUnreachable) {
				return err
			}

			repo, err := e.openStore()
			if err != nil {
				return err
			}
			enabled, err := repo.NotificationsEnabled(ctx)
			_ = repo.Close()
			if err != nil {
				e.logger.Warn("read notification preference failed, assuming enabled", "err", err)
				enabled = true
			}
			if !enabled {
				e.logger.Info("notifications disabled, not starting daemon")
				return nil
			}
			return serve(ctx, e)
		},
	}
}

func newScanCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Ask the running daemon to check due dates now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.client().Scan(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "scan queued")
			return nil
		},
	}
}

func newDismissCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <task-id>",
		Short: "Stop the alarm for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			dismissed, err := e.client().Dismiss(cmd.Context(), id)
			if err != nil {
				return err
			}
			if dismissed {
				fmt.Fprintf(cmd.OutOrStdout(), "alarm for task %d dismissed\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "no alarm sounding for task %d\n", id)
			}
			return nil
		},
	}
}

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show active alarms and the next scheduled wake-up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ids, err := e.client().Alarms(cmd.Context())
			switch {
			case errors.Is(err, control.ErrDaemonUnreachable):
				fmt.Fprintln(out, "daemon: not running")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "daemon: running on %s\n", e.cfg.Control.Addr)
				fmt.Fprintf(out, "active alarms: %d %v\n", len(ids), ids)
			}

			state, err := platform.NewWakeStateStore(e.cfg.Wake.StateFile).Load()
			if err != nil {
				return err
			}
			if state.NextWake.IsZero() {
				fmt.Fprintln(out, "next wake: none armed")
				return nil
			}
			fmt.Fprintf(out, "next wake: %s (%s)\n", state.NextWake.Local().Format(time.DateTime), state.Mode)
			if state.LastError != "" {
				fmt.Fprintf(out, "last arm error: %s\n", state.LastError)
			}
			return nil
		},
	}
}

// newAlarmCmd opens the full-screen alarm view. The daemon launches it in a
// terminal when a task becomes due.
func newAlarmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:    "alarm <task-id>",
		Short:  "Show the full-screen alarm for a task",
		Args:   cobra.ExactArgs(1),
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			task, err := repo.GetTask(cmd.Context(), id)
			_ = repo.Close()
			if err != nil {
				return err
			}

			client := e.client()
			m := views.NewAlarmModel(task, e.now(), client.Dismiss)
			program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = program.Run()
			return err
		},
	}
}

func parseTaskID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
