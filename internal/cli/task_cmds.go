package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/control"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/storage"
	"github.com/sandeepkv93/remindd/internal/views"
)

type taskFlags struct {
	description string
	due         string
	priority    string
}

func newAddCmd(e *env) *cobra.Command {
	f := &taskFlags{}
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Create a task",
		Example: `  remindd add Pay rent --due "tomorrow 09:00" --priority high
  remindd add Stand-up --due "in 20m"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			task := model.Task{
				Title:       strings.TrimSpace(strings.Join(args, " ")),
				Description: f.description,
			}
			if err := applyTaskFlags(e, &task, f, nil); err != nil {
				return err
			}
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			id, err := repo.CreateTask(ctx, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added task %d\n", id)
			e.notifyDaemon(ctx)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.description, "desc", "d", "", "task description (markdown)")
	cmd.Flags().StringVar(&f.due, "due", "", `due date, e.g. "in 20m", "17:30", "tomorrow 09:00", "2026-03-14 09:00"`)
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "medium", "low, medium or high")
	return cmd
}

func newEditCmd(e *env) *cobra.Command {
	f := &taskFlags{}
	var title string
	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Change a task's title, description, due date or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			task, err := repo.GetTask(ctx, id)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				task.Title = strings.TrimSpace(title)
			}
			if flags.Changed("desc") {
				task.Description = f.description
			}
			if err := applyTaskFlags(e, &task, f, flags.Changed); err != nil {
				return err
			}
			if _, err := repo.UpdateTask(ctx, task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated task %d\n", id)
			e.notifyDaemon(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&f.description, "desc", "d", "", "new description")
	cmd.Flags().StringVar(&f.due, "due", "", `new due date, or "none" to clear`)
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium or high")
	return cmd
}

// applyTaskFlags applies --due and --priority. With a nil changed func every
// flag is applied.
func applyTaskFlags(e *env, task *model.Task, f *taskFlags, changed func(string) bool) error {
	if changed == nil || changed("due") {
		due, err := ParseDue(f.due, e.now(), e.loc)
		if err != nil {
			return err
		}
		task.DueDate = due
	}
	if changed == nil || changed("priority") {
		p, err := model.ParsePriority(f.priority)
		if err != nil {
			return err
		}
		task.Priority = p
	}
	return nil
}

func newListCmd(e *env) *cobra.Command {
	var filter storage.TaskListFilter
	var dueWithin string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks ordered by due date",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dueWithin != "" {
				before, err := ParseDue("in "+dueWithin, e.now(), e.loc)
				if err != nil {
					return err
				}
				filter.DueBefore = before
			}
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			tasks, err := repo.ListTasks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), views.RenderTaskList(tasks, e.now()))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&filter.IncludeCompleted, "all", "a", false, "include completed tasks")
	cmd.Flags().StringVar(&dueWithin, "within", "", "only tasks due within this duration, e.g. 24h")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of tasks")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "skip this many tasks")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
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
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, views.RenderTask(task, e.now()))
			if wait {
				fmt.Fprint(out, "\npress enter to close")
				_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for enter before exiting")
	return cmd
}

func newDoneCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task completed and stop its alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			task, err := repo.GetTask(ctx, id)
			if err != nil {
				return err
			}
			task.Completed = true
			if _, err := repo.UpdateTask(ctx, task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "completed task %d\n", id)
			dismissQuietly(ctx, e, id)
			return nil
		},
	}
}

func newRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			if err := repo.DeleteTask(ctx, id); err != nil {
				if isNotFound(err) {
					return fmt.Errorf("task %d: %w", id, err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted task %d\n", id)
			dismissQuietly(ctx, e, id)
			return nil
		},
	}
}

// dismissQuietly stops a possibly sounding alarm. The daemon may not be
// running, in which case there is nothing to stop.
func dismissQuietly(ctx context.Context, e *env, id int64) {
	if _, err := e.client().Dismiss(ctx, id); err != nil && !errors.Is(err, control.ErrDaemonUnreachable) {
		e.logger.Warn("dismiss alarm failed", "task_id", id, "err", err)
	}
}

func newPrefsCmd(e *env) *cobra.Command {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
	}
	prefs.AddCommand(&cobra.Command{
		Use:       "notifications [on|off]",
		Short:     "Show or toggle reminder notifications",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := e.openStore()
			if err != nil {
				return err
			}
			defer repo.Close()
			if len(args) == 1 {
				var enabled bool
				switch strings.ToLower(args[0]) {
				case "on", "true", "1":
					enabled = true
				case "off", "false", "0":
				default:
					return fmt.Errorf("expected on or off, got %q", args[0])
				}
				if err := repo.SetNotificationsEnabled(ctx, enabled); err != nil {
					return err
				}
			}
			enabled, err := repo.NotificationsEnabled(ctx)
			if err != nil {
				return err
			}
			state := "off"
			if enabled {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notifications: %s\n", state)
			return nil
		},
	})
	return prefs
}
