// Package cli wires the remindd commands: the reminder daemon, task
// management against the local store, and thin clients of the daemon's
// control API.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/remindd/internal/config"
	"github.com/sandeepkv93/remindd/internal/control"
	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/storage"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}

type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	addr       string
}

// env is resolved once per invocation in PersistentPreRunE.
type env struct {
	cfg    config.Config
	logger *log.Logger
	now    func() time.Time
	loc    *time.Location
	// forward repeats the global flags given on this invocation so that
	// commands spawned later see the same config.
	forward []string
}

func (e *env) wakeArgs() []string {
	return append(append([]string(nil), e.forward...), "wake")
}

func (e *env) openStore() (*storage.SQLiteRepository, error) {
	repo, err := storage.OpenSQLite(e.cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	return repo, nil
}

func (e *env) client() *control.Client {
	return control.NewClient(e.cfg.Control.Addr)
}

// notifyDaemon asks a running daemon to rescan so task edits take effect
// before the next tick. An absent daemon is fine.
func (e *env) notifyDaemon(ctx context.Context) {
	if err := e.client().Scan(ctx); err != nil && !errors.Is(err, control.ErrDaemonUnreachable) {
		e.logger.Warn("daemon rescan request failed", "err", err)
	}
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	e := &env{now: time.Now, loc: time.Local}

	root := &cobra.Command{
		Use:   "remindd",
		Short: "Task store with due-date reminders and alarms",
		Long: `remindd keeps a local to-do list and runs a reminder daemon that polls due
dates: tasks due within the lookahead window get a reminder notification, tasks
that are due or recently overdue raise a looping alarm with a full-screen view
until dismissed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.dbPath != "" {
				cfg.DatabasePath = flags.dbPath
			}
			if flags.logLevel != "" {
				cfg.Log.Level = flags.logLevel
			}
			if flags.addr != "" {
				cfg.Control.Addr = flags.addr
			}
			e.cfg = cfg
			e.forward = nil
			if flags.configPath != "" {
				e.forward = append(e.forward, "--config", flags.configPath)
			}
			if flags.dbPath != "" {
				e.forward = append(e.forward, "--db", flags.dbPath)
			}
			if flags.addr != "" {
				e.forward = append(e.forward, "--addr", flags.addr)
			}
			opts := logging.DefaultOptions()
			opts.Level = cfg.Log.Level
			opts.Format = cfg.Log.Format
			e.logger = logging.New(cmd.ErrOrStderr(), opts)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/remindd/remindd.yaml)")
	pf.StringVar(&flags.dbPath, "db", "", "task database path")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.addr, "addr", "", "control API address")

	root.AddCommand(
		newServeCmd(e),
		newWakeCmd(e),
		newScanCmd(e),
		newDismissCmd(e),
		newStatusCmd(e),
		newAlarmCmd(e),
		newAddCmd(e),
		newListCmd(e),
		newShowCmd(e),
		newEditCmd(e),
		newDoneCmd(e),
		newRmCmd(e),
		newPrefsCmd(e),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "remindd %s\ncommit: %s\n", appVersion, appCommit)
		},
	}
}

func Execute() error {
	return NewRootCmd().Execute()
}

func executable() string {
	exe, err := os.Executable()
	if err != nil {
		return "remindd"
	}
	return exe
}
