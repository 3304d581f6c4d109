package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/remindd/internal/control"
	"github.com/sandeepkv93/remindd/internal/platform"
	"github.com/sandeepkv93/remindd/internal/reminder"
	"github.com/sandeepkv93/remindd/internal/scheduler"
	"github.com/sandeepkv93/remindd/internal/storage"
)

// daemonDeps replaces platform primitives; nil fields get the desktop
// implementations.
type daemonDeps struct {
	Notifier  reminder.Notifier
	Player    reminder.Player
	Launcher  reminder.Launcher
	AlarmLock reminder.WakeLock
	ScanLock  reminder.WakeLock
	Waker     scheduler.Waker
}

type daemon struct {
	repo    *storage.SQLiteRepository
	service *reminder.Service
	loop    *scheduler.Loop
	server  *control.Server
	logger  *log.Logger
}

func newDaemon(e *env, deps daemonDeps) (*daemon, error) {
	cfg := e.cfg
	logger := e.logger
	repo, err := e.openStore()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := reminder.NewMetrics(reg)

	exe := executable()
	if deps.Notifier == nil {
		if cfg.Notify.Desktop {
			deps.Notifier = platform.NewExecNotifier(logger)
		} else {
			deps.Notifier = platform.LogNotifier{Logger: logger}
		}
	}
	if deps.Player == nil {
		deps.Player = &platform.ExecPlayer{Command: cfg.Alarm.AudioCommand, SoundFile: cfg.Alarm.SoundFile, Logger: logger}
	}
	if deps.Launcher == nil {
		deps.Launcher = &platform.TerminalLauncher{
			Executable:        exe,
			FullScreenCommand: cfg.Alarm.FullScreenCommand,
			OpenCommand:       cfg.Alarm.OpenCommand,
			Logger:            logger,
		}
	}
	if deps.AlarmLock == nil {
		deps.AlarmLock = platform.NewInhibitLock("task alarm sounding", logger)
	}
	if deps.ScanLock == nil {
		deps.ScanLock = platform.NewInhibitLock("checking task due dates", logger)
	}
	if deps.Waker == nil {
		deps.Waker = &platform.StateWaker{
			Waker:  platform.NewSystemdWaker(cfg.Wake.Exact, cfg.Wake.Unit, exe, e.wakeArgs(), logger),
			Store:  platform.NewWakeStateStore(cfg.Wake.StateFile),
			Logger: logger,
		}
	}

	registry := reminder.NewRegistry(reminder.RegistryOptions{
		WakeLock:        deps.AlarmLock,
		WakeLockTimeout: cfg.Alarm.WakeLockTimeout,
		Notifier:        deps.Notifier,
		Logger:          logger,
		Metrics:         metrics,
	})
	dispatcher, err := reminder.NewDispatcher(reminder.DispatcherOptions{
		Notifier: deps.Notifier,
		Player:   deps.Player,
		Launcher: deps.Launcher,
		Registry: registry,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	service, err := reminder.NewService(reminder.ServiceOptions{
		Store:       repo,
		Preferences: repo,
		Policy:      reminder.Policy{Lookahead: cfg.Scheduler.Lookahead, Lookback: cfg.Scheduler.Lookback},
		Dispatcher:  dispatcher,
		Registry:    registry,
		Now:         e.now,
		Logger:      logger,
		Metrics:     metrics,
	})
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	loop, err := scheduler.New(scheduler.Options{
		Interval:        cfg.Scheduler.Interval,
		Job:             service.RunScan,
		Waker:           deps.Waker,
		ScanLock:        deps.ScanLock,
		ScanLockTimeout: cfg.Scheduler.ScanLockTimeout,
		Logger:          logger,
		Now:             e.now,
	})
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	service.AttachTrigger(func() { loop.RunNow() })

	return &daemon{
		repo:    repo,
		service: service,
		loop:    loop,
		server:  control.NewServer(cfg.Control.Addr, service, reg, logger),
		logger:  logger,
	}, nil
}

// run blocks until ctx is cancelled or the control API fails, then stops the
// loop, tears down every alarm and closes the store.
func (d *daemon) run(ctx context.Context) error {
	defer d.repo.Close()

	g, gctx := errgroup.WithContext(ctx)
	if err := d.loop.Start(gctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	g.Go(func() error {
		return d.server.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		d.loop.Stop()
		d.service.Shutdown(context.Background())
		return nil
	})
	err := g.Wait()
	d.logger.Info("daemon stopped")
	return err
}
