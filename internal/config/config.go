// Package config loads remindd settings from defaults, an optional YAML file
// and REMINDD_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "REMINDD"

type Config struct {
	DatabasePath string
	Log          LogConfig
	Scheduler    SchedulerConfig
	Alarm        AlarmConfig
	Notify       NotifyConfig
	Wake         WakeConfig
	Control      ControlConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type SchedulerConfig struct {
	Interval        time.Duration
	Lookahead       time.Duration
	Lookback        time.Duration
	ScanLockTimeout time.Duration
}

type AlarmConfig struct {
	WakeLockTimeout   time.Duration
	SoundFile         string
	AudioCommand      []string
	FullScreenCommand []string
	OpenCommand       []string
}

type NotifyConfig struct {
	Desktop bool
}

type WakeConfig struct {
	Exact     bool
	StateFile string
	Unit      string
}

type ControlConfig struct {
	Addr string
}

func Default() Config {
	dir := defaultDir()
	return Config{
		DatabasePath: filepath.Join(dir, "remindd.db"),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scheduler: SchedulerConfig{
			Interval:        time.Minute,
			Lookahead:       30 * time.Minute,
			Lookback:        60 * time.Minute,
			ScanLockTimeout: time.Minute,
		},
		Alarm: AlarmConfig{
			WakeLockTimeout:   10 * time.Minute,
			SoundFile:         "/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga",
			AudioCommand:      []string{"paplay", "--volume=65536"},
			FullScreenCommand: []string{"x-terminal-emulator", "-e", "{exe}", "alarm", "{task}"},
			OpenCommand:       []string{"x-terminal-emulator", "-e", "{exe}", "show", "--wait", "{task}"},
		},
		Notify: NotifyConfig{
			Desktop: true,
		},
		Wake: WakeConfig{
			Exact:     true,
			StateFile: filepath.Join(dir, "wake.yaml"),
			Unit:      "remindd-wake",
		},
		Control: ControlConfig{
			Addr: "127.0.0.1:7465",
		},
	}
}

// Load reads path when given, otherwise looks for remindd.yaml in the user
// config directory. A missing file is not an error.
func Load(path string) (Config, error) {
	base := Default()
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database", base.DatabasePath)
	v.SetDefault("log.level", base.Log.Level)
	v.SetDefault("log.format", base.Log.Format)
	v.SetDefault("scheduler.interval", base.Scheduler.Interval)
	v.SetDefault("scheduler.lookahead", base.Scheduler.Lookahead)
	v.SetDefault("scheduler.lookback", base.Scheduler.Lookback)
	v.SetDefault("scheduler.scan_lock_timeout", base.Scheduler.ScanLockTimeout)
	v.SetDefault("alarm.wake_lock_timeout", base.Alarm.WakeLockTimeout)
	v.SetDefault("alarm.sound_file", base.Alarm.SoundFile)
	v.SetDefault("alarm.audio_command", base.Alarm.AudioCommand)
	v.SetDefault("alarm.fullscreen_command", base.Alarm.FullScreenCommand)
	v.SetDefault("alarm.open_command", base.Alarm.OpenCommand)
	v.SetDefault("notify.desktop", base.Notify.Desktop)
	v.SetDefault("wake.exact", base.Wake.Exact)
	v.SetDefault("wake.state_file", base.Wake.StateFile)
	v.SetDefault("wake.unit", base.Wake.Unit)
	v.SetDefault("control.addr", base.Control.Addr)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("remindd")
		v.AddConfigPath(defaultDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		DatabasePath: v.GetString("database"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Scheduler: SchedulerConfig{
			Interval:        v.GetDuration("scheduler.interval"),
			Lookahead:       v.GetDuration("scheduler.lookahead"),
			Lookback:        v.GetDuration("scheduler.lookback"),
			ScanLockTimeout: v.GetDuration("scheduler.scan_lock_timeout"),
		},
		Alarm: AlarmConfig{
			WakeLockTimeout:   v.GetDuration("alarm.wake_lock_timeout"),
			SoundFile:         v.GetString("alarm.sound_file"),
			AudioCommand:      v.GetStringSlice("alarm.audio_command"),
			FullScreenCommand: v.GetStringSlice("alarm.fullscreen_command"),
			OpenCommand:       v.GetStringSlice("alarm.open_command"),
		},
		Notify: NotifyConfig{
			Desktop: v.GetBool("notify.desktop"),
		},
		Wake: WakeConfig{
			Exact:     v.GetBool("wake.exact"),
			StateFile: v.GetString("wake.state_file"),
			Unit:      v.GetString("wake.unit"),
		},
		Control: ControlConfig{
			Addr: v.GetString("control.addr"),
		},
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return errors.New("config: database path is required")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("config: scheduler.interval must be positive, got %s", c.Scheduler.Interval)
	}
	if c.Scheduler.Lookahead <= 0 || c.Scheduler.Lookback <= 0 {
		return fmt.Errorf("config: scheduler windows must be positive, got lookahead %s lookback %s",
			c.Scheduler.Lookahead, c.Scheduler.Lookback)
	}
	if c.Scheduler.ScanLockTimeout <= 0 || c.Alarm.WakeLockTimeout <= 0 {
		return errors.New("config: wake lock timeouts must be positive")
	}
	if strings.TrimSpace(c.Control.Addr) == "" {
		return errors.New("config: control.addr is required")
	}
	return nil
}

func defaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".remindd"
	}
	return filepath.Join(dir, "remindd")
}
