package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/remindd/internal/logging"
	"github.com/sandeepkv93/remindd/internal/model"
	"github.com/sandeepkv93/remindd/internal/reminder"
)

const defaultReplayGap = 250 * time.Millisecond

// ExecPlayer loops a sound file through an external player until the session
// is stopped. Command is the player invocation without the file argument.
type ExecPlayer struct {
	Command   []string
	SoundFile string
	ReplayGap time.Duration
	Logger    *log.Logger
}

func (p *ExecPlayer) Start(_ context.Context, task model.Task) (reminder.AudioSession, error) {
	if len(p.Command) == 0 {
		return nil, fmt.Errorf("%w: no audio command configured", reminder.ErrAudioUnavailable)
	}
	bin, err := exec.LookPath(p.Command[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reminder.ErrAudioUnavailable, err)
	}
	if p.SoundFile == "" {
		return nil, fmt.Errorf("%w: no sound file configured", reminder.ErrAudioUnavailable)
	}
	if _, err := os.Stat(p.SoundFile); err != nil {
		return nil, fmt.Errorf("%w: %v", reminder.ErrAudioUnavailable, err)
	}

	gap := p.ReplayGap
	if gap <= 0 {
		gap = defaultReplayGap
	}
	args := append(append([]string(nil), p.Command[1:]...), p.SoundFile)
	ctx, cancel := context.WithCancel(context.Background())
	s := &loopSession{cancel: cancel, done: make(chan struct{})}
	go s.run(ctx, bin, args, gap, logging.OrDiscard(p.Logger).With("task_id", task.ID))
	return s, nil
}

type loopSession struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func (s *loopSession) run(ctx context.Context, bin string, args []string, gap time.Duration, logger *log.Logger) {
	defer close(s.done)
	for {
		cmd := exec.CommandContext(ctx, bin, args...)
		if err := cmd.Run(); err != nil && ctx.Err() == nil {
			logger.Warn("alarm audio playback failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(gap):
		}
	}
}

func (s *loopSession) Stop() error {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
