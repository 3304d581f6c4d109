package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sandeepkv93/remindd/internal/model"
)

type fakeNotifier struct {
	mu       sync.Mutex
	posted   []Notification
	shown    map[Key]Notification
	canceled []Key
	postErr  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{shown: make(map[Key]Notification)}
}

func (n *fakeNotifier) Post(_ context.Context, notif Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.postErr != nil {
		return n.postErr
	}
	n.posted = append(n.posted, notif)
	n.shown[notif.Key] = notif
	return nil
}

func (n *fakeNotifier) Cancel(_ context.Context, key Key) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.canceled = append(n.canceled, key)
	delete(n.shown, key)
	return nil
}

func (n *fakeNotifier) Shown(key Key) (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	notif, ok := n.shown[key]
	return notif, ok
}

func (n *fakeNotifier) PostCount(key Key) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, p := range n.posted {
		if p.Key == key {
			count++
		}
	}
	return count
}

type fakeSession struct {
	mu      sync.Mutex
	stopped int
}

func (s *fakeSession) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
	return nil
}

func (s *fakeSession) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakePlayer struct {
	mu       sync.Mutex
	err      error
	sessions map[int64][]*fakeSession
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{sessions: make(map[int64][]*fakeSession)}
}

func (p *fakePlayer) Start(_ context.Context, task model.Task) (AudioSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	s := &fakeSession{}
	p.sessions[task.ID] = append(p.sessions[task.ID], s)
	return s, nil
}

func (p *fakePlayer) Started(taskID int64) []*fakeSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeSession(nil), p.sessions[taskID]...)
}

type fakeLauncher struct {
	mu         sync.Mutex
	err        error
	fullScreen []int64
	opened     []int64
}

func (l *fakeLauncher) FullScreen(_ context.Context, task model.Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.fullScreen = append(l.fullScreen, task.ID)
	return nil
}

func (l *fakeLauncher) Open(_ context.Context, taskID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opened = append(l.opened, taskID)
	return nil
}

func (l *fakeLauncher) FullScreenCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fullScreen)
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
	timeout  time.Duration
}

func (l *fakeLock) Acquire(timeout time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
	l.acquires++
	l.timeout = timeout
	return nil
}

func (l *fakeLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.releases++
	return nil
}

func (l *fakeLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

type fakeStore struct {
	mu      sync.Mutex
	tasks   []model.Task
	err     error
	queries int
}

func (s *fakeStore) TasksDueBetween(_ context.Context, start, end time.Time) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Task, 0)
	for _, task := range s.tasks {
		if !task.HasDueDate() {
			continue
		}
		if task.DueDate.Before(start) || task.DueDate.After(end) {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

type fakePrefs struct {
	enabled bool
	err     error
}

func (p fakePrefs) NotificationsEnabled(context.Context) (bool, error) {
	return p.enabled, p.err
}

var errBoom = errors.New("boom")
