package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// WakeState is the last wake-up the daemon armed. The CLI reads it to report
// when the next scan is expected.
type WakeState struct {
	NextWake  time.Time `yaml:"next_wake"`
	Mode      string    `yaml:"mode"`
	ArmedAt   time.Time `yaml:"armed_at"`
	LastError string    `yaml:"last_error,omitempty"`
}

// WakeStateStore persists WakeState as a single YAML file.
type WakeStateStore struct {
	path string
	mu   sync.Mutex
}

func NewWakeStateStore(path string) *WakeStateStore {
	return &WakeStateStore{path: path}
}

func (s *WakeStateStore) Path() string {
	return s.path
}

func (s *WakeStateStore) Save(state WakeState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(&state)
	if err != nil {
		return fmt.Errorf("marshal wake state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create wake state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write wake state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace wake state: %w", err)
	}
	return nil
}

// Load returns the zero state when nothing has been recorded yet.
func (s *WakeStateStore) Load() (WakeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return WakeState{}, nil
		}
		return WakeState{}, fmt.Errorf("read wake state: %w", err)
	}
	var state WakeState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return WakeState{}, fmt.Errorf("unmarshal wake state: %w", err)
	}
	return state, nil
}
