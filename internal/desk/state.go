package desk

import (
	"sort"
	"sync"

	"github.com/camuig/signal-desk/internal/storage"
)

// StateStore persists the default export folder and view preferences.
// storage.Repository satisfies it.
type StateStore interface {
	SaveHandle(key, path string) error
	GetHandle(key string) (string, bool, error)
	ClearHandle(key string) error
	SetPreference(key, value string) error
	GetPreference(key, fallback string) (string, error)
	Preferences() ([]storage.Preference, error)
}

// memState keeps local state for the lifetime of the process.
type memState struct {
	mu      sync.Mutex
	handles map[string]string
	prefs   map[string]string
}

func newMemState() *memState {
	return &memState{handles: map[string]string{}, prefs: map[string]string{}}
}

func (m *memState) SaveHandle(key, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[key] = path
	return nil
}

func (m *memState) GetHandle(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.handles[key]
	return p, ok, nil
}

func (m *memState) ClearHandle(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handles, key)
	return nil
}

func (m *memState) SetPreference(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[key] = value
	return nil
}

func (m *memState) GetPreference(key, fallback string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.prefs[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func (m *memState) Preferences() ([]storage.Preference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Preference, 0, len(m.prefs))
	for k, v := range m.prefs {
		out = append(out, storage.Preference{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
