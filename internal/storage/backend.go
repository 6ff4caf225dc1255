package storage

import (
	"fmt"
	"strings"
	"sync"
)

// Backend is a durable string-keyed byte store.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Close() error
}

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindBadger = "badger"
	KindMemory = "memory"
)

// Open creates the backend named by kind rooted at dir. An empty kind
// selects the file backend.
func Open(kind, dir string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindFile:
		return NewFileBackend(dir)
	case KindBadger:
		return NewBadgerBackend(dir)
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// MemoryBackend keeps values in a map. It is used by tests and ephemeral
// sessions.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	// failSet and failGet inject errors for tests.
	failSet error
	failGet error
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failGet != nil {
		return nil, false, m.failGet
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Close() error { return nil }

// FailWith makes subsequent Get and Set calls return the given errors.
// Passing nil restores normal behavior.
func (m *MemoryBackend) FailWith(getErr, setErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = getErr
	m.failSet = setErr
}
