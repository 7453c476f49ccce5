package storage

import (
	"fmt"

	"github.com/cuemby/maintwatch/pkg/types"
)

// Backend names accepted by Open
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// Store persists the last observed maintenance event across restarts.
// Implementations report a missing value as types.None with a nil error.
type Store interface {
	Load() (types.MaintenanceEvent, error)
	Save(event types.MaintenanceEvent) error
	Clear() error
	Close() error
}

// Open returns the store for the named backend rooted at path
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendBolt:
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

// MemoryStore keeps the event in memory only. It backs the tracker when
// persistence is disabled and doubles as a test fake.
type MemoryStore struct {
	event types.MaintenanceEvent
}

// NewMemoryStore creates a store holding event
func NewMemoryStore(event types.MaintenanceEvent) *MemoryStore {
	return &MemoryStore{event: event}
}

func (m *MemoryStore) Load() (types.MaintenanceEvent, error) {
	return m.event, nil
}

func (m *MemoryStore) Save(event types.MaintenanceEvent) error {
	m.event = event
	return nil
}

func (m *MemoryStore) Clear() error {
	m.event = types.None
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
