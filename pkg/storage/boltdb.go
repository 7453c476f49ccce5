package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/maintwatch/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketMaintenance = []byte("maintenance")
	keyLastEvent      = []byte("last_event")
)

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database at dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	// bbolt holds an exclusive flock; don't hang forever if another
	// maintwatch process has the file open.
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMaintenance); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMaintenance, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Load returns the stored event, or None when nothing was saved yet
func (s *BoltStore) Load() (types.MaintenanceEvent, error) {
	event := types.None
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMaintenance)
		if data := b.Get(keyLastEvent); data != nil {
			event = types.Normalize(string(data))
		}
		return nil
	})
	if err != nil {
		return types.None, fmt.Errorf("failed to read last event: %w", err)
	}
	return event, nil
}

func (s *BoltStore) Save(event types.MaintenanceEvent) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMaintenance).Put(keyLastEvent, []byte(event.String()))
	})
	if err != nil {
		return fmt.Errorf("failed to write last event: %w", err)
	}
	return nil
}

func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMaintenance).Delete(keyLastEvent)
	})
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}
