// Package cache keeps the last fetched task list in a local BoltDB file so
// the service can serve a known-good snapshot when the persistence gateway is
// unreachable at load time. It is read-side only: nothing in the cache is
// ever written back to the gateway.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/taskify/backend/domain"
)

var (
	bucketName  = []byte("snapshots")
	snapshotKey = []byte("tasks")
)

// Snapshot is a cached task list with its capture time.
type Snapshot struct {
	Tasks   []domain.Task `json:"tasks"`
	SavedAt time.Time     `json:"saved_at"`
}

// Store wraps BoltDB to persist the latest task snapshot across restarts.
type Store struct {
	db *bolt.DB
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Put replaces the cached snapshot.
func (s *Store) Put(tasks []domain.Task) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	payload, err := json.Marshal(Snapshot{Tasks: tasks, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(snapshotKey, payload)
	})
}

// Get returns the cached snapshot, or ok=false when none has been written.
func (s *Store) Get() (Snapshot, bool, error) {
	if s == nil || s.db == nil {
		return Snapshot{}, false, bolt.ErrDatabaseNotOpen
	}
	var snap Snapshot
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get(snapshotKey)
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &snap); err != nil {
			return err
		}
		found = true
		return nil
	})
	return snap, found, err
}

// Size returns the byte size of the cached snapshot, for health reporting.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var size int
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(bucketName).Get(snapshotKey); raw != nil {
			size = len(raw)
		}
		return nil
	})
	return size, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
