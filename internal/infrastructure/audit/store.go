package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/taskdeck/backend/domain"
)

// Store wraps BoltDB to keep a local append-only log of task mutations.
// Keys are timestamp-prefixed so a forward cursor walks entries oldest first.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = "activity"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Append persists one activity entry, assigning id and timestamp when unset.
func (s *Store) Append(entry domain.Activity) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := []byte(buildKey(entry))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(key, payload)
	})
}

// RecentByUser returns up to limit entries for the user, newest first.
func (s *Store) RecentByUser(userID string, limit int) ([]domain.Activity, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []domain.Activity
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry domain.Activity
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.UserID != userID {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Prune removes entries older than the provided timestamp and reports how
// many were dropped.
func (s *Store) Prune(olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var dropped int
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry domain.Activity
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.At.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
				dropped++
			}
		}
		return nil
	})
	return dropped, err
}

// Size returns the number of logged entries.
func (s *Store) Size() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func buildKey(entry domain.Activity) string {
	return fmt.Sprintf("%020d_%s", entry.At.UnixNano(), entry.ID)
}
