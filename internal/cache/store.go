package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var analysisBucket = []byte("analysis")

type storedEntry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

// Store is the on-disk cache for analysis artifacts that survive
// across runs (PR file lists, diff text, reports). Backed by a single
// bbolt file so CI caching only needs to preserve one path.
type Store struct {
	db  *bolt.DB
	ttl time.Duration
}

// OpenStore opens (or creates) the cache database in dir.
func OpenStore(dir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(filepath.Join(dir, "analysis.db"), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(analysisBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Get unmarshals the cached value for key into out. Expired or absent
// entries report false.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(analysisBucket).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return false, err
	}

	var entry storedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry, treat as miss
		return false, nil
	}
	if s.ttl > 0 && time.Since(entry.StoredAt) > s.ttl {
		return false, nil
	}
	if err := json.Unmarshal(entry.Value, out); err != nil {
		return false, nil
	}
	return true, nil
}

// Set stores a value under key.
func (s *Store) Set(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(storedEntry{StoredAt: time.Now(), Value: payload})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(analysisBucket).Put([]byte(key), raw)
	})
}

// Invalidate removes a cached value.
func (s *Store) Invalidate(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(analysisBucket).Delete([]byte(key))
	})
}

// Clear removes all cached data.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(analysisBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(analysisBucket)
		return err
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MakeKey builds a stable, filesystem-safe key from parts.
func MakeKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:8])
}
