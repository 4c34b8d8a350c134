package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/palmgate/palmgate/internal/domain"
)

// Bucket names
var (
	bucketScreens = []byte("screens")
	bucketQueries = []byte("queries")
)

// MaxRecentQueries bounds the recent filter history.
const MaxRecentQueries = 10

// ScreenPrefs is what a list screen restores when it is opened again.
// It never holds list contents.
type ScreenPrefs struct {
	Status    string    `json:"status,omitempty"`
	Query     string    `json:"query,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrefsStore keeps per-screen preferences in BoltDB.
type PrefsStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewPrefsStore opens the store under baseDir, one database per server.
// An empty baseDir gives a memory-only store.
func NewPrefsStore(baseDir, serverURL string) (*PrefsStore, error) {
	if baseDir == "" {
		return &PrefsStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "prefs.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketScreens, bucketQueries} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PrefsStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *PrefsStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PrefsStore) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = slices.Clone(v)
		}
		return nil
	})
	if data == nil {
		return false
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *PrefsStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *PrefsStore) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucket); b != nil {
			return b.Delete([]byte(key))
		}
		return nil
	})
}

// === Screens ===

// Screen returns the saved preferences for r.
func (s *PrefsStore) Screen(r domain.Resource) (ScreenPrefs, bool) {
	var p ScreenPrefs
	ok := s.get(bucketScreens, string(r), &p)
	return p, ok
}

// SaveScreen stores p for r, stamping UpdatedAt.
func (s *PrefsStore) SaveScreen(r domain.Resource, p ScreenPrefs) error {
	p.UpdatedAt = time.Now().UTC()
	return s.set(bucketScreens, string(r), p)
}

// ForgetScreen removes the saved preferences for r.
func (s *PrefsStore) ForgetScreen(r domain.Resource) error {
	return s.delete(bucketScreens, string(r))
}

// === Recent queries ===

// RecentQueries returns recent filter queries, newest first.
func (s *PrefsStore) RecentQueries() []string {
	var qs []string
	s.get(bucketQueries, "recent", &qs)
	return qs
}

// AddRecentQuery records q as the newest query. Blank queries are ignored and
// a repeated query moves to the front.
func (s *PrefsStore) AddRecentQuery(q string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	qs := s.RecentQueries()
	qs = slices.DeleteFunc(qs, func(existing string) bool { return existing == q })
	qs = append([]string{q}, qs...)
	if len(qs) > MaxRecentQueries {
		qs = qs[:MaxRecentQueries]
	}
	return s.set(bucketQueries, "recent", qs)
}

// Reset wipes every bucket.
func (s *PrefsStore) Reset() error {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketScreens, bucketQueries} {
			if tx.Bucket(bucket) != nil {
				if err := tx.DeleteBucket(bucket); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}
