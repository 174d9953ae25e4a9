package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/eugenenazirov/siteconf/internal/siteconf"
)

var (
	// ErrNotPublished indicates no configuration has been published yet.
	ErrNotPublished = errors.New("no configuration published")
	// ErrAlreadyPublished indicates a configuration was already published for this process.
	ErrAlreadyPublished = errors.New("configuration already published")
	// ErrInvalidSnapshot indicates a snapshot without a resolved configuration.
	ErrInvalidSnapshot = errors.New("snapshot must carry a resolved configuration")
)

// Snapshot pairs the merged source document with its resolved configuration.
type Snapshot struct {
	Source      siteconf.Document
	Resolved    *siteconf.Resolved
	PublishedAt time.Time
}

// Storage provides access to the configuration published at start-up.
type Storage interface {
	Active() (Snapshot, error)
	Publish(snapshot Snapshot) error
}

// MemoryStorage keeps the snapshot in memory. It accepts exactly one publish.
type MemoryStorage struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	clock    func() time.Time
}

// NewMemoryStorage initialises an empty storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Active returns the published snapshot.
func (s *MemoryStorage) Active() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return Snapshot{}, ErrNotPublished
	}
	return *s.snapshot, nil
}

// Publish stores snapshot, stamping PublishedAt when unset.
func (s *MemoryStorage) Publish(snapshot Snapshot) error {
	if snapshot.Resolved == nil {
		return ErrInvalidSnapshot
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil {
		return ErrAlreadyPublished
	}
	if snapshot.PublishedAt.IsZero() {
		snapshot.PublishedAt = s.clock()
	}
	s.snapshot = &snapshot
	return nil
}
