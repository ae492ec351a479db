package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/forecast-display/internal/render"
)

var (
	// ErrNotFound is returned when nothing has been rendered yet.
	ErrNotFound = errors.New("no frame rendered yet")
)

// Snapshot is one frame as it was drawn.
type Snapshot struct {
	Frame      render.Frame `json:"frame"`
	RenderedAt time.Time    `json:"renderedAt"` // always UTC
}

// MemoryStore is a concurrency-safe, bounded history of rendered frames.
// The refresh loop writes to it; the status API reads from it.
type MemoryStore struct {
	mu sync.RWMutex

	snapshots []Snapshot

	// retention configuration
	maxHistory int // max number of snapshots kept
}

// NewMemoryStore creates a new MemoryStore.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
	}
}

// Record appends a frame and enforces retention. It satisfies
// refresh.Recorder.
func (s *MemoryStore) Record(f render.Frame, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, Snapshot{Frame: f, RenderedAt: at.UTC()})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.snapshots) > s.maxHistory {
		over := len(s.snapshots) - s.maxHistory
		s.snapshots = append([]Snapshot(nil), s.snapshots[over:]...)
	}
}

// GetLatest returns the most recently rendered frame.
func (s *MemoryStore) GetLatest() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return s.snapshots[len(s.snapshots)-1], nil
}

// GetRecent returns up to limit snapshots, newest first.
func (s *MemoryStore) GetRecent(limit int) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, ErrNotFound
	}
	if limit <= 0 || limit > len(s.snapshots) {
		limit = len(s.snapshots)
	}

	result := make([]Snapshot, 0, limit)
	for i := len(s.snapshots) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.snapshots[i])
	}
	return result, nil
}
