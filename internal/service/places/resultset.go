package places

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mekedron/placetour/internal/domain"
)

// ResultSet is the place list produced by one successful search.
type ResultSet struct {
	ID        string
	Center    domain.GeoPoint
	CreatedAt time.Time

	mu         sync.RWMutex
	records    []domain.PlaceRecord
	superseded bool

	ctx        context.Context
	cancel     context.CancelFunc
	photosDone chan struct{}
}

func newResultSet(center domain.GeoPoint, records []domain.PlaceRecord) *ResultSet {
	ctx, cancel := context.WithCancel(context.Background())
	return &ResultSet{
		ID:         uuid.NewString(),
		Center:     center,
		CreatedAt:  time.Now().UTC(),
		records:    records,
		ctx:        ctx,
		cancel:     cancel,
		photosDone: make(chan struct{}),
	}
}

// Len returns the number of places.
func (s *ResultSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of the places in provider rank order.
func (s *ResultSet) Snapshot() []domain.PlaceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PlaceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Place returns a copy of the place at index.
func (s *ResultSet) Place(index int) (domain.PlaceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.records) {
		return domain.PlaceRecord{}, false
	}
	return s.records[index], true
}

// Superseded reports whether a newer result set replaced this one.
func (s *ResultSet) Superseded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.superseded
}

// PhotosDone is closed once every photo fetch of the set has ended.
func (s *ResultSet) PhotosDone() <-chan struct{} {
	return s.photosDone
}

func (s *ResultSet) supersede() {
	s.mu.Lock()
	s.superseded = true
	s.mu.Unlock()
	s.cancel()
}

// attach stores img on the place at index unless the set was superseded or
// the place already has a photo.
func (s *ResultSet) attach(index int, img *domain.Image) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.superseded || index < 0 || index >= len(s.records) {
		return false
	}
	if s.records[index].Photo != nil {
		return false
	}
	photo := *img
	s.records[index].Photo = &photo
	return true
}

type photoJob struct {
	index int
	key   string
}

func (s *ResultSet) photoJobs() []photoJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var jobs []photoJob
	for i, record := range s.records {
		if record.HasPhotoKey() {
			jobs = append(jobs, photoJob{index: i, key: record.PhotoKey})
		}
	}
	return jobs
}
