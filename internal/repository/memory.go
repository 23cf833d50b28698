package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"floodmap-api/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MemoryStore is a thread-safe in-process report store, used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]record
	logger  zerolog.Logger
}

func NewMemoryStore(logger zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]record),
		logger:  logger,
	}
}

// Put stores a raw record under id. A nil location produces a record that FetchAll skips.
func (s *MemoryStore) Put(id, title string, location *models.Coordinate, createdAt time.Time) {
	rec := record{ID: id, Title: title, CreatedAt: createdAt}
	if location != nil {
		rec.Latitude = floatPtr(location.Latitude)
		rec.Longitude = floatPtr(location.Longitude)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	s.records[id] = rec
}

func (s *MemoryStore) FetchAll(ctx context.Context) ([]models.FloodReport, error) {
	s.mu.RLock()
	records := make([]record, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id])
	}
	s.mu.RUnlock()

	return collectReports(records, s.logger), nil
}

func (s *MemoryStore) Create(ctx context.Context, report models.FloodReport) (models.FloodReport, error) {
	report.ID = uuid.NewString()
	s.Put(report.ID, report.Title, &report.Coordinate, report.CreatedAt)
	return report, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return &models.BackendError{Op: "delete", Err: fmt.Errorf("repository: %s: %w", id, models.ErrReportNotFound)}
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of stored records, malformed ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
