package store

import (
	"context"
	"sync"
	"time"

	"safeguard/internal/consent/models"
)

// InMemoryStore keeps consent history in memory. It is the default backend
// when no database is configured and the fixture store for tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	byStudent map[string][]*models.Record
	byID      map[string]*models.Record
}

// New constructs an empty in-memory consent store.
func New() *InMemoryStore {
	return &InMemoryStore{
		byStudent: make(map[string][]*models.Record),
		byID:      make(map[string]*models.Record),
	}
}

func (s *InMemoryStore) Save(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneRecord(record)
	s.byStudent[cp.StudentID] = append(s.byStudent[cp.StudentID], cp)
	s.byID[cp.ID] = cp
	return nil
}

func (s *InMemoryStore) ListByStudent(_ context.Context, studentID string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := s.byStudent[studentID]
	out := make([]*models.Record, 0, len(records))
	for _, r := range records {
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (s *InMemoryStore) MarkRevoked(_ context.Context, recordID string, revokedAt time.Time) (*models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byID[recordID]
	if !ok || record.RevokedAt != nil {
		return nil, ErrNotFound
	}
	record.RevokedAt = &revokedAt
	record.Status = models.StatusRevoked
	return cloneRecord(record), nil
}

func cloneRecord(r *models.Record) *models.Record {
	cp := *r
	cp.Categories = append([]models.Category(nil), r.Categories...)
	if r.RevokedAt != nil {
		t := *r.RevokedAt
		cp.RevokedAt = &t
	}
	return &cp
}
