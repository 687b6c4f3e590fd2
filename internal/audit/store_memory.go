package audit

import (
	"context"
	"sync"
)

// MemoryStore is the bounded fast-access window over the audit trail:
// append-only, most-recent-first reads, oldest entry evicted once the
// capacity is reached. Durable retention is the Postgres store's job.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry // oldest first; reads walk backwards
	capacity int

	total   int
	blocked int
	flagged int
}

const defaultCapacity = 1000

// NewMemoryStore constructs a window holding at most capacity entries.
// Non-positive capacities fall back to the default of 1000.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryStore{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Append records an entry, evicting the oldest once over capacity.
// It never fails; the fast window is the availability side of the
// availability-over-durability tradeoff.
func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == s.capacity {
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:s.capacity-1]
	}
	s.entries = append(s.entries, entry)

	s.total++
	switch entry.Status {
	case StatusBlocked:
		s.blocked++
	case StatusFlagged:
		s.flagged++
	}
	return nil
}

// List returns entries most-recent-first. Filter fields AND-combine; an
// empty filter returns the whole window.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	out := make([]Entry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if filter.MemberID != "" && e.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		if filter.RiskLevel != "" && e.RiskLevel != filter.RiskLevel {
			continue
		}
		if filter.FlaggedOnly && !e.Flagged {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Len reports the number of entries currently in the window.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns monotonic counters over everything ever appended, so
// eviction never understates history.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		TotalEvents:  s.total,
		BlockedCount: s.blocked,
		FlaggedCount: s.flagged,
	}
}
