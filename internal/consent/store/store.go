// Package store persists consent records.
//
// Error contract: Save returns nil on success; ListByStudent returns an
// empty slice, never an error, for unknown students so gating always has a
// defined answer; MarkRevoked returns ErrNotFound when no matching granted
// record exists.
package store

import (
	"context"
	"time"

	"safeguard/internal/consent/models"
	"safeguard/internal/sentinel"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
// Services translate it into a domain error exactly once.
var ErrNotFound = sentinel.ErrNotFound

// Store is the persistence interface for consent records. The store keeps
// the full record history; selecting the effective record is the service's
// job, never the store's list order.
type Store interface {
	Save(ctx context.Context, record *models.Record) error
	ListByStudent(ctx context.Context, studentID string) ([]*models.Record, error)
	MarkRevoked(ctx context.Context, recordID string, revokedAt time.Time) (*models.Record, error)
}
