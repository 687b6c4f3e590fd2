package audit

import (
	"context"
)

// Store is the durable sink for audit entries. Implementations must treat
// Append as insert-only; entries are immutable.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}

// RetentionStore is implemented by durable stores that can enforce an
// organization's retention window.
type RetentionStore interface {
	Store
	EnforceRetention(ctx context.Context, orgID string, retentionDays int) (int64, error)
}
