package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists audit entries in PostgreSQL. It backs the durable
// side of the trail; the engine never waits on it before returning a
// decision.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	query := `
		INSERT INTO audit_entries
			(id, org_id, member_id, ts, action, resource, resource_id,
			 status, risk_level, flagged, trigger, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.OrgID,
		entry.MemberID,
		entry.Timestamp,
		entry.Action,
		entry.Resource,
		nullable(entry.ResourceID),
		string(entry.Status),
		string(entry.RiskLevel),
		entry.Flagged,
		nullable(entry.Trigger),
		metadata,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// EnforceRetention deletes entries older than the retention window and
// reports how many rows were removed. An empty orgID prunes every org.
func (s *PostgresStore) EnforceRetention(ctx context.Context, orgID string, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	var (
		res sql.Result
		err error
	)
	if orgID == "" {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM audit_entries
			WHERE ts < now() - make_interval(days => $1)
		`, retentionDays)
	} else {
		res, err = s.db.ExecContext(ctx, `
			DELETE FROM audit_entries
			WHERE org_id = $1 AND ts < now() - make_interval(days => $2)
		`, orgID, retentionDays)
	}
	if err != nil {
		return 0, fmt.Errorf("enforce audit retention: %w", err)
	}
	return res.RowsAffected()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
