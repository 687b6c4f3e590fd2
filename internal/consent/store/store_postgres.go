package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"safeguard/internal/consent/models"
)

// PostgresStore persists consent records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("consent record is required")
	}
	query := `
		INSERT INTO consents
			(id, student_id, guardian_id, consent_type, categories, granted_at, revoked_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.StudentID,
		record.GuardianID,
		string(record.Type),
		joinCategories(record.Categories),
		record.GrantedAt,
		record.RevokedAt,
		string(record.Status),
	)
	if err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID string) ([]*models.Record, error) {
	query := `
		SELECT id, student_id, guardian_id, consent_type, categories, granted_at, revoked_at, status
		FROM consents
		WHERE student_id = $1
		ORDER BY granted_at
	`
	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanConsent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, recordID string, revokedAt time.Time) (*models.Record, error) {
	query := `
		UPDATE consents
		SET revoked_at = $2, status = $3
		WHERE id = $1 AND revoked_at IS NULL
		RETURNING id, student_id, guardian_id, consent_type, categories, granted_at, revoked_at, status
	`
	record, err := scanConsent(s.db.QueryRowContext(ctx, query, recordID, revokedAt, string(models.StatusRevoked)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("revoke consent: %w", err)
	}
	return record, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsent(row rowScanner) (*models.Record, error) {
	var (
		record     models.Record
		typ        string
		categories string
		status     string
		revokedAt  sql.NullTime
	)
	if err := row.Scan(
		&record.ID,
		&record.StudentID,
		&record.GuardianID,
		&typ,
		&categories,
		&record.GrantedAt,
		&revokedAt,
		&status,
	); err != nil {
		return nil, err
	}
	record.Type = models.Type(typ)
	record.Categories = splitCategories(categories)
	record.Status = models.Status(status)
	if revokedAt.Valid {
		record.RevokedAt = &revokedAt.Time
	}
	return &record, nil
}

func joinCategories(categories []models.Category) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitCategories(s string) []models.Category {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]models.Category, len(parts))
	for i, p := range parts {
		out[i] = models.Category(p)
	}
	return out
}
