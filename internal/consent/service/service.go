// Package service enforces the consent lifecycle and gates feature access
// for guarded subjects. It shares the audit path with the message pipeline
// so consent activity and content scanning land in one trail.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"safeguard/internal/audit"
	"safeguard/internal/consent/models"
	"safeguard/internal/consent/store"
	"safeguard/internal/org"
	"safeguard/internal/platform/metrics"
	dErrors "safeguard/pkg/domain-errors"
)

// Service persists consent decisions and answers feature gate checks.
type Service struct {
	store    store.Store
	durable  store.Store
	auditor  *audit.Publisher
	settings org.Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDurable attaches a durable store written best-effort after the
// primary store; its failures are logged, never surfaced.
func WithDurable(durable store.Store) Option {
	return func(s *Service) { s.durable = durable }
}

// WithClock injects time for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs the consent service.
func NewService(st store.Store, auditor *audit.Publisher, settings org.Provider, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    st,
		auditor:  auditor,
		settings: settings,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Grant records guardian consent for the given categories and emits one
// audit entry through the shared trail.
func (s *Service) Grant(ctx context.Context, orgID, studentID, guardianID string, consentType models.Type, categories []models.Category) (*models.Record, error) {
	record, err := models.NewRecord(
		fmt.Sprintf("consent_%s", uuid.New().String()),
		studentID,
		guardianID,
		consentType,
		categories,
		s.now(),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save consent")
	}
	s.writeDurable(record)

	s.auditor.Emit(ctx, audit.Entry{
		OrgID:      orgID,
		MemberID:   studentID,
		Action:     audit.ActionConsentGranted,
		Resource:   "consent_record",
		ResourceID: record.ID,
		Status:     audit.StatusAllowed,
		Metadata: map[string]string{
			"guardian_id":  guardianID,
			"consent_type": string(consentType),
			"categories":   categoriesLabel(categories),
		},
	})
	if s.metrics != nil {
		for _, c := range categories {
			s.metrics.IncrementConsentsGranted(string(c))
		}
	}
	return record, nil
}

// Revoke withdraws every granted record covering any of the given
// categories and reports how many records were revoked. Revoking when
// nothing is granted is not an error; zero comes back.
func (s *Service) Revoke(ctx context.Context, orgID, studentID string, categories []models.Category) (int, error) {
	if studentID == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "student id required")
	}
	for _, c := range categories {
		if !c.IsValid() {
			return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid category: %s", c))
		}
	}

	records, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consents")
	}

	now := s.now()
	revoked := 0
	for _, record := range records {
		if !record.IsGranted() || !coversAny(record, categories) {
			continue
		}
		updated, err := s.store.MarkRevoked(ctx, record.ID, now)
		if errors.Is(err, store.ErrNotFound) {
			// Revoked concurrently; nothing left for us to withdraw.
			continue
		}
		if err != nil {
			return revoked, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke consent")
		}
		s.revokeDurable(updated.ID, now)
		revoked++
		if s.metrics != nil {
			for _, c := range updated.Categories {
				s.metrics.IncrementConsentsRevoked(string(c))
			}
		}
	}

	if revoked > 0 {
		s.auditor.Emit(ctx, audit.Entry{
			OrgID:    orgID,
			MemberID: studentID,
			Action:   audit.ActionConsentRevoked,
			Resource: "consent_record",
			Status:   audit.StatusAllowed,
			Metadata: map[string]string{
				"categories":    categoriesLabel(categories),
				"revoked_count": fmt.Sprintf("%d", revoked),
			},
		})
	}
	return revoked, nil
}

// NeedsGuardianConsent reports whether the subject requires guardian
// consent for the category. Only students below the category's age
// threshold are gated; age is estimated from grade level.
func (s *Service) NeedsGuardianConsent(subject models.Subject, category models.Category) bool {
	if subject.Role != models.RoleStudent {
		return false
	}
	return subject.EstimatedAge() < category.AgeThreshold()
}

// CheckFeatureAccess answers whether the subject may use the feature.
// Unknown subjects resolve to "no consent", never an error, so gating
// always has a defined answer.
func (s *Service) CheckFeatureAccess(ctx context.Context, orgID string, subject models.Subject, feature string) (models.Access, error) {
	category, gated := models.FeatureCategory(feature)
	if !gated {
		return models.Access{Allowed: true}, nil
	}
	if !s.settings.Settings(ctx, orgID).RequireConsent {
		return models.Access{Allowed: true}, nil
	}
	if !s.NeedsGuardianConsent(subject, category) {
		return models.Access{Allowed: true}, nil
	}

	granted, err := s.latestGranted(ctx, subject.ID, category)
	if err != nil {
		return models.Access{}, err
	}
	if granted == nil {
		access := models.Access{
			Allowed: false,
			Reason:  fmt.Sprintf("guardian consent required for %s", category),
		}
		s.auditor.Emit(ctx, audit.Entry{
			OrgID:      orgID,
			MemberID:   subject.ID,
			Action:     audit.ActionConsentDenied,
			Resource:   "feature",
			ResourceID: feature,
			Status:     audit.StatusBlocked,
			Metadata:   map[string]string{"category": string(category)},
		})
		if s.metrics != nil {
			s.metrics.IncrementConsentCheckFailed(string(category))
		}
		return access, nil
	}

	if s.metrics != nil {
		s.metrics.IncrementConsentCheckPassed(string(category))
	}
	return models.Access{Allowed: true}, nil
}

// latestGranted selects the effective record for (student, category): the
// most recent granted record covering the category, chosen by GrantedAt.
// The invariant is enforced here explicitly, never by store list order.
func (s *Service) latestGranted(ctx context.Context, studentID string, category models.Category) (*models.Record, error) {
	records, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read consents")
	}
	var latest *models.Record
	for _, record := range records {
		if !record.IsGranted() || !record.Covers(category) {
			continue
		}
		if latest == nil || record.GrantedAt.After(latest.GrantedAt) {
			latest = record
		}
	}
	return latest, nil
}

// writeDurable mirrors a record to the durable backend without awaiting
// success; a down datastore must never block a consent decision.
func (s *Service) writeDurable(record *models.Record) {
	if s.durable == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.durable.Save(ctx, record); err != nil {
			s.logger.Warn("durable consent write failed",
				"error", err,
				"record_id", record.ID,
			)
		}
	}()
}

// revokeDurable mirrors a revocation to the durable backend, fire-and-forget.
func (s *Service) revokeDurable(recordID string, at time.Time) {
	if s.durable == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.durable.MarkRevoked(ctx, recordID, at); err != nil {
			s.logger.Warn("durable consent revoke failed",
				"error", err,
				"record_id", recordID,
			)
		}
	}()
}

func coversAny(record *models.Record, categories []models.Category) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if record.Covers(c) {
			return true
		}
	}
	return false
}

func categoriesLabel(categories []models.Category) string {
	label := ""
	for i, c := range categories {
		if i > 0 {
			label += ","
		}
		label += string(c)
	}
	return label
}
