package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"safeguard/internal/audit"
	"safeguard/internal/consent/models"
	"safeguard/internal/consent/store"
	"safeguard/internal/org"
	dErrors "safeguard/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	service  *Service
	consents *store.InMemoryStore
	window   *audit.MemoryStore
	settings *org.StaticProvider
	clock    time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.clock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.consents = store.New()
	s.window = audit.NewMemoryStore(100)
	s.settings = org.NewStaticProvider(org.Settings{RequireConsent: true})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(
		s.consents,
		audit.NewPublisher(s.window, log),
		s.settings,
		log,
		WithClock(func() time.Time { return s.clock }),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) grant(studentID string, categories ...models.Category) *models.Record {
	record, err := s.service.Grant(context.Background(), "org-1", studentID, "guardian-1", models.TypeLimited, categories)
	s.Require().NoError(err)
	return record
}

func (s *ServiceSuite) check(subject models.Subject, feature string) models.Access {
	access, err := s.service.CheckFeatureAccess(context.Background(), "org-1", subject, feature)
	s.Require().NoError(err)
	return access
}

func youngStudent(id string) models.Subject {
	return models.Subject{ID: id, Role: models.RoleStudent, GradeLevel: 3} // estimated age 8
}

func (s *ServiceSuite) TestGrantEmitsAuditEntry() {
	record := s.grant("student-1", models.CategoryCommunication)
	assert.Equal(s.T(), models.StatusGranted, record.Status)
	assert.Equal(s.T(), s.clock, record.GrantedAt)

	entries, err := s.window.List(context.Background(), audit.Filter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), audit.ActionConsentGranted, entries[0].Action)
	assert.Equal(s.T(), "student-1", entries[0].MemberID)
	assert.Equal(s.T(), record.ID, entries[0].ResourceID)
}

func (s *ServiceSuite) TestGrantValidation() {
	_, err := s.service.Grant(context.Background(), "org-1", "", "g", models.TypeFull, []models.Category{models.CategoryAcademic})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = s.service.Grant(context.Background(), "org-1", "st", "g", models.Type("partial"), []models.Category{models.CategoryAcademic})
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = s.service.Grant(context.Background(), "org-1", "st", "g", models.TypeFull, nil)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ServiceSuite) TestYoungStudentDeniedWithoutConsent() {
	access := s.check(youngStudent("student-1"), "chat")
	assert.False(s.T(), access.Allowed)
	assert.NotEmpty(s.T(), access.Reason, "denial must always carry a reason")

	entries, err := s.window.List(context.Background(), audit.Filter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), entries, 1)
	assert.Equal(s.T(), audit.ActionConsentDenied, entries[0].Action)
	assert.Equal(s.T(), audit.StatusBlocked, entries[0].Status)
}

func (s *ServiceSuite) TestGrantThenAccessAllowed() {
	subject := youngStudent("student-1")
	require.False(s.T(), s.check(subject, "chat").Allowed)

	s.grant("student-1", models.CategoryCommunication)
	assert.True(s.T(), s.check(subject, "chat").Allowed)
	assert.True(s.T(), s.check(subject, "messaging").Allowed, "same category covers sibling features")
	assert.False(s.T(), s.check(subject, "grades").Allowed, "academic category not granted")
}

func (s *ServiceSuite) TestRevokeRestoresDenial() {
	subject := youngStudent("student-1")
	s.grant("student-1", models.CategoryCommunication, models.CategoryGamification)
	require.True(s.T(), s.check(subject, "chat").Allowed)

	revoked, err := s.service.Revoke(context.Background(), "org-1", "student-1", []models.Category{models.CategoryCommunication})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, revoked)

	assert.False(s.T(), s.check(subject, "chat").Allowed)

	entries, err := s.window.List(context.Background(), audit.Filter{})
	require.NoError(s.T(), err)
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(s.T(), actions, audit.ActionConsentRevoked)
}

func (s *ServiceSuite) TestRevokeNothingGrantedIsZeroNotError() {
	revoked, err := s.service.Revoke(context.Background(), "org-1", "student-9", []models.Category{models.CategoryAcademic})
	require.NoError(s.T(), err)
	assert.Zero(s.T(), revoked)

	// No revocation entry for a no-op.
	entries, err := s.window.List(context.Background(), audit.Filter{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), entries)
}

func (s *ServiceSuite) TestMostRecentGrantedWins() {
	subject := youngStudent("student-1")

	s.grant("student-1", models.CategoryCommunication)
	s.clock = s.clock.Add(time.Hour)
	newer := s.grant("student-1", models.CategoryCommunication)

	// Revoking just the newest record falls back to the older granted one.
	_, err := s.consents.MarkRevoked(context.Background(), newer.ID, s.clock.Add(time.Minute))
	require.NoError(s.T(), err)
	assert.True(s.T(), s.check(subject, "chat").Allowed)

	// Withdrawing through the service revokes everything left.
	revoked, err := s.service.Revoke(context.Background(), "org-1", "student-1", []models.Category{models.CategoryCommunication})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, revoked)
	assert.False(s.T(), s.check(subject, "chat").Allowed)
}

func (s *ServiceSuite) TestUnknownFeatureIsUngated() {
	assert.True(s.T(), s.check(youngStudent("student-1"), "calendar").Allowed)
}

func (s *ServiceSuite) TestTeachersAndAdultsAreNotGated() {
	teacher := models.Subject{ID: "t-1", Role: "teacher", GradeLevel: 0}
	assert.True(s.T(), s.check(teacher, "chat").Allowed)

	older := models.Subject{ID: "s-12", Role: models.RoleStudent, GradeLevel: 9} // estimated age 14
	assert.True(s.T(), s.check(older, "chat").Allowed, "over COPPA threshold for communication")
	assert.False(s.T(), s.check(older, "grades").Allowed, "academic keeps the higher threshold")
}

func (s *ServiceSuite) TestOrgWithoutConsentRequirementBypassesGating() {
	s.settings.SetOverride("org-1", org.Settings{RequireConsent: false})
	assert.True(s.T(), s.check(youngStudent("student-1"), "chat").Allowed)
}

func (s *ServiceSuite) TestNeedsGuardianConsent() {
	assert.True(s.T(), s.service.NeedsGuardianConsent(youngStudent("x"), models.CategoryCommunication))
	assert.False(s.T(), s.service.NeedsGuardianConsent(
		models.Subject{ID: "x", Role: models.RoleStudent, GradeLevel: 8}, // estimated age 13
		models.CategoryCommunication,
	))
	assert.True(s.T(), s.service.NeedsGuardianConsent(
		models.Subject{ID: "x", Role: models.RoleStudent, GradeLevel: 12}, // estimated age 17
		models.CategoryAcademic,
	))
	assert.False(s.T(), s.service.NeedsGuardianConsent(
		models.Subject{ID: "x", Role: "guardian"},
		models.CategoryAcademic,
	))
}
