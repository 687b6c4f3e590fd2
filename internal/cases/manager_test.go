package cases

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"safeguard/internal/detect"
	dErrors "safeguard/pkg/domain-errors"
)

type ManagerSuite struct {
	suite.Suite
	manager *Manager
	clock   time.Time
}

func (s *ManagerSuite) SetupTest() {
	s.clock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.manager = NewManager(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return s.clock }),
	)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) open(severity detect.Severity) *Case {
	c, err := s.manager.Open(context.Background(), "org-1", "member-1", "content_violation", "redacted evidence", severity)
	s.Require().NoError(err)
	return c
}

func (s *ManagerSuite) TestOpenDefaultsToOpenStatus() {
	c := s.open(detect.SeverityHigh)
	assert.Equal(s.T(), StatusOpen, c.Status)
	assert.NotEmpty(s.T(), c.ID)
	assert.Equal(s.T(), s.clock, c.CreatedAt)
	require.Len(s.T(), c.Actions, 1)
	assert.Equal(s.T(), "created", c.Actions[0].Action)
	assert.Equal(s.T(), "system", c.Actions[0].Actor)
}

func (s *ManagerSuite) TestCriticalBornEscalated() {
	c := s.open(detect.SeverityCritical)
	assert.Equal(s.T(), StatusEscalated, c.Status)
}

func (s *ManagerSuite) TestOpenValidation() {
	_, err := s.manager.Open(context.Background(), "org-1", "", "t", "", detect.SeverityHigh)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.manager.Open(context.Background(), "org-1", "m", "t", "", detect.Severity("extreme"))
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ManagerSuite) TestInvestigate() {
	c := s.open(detect.SeverityMedium)

	s.clock = s.clock.Add(time.Hour)
	got, err := s.manager.Investigate(context.Background(), c.ID, "analyst-7")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusInvestigating, got.Status)
	assert.Equal(s.T(), s.clock, got.UpdatedAt)
	require.Len(s.T(), got.Actions, 2)
	assert.Equal(s.T(), "analyst-7", got.Actions[1].Actor)
}

func (s *ManagerSuite) TestInvestigateRequiresOpen() {
	c := s.open(detect.SeverityCritical) // born escalated
	_, err := s.manager.Investigate(context.Background(), c.ID, "analyst-7")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ManagerSuite) TestResolve() {
	c := s.open(detect.SeverityHigh)

	got, err := s.manager.Resolve(context.Background(), c.ID, "false_positive", "analyst-7", "benign phrase")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusResolved, got.Status)
	require.NotNil(s.T(), got.ClosedAt)
	assert.Equal(s.T(), s.clock, *got.ClosedAt)
	require.Len(s.T(), got.Actions, 2)
	assert.Equal(s.T(), "resolved: false_positive", got.Actions[1].Action)
}

func (s *ManagerSuite) TestResolveTwiceConflicts() {
	c := s.open(detect.SeverityHigh)
	_, err := s.manager.Resolve(context.Background(), c.ID, "done", "a", "")
	require.NoError(s.T(), err)

	_, err = s.manager.Resolve(context.Background(), c.ID, "again", "a", "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ManagerSuite) TestEscalate() {
	c := s.open(detect.SeverityMedium)
	got, err := s.manager.Escalate(context.Background(), c.ID, "guardian complaint", "analyst-7")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusEscalated, got.Status)
}

func (s *ManagerSuite) TestEscalateTerminalStatesConflict() {
	resolved := s.open(detect.SeverityLow)
	_, err := s.manager.Resolve(context.Background(), resolved.ID, "done", "a", "")
	require.NoError(s.T(), err)
	_, err = s.manager.Escalate(context.Background(), resolved.ID, "", "a")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))

	escalated := s.open(detect.SeverityCritical)
	_, err = s.manager.Escalate(context.Background(), escalated.ID, "", "a")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ManagerSuite) TestUnknownIDIsNotFound() {
	for _, op := range []func() error{
		func() error { _, err := s.manager.Get(context.Background(), "nope"); return err },
		func() error { _, err := s.manager.Investigate(context.Background(), "nope", "a"); return err },
		func() error { _, err := s.manager.Resolve(context.Background(), "nope", "r", "a", ""); return err },
		func() error { _, err := s.manager.Escalate(context.Background(), "nope", "r", "a"); return err },
	} {
		err := op()
		require.Error(s.T(), err)
		assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeNotFound))
	}
}

func (s *ManagerSuite) TestListNewestFirstWithFilters() {
	first := s.open(detect.SeverityLow)
	s.open(detect.SeverityCritical)
	third := s.open(detect.SeverityCritical)

	all := s.manager.List(context.Background(), Filter{})
	require.Len(s.T(), all, 3)
	assert.Equal(s.T(), third.ID, all[0].ID)
	assert.Equal(s.T(), first.ID, all[2].ID)

	critical := s.manager.List(context.Background(), Filter{Severity: detect.SeverityCritical})
	assert.Len(s.T(), critical, 2)

	limited := s.manager.List(context.Background(), Filter{Limit: 1})
	require.Len(s.T(), limited, 1)
	assert.Equal(s.T(), third.ID, limited[0].ID)
}

func (s *ManagerSuite) TestStats() {
	s.open(detect.SeverityCritical)
	s.open(detect.SeverityHigh)
	low := s.open(detect.SeverityLow)
	_, err := s.manager.Resolve(context.Background(), low.ID, "done", "a", "")
	require.NoError(s.T(), err)

	stats := s.manager.Stats()
	assert.Equal(s.T(), 2, stats.OpenCases)
	assert.Equal(s.T(), 1, stats.CriticalCases)
}

func (s *ManagerSuite) TestReturnedCaseIsACopy() {
	c := s.open(detect.SeverityHigh)
	c.Status = StatusResolved
	c.Actions[0].Action = "tampered"

	fresh, err := s.manager.Get(context.Background(), c.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), StatusOpen, fresh.Status)
	assert.Equal(s.T(), "created", fresh.Actions[0].Action)
}
