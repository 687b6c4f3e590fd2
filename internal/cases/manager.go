// Package cases holds the compliance case lifecycle: open, investigating,
// resolved, escalated.
package cases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"safeguard/internal/detect"
	"safeguard/internal/platform/metrics"
	dErrors "safeguard/pkg/domain-errors"
)

// Manager owns all case state behind a mutex; request handlers call it
// concurrently. Operations on unknown ids return CodeNotFound rather than
// no-oping silently, so callers can distinguish a typo from a transition.
type Manager struct {
	mu    sync.Mutex
	cases map[string]*Case
	order []string // creation order, for deterministic listing

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithMetrics sets the metrics instance for the manager.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithClock injects time for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// NewManager constructs an empty case manager.
func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	mgr := &Manager{
		cases:  make(map[string]*Case),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// Open creates a case. CRITICAL severity cases are born escalated and skip
// the triage queue; everything else starts open.
func (m *Manager) Open(ctx context.Context, orgID, memberID, caseType, evidence string, severity detect.Severity) (*Case, error) {
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid severity: %s", severity))
	}
	if memberID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "member id required")
	}

	now := m.now()
	status := StatusOpen
	if severity == detect.SeverityCritical {
		status = StatusEscalated
	}
	c := &Case{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		MemberID:  memberID,
		Type:      caseType,
		Severity:  severity,
		Status:    status,
		Evidence:  evidence,
		CreatedAt: now,
		UpdatedAt: now,
		Actions: []Action{{
			Timestamp: now,
			Actor:     "system",
			Action:    "created",
			Notes:     fmt.Sprintf("case opened with status %s", status),
		}},
	}

	m.mu.Lock()
	m.cases[c.ID] = c
	m.order = append(m.order, c.ID)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "case opened",
		"case_id", c.ID,
		"member_id", memberID,
		"severity", string(severity),
		"status", string(status),
	)
	if m.metrics != nil {
		m.metrics.IncrementCasesOpened(string(severity))
		m.metrics.IncrementOpenCases()
	}
	return c.Clone(), nil
}

// Investigate moves an open case into active investigation.
func (m *Manager) Investigate(ctx context.Context, id, actor string) (*Case, error) {
	return m.transition(ctx, id, func(c *Case) error {
		if c.Status != StatusOpen {
			return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("cannot investigate case in status %s", c.Status))
		}
		c.Status = StatusInvestigating
		c.Actions = append(c.Actions, Action{
			Timestamp: m.now(),
			Actor:     actor,
			Action:    "investigation_started",
		})
		return nil
	})
}

// Resolve closes a case from any non-terminal status, appending exactly one
// resolution action and stamping ClosedAt.
func (m *Manager) Resolve(ctx context.Context, id, resolution, resolvedBy, notes string) (*Case, error) {
	c, err := m.transition(ctx, id, func(c *Case) error {
		if c.Status == StatusResolved {
			return dErrors.New(dErrors.CodeConflict, "case already resolved")
		}
		now := m.now()
		c.Status = StatusResolved
		c.ClosedAt = &now
		c.Actions = append(c.Actions, Action{
			Timestamp: now,
			Actor:     resolvedBy,
			Action:    "resolved: " + resolution,
			Notes:     notes,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.DecrementOpenCases()
	}
	return c, nil
}

// Escalate hands a case to higher-tier review.
func (m *Manager) Escalate(ctx context.Context, id, reason, actor string) (*Case, error) {
	return m.transition(ctx, id, func(c *Case) error {
		switch c.Status {
		case StatusResolved:
			return dErrors.New(dErrors.CodeConflict, "cannot escalate a resolved case")
		case StatusEscalated:
			return dErrors.New(dErrors.CodeConflict, "case already escalated")
		}
		c.Status = StatusEscalated
		c.Actions = append(c.Actions, Action{
			Timestamp: m.now(),
			Actor:     actor,
			Action:    "escalated",
			Notes:     reason,
		})
		return nil
	})
}

func (m *Manager) transition(ctx context.Context, id string, apply func(*Case) error) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("case %s not found", id))
	}
	if err := apply(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = m.now()

	m.logger.InfoContext(ctx, "case transition",
		"case_id", c.ID,
		"status", string(c.Status),
	)
	return c.Clone(), nil
}

// Get returns one case by id.
func (m *Manager) Get(_ context.Context, id string) (*Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("case %s not found", id))
	}
	return c.Clone(), nil
}

// List returns cases most-recent-first with AND-combined filters.
func (m *Manager) List(_ context.Context, filter Filter) []*Case {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = len(m.order)
	}

	out := make([]*Case, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		c := m.cases[m.order[i]]
		if filter.MemberID != "" && c.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Severity != "" && c.Severity != filter.Severity {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// Stats reports caseload counters for the dashboard surface. OpenCases
// counts everything not yet resolved, including escalations.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	for _, c := range m.cases {
		if c.Status != StatusResolved {
			s.OpenCases++
		}
		if c.Severity == detect.SeverityCritical {
			s.CriticalCases++
		}
	}
	return s
}
