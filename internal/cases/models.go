package cases

import (
	"time"

	"safeguard/internal/detect"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusEscalated     Status = "escalated"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusResolved, StatusEscalated:
		return true
	}
	return false
}

// Action is one append-only step in a case's history.
type Action struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Notes     string
}

// Case is a longer-lived investigable record, distinct from a single audit
// entry. It mutates only through defined transitions; history is append-only.
type Case struct {
	ID        string
	OrgID     string
	MemberID  string
	Type      string
	Severity  detect.Severity
	Status    Status
	Evidence  string
	Actions   []Action
	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  *time.Time
}

// Clone returns a deep copy so callers can never mutate managed state.
func (c *Case) Clone() *Case {
	out := *c
	out.Actions = append([]Action(nil), c.Actions...)
	if c.ClosedAt != nil {
		closed := *c.ClosedAt
		out.ClosedAt = &closed
	}
	return &out
}

// Filter narrows case queries. Zero-valued fields are ignored; set fields
// AND-combine.
type Filter struct {
	MemberID string
	Status   Status
	Severity detect.Severity
	Limit    int
}

// Stats summarizes the caseload for the dashboard surface.
type Stats struct {
	OpenCases     int
	CriticalCases int
}
