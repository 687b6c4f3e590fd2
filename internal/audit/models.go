package audit

import (
	"time"

	"safeguard/internal/detect"
)

// Status records the final disposition of the audited event.
type Status string

const (
	StatusAllowed     Status = "allowed"
	StatusFlagged     Status = "flagged"
	StatusBlocked     Status = "blocked"
	StatusQuarantined Status = "quarantined"
	StatusPending     Status = "pending"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusAllowed, StatusFlagged, StatusBlocked, StatusQuarantined, StatusPending:
		return true
	}
	return false
}

// Actions describe what operation produced the entry.
const (
	ActionMessageScanned  = "message_scanned"
	ActionLedgerScanned   = "ledger_item_scanned"
	ActionConsentGranted  = "consent_granted"
	ActionConsentRevoked  = "consent_revoked"
	ActionConsentDenied   = "consent_check_failed"
	ActionCaseOpened      = "case_opened"
	ActionPatternAdded    = "pattern_registered"
)

// Entry is one immutable audit record. It is never mutated after creation;
// correction happens by appending new entries.
type Entry struct {
	ID         string
	OrgID      string
	MemberID   string
	Timestamp  time.Time
	Action     string
	Resource   string
	ResourceID string
	Status     Status
	RiskLevel  detect.Severity
	Flagged    bool
	Trigger    string
	Metadata   map[string]string
}

// Filter narrows audit queries. Zero-valued fields are ignored; set fields
// AND-combine. A zero Limit returns the full fast-access window.
type Filter struct {
	MemberID    string
	Status      Status
	RiskLevel   detect.Severity
	FlaggedOnly bool
	Limit       int
}

// Stats summarizes the audit trail for the dashboard surface. Counters are
// monotonic over the process lifetime; window eviction does not decrease them.
type Stats struct {
	TotalEvents  int
	BlockedCount int
	FlaggedCount int
}
