package detect

import "time"

// Severity ranks how dangerous a finding is. All decisioning compares
// severities through Rank, never through string ordering.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRanks is the single source of truth for severity ordering:
// critical > high > medium > low.
var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the numeric ordering of the severity. Unknown severities
// rank below low so malformed input can never escalate a decision.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// IsValid checks if the severity is one of the supported enum values.
func (s Severity) IsValid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Category partitions rules into PII detection and content violations.
// Policy treats the two differently at HIGH severity.
type Category string

const (
	CategoryPII     Category = "pii"
	CategoryContent Category = "content"
)

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return c == CategoryPII || c == CategoryContent
}

// Flag is a single detection result. Immutable once created.
type Flag struct {
	ID         string
	Rule       string
	Category   Category
	Severity   Severity
	Trigger    string
	DetectedAt time.Time
}

// Worst returns the highest severity across the flag set, or the empty
// severity for an empty set.
func Worst(flags []Flag) Severity {
	var worst Severity
	for _, f := range flags {
		if f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

// HasPII reports whether any flag in the set is a PII finding.
func HasPII(flags []Flag) bool {
	for _, f := range flags {
		if f.Category == CategoryPII {
			return true
		}
	}
	return false
}
