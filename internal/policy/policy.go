// Package policy converts a flag set plus organization settings into an
// allow/flag/block decision.
package policy

import (
	"safeguard/internal/detect"
)

// Decision enumerates the possible outcomes for a scanned item.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionFlag  Decision = "flag"
	DecisionBlock Decision = "block"
)

// Evaluate applies the blocking rule:
//
//	BLOCK when blockOnPII is set AND the flag set contains a CRITICAL flag,
//	or a HIGH flag whose category is PII;
//	FLAG when any flags exist;
//	ALLOW otherwise.
//
// A HIGH content violation alone never blocks; it is logged for review
// without disrupting delivery. PII at HIGH or above halts distribution
// when the org policy is active.
func Evaluate(flags []detect.Flag, blockOnPII bool) Decision {
	if len(flags) == 0 {
		return DecisionAllow
	}
	if blockOnPII {
		for _, f := range flags {
			if f.Severity == detect.SeverityCritical {
				return DecisionBlock
			}
			if f.Severity == detect.SeverityHigh && f.Category == detect.CategoryPII {
				return DecisionBlock
			}
		}
	}
	return DecisionFlag
}
