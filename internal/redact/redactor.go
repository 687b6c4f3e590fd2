// Package redact replaces detected PII spans with fixed category masks.
package redact

import (
	"safeguard/internal/detect"
)

// defaultMask is applied to PII categories without a dedicated mask,
// including custom PII rules registered at runtime.
const defaultMask = "[REDACTED]"

// masks are fixed per rule. None of them contains digits or an @-form, so
// re-running any PII matcher over already-masked text can never match
// again: redaction is idempotent by construction.
var masks = map[string]string{
	detect.RuleSSN:        "XXX-XX-XXXX",
	detect.RulePhone:      "(XXX) XXX-XXXX",
	detect.RuleEmail:      "[EMAIL REDACTED]",
	detect.RuleCreditCard: "XXXX-XXXX-XXXX-XXXX",
}

// Redactor masks every occurrence of flagged PII patterns in a text.
// The original text is never modified in place; callers keep it in a
// separate field.
type Redactor struct {
	registry *detect.Registry
}

// NewRedactor constructs a redactor over the same registry the detector
// uses, so custom PII rules redact with the default mask automatically.
func NewRedactor(registry *detect.Registry) *Redactor {
	return &Redactor{registry: registry}
}

// Redact replaces all occurrences of each flagged PII rule's pattern with
// that rule's mask. Content flags are ignored; only PII is masked.
// Redacting text with no PII flags returns it unchanged.
func (r *Redactor) Redact(text string, flags []detect.Flag) string {
	if text == "" {
		return text
	}
	out := text
	seen := make(map[string]bool, len(flags))
	for _, f := range flags {
		if f.Category != detect.CategoryPII || seen[f.Rule] {
			continue
		}
		seen[f.Rule] = true
		rule, ok := r.registry.Rule(f.Rule)
		if !ok {
			continue
		}
		out = rule.Matcher.ReplaceAll(out, Mask(f.Rule))
	}
	return out
}

// Mask returns the fixed replacement token for a rule name.
func Mask(ruleName string) string {
	if m, ok := masks[ruleName]; ok {
		return m
	}
	return defaultMask
}
