package detect

import (
	"time"

	"github.com/google/uuid"
)

// Detector runs the registry's rule set over input text. Detection is a
// pure function of (text, registry snapshot): the same input against the
// same rule set always yields the same flag sequence.
type Detector struct {
	registry *Registry
}

// NewDetector constructs a detector over the given registry.
func NewDetector(registry *Registry) *Detector {
	return &Detector{registry: registry}
}

// Detect returns one Flag per rule that matches at least once, in rule
// evaluation order. Flag volume is bounded by the rule count, not by
// occurrence count. Empty input never flags.
func (d *Detector) Detect(text string) []Flag {
	return d.detect(text, nil)
}

// DetectCategory restricts detection to rules of one category.
func (d *Detector) DetectCategory(text string, category Category) []Flag {
	return d.detect(text, &category)
}

func (d *Detector) detect(text string, category *Category) []Flag {
	if text == "" {
		return nil
	}

	var flags []Flag
	now := time.Now().UTC()
	for _, rule := range d.registry.Snapshot() {
		if category != nil && rule.Category != *category {
			continue
		}
		if !rule.Matcher.Matches(text) {
			continue
		}
		flags = append(flags, Flag{
			ID:         uuid.New().String(),
			Rule:       rule.Name,
			Category:   rule.Category,
			Severity:   rule.Severity,
			Trigger:    rule.Description,
			DetectedAt: now,
		})
	}
	return flags
}
