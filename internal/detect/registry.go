package detect

import (
	"fmt"
	"sync"

	dErrors "safeguard/pkg/domain-errors"
)

// Rule pairs a named pattern with its classification. Built-ins and
// runtime-registered custom rules are the same type.
type Rule struct {
	Name        string
	Description string
	Category    Category
	Severity    Severity
	Matcher     Matcher
}

// Registry holds the active detection rule set: built-ins first, then
// custom rules in registration order. Registration is administrative and
// rare; detection reads a consistent snapshot so a concurrent Register can
// never tear a running scan.
type Registry struct {
	mu    sync.RWMutex
	rules []Rule
	names map[string]int
}

// NewRegistry constructs a registry seeded with the built-in PII and
// content rules.
func NewRegistry() *Registry {
	builtins := builtinRules()
	names := make(map[string]int, len(builtins))
	for i, r := range builtins {
		names[r.Name] = i
	}
	return &Registry{rules: builtins, names: names}
}

// Register adds a custom rule evaluated after all existing rules.
// Malformed input is rejected here rather than silently dropped during
// detection.
func (r *Registry) Register(name, description string, category Category, severity Severity, pattern string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "rule name must not be empty")
	}
	if !category.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid category: %s", category))
	}
	if !severity.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid severity: %s", severity))
	}
	matcher, err := NewPatternMatcher(pattern)
	if err != nil {
		return err
	}
	if description == "" {
		description = fmt.Sprintf("Custom pattern %q matched", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("rule %q already registered", name))
	}
	r.names[name] = len(r.rules)
	r.rules = append(r.rules, Rule{
		Name:        name,
		Description: description,
		Category:    category,
		Severity:    severity,
		Matcher:     matcher,
	})
	return nil
}

// Snapshot returns a copy of the current rule set in evaluation order.
func (r *Registry) Snapshot() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Rule looks up a single rule by name.
func (r *Registry) Rule(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.names[name]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}
