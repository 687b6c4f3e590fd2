package detect

import (
	"regexp"

	dErrors "safeguard/pkg/domain-errors"
)

// Matcher is the capability a rule needs: find and replace all
// non-overlapping occurrences of the rule's pattern. Built-in and custom
// rules share this interface so the detector and redactor never care which
// kind they hold.
type Matcher interface {
	Matches(text string) bool
	ReplaceAll(text, replacement string) string
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) Matches(text string) bool {
	return m.re.MatchString(text)
}

func (m regexMatcher) ReplaceAll(text, replacement string) string {
	return m.re.ReplaceAllLiteralString(text, replacement)
}

// NewPatternMatcher compiles a regular expression into a Matcher.
// Malformed patterns are rejected here, at registration time, so detection
// never has to handle a broken rule.
func NewPatternMatcher(pattern string) (Matcher, error) {
	if pattern == "" {
		return nil, dErrors.New(dErrors.CodeInvalidPattern, "pattern must not be empty")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidPattern, "pattern does not compile")
	}
	return regexMatcher{re: re}, nil
}

func mustPattern(pattern string) Matcher {
	return regexMatcher{re: regexp.MustCompile(pattern)}
}
