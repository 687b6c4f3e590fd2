package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"safeguard/internal/detect"
)

type RedactorSuite struct {
	suite.Suite
	registry *detect.Registry
	detector *detect.Detector
	redactor *Redactor
}

func (s *RedactorSuite) SetupTest() {
	s.registry = detect.NewRegistry()
	s.detector = detect.NewDetector(s.registry)
	s.redactor = NewRedactor(s.registry)
}

func TestRedactorSuite(t *testing.T) {
	suite.Run(t, new(RedactorSuite))
}

func (s *RedactorSuite) redact(text string) string {
	return s.redactor.Redact(text, s.detector.Detect(text))
}

func (s *RedactorSuite) TestSSNMask() {
	assert.Equal(s.T(), "My SSN is XXX-XX-XXXX", s.redact("My SSN is 123-45-6789"))
}

func (s *RedactorSuite) TestPhoneMask() {
	assert.Equal(s.T(), "call me at (XXX) XXX-XXXX", s.redact("call me at 555-123-4567"))
}

func (s *RedactorSuite) TestEmailMask() {
	assert.Equal(s.T(), "reach [EMAIL REDACTED] today", s.redact("reach coach@club.org today"))
}

func (s *RedactorSuite) TestCreditCardMask() {
	assert.Equal(s.T(), "card XXXX-XXXX-XXXX-XXXX on file", s.redact("card 4111-1111-1111-1111 on file"))
}

func (s *RedactorSuite) TestAllOccurrencesMasked() {
	got := s.redact("first 111-22-3333 then 444-55-6666")
	assert.Equal(s.T(), "first XXX-XX-XXXX then XXX-XX-XXXX", got)
}

func (s *RedactorSuite) TestMixedPIITypes() {
	got := s.redact("ssn 123-45-6789 email kid@school.edu")
	assert.Equal(s.T(), "ssn XXX-XX-XXXX email [EMAIL REDACTED]", got)
}

func (s *RedactorSuite) TestContentFlagsLeaveTextAlone() {
	text := "I will hurt you"
	flags := s.detector.Detect(text)
	require.NotEmpty(s.T(), flags)
	assert.Equal(s.T(), text, s.redactor.Redact(text, flags))
}

func (s *RedactorSuite) TestNoFlagsReturnsTextUnchanged() {
	assert.Equal(s.T(), "clean text", s.redactor.Redact("clean text", nil))
}

func (s *RedactorSuite) TestIdempotent() {
	for _, text := range []string{
		"My SSN is 123-45-6789",
		"call me at (555) 123-4567 or mail a@b.co",
		"card 4111 1111 1111 1111, born 4/15/2012, at 9 Oak Lane",
	} {
		once := s.redact(text)
		twice := s.redact(once)
		assert.Equal(s.T(), once, twice, "text: %q", text)
	}
}

func (s *RedactorSuite) TestCustomRuleGetsDefaultMask() {
	require.NoError(s.T(),
		s.registry.Register("student_id", "Student ID detected", detect.CategoryPII, detect.SeverityHigh, `\bSID-\d{6}\b`))
	assert.Equal(s.T(), "badge [REDACTED] issued", s.redact("badge SID-004211 issued"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "XXX-XX-XXXX", Mask(detect.RuleSSN))
	assert.Equal(t, "[REDACTED]", Mask("anything_else"))
}
