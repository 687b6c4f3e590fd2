package detect

// Canonical rule names. Callers (redaction masks, audit triggers, custom
// pattern validation) key off these.
const (
	RuleSSN           = "ssn"
	RulePhone         = "phone"
	RuleEmail         = "email"
	RuleCreditCard    = "credit_card"
	RuleDateOfBirth   = "date_of_birth"
	RuleStreetAddress = "street_address"
	RuleProfanity     = "profanity"
	RuleViolence      = "violence"
	RuleSelfHarm      = "self_harm"
)

// builtinRules returns the fixed detection rule set in evaluation order.
// PII rules use delimited-digit-group formats on purpose: requiring
// separators keeps a 16-digit card number from tripping the phone rule and
// keeps replacement masks (which carry no digits) from ever re-matching.
func builtinRules() []Rule {
	return []Rule{
		{
			Name:        RuleSSN,
			Description: "Social Security number detected",
			Category:    CategoryPII,
			Severity:    SeverityCritical,
			Matcher:     mustPattern(`\b\d{3}-\d{2}-\d{4}\b`),
		},
		{
			Name:        RulePhone,
			Description: "Phone number detected",
			Category:    CategoryPII,
			Severity:    SeverityHigh,
			Matcher:     mustPattern(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`),
		},
		{
			Name:        RuleEmail,
			Description: "Email address detected",
			Category:    CategoryPII,
			Severity:    SeverityMedium,
			Matcher:     mustPattern(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		},
		{
			Name:        RuleCreditCard,
			Description: "Credit card number detected",
			Category:    CategoryPII,
			Severity:    SeverityCritical,
			Matcher:     mustPattern(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{3,4}\b`),
		},
		{
			Name:        RuleDateOfBirth,
			Description: "Date of birth detected",
			Category:    CategoryPII,
			Severity:    SeverityHigh,
			Matcher:     mustPattern(`\b(0?[1-9]|1[0-2])/(0?[1-9]|[12][0-9]|3[01])/((19|20)\d{2})\b`),
		},
		{
			Name:        RuleStreetAddress,
			Description: "Street address detected",
			Category:    CategoryPII,
			Severity:    SeverityHigh,
			Matcher:     mustPattern(`(?i)\b\d{1,6}\s+(?:[a-z0-9.'-]+\s+){1,5}(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl)\b`),
		},
		{
			Name:        RuleProfanity,
			Description: "Profanity detected",
			Category:    CategoryContent,
			Severity:    SeverityLow,
			Matcher:     mustPattern(`(?i)\b(damn|hell|crap|piss|bastard|bitch|shit|fuck|asshole)\b`),
		},
		{
			Name:        RuleViolence,
			Description: "Violent language detected",
			Category:    CategoryContent,
			Severity:    SeverityMedium,
			Matcher:     mustPattern(`(?i)\b(kill you|murder|attack|shoot|stab|beat you|hurt you|weapon|gun|knife)\b`),
		},
		{
			Name:        RuleSelfHarm,
			Description: "Self-harm language detected",
			Category:    CategoryContent,
			Severity:    SeverityCritical,
			Matcher:     mustPattern(`(?i)\b(suicide|self[- ]harm|kill myself|hurt myself|end my life|want to die|cutting myself)\b`),
		},
	}
}
