package models

import (
	"time"

	dErrors "safeguard/pkg/domain-errors"
)

// Type is the grade of consent a guardian granted.
type Type string

const (
	TypeFull              Type = "full"
	TypeLimited           Type = "limited"
	TypeCommunicationOnly Type = "communication_only"
	TypeNone              Type = "none"
	TypePending           Type = "pending"
)

// IsValid checks if the consent type is one of the supported enum values.
func (t Type) IsValid() bool {
	switch t {
	case TypeFull, TypeLimited, TypeCommunicationOnly, TypeNone, TypePending:
		return true
	}
	return false
}

// Status represents the lifecycle state of a consent record.
type Status string

const (
	StatusPending Status = "pending"
	StatusGranted Status = "granted"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Category labels a bucket of subject data or features that requires
// guardian approval. Category binding allows selective revocation.
type Category string

const (
	CategoryCommunication Category = "communication"
	CategoryGamification  Category = "gamification"
	CategoryBasicInfo     Category = "basic_info"
	CategoryAcademic      Category = "academic"
	CategoryAnalytics     Category = "analytics"
)

// ValidCategories is the single source of truth for valid consent categories.
var ValidCategories = map[Category]bool{
	CategoryCommunication: true,
	CategoryGamification:  true,
	CategoryBasicInfo:     true,
	CategoryAcademic:      true,
	CategoryAnalytics:     true,
}

// IsValid checks if the category is one of the supported enum values.
func (c Category) IsValid() bool {
	return ValidCategories[c]
}

// AgeThreshold returns the age below which guardian consent is required
// for this category: COPPA's 13 for communication and gamification, the
// school-age 18 for everything touching records.
func (c Category) AgeThreshold() int {
	switch c {
	case CategoryCommunication, CategoryGamification:
		return 13
	default:
		return 18
	}
}

// Record captures one guardian consent decision for a student. Records are
// never updated in place except to set RevokedAt; history stays in the
// store and the most recent granted record per (student, category) wins.
type Record struct {
	ID         string
	StudentID  string
	GuardianID string
	Type       Type
	Categories []Category
	GrantedAt  time.Time
	RevokedAt  *time.Time
	Status     Status
}

// Covers reports whether the record includes the given category.
func (r Record) Covers(category Category) bool {
	for _, c := range r.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// IsGranted reports whether the record currently authorizes access.
func (r Record) IsGranted() bool {
	return r.Status == StatusGranted && r.RevokedAt == nil
}

// NewRecord creates a Record with domain invariant checks.
func NewRecord(id, studentID, guardianID string, consentType Type, categories []Category, grantedAt time.Time) (*Record, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "consent id required")
	}
	if studentID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "student id required")
	}
	if !consentType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid consent type")
	}
	if len(categories) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "at least one category required")
	}
	for _, c := range categories {
		if !c.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid consent category")
		}
	}
	return &Record{
		ID:         id,
		StudentID:  studentID,
		GuardianID: guardianID,
		Type:       consentType,
		Categories: categories,
		GrantedAt:  grantedAt,
		Status:     StatusGranted,
	}, nil
}

// Subject is the person whose feature access is gated. Age is estimated
// from grade level (grade + 5), a heuristic, not a birthdate.
type Subject struct {
	ID         string
	Role       string
	GradeLevel int
}

// EstimatedAge derives age from grade level.
func (s Subject) EstimatedAge() int {
	return s.GradeLevel + 5
}

// RoleStudent marks subjects whose access is consent-gated.
const RoleStudent = "student"

// Access is the result of a feature gate check.
type Access struct {
	Allowed bool
	Reason  string
}
