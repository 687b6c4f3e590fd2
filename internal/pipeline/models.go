package pipeline

import (
	"time"

	"safeguard/internal/detect"
)

// Message is one inbound chat message. Content is never overwritten;
// the redacted form lives in its own field.
type Message struct {
	ID         string
	OrgID      string
	SenderID   string
	SenderName string
	ChannelID  string
	Content    string
	Timestamp  time.Time

	IsBlocked       bool
	PIIRedacted     bool
	RedactedContent string
	Flags           []detect.Flag
}

// LedgerItem is a non-sendable free-text record (an item description).
// A CRITICAL finding opens a case rather than toggling visibility.
type LedgerItem struct {
	ID       string
	OrgID    string
	MemberID string
	Title    string
	Details  string

	PIIRedacted     bool
	RedactedDetails string
	Flags           []detect.Flag
	CaseID          string
}
