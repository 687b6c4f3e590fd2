package httptransport

import (
	"net/http"
	"time"

	"safeguard/internal/detect"
	"safeguard/internal/pipeline"
	dErrors "safeguard/pkg/domain-errors"
)

type scanMessageRequest struct {
	ID         string    `json:"id,omitempty"`
	OrgID      string    `json:"orgId,omitempty"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName,omitempty"`
	ChannelID  string    `json:"channelId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

type flagResponse struct {
	ID         string    `json:"id"`
	Rule       string    `json:"rule"`
	Category   string    `json:"category"`
	Severity   string    `json:"severity"`
	Trigger    string    `json:"trigger"`
	DetectedAt time.Time `json:"detectedAt"`
}

type scanMessageResponse struct {
	ID              string         `json:"id"`
	SenderID        string         `json:"senderId"`
	SenderName      string         `json:"senderName,omitempty"`
	ChannelID       string         `json:"channelId"`
	Content         string         `json:"content"`
	Timestamp       time.Time      `json:"timestamp"`
	IsBlocked       bool           `json:"isBlocked"`
	PIIRedacted     bool           `json:"piiRedacted"`
	RedactedContent string         `json:"redactedContent,omitempty"`
	ComplianceFlags []flagResponse `json:"complianceFlags,omitempty"`
}

func (h *Handler) handleScanMessage(w http.ResponseWriter, r *http.Request) {
	var req scanMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SenderID == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "senderId is required"))
		return
	}

	msg := h.pipeline.ProcessMessage(r.Context(), pipeline.Message{
		ID:         req.ID,
		OrgID:      req.OrgID,
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		ChannelID:  req.ChannelID,
		Content:    req.Content,
		Timestamp:  req.Timestamp,
	})

	writeJSON(w, http.StatusOK, scanMessageResponse{
		ID:              msg.ID,
		SenderID:        msg.SenderID,
		SenderName:      msg.SenderName,
		ChannelID:       msg.ChannelID,
		Content:         msg.Content,
		Timestamp:       msg.Timestamp,
		IsBlocked:       msg.IsBlocked,
		PIIRedacted:     msg.PIIRedacted,
		RedactedContent: msg.RedactedContent,
		ComplianceFlags: flagResponses(msg.Flags),
	})
}

type scanLedgerRequest struct {
	ID       string `json:"id,omitempty"`
	OrgID    string `json:"orgId,omitempty"`
	MemberID string `json:"memberId"`
	Title    string `json:"title"`
	Details  string `json:"details,omitempty"`
}

type scanLedgerResponse struct {
	ID              string         `json:"id"`
	MemberID        string         `json:"memberId"`
	PIIRedacted     bool           `json:"piiRedacted"`
	RedactedDetails string         `json:"redactedDetails,omitempty"`
	ComplianceFlags []flagResponse `json:"complianceFlags,omitempty"`
	CaseID          string         `json:"caseId,omitempty"`
}

func (h *Handler) handleScanLedgerItem(w http.ResponseWriter, r *http.Request) {
	var req scanLedgerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MemberID == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "memberId is required"))
		return
	}

	item := h.pipeline.ProcessLedgerItem(r.Context(), pipeline.LedgerItem{
		ID:       req.ID,
		OrgID:    req.OrgID,
		MemberID: req.MemberID,
		Title:    req.Title,
		Details:  req.Details,
	})

	writeJSON(w, http.StatusOK, scanLedgerResponse{
		ID:              item.ID,
		MemberID:        item.MemberID,
		PIIRedacted:     item.PIIRedacted,
		RedactedDetails: item.RedactedDetails,
		ComplianceFlags: flagResponses(item.Flags),
		CaseID:          item.CaseID,
	})
}

func flagResponses(flags []detect.Flag) []flagResponse {
	if len(flags) == 0 {
		return nil
	}
	out := make([]flagResponse, len(flags))
	for i, f := range flags {
		out[i] = flagResponse{
			ID:         f.ID,
			Rule:       f.Rule,
			Category:   string(f.Category),
			Severity:   string(f.Severity),
			Trigger:    f.Trigger,
			DetectedAt: f.DetectedAt,
		}
	}
	return out
}
