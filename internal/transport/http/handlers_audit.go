package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"safeguard/internal/audit"
	"safeguard/internal/detect"
)

type auditEntryResponse struct {
	ID         string            `json:"id"`
	OrgID      string            `json:"orgId,omitempty"`
	MemberID   string            `json:"memberId"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     string            `json:"action"`
	Resource   string            `json:"resource"`
	ResourceID string            `json:"resourceId,omitempty"`
	Status     string            `json:"status"`
	RiskLevel  string            `json:"riskLevel,omitempty"`
	Flagged    bool              `json:"flagged"`
	Trigger    string            `json:"trigger,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (h *Handler) handleGetAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		MemberID:    q.Get("memberId"),
		Status:      audit.Status(q.Get("status")),
		RiskLevel:   detect.Severity(q.Get("riskLevel")),
		FlaggedOnly: q.Get("flagged") == "true",
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	entries, err := h.auditor.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = auditEntryResponse{
			ID:         e.ID,
			OrgID:      e.OrgID,
			MemberID:   e.MemberID,
			Timestamp:  e.Timestamp,
			Action:     e.Action,
			Resource:   e.Resource,
			ResourceID: e.ResourceID,
			Status:     string(e.Status),
			RiskLevel:  string(e.RiskLevel),
			Flagged:    e.Flagged,
			Trigger:    e.Trigger,
			Metadata:   e.Metadata,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

type statsResponse struct {
	TotalEvents   int `json:"totalEvents"`
	BlockedCount  int `json:"blockedCount"`
	FlaggedCount  int `json:"flaggedCount"`
	OpenCases     int `json:"openCases"`
	CriticalCases int `json:"criticalCases"`
}

func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	auditStats := h.auditor.Stats()
	caseStats := h.cases.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		TotalEvents:   auditStats.TotalEvents,
		BlockedCount:  auditStats.BlockedCount,
		FlaggedCount:  auditStats.FlaggedCount,
		OpenCases:     caseStats.OpenCases,
		CriticalCases: caseStats.CriticalCases,
	})
}
