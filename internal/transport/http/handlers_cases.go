package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"safeguard/internal/audit"
	"safeguard/internal/cases"
	"safeguard/internal/detect"
	"safeguard/internal/platform/middleware"
	dErrors "safeguard/pkg/domain-errors"
)

type caseActionResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Notes     string    `json:"notes,omitempty"`
}

type caseResponse struct {
	ID        string               `json:"id"`
	OrgID     string               `json:"orgId,omitempty"`
	MemberID  string               `json:"memberId"`
	Type      string               `json:"type"`
	Severity  string               `json:"severity"`
	Status    string               `json:"status"`
	Evidence  string               `json:"evidence,omitempty"`
	Actions   []caseActionResponse `json:"actions"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
	ClosedAt  *time.Time           `json:"closedAt,omitempty"`
}

func toCaseResponse(c *cases.Case) caseResponse {
	actions := make([]caseActionResponse, len(c.Actions))
	for i, a := range c.Actions {
		actions[i] = caseActionResponse{
			Timestamp: a.Timestamp,
			Actor:     a.Actor,
			Action:    a.Action,
			Notes:     a.Notes,
		}
	}
	return caseResponse{
		ID:        c.ID,
		OrgID:     c.OrgID,
		MemberID:  c.MemberID,
		Type:      c.Type,
		Severity:  string(c.Severity),
		Status:    string(c.Status),
		Evidence:  c.Evidence,
		Actions:   actions,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		ClosedAt:  c.ClosedAt,
	}
}

func (h *Handler) handleListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := cases.Filter{
		MemberID: q.Get("memberId"),
		Status:   cases.Status(q.Get("status")),
		Severity: detect.Severity(q.Get("severity")),
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	list := h.cases.List(r.Context(), filter)
	out := make([]caseResponse, len(list))
	for i, c := range list {
		out[i] = toCaseResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": out})
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.cases.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}

type createCaseRequest struct {
	OrgID    string `json:"orgId,omitempty"`
	MemberID string `json:"memberId"`
	Type     string `json:"type"`
	Evidence string `json:"evidence,omitempty"`
	Severity string `json:"severity"`
}

func (h *Handler) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	orgID := req.OrgID
	if orgID == "" {
		orgID = middleware.GetOrgID(r.Context())
	}

	c, err := h.cases.Open(r.Context(), orgID, req.MemberID, req.Type, req.Evidence, detect.Severity(req.Severity))
	if err != nil {
		writeError(w, err)
		return
	}

	// Manual openings are not flagged events, so they get their own entry.
	h.auditor.Emit(r.Context(), audit.Entry{
		OrgID:      orgID,
		MemberID:   req.MemberID,
		Action:     audit.ActionCaseOpened,
		Resource:   "case",
		ResourceID: c.ID,
		Status:     audit.StatusPending,
		RiskLevel:  c.Severity,
		Metadata: map[string]string{
			"opened_by": middleware.GetMemberID(r.Context()),
			"type":      req.Type,
		},
	})

	writeJSON(w, http.StatusCreated, toCaseResponse(c))
}

func (h *Handler) handleInvestigateCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.cases.Investigate(r.Context(), chi.URLParam(r, "id"), middleware.GetMemberID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}

type resolveCaseRequest struct {
	Resolution string `json:"resolution"`
	Notes      string `json:"notes,omitempty"`
}

func (h *Handler) handleResolveCase(w http.ResponseWriter, r *http.Request) {
	var req resolveCaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Resolution == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "resolution is required"))
		return
	}

	c, err := h.cases.Resolve(r.Context(), chi.URLParam(r, "id"), req.Resolution, middleware.GetMemberID(r.Context()), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}

type escalateCaseRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) handleEscalateCase(w http.ResponseWriter, r *http.Request) {
	var req escalateCaseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := h.cases.Escalate(r.Context(), chi.URLParam(r, "id"), req.Reason, middleware.GetMemberID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseResponse(c))
}
