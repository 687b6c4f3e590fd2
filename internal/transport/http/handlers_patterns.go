package httptransport

import (
	"net/http"

	"safeguard/internal/audit"
	"safeguard/internal/detect"
	"safeguard/internal/platform/middleware"
)

type registerPatternRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Pattern     string `json:"pattern"`
}

func (h *Handler) handleRegisterPattern(w http.ResponseWriter, r *http.Request) {
	var req registerPatternRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.registry.Register(req.Name, req.Description,
		detect.Category(req.Category), detect.Severity(req.Severity), req.Pattern)
	if err != nil {
		writeError(w, err)
		return
	}

	// Pattern changes alter the safety posture; keep them in the trail.
	h.auditor.Emit(r.Context(), audit.Entry{
		OrgID:      middleware.GetOrgID(r.Context()),
		MemberID:   middleware.GetMemberID(r.Context()),
		Action:     audit.ActionPatternAdded,
		Resource:   "detection_rule",
		ResourceID: req.Name,
		Status:     audit.StatusAllowed,
		Metadata: map[string]string{
			"category": req.Category,
			"severity": req.Severity,
		},
	})

	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}
