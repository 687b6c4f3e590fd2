package httptransport

import (
	"net/http"

	"safeguard/internal/consent/models"
	dErrors "safeguard/pkg/domain-errors"
)

type grantConsentRequest struct {
	OrgID       string   `json:"orgId,omitempty"`
	StudentID   string   `json:"studentId"`
	GuardianID  string   `json:"guardianId"`
	ConsentType string   `json:"consentType"`
	Categories  []string `json:"dataCategories"`
}

type consentRecordResponse struct {
	ID         string   `json:"id"`
	StudentID  string   `json:"studentId"`
	GuardianID string   `json:"guardianId,omitempty"`
	Type       string   `json:"consentType"`
	Categories []string `json:"dataCategories"`
	Status     string   `json:"status"`
}

func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	var req grantConsentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	record, err := h.consent.Grant(r.Context(), req.OrgID, req.StudentID, req.GuardianID,
		models.Type(req.ConsentType), toCategories(req.Categories))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, consentRecordResponse{
		ID:         record.ID,
		StudentID:  record.StudentID,
		GuardianID: record.GuardianID,
		Type:       string(record.Type),
		Categories: fromCategories(record.Categories),
		Status:     string(record.Status),
	})
}

type revokeConsentRequest struct {
	OrgID      string   `json:"orgId,omitempty"`
	StudentID  string   `json:"studentId"`
	Categories []string `json:"dataCategories,omitempty"`
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	var req revokeConsentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	revoked, err := h.consent.Revoke(r.Context(), req.OrgID, req.StudentID, toCategories(req.Categories))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"revoked": revoked})
}

type checkAccessRequest struct {
	OrgID      string `json:"orgId,omitempty"`
	SubjectID  string `json:"subjectId"`
	Role       string `json:"role"`
	GradeLevel int    `json:"gradeLevel"`
	Feature    string `json:"feature"`
}

type checkAccessResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) handleCheckFeatureAccess(w http.ResponseWriter, r *http.Request) {
	var req checkAccessRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SubjectID == "" || req.Feature == "" {
		writeError(w, dErrors.New(dErrors.CodeInvalidInput, "subjectId and feature are required"))
		return
	}

	access, err := h.consent.CheckFeatureAccess(r.Context(), req.OrgID, models.Subject{
		ID:         req.SubjectID,
		Role:       req.Role,
		GradeLevel: req.GradeLevel,
	}, req.Feature)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkAccessResponse{
		Allowed: access.Allowed,
		Reason:  access.Reason,
	})
}

func toCategories(names []string) []models.Category {
	out := make([]models.Category, len(names))
	for i, n := range names {
		out[i] = models.Category(n)
	}
	return out
}

func fromCategories(categories []models.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}
