package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"safeguard/internal/audit"
	"safeguard/internal/cases"
	"safeguard/internal/consent/service"
	"safeguard/internal/consent/store"
	"safeguard/internal/detect"
	jwttoken "safeguard/internal/jwt_token"
	"safeguard/internal/org"
	"safeguard/internal/pipeline"
	"safeguard/internal/platform/health"
	"safeguard/internal/redact"
)

type RouterSuite struct {
	suite.Suite
	router http.Handler
	tokens *jwttoken.Service
	window *audit.MemoryStore
}

func (s *RouterSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := detect.NewRegistry()
	s.window = audit.NewMemoryStore(100)
	auditor := audit.NewPublisher(s.window, log)
	settings := org.NewStaticProvider(org.Settings{BlockOnPII: true, RequireConsent: true})
	caseManager := cases.NewManager(log)
	consentSvc := service.NewService(store.New(), auditor, settings, log)
	pipelineSvc := pipeline.NewService(
		detect.NewDetector(registry),
		redact.NewRedactor(registry),
		settings,
		auditor,
		caseManager,
		log,
	)
	s.tokens = jwttoken.NewService("test-key", time.Minute)

	h := NewHandler(pipelineSvc, auditor, caseManager, consentSvc, registry, log, nil)
	s.router = NewRouter(h, s.tokens, health.New())
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *RouterSuite) TestScanMessageBlocksSSN() {
	rec := s.do(http.MethodPost, "/v1/messages/scan", "", map[string]any{
		"senderId":  "member-1",
		"channelId": "channel-1",
		"content":   "My SSN is 123-45-6789",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)

	body := s.decode(rec)
	assert.Equal(s.T(), true, body["isBlocked"])
	assert.Equal(s.T(), true, body["piiRedacted"])
	assert.Equal(s.T(), "My SSN is XXX-XX-XXXX", body["redactedContent"])
	assert.NotEmpty(s.T(), body["complianceFlags"])
}

func (s *RouterSuite) TestScanMessageRequiresSender() {
	rec := s.do(http.MethodPost, "/v1/messages/scan", "", map[string]any{
		"content": "hello",
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestScanLedgerItem() {
	rec := s.do(http.MethodPost, "/v1/ledger/scan", "", map[string]any{
		"memberId": "member-1",
		"title":    "Jersey order",
		"details":  "card 4111-1111-1111-1111",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)

	body := s.decode(rec)
	assert.Equal(s.T(), true, body["piiRedacted"])
	assert.NotEmpty(s.T(), body["caseId"])
}

func (s *RouterSuite) TestAuditLogRequiresToken() {
	rec := s.do(http.MethodGet, "/v1/audit", "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/v1/audit", "garbage", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestAuditLogWithToken() {
	s.do(http.MethodPost, "/v1/messages/scan", "", map[string]any{
		"senderId": "member-1",
		"content":  "mail me at a@b.co",
	})

	token, err := s.tokens.Generate("analyst-1", "org-1", "member")
	require.NoError(s.T(), err)

	rec := s.do(http.MethodGet, "/v1/audit?flagged=true", token, nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	body := s.decode(rec)
	entries, ok := body["entries"].([]any)
	require.True(s.T(), ok)
	assert.Len(s.T(), entries, 1)
}

func (s *RouterSuite) TestStats() {
	s.do(http.MethodPost, "/v1/messages/scan", "", map[string]any{
		"senderId": "member-1",
		"content":  "ssn 123-45-6789",
	})

	token, err := s.tokens.Generate("analyst-1", "org-1", "member")
	require.NoError(s.T(), err)

	rec := s.do(http.MethodGet, "/v1/stats", token, nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	body := s.decode(rec)
	assert.EqualValues(s.T(), 1, body["totalEvents"])
	assert.EqualValues(s.T(), 1, body["blockedCount"])
}

func (s *RouterSuite) TestPatternRegistrationRequiresAdmin() {
	pattern := map[string]any{
		"name":     "student_id",
		"category": "pii",
		"severity": "high",
		"pattern":  `\bSID-\d{6}\b`,
	}

	member, err := s.tokens.Generate("analyst-1", "org-1", "member")
	require.NoError(s.T(), err)
	rec := s.do(http.MethodPost, "/v1/patterns", member, pattern)
	assert.Equal(s.T(), http.StatusForbidden, rec.Code)

	admin, err := s.tokens.Generate("root-1", "org-1", "admin")
	require.NoError(s.T(), err)
	rec = s.do(http.MethodPost, "/v1/patterns", admin, pattern)
	assert.Equal(s.T(), http.StatusCreated, rec.Code)

	// Conflict on re-registration.
	rec = s.do(http.MethodPost, "/v1/patterns", admin, pattern)
	assert.Equal(s.T(), http.StatusConflict, rec.Code)
}

func (s *RouterSuite) TestCaseLifecycleOverHTTP() {
	// A critical scan opens an escalated case.
	s.do(http.MethodPost, "/v1/messages/scan", "", map[string]any{
		"senderId": "member-1",
		"content":  "thinking about suicide",
	})

	token, err := s.tokens.Generate("analyst-1", "org-1", "member")
	require.NoError(s.T(), err)

	rec := s.do(http.MethodGet, "/v1/cases", token, nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	list, ok := s.decode(rec)["cases"].([]any)
	require.True(s.T(), ok)
	require.Len(s.T(), list, 1)
	caseID := list[0].(map[string]any)["id"].(string)

	rec = s.do(http.MethodPost, "/v1/cases/"+caseID+"/resolve", token, map[string]any{
		"resolution": "guardian_contacted",
		"resolvedBy": "analyst-1",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "resolved", s.decode(rec)["status"])

	rec = s.do(http.MethodGet, "/v1/cases/does-not-exist", token, nil)
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestConsentFlowOverHTTP() {
	check := map[string]any{
		"subjectId":  "student-1",
		"role":       "student",
		"gradeLevel": 3,
		"feature":    "chat",
	}

	rec := s.do(http.MethodPost, "/v1/consents/check", "", check)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	body := s.decode(rec)
	assert.Equal(s.T(), false, body["allowed"])
	assert.NotEmpty(s.T(), body["reason"])

	rec = s.do(http.MethodPost, "/v1/consents/grant", "", map[string]any{
		"studentId":      "student-1",
		"guardianId":     "guardian-1",
		"consentType":    "limited",
		"dataCategories": []string{"communication"},
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/v1/consents/check", "", check)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), true, s.decode(rec)["allowed"])

	rec = s.do(http.MethodPost, "/v1/consents/revoke", "", map[string]any{
		"studentId":      "student-1",
		"dataCategories": []string{"communication"},
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.EqualValues(s.T(), 1, s.decode(rec)["revoked"])

	rec = s.do(http.MethodPost, "/v1/consents/check", "", check)
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), false, s.decode(rec)["allowed"])
}

func (s *RouterSuite) TestHealthEndpoints() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(s.T(), http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestMalformedBodyIsBadRequest() {
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/scan", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}
