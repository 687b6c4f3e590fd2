package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safeguard/internal/audit"
	"safeguard/internal/cases"
	"safeguard/internal/consent/service"
	"safeguard/internal/detect"
	"safeguard/internal/pipeline"
	"safeguard/internal/platform/health"
	"safeguard/internal/platform/metrics"
	"safeguard/internal/platform/middleware"
)

// Handler is the thin HTTP layer. It delegates to domain services without
// embedding business logic so transport concerns remain isolated.
type Handler struct {
	pipeline *pipeline.Service
	auditor  *audit.Publisher
	cases    *cases.Manager
	consent  *service.Service
	registry *detect.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewHandler constructs the transport handler over the domain services.
func NewHandler(
	p *pipeline.Service,
	auditor *audit.Publisher,
	caseManager *cases.Manager,
	consent *service.Service,
	registry *detect.Registry,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		pipeline: p,
		auditor:  auditor,
		cases:    caseManager,
		consent:  consent,
		registry: registry,
		logger:   logger,
		metrics:  m,
	}
}

// NewRouter wires all endpoints with middleware. Scan and consent-check
// endpoints are open to internal callers; the dashboard query surface and
// administrative operations require a bearer token.
func NewRouter(h *Handler, validator middleware.TokenValidator, healthHandler *health.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Metadata)
	r.Use(middleware.Latency(h.metrics))

	healthHandler.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// Caller contracts: invoked inline from the chat and ledger paths.
		r.Post("/messages/scan", h.handleScanMessage)
		r.Post("/ledger/scan", h.handleScanLedgerItem)

		// Consent gating, invoked before a gated feature runs.
		r.Post("/consents/check", h.handleCheckFeatureAccess)
		r.Post("/consents/grant", h.handleGrantConsent)
		r.Post("/consents/revoke", h.handleRevokeConsent)

		// Dashboard query surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, h.logger))

			r.Get("/audit", h.handleGetAuditLog)
			r.Get("/stats", h.handleGetStats)

			r.Get("/cases", h.handleListCases)
			r.Get("/cases/{id}", h.handleGetCase)
			r.Post("/cases", h.handleCreateCase)
			r.Post("/cases/{id}/investigate", h.handleInvestigateCase)
			r.Post("/cases/{id}/resolve", h.handleResolveCase)
			r.Post("/cases/{id}/escalate", h.handleEscalateCase)

			// Custom pattern registration is administrative.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(h.logger))
				r.Post("/patterns", h.handleRegisterPattern)
			})
		})
	})

	return r
}
