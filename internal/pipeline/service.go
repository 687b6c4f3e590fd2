// Package pipeline orchestrates detection, redaction, policy, and the
// audit write for one inbound item.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"safeguard/internal/audit"
	"safeguard/internal/cases"
	"safeguard/internal/detect"
	"safeguard/internal/org"
	"safeguard/internal/platform/metrics"
	"safeguard/internal/platform/middleware"
	"safeguard/internal/policy"
	"safeguard/internal/redact"
)

// Service runs the scan pipeline. All steps are synchronous and in-memory
// except the durable audit write, which the publisher isolates; processing
// never fails, so callers get a decision for every input.
type Service struct {
	detector *detect.Detector
	redactor *redact.Redactor
	settings org.Provider
	auditor  *audit.Publisher
	cases    *cases.Manager
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService constructs the pipeline over its collaborators.
func NewService(
	detector *detect.Detector,
	redactor *redact.Redactor,
	settings org.Provider,
	auditor *audit.Publisher,
	caseManager *cases.Manager,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	svc := &Service{
		detector: detector,
		redactor: redactor,
		settings: settings,
		auditor:  auditor,
		cases:    caseManager,
		logger:   logger,
		tracer:   otel.Tracer("safeguard/pipeline"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ProcessMessage scans one chat message: detect, redact if PII was found,
// decide, and append exactly one audit entry when anything flagged. The
// decision is final before the durable write is even attempted.
func (s *Service) ProcessMessage(ctx context.Context, msg Message) Message {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.ProcessMessage",
		trace.WithAttributes(attribute.String("channel_id", msg.ChannelID)),
	)
	defer span.End()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	flags := s.scan(ctx, msg.Content)
	msg.Flags = flags
	s.countScan("chat_message", flags, start)

	if len(flags) == 0 {
		span.SetAttributes(attribute.String("decision", string(policy.DecisionAllow)))
		return msg
	}

	if detect.HasPII(flags) {
		msg.PIIRedacted = true
		msg.RedactedContent = s.redactor.Redact(msg.Content, flags)
	}

	settings := s.settings.Settings(ctx, msg.OrgID)
	decision := policy.Evaluate(flags, settings.BlockOnPII)
	msg.IsBlocked = decision == policy.DecisionBlock
	span.SetAttributes(
		attribute.String("decision", string(decision)),
		attribute.Int("flag_count", len(flags)),
	)
	if s.metrics != nil {
		s.metrics.IncrementDecisions(string(decision))
	}

	s.emitAudit(ctx, msg.OrgID, msg.SenderID, audit.ActionMessageScanned,
		"chat_message", msg.ID, decision, flags, map[string]string{
			"channel_id": msg.ChannelID,
		})

	if detect.Worst(flags) == detect.SeverityCritical {
		s.openCase(ctx, msg.OrgID, msg.SenderID, "content_violation", s.evidence(msg.Content, msg.RedactedContent), flags)
	}
	return msg
}

// ProcessLedgerItem scans a ledger item's free text. The item is never
// blocked; a CRITICAL finding opens a case for human review instead.
func (s *Service) ProcessLedgerItem(ctx context.Context, item LedgerItem) LedgerItem {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "pipeline.ProcessLedgerItem")
	defer span.End()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	text := item.Title
	if item.Details != "" {
		text = strings.TrimSpace(text + "\n" + item.Details)
	}

	flags := s.scan(ctx, text)
	item.Flags = flags
	s.countScan("ledger_item", flags, start)

	if len(flags) == 0 {
		return item
	}

	if detect.HasPII(flags) {
		item.PIIRedacted = true
		item.RedactedDetails = s.redactor.Redact(text, flags)
	}

	settings := s.settings.Settings(ctx, item.OrgID)
	decision := policy.Evaluate(flags, settings.BlockOnPII)
	if s.metrics != nil {
		s.metrics.IncrementDecisions(string(decision))
	}

	s.emitAudit(ctx, item.OrgID, item.MemberID, audit.ActionLedgerScanned,
		"ledger_item", item.ID, decision, flags, nil)

	if detect.Worst(flags) == detect.SeverityCritical {
		if c := s.openCase(ctx, item.OrgID, item.MemberID, "ledger_violation", s.evidence(text, item.RedactedDetails), flags); c != nil {
			item.CaseID = c.ID
		}
	}
	return item
}

// scan runs the PII and content passes concurrently and unions the flags
// in deterministic order: PII findings first, then content findings, each
// in rule evaluation order.
func (s *Service) scan(ctx context.Context, text string) []detect.Flag {
	var piiFlags, contentFlags []detect.Flag

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		piiFlags = s.detector.DetectCategory(text, detect.CategoryPII)
		return nil
	})
	g.Go(func() error {
		contentFlags = s.detector.DetectCategory(text, detect.CategoryContent)
		return nil
	})
	// Detection never returns an error; Wait only orders the writes.
	_ = g.Wait()

	return append(piiFlags, contentFlags...)
}

// emitAudit appends the single audit entry for a flagged event. Publisher
// failures stay inside the publisher; the pipeline result is already final.
func (s *Service) emitAudit(ctx context.Context, orgID, memberID, action, resource, resourceID string, decision policy.Decision, flags []detect.Flag, metadata map[string]string) {
	if metadata == nil {
		metadata = make(map[string]string, 3)
	}
	if client := middleware.GetClientMetadata(ctx); client.IP != "" {
		metadata["client_ip"] = client.IP
		if client.Browser != "" {
			metadata["client_device"] = client.Browser + "/" + client.OS + "/" + client.Platform
		}
	}

	s.auditor.Emit(ctx, audit.Entry{
		OrgID:      orgID,
		MemberID:   memberID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Status:     statusFor(decision),
		RiskLevel:  detect.Worst(flags),
		Flagged:    true,
		Trigger:    triggerText(flags),
		Metadata:   metadata,
	})
}

// openCase opens (or escalates, for CRITICAL) a compliance case. Evidence
// is the redacted text when redaction happened, so case records never hold
// raw PII.
func (s *Service) openCase(ctx context.Context, orgID, memberID, caseType, evidence string, flags []detect.Flag) *cases.Case {
	c, err := s.cases.Open(ctx, orgID, memberID, caseType, evidence, detect.Worst(flags))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to open case",
			"error", err,
			"member_id", memberID,
		)
		return nil
	}
	return c
}

func (s *Service) evidence(original, redacted string) string {
	if redacted != "" {
		return redacted
	}
	return original
}

func (s *Service) countScan(resource string, flags []detect.Flag, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncrementItemsScanned(resource)
	for _, f := range flags {
		s.metrics.IncrementFlagsDetected(string(f.Category), string(f.Severity))
	}
	s.metrics.ObserveScanLatency(time.Since(start))
}

func statusFor(decision policy.Decision) audit.Status {
	switch decision {
	case policy.DecisionBlock:
		return audit.StatusBlocked
	case policy.DecisionFlag:
		return audit.StatusFlagged
	default:
		return audit.StatusAllowed
	}
}

// triggerText concatenates flag triggers for the audit row.
func triggerText(flags []detect.Flag) string {
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = f.Trigger
	}
	return strings.Join(parts, "; ")
}
