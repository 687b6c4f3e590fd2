package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the compliance engine.
type Metrics struct {
	ItemsScanned  *prometheus.CounterVec
	FlagsDetected *prometheus.CounterVec
	Decisions     *prometheus.CounterVec
	ScanLatency   prometheus.Histogram

	AuditEntriesWritten prometheus.Counter
	AuditWriteFailures  prometheus.Counter
	AuditEventsDropped  prometheus.Counter

	CasesOpened *prometheus.CounterVec
	OpenCases   prometheus.Gauge

	ConsentsGranted    *prometheus.CounterVec
	ConsentsRevoked    *prometheus.CounterVec
	ConsentCheckPassed *prometheus.CounterVec
	ConsentCheckFailed *prometheus.CounterVec

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ItemsScanned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_items_scanned_total",
			Help: "Total number of items scanned, labeled by resource type",
		}, []string{"resource"}),
		FlagsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_flags_detected_total",
			Help: "Total number of compliance flags raised, labeled by category and severity",
		}, []string{"category", "severity"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_decisions_total",
			Help: "Total number of policy decisions, labeled by outcome",
		}, []string{"decision"}),
		ScanLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "safeguard_scan_latency_seconds",
			Help:    "Latency of full pipeline scans in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		AuditEntriesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeguard_audit_entries_written_total",
			Help: "Total number of audit entries appended to the fast window",
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeguard_audit_write_failures_total",
			Help: "Total number of failed durable audit writes",
		}),
		AuditEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "safeguard_audit_events_dropped_total",
			Help: "Total number of audit events dropped because the durable queue was full",
		}),
		CasesOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_cases_opened_total",
			Help: "Total number of compliance cases opened, labeled by severity",
		}, []string{"severity"}),
		OpenCases: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "safeguard_open_cases",
			Help: "Current number of cases not yet resolved",
		}),
		ConsentsGranted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_consents_granted_total",
			Help: "Total number of consents granted, labeled by category",
		}, []string{"category"}),
		ConsentsRevoked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_consents_revoked_total",
			Help: "Total number of consents revoked, labeled by category",
		}, []string{"category"}),
		ConsentCheckPassed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_consent_checks_passed_total",
			Help: "Total number of feature access checks that passed, labeled by category",
		}, []string{"category"}),
		ConsentCheckFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "safeguard_consent_checks_failed_total",
			Help: "Total number of feature access checks that failed, labeled by category",
		}, []string{"category"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safeguard_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// IncrementItemsScanned increments the scanned counter for a resource type.
func (m *Metrics) IncrementItemsScanned(resource string) {
	m.ItemsScanned.WithLabelValues(resource).Inc()
}

// IncrementFlagsDetected increments the flag counter with category and severity labels.
func (m *Metrics) IncrementFlagsDetected(category, severity string) {
	m.FlagsDetected.WithLabelValues(category, severity).Inc()
}

// IncrementDecisions increments the decision counter for an outcome.
func (m *Metrics) IncrementDecisions(decision string) {
	m.Decisions.WithLabelValues(decision).Inc()
}

// ObserveScanLatency records the duration of one pipeline scan.
func (m *Metrics) ObserveScanLatency(d time.Duration) {
	m.ScanLatency.Observe(d.Seconds())
}

func (m *Metrics) IncrementAuditEntriesWritten() { m.AuditEntriesWritten.Inc() }
func (m *Metrics) IncrementAuditWriteFailures()  { m.AuditWriteFailures.Inc() }
func (m *Metrics) IncrementAuditEventsDropped()  { m.AuditEventsDropped.Inc() }

// IncrementCasesOpened increments the case counter with a severity label.
func (m *Metrics) IncrementCasesOpened(severity string) {
	m.CasesOpened.WithLabelValues(severity).Inc()
}

func (m *Metrics) IncrementOpenCases() { m.OpenCases.Inc() }
func (m *Metrics) DecrementOpenCases() { m.OpenCases.Dec() }

func (m *Metrics) IncrementConsentsGranted(category string) {
	m.ConsentsGranted.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementConsentsRevoked(category string) {
	m.ConsentsRevoked.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementConsentCheckPassed(category string) {
	m.ConsentCheckPassed.WithLabelValues(category).Inc()
}

func (m *Metrics) IncrementConsentCheckFailed(category string) {
	m.ConsentCheckFailed.WithLabelValues(category).Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
